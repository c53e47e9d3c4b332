package memory

import (
	"context"
	"errors"
	"time"

	"github.com/kintoreai/kintore/internal/scoring"
)

// ErrUnavailable indicates the embedding/vector backend is unreachable.
// Context composition degrades to short-term-only when it sees this.
var ErrUnavailable = errors.New("memory store unavailable")

// Record is one long-term memory: a high-importance exchange. Immutable
// once created; there is no update path, only bulk export and clear.
type Record struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"` // "User: …\nTrainer: …"
	Score     float64          `json:"score"`
	Category  scoring.Category `json:"category"`
	Timestamp time.Time        `json:"timestamp"`
	SessionID string           `json:"session_id"`
}

// ExchangeText renders one exchange the way records store it.
func ExchangeText(userMsg, assistMsg string) string {
	return "User: " + userMsg + "\nTrainer: " + assistMsg
}

// SearchResult is a record with its hybrid retrieval scores.
type SearchResult struct {
	Record        Record
	SemanticScore float32
	KeywordScore  float32
	CombinedScore float32
}

// Store is the interface for the long-term memory store. All retrieval
// is scoped to an owning session key: cross-session leakage is a
// correctness violation.
type Store interface {
	Add(ctx context.Context, rec Record) (Record, error)
	Search(ctx context.Context, query string, k int, sessionID string) ([]SearchResult, error)
	Export(ctx context.Context, sessionID string) ([]Record, error)
	Import(ctx context.Context, recs []Record) error
	Clear(ctx context.Context, sessionID string) error
	Count(sessionID string) int
	Ping(ctx context.Context) error
	Close() error
}
