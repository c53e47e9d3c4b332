package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/philippgille/chromem-go"

	"github.com/kintoreai/kintore/internal/scoring"
)

const defaultRetrievalK = 3

// ChromemStore implements Store using chromem-go for vector storage with
// hybrid (semantic + keyword) ranking. A single collection holds all
// sessions' records; scoping happens via the session_id metadata filter.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embed      EmbedFunc

	mu         sync.RWMutex
	records    map[string]Record
	persistDir string // empty for in-memory
}

// NewChromemStore creates a persistent ChromemStore under persistDir.
func NewChromemStore(persistDir string, embed EmbedFunc) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(persistDir, false)
	if err != nil {
		return nil, fmt.Errorf("create persistent DB: %w", err)
	}

	s, err := newStore(db, embed)
	if err != nil {
		return nil, err
	}
	s.persistDir = persistDir

	// The record index lives in a JSON file next to the chromem data;
	// a missing file just means a fresh store.
	if err := s.loadIndex(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load record index: %w", err)
	}
	return s, nil
}

// NewChromemStoreInMemory creates an in-memory ChromemStore, used in
// tests and single-shot tooling.
func NewChromemStoreInMemory(embed EmbedFunc) (*ChromemStore, error) {
	return newStore(chromem.NewDB(), embed)
}

func newStore(db *chromem.DB, embed EmbedFunc) (*ChromemStore, error) {
	col, err := db.GetOrCreateCollection("exchanges", nil, chromem.EmbeddingFunc(embed))
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embed:      embed,
		records:    make(map[string]Record),
	}, nil
}

func (s *ChromemStore) Add(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.Category == "" {
		rec.Category = scoring.CategoryGeneral
	}

	doc := chromem.Document{
		ID:       rec.ID,
		Content:  rec.Text,
		Metadata: metadataFromRecord(rec),
	}
	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return Record{}, fmt.Errorf("%w: add document: %v", ErrUnavailable, err)
	}

	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()

	s.saveIndex()
	return rec, nil
}

func (s *ChromemStore) Search(ctx context.Context, query string, k int, sessionID string) ([]SearchResult, error) {
	if k <= 0 {
		k = defaultRetrievalK
	}

	// chromem rejects nResults above the matching document count.
	if owned := s.Count(sessionID); owned < k {
		k = owned
	}
	if k == 0 {
		return nil, nil
	}

	where := map[string]string{"session_id": sessionID}
	results, err := s.collection.Query(ctx, query, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: query collection: %v", ErrUnavailable, err)
	}

	queryWords := extractWords(query)
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		rec := s.recordFromResult(r)
		kw := keywordScore(queryWords, r.Content)
		out = append(out, SearchResult{
			Record:        rec,
			SemanticScore: r.Similarity,
			KeywordScore:  kw,
			CombinedScore: 0.7*r.Similarity + 0.3*kw,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})
	return out, nil
}

func (s *ChromemStore) Export(ctx context.Context, sessionID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]Record, 0)
	for _, rec := range s.records {
		if rec.SessionID == sessionID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})
	return recs, nil
}

// Import restores exported records, preserving ids and metadata.
// Records already present are skipped, so resurrecting a session whose
// records survived in the collection does not duplicate them.
func (s *ChromemStore) Import(ctx context.Context, recs []Record) error {
	for _, rec := range recs {
		s.mu.RLock()
		_, exists := s.records[rec.ID]
		s.mu.RUnlock()
		if exists {
			continue
		}
		if _, err := s.Add(ctx, rec); err != nil {
			return fmt.Errorf("import record %s: %w", rec.ID, err)
		}
	}
	return nil
}

func (s *ChromemStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	ids := make([]string, 0)
	for id, rec := range s.records {
		if rec.SessionID == sessionID {
			ids = append(ids, id)
			delete(s.records, id)
		}
	}
	s.mu.Unlock()

	if len(ids) > 0 {
		if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
			return fmt.Errorf("%w: clear session %s: %v", ErrUnavailable, sessionID, err)
		}
	}
	s.saveIndex()
	return nil
}

func (s *ChromemStore) Count(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sessionID == "" {
		return len(s.records)
	}
	n := 0
	for _, rec := range s.records {
		if rec.SessionID == sessionID {
			n++
		}
	}
	return n
}

// Ping probes the embedding backend with a short text. Used by the
// session registry to gate readiness.
func (s *ChromemStore) Ping(ctx context.Context) error {
	if _, err := s.embed(ctx, "ping"); err != nil {
		return fmt.Errorf("%w: embed probe: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *ChromemStore) Close() error {
	return nil
}

// Index persistence: a JSON file alongside the chromem data.

func (s *ChromemStore) indexPath() string {
	if s.persistDir == "" {
		return ""
	}
	return filepath.Join(s.persistDir, "records_index.json")
}

func (s *ChromemStore) saveIndex() {
	path := s.indexPath()
	if path == "" {
		return
	}

	s.mu.RLock()
	data, err := json.Marshal(s.records)
	s.mu.RUnlock()

	if err != nil {
		return
	}
	os.WriteFile(path, data, 0644)
}

func (s *ChromemStore) loadIndex() error {
	path := s.indexPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, &s.records)
}

func (s *ChromemStore) recordFromResult(r chromem.Result) Record {
	s.mu.RLock()
	if rec, ok := s.records[r.ID]; ok {
		s.mu.RUnlock()
		return rec
	}
	s.mu.RUnlock()
	return recordFromMetadata(r.ID, r.Content, r.Metadata)
}

func metadataFromRecord(rec Record) map[string]string {
	return map[string]string{
		"session_id": rec.SessionID,
		"category":   string(rec.Category),
		"score":      strconv.FormatFloat(rec.Score, 'f', -1, 64),
		"timestamp":  rec.Timestamp.Format(time.RFC3339),
	}
}

func recordFromMetadata(id, content string, md map[string]string) Record {
	score, _ := strconv.ParseFloat(md["score"], 64)
	ts, _ := time.Parse(time.RFC3339, md["timestamp"])
	return Record{
		ID:        id,
		Text:      content,
		Score:     score,
		Category:  scoring.Category(md["category"]),
		Timestamp: ts,
		SessionID: md["session_id"],
	}
}

// Keyword scoring helpers.

// extractWords returns lowercased words from text with length >= 3.
func extractWords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, w := range fields {
		if len(w) >= 3 {
			words = append(words, w)
		}
	}
	return words
}

// keywordScore computes the fraction of query words found in the content.
func keywordScore(queryWords []string, content string) float32 {
	if len(queryWords) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matches := 0
	for _, w := range queryWords {
		if strings.Contains(lower, w) {
			matches++
		}
	}
	return float32(matches) / float32(len(queryWords))
}
