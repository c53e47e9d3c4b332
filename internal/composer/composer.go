// Package composer merges short-term conversation history with retrieved
// long-term memories into a single prompt context block.
package composer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kintoreai/kintore/internal/buffer"
	"github.com/kintoreai/kintore/internal/memory"
)

const (
	// RecentTurns is how many buffered exchanges are rendered verbatim.
	// Callers pass a snapshot of this many turns taken under the
	// session's read lock.
	RecentTurns = 3
	// retrievalK is the long-term retrieval width.
	retrievalK = 3
	// previewLen bounds each retrieved record's body so prompt size
	// stays predictable.
	previewLen = 300
)

// Composer builds the context string for one session. It only reads:
// composition has no side effects on the buffer or the store.
type Composer struct {
	store     memory.Store
	sessionID string
}

// New creates a Composer scoped to sessionID.
func New(store memory.Store, sessionID string) *Composer {
	return &Composer{store: store, sessionID: sessionID}
}

// Compose renders recent turns and relevant long-term memories for the
// current message. A failing long-term query degrades the output to the
// short-term block only; the retrieval error is returned alongside the
// (still valid) context so the caller can log it. Compose never returns
// an empty-context hard failure.
func (c *Composer) Compose(ctx context.Context, current string, recent []buffer.Turn) (string, error) {
	var parts []string

	if len(recent) > 0 {
		parts = append(parts, "RECENT CONVERSATION CONTEXT:")
		for _, t := range recent {
			parts = append(parts, "User: "+t.User)
			parts = append(parts, "Trainer: "+t.Assistant)
		}
		parts = append(parts, "")
	}

	results, err := c.store.Search(ctx, current, retrievalK, c.sessionID)
	if err != nil {
		return strings.Join(parts, "\n"), fmt.Errorf("long-term retrieval skipped: %w", err)
	}

	if len(results) > 0 {
		parts = append(parts, "RELEVANT PAST CONVERSATIONS:")
		for i, r := range results {
			rec := r.Record
			parts = append(parts, fmt.Sprintf("%d. [%s] (%s) Score: %.2f",
				i+1,
				strings.ToUpper(string(rec.Category)),
				rec.Timestamp.Format("2006-01-02"),
				rec.Score,
			))
			parts = append(parts, preview(rec.Text))
			parts = append(parts, "")
		}
	}

	return strings.Join(parts, "\n"), nil
}

func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	// Back off to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
