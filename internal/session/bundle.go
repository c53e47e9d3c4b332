// Package session owns the per-session bundle of profile, short-term
// buffer and long-term memory handle, and the registry that maps
// session ids to validated, lazily-reconstructed bundles.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kintoreai/kintore/internal/buffer"
	"github.com/kintoreai/kintore/internal/memory"
	"github.com/kintoreai/kintore/internal/profile"
	"github.com/kintoreai/kintore/internal/scoring"
	"github.com/kintoreai/kintore/internal/snapshot"
)

// ErrNotReady indicates the session's memory backend is still
// initializing. Callers retry after a short delay.
var ErrNotReady = errors.New("session memory still initializing")

// ErrSessionInvalid indicates the session is unknown or its bundle
// could not be rebuilt.
var ErrSessionInvalid = errors.New("session invalid")

// State is the bundle readiness state. A bundle serves traffic only in
// StateReady; StateInvalid bundles are discarded and rebuilt by the
// registry on the next access.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Bundle is the registry's unit of ownership: one session's profile,
// conversation buffer and long-term memory handle. Mutations take the
// write lock; reads share the read lock.
type Bundle struct {
	ID        string
	CreatedAt time.Time

	mu      sync.RWMutex
	state   State
	profile *profile.Profile
	buf     *buffer.Buffer
	mem     memory.Store
}

func newBundle(id string, mem memory.Store) *Bundle {
	return &Bundle{
		ID:        id,
		CreatedAt: time.Now(),
		buf:       buffer.New(buffer.DefaultSize),
		mem:       mem,
	}
}

// State returns the current readiness state.
func (b *Bundle) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Ready is the single readiness predicate.
func (b *Bundle) Ready() bool {
	return b.State() == StateReady
}

func (b *Bundle) markReady() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateUninitialized {
		b.state = StateReady
	}
}

func (b *Bundle) invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateInvalid
}

// initialize probes the memory backend and flips the bundle Ready, or
// Invalid when the backend is unreachable. Runs in the background so
// construction never blocks a request handler.
func (b *Bundle) initialize() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := b.mem.Ping(ctx); err != nil {
		b.invalidate()
		return
	}
	b.markReady()
}

// Profile returns a copy of the session's profile, or false when none
// has been created yet.
func (b *Bundle) Profile() (profile.Profile, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.profile == nil {
		return profile.Profile{}, false
	}
	return *b.profile, true
}

// UpsertProfile creates the profile from data, or applies data as a
// whitelisted partial update when one already exists.
func (b *Bundle) UpsertProfile(data map[string]any) (profile.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.profile == nil {
		p, err := profile.New(data)
		if err != nil {
			return profile.Profile{}, err
		}
		b.profile = p
		return *p, nil
	}

	if err := b.profile.Update(data); err != nil {
		return profile.Profile{}, err
	}
	return *b.profile, nil
}

// RecentTurns returns the last k buffered turns in order.
func (b *Bundle) RecentTurns(k int) []buffer.Turn {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.buf.Recent(k)
}

// BufferLen returns the number of buffered turns.
func (b *Bundle) BufferLen() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.buf.Len()
}

// ClearBuffer empties the short-term buffer. Long-term memory is
// independently owned and untouched.
func (b *Bundle) ClearBuffer() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Clear()
}

// Memory exposes the long-term store handle for scoped retrieval.
func (b *Bundle) Memory() memory.Store {
	return b.mem
}

// RecordExchange appends the completed exchange to the buffer, scores
// it, and persists it into long-term memory when it crosses the
// retention threshold. Returns the created record, if any. Buffer and
// store writes happen under one critical section so concurrent chat
// turns cannot interleave or double-count.
func (b *Bundle) RecordExchange(ctx context.Context, userMsg, assistMsg string) (*memory.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf.Append(buffer.Turn{User: userMsg, Assistant: assistMsg, Timestamp: time.Now()})

	text := memory.ExchangeText(userMsg, assistMsg)
	score := scoring.Score(text)
	if !scoring.ShouldStore(score) {
		return nil, nil
	}

	rec, err := b.mem.Add(ctx, memory.Record{
		Text:      text,
		Score:     score,
		Category:  scoring.Categorize(text),
		SessionID: b.ID,
	})
	if err != nil {
		// The turn stays buffered; only the long-term write failed.
		return nil, err
	}
	return &rec, nil
}

// snapshot captures the bundle's durable image.
func (b *Bundle) snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	recs, err := b.mem.Export(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := &snapshot.Snapshot{
		SessionID: b.ID,
		Turns:     b.buf.Recent(buffer.DefaultSize),
		Records:   recs,
		CreatedAt: b.CreatedAt,
	}
	if b.profile != nil {
		p := *b.profile
		snap.Profile = &p
	}
	return snap, nil
}

// restore loads a durable snapshot into a fresh bundle. Called during
// construction, before the bundle is visible to any other goroutine.
func (b *Bundle) restore(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap.Profile != nil {
		p := *snap.Profile
		b.profile = &p
	}
	for _, t := range snap.Turns {
		b.buf.Append(t)
	}
	if !snap.CreatedAt.IsZero() {
		b.CreatedAt = snap.CreatedAt
	}
	if len(snap.Records) > 0 {
		if err := b.mem.Import(ctx, snap.Records); err != nil {
			return err
		}
	}
	return nil
}
