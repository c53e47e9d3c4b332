// Package snapshot persists SessionBundle state outside the process so
// sessions survive restarts and any worker in a multi-process pool can
// rehydrate a session it has never seen.
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/kintoreai/kintore/internal/buffer"
	"github.com/kintoreai/kintore/internal/memory"
	"github.com/kintoreai/kintore/internal/profile"
)

// ErrNotFound indicates no snapshot exists for the session id.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the durable image of one session: profile, short-term
// turns and exported long-term records.
type Snapshot struct {
	SessionID string           `json:"session_id"`
	Profile   *profile.Profile `json:"profile,omitempty"`
	Turns     []buffer.Turn    `json:"turns,omitempty"`
	Records   []memory.Record  `json:"records,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	SavedAt   time.Time        `json:"saved_at"`
}

// Store persists session snapshots. Save overwrites any previous
// snapshot for the same session id.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}
