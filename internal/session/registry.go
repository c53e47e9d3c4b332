package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kintoreai/kintore/internal/memory"
	"github.com/kintoreai/kintore/internal/snapshot"
)

// Registry maps session ids to bundles. The mutex guards only the
// create-or-fetch decision; snapshot loads and restores run outside it,
// so one session's rehydration never blocks another session's lookup.
type Registry struct {
	mu       sync.Mutex
	bundles  map[string]*Bundle
	building map[string]*inflight

	mem       memory.Store
	snapshots snapshot.Store // nil disables durable snapshots
	log       zerolog.Logger
}

// inflight is a construction in progress. Concurrent requests for the
// same id wait on done instead of holding the registry lock.
type inflight struct {
	done chan struct{}
	b    *Bundle
	err  error
}

func (fl *inflight) wait(ctx context.Context) (*Bundle, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-fl.done:
		return fl.b, fl.err
	}
}

// NewRegistry creates a Registry backed by mem for long-term records
// and snapshots for durable session images. snapshots may be nil.
func NewRegistry(mem memory.Store, snapshots snapshot.Store, log zerolog.Logger) *Registry {
	return &Registry{
		bundles:   make(map[string]*Bundle),
		building:  make(map[string]*inflight),
		mem:       mem,
		snapshots: snapshots,
		log:       log,
	}
}

// Len reports the number of live bundles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bundles)
}

// GetOrCreate returns the live bundle for id, constructing one when
// absent. A previously saved snapshot is rehydrated; an invalid bundle
// is discarded and rebuilt. The new bundle starts Uninitialized and
// becomes Ready once its background probe succeeds.
func (r *Registry) GetOrCreate(ctx context.Context, id string) (*Bundle, error) {
	for {
		r.mu.Lock()
		if b, ok := r.bundles[id]; ok {
			if b.State() != StateInvalid {
				r.mu.Unlock()
				return b, nil
			}
			delete(r.bundles, id)
			r.log.Warn().Str("session_id", id).Msg("discarding invalid session bundle")
		}
		if fl, ok := r.building[id]; ok {
			r.mu.Unlock()
			b, err := fl.wait(ctx)
			if err == nil {
				return b, nil
			}
			if ctx.Err() != nil {
				return nil, err
			}
			// The in-flight build failed; take over construction.
			continue
		}
		fl := r.claim(id)
		r.mu.Unlock()

		b, err := r.construct(ctx, id, r.loadSnapshot(ctx, id))
		return r.finish(id, fl, b, err)
	}
}

// Lookup returns the live bundle for id. An invalid bundle is rebuilt
// in place; an absent session is resurrected from its snapshot when one
// exists, otherwise ErrSessionInvalid.
func (r *Registry) Lookup(ctx context.Context, id string) (*Bundle, error) {
	r.mu.Lock()
	if b, ok := r.bundles[id]; ok && b.State() != StateInvalid {
		r.mu.Unlock()
		return b, nil
	}
	if fl, ok := r.building[id]; ok {
		r.mu.Unlock()
		return fl.wait(ctx)
	}

	rebuild := false
	if _, ok := r.bundles[id]; ok {
		delete(r.bundles, id)
		rebuild = true
		r.log.Warn().Str("session_id", id).Msg("rebuilding invalid session bundle")
	}
	fl := r.claim(id)
	r.mu.Unlock()

	if rebuild {
		b, err := r.construct(ctx, id, r.loadSnapshot(ctx, id))
		if err != nil {
			err = fmt.Errorf("%w: rebuild failed for %s: %v", ErrSessionInvalid, id, err)
		}
		return r.finish(id, fl, b, err)
	}

	// Absent locally: only a durable snapshot, written by this worker or
	// a sibling, can resurrect the session.
	if r.snapshots == nil {
		return r.finish(id, fl, nil, fmt.Errorf("%w: unknown session %s", ErrSessionInvalid, id))
	}
	snap, err := r.snapshots.Load(ctx, id)
	if errors.Is(err, snapshot.ErrNotFound) {
		return r.finish(id, fl, nil, fmt.Errorf("%w: unknown session %s", ErrSessionInvalid, id))
	}
	if err != nil {
		return r.finish(id, fl, nil, fmt.Errorf("load snapshot for %s: %w", id, err))
	}

	b, err := r.construct(ctx, id, snap)
	if err == nil {
		r.log.Info().Str("session_id", id).Msg("session rehydrated from snapshot")
	}
	return r.finish(id, fl, b, err)
}

// End removes the session. With save, its durable snapshot is written
// first; without, the snapshot and the session's long-term records are
// discarded, even when the bundle was only ever live on a sibling
// worker. Ending an unknown session is a no-op.
func (r *Registry) End(ctx context.Context, id string, save bool) error {
	r.mu.Lock()
	b, ok := r.bundles[id]
	delete(r.bundles, id)
	r.mu.Unlock()

	if save {
		if !ok {
			return nil
		}
		return r.Persist(ctx, b)
	}

	if r.snapshots != nil {
		if err := r.snapshots.Delete(ctx, id); err != nil {
			r.log.Warn().Err(err).Str("session_id", id).Msg("failed to delete snapshot")
		}
	}
	if err := r.mem.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear records for %s: %w", id, err)
	}
	return nil
}

// Persist writes the bundle's current snapshot. No-op without a
// snapshot store.
func (r *Registry) Persist(ctx context.Context, b *Bundle) error {
	if r.snapshots == nil {
		return nil
	}
	snap, err := b.snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot session %s: %w", b.ID, err)
	}
	if err := r.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot %s: %w", b.ID, err)
	}
	return nil
}

// claim registers an in-flight construction for id. Caller holds r.mu.
func (r *Registry) claim(id string) *inflight {
	fl := &inflight{done: make(chan struct{})}
	r.building[id] = fl
	return fl
}

// finish publishes the construction result and wakes waiters.
func (r *Registry) finish(id string, fl *inflight, b *Bundle, err error) (*Bundle, error) {
	r.mu.Lock()
	delete(r.building, id)
	if err == nil {
		r.bundles[id] = b
	}
	r.mu.Unlock()

	fl.b, fl.err = b, err
	close(fl.done)
	return b, err
}

// loadSnapshot is best-effort: a missing snapshot or a load error both
// yield nil, and construction proceeds from scratch.
func (r *Registry) loadSnapshot(ctx context.Context, id string) *snapshot.Snapshot {
	if r.snapshots == nil {
		return nil
	}
	snap, err := r.snapshots.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) {
			r.log.Warn().Err(err).Str("session_id", id).Msg("snapshot load failed, starting fresh")
		}
		return nil
	}
	return snap
}

// construct builds a bundle and kicks off its readiness probe. The
// bundle is invisible to other goroutines until finish registers it, so
// the restore needs no registry lock.
func (r *Registry) construct(ctx context.Context, id string, snap *snapshot.Snapshot) (*Bundle, error) {
	b := newBundle(id, r.mem)
	if snap != nil {
		if err := b.restore(ctx, snap); err != nil {
			return nil, fmt.Errorf("restore session %s: %w", id, err)
		}
	}
	go b.initialize()
	return b, nil
}
