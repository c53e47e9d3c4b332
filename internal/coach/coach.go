// Package coach orchestrates sessions, profiles, memory composition and
// model calls behind one facade consumed by the HTTP handlers.
package coach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kintoreai/kintore/internal/buffer"
	"github.com/kintoreai/kintore/internal/composer"
	"github.com/kintoreai/kintore/internal/llm"
	"github.com/kintoreai/kintore/internal/profile"
	"github.com/kintoreai/kintore/internal/session"
)

// ErrProfileRequired indicates the session has no profile yet. Chat and
// workout generation refuse to run without one.
var ErrProfileRequired = errors.New("no profile for this session")

// Completer is the model call surface the coach depends on.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string, p llm.Params) (string, error)
}

// Status is a point-in-time view of one session.
type Status struct {
	SessionID      string `json:"session_id"`
	ProfileExists  bool   `json:"profile_exists"`
	MemoryReady    bool   `json:"memory_ready"`
	Turns          int    `json:"turns"`
	StoredMemories int    `json:"stored_memories"`
}

// Stats summarizes session activity.
type Stats struct {
	SessionID       string    `json:"session_id"`
	CreatedAt       time.Time `json:"created_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Turns           int       `json:"turns"`
	StoredMemories  int       `json:"stored_memories"`
	LastActivity    time.Time `json:"last_activity"`
}

// WorkoutParams shape a generated workout plan.
type WorkoutParams struct {
	Type            string `json:"type"`
	DurationMinutes int    `json:"duration_minutes"`
	Intensity       string `json:"intensity"`
}

// Coach wires the session registry to the model provider.
type Coach struct {
	registry *session.Registry
	llm      Completer
	params   llm.Params
	log      zerolog.Logger
}

// New creates a Coach using default generation parameters.
func New(registry *session.Registry, completer Completer, log zerolog.Logger) *Coach {
	return &Coach{
		registry: registry,
		llm:      completer,
		params:   llm.DefaultParams(),
		log:      log,
	}
}

// StartSession creates a fresh session and returns its id. The bundle
// initializes in the background; chat before readiness gets ErrNotReady.
func (c *Coach) StartSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := c.registry.GetOrCreate(ctx, id); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	c.log.Info().Str("session_id", id).Msg("session started")
	return id, nil
}

// UpsertProfile creates or partially updates the session's profile.
func (c *Coach) UpsertProfile(ctx context.Context, sessionID string, data map[string]any) (profile.Profile, error) {
	b, err := c.registry.Lookup(ctx, sessionID)
	if err != nil {
		return profile.Profile{}, err
	}
	p, err := b.UpsertProfile(data)
	if err != nil {
		return profile.Profile{}, err
	}
	if err := c.registry.Persist(ctx, b); err != nil {
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("profile snapshot failed")
	}
	return p, nil
}

// Profile returns the session's profile.
func (c *Coach) Profile(ctx context.Context, sessionID string) (profile.Profile, error) {
	b, err := c.registry.Lookup(ctx, sessionID)
	if err != nil {
		return profile.Profile{}, err
	}
	p, ok := b.Profile()
	if !ok {
		return profile.Profile{}, ErrProfileRequired
	}
	return p, nil
}

// Chat runs one conversational turn: compose memory context, call the
// model, then record the completed exchange. A provider failure records
// nothing, so the buffer never holds a user message without its reply.
func (c *Coach) Chat(ctx context.Context, sessionID, message string) (string, error) {
	b, err := c.registry.Lookup(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !b.Ready() {
		return "", session.ErrNotReady
	}
	p, ok := b.Profile()
	if !ok {
		return "", ErrProfileRequired
	}

	recent := b.RecentTurns(composer.RecentTurns)
	comp := composer.New(b.Memory(), sessionID)
	contextBlock, cerr := comp.Compose(ctx, message, recent)
	if cerr != nil {
		c.log.Warn().Err(cerr).Str("session_id", sessionID).
			Msg("memory retrieval degraded, continuing with short-term context only")
	}

	stored := b.Memory().Count(sessionID)
	sys := systemPrompt(p, b.CreatedAt, b.BufferLen(), stored, contextBlock)

	// Model call runs without any session lock held.
	reply, err := c.llm.Complete(ctx, sys, message, c.params)
	if err != nil {
		return "", err
	}

	rec, err := b.RecordExchange(ctx, message, reply)
	if err != nil {
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("long-term store write failed")
	} else if rec != nil {
		c.log.Debug().Str("session_id", sessionID).Str("record_id", rec.ID).
			Float64("score", rec.Score).Str("category", string(rec.Category)).
			Msg("exchange stored in long-term memory")
	}
	if err := c.registry.Persist(ctx, b); err != nil {
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("session snapshot failed")
	}
	return reply, nil
}

// GenerateWorkout produces a personalized workout plan. The plan call
// reuses the chat system prompt but is not recorded as a conversation
// turn.
func (c *Coach) GenerateWorkout(ctx context.Context, sessionID string, params WorkoutParams) (string, error) {
	b, err := c.registry.Lookup(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !b.Ready() {
		return "", session.ErrNotReady
	}
	p, ok := b.Profile()
	if !ok {
		return "", ErrProfileRequired
	}

	request := workoutRequest(params)
	recent := b.RecentTurns(composer.RecentTurns)
	comp := composer.New(b.Memory(), sessionID)
	contextBlock, cerr := comp.Compose(ctx, request, recent)
	if cerr != nil {
		c.log.Warn().Err(cerr).Str("session_id", sessionID).Msg("memory retrieval degraded for workout generation")
	}

	stored := b.Memory().Count(sessionID)
	sys := systemPrompt(p, b.CreatedAt, b.BufferLen(), stored, contextBlock)

	return c.llm.Complete(ctx, sys, request, c.params)
}

// Status reports the session's readiness and memory counters.
func (c *Coach) Status(ctx context.Context, sessionID string) (Status, error) {
	b, err := c.registry.Lookup(ctx, sessionID)
	if err != nil {
		return Status{}, err
	}
	_, hasProfile := b.Profile()
	stored := b.Memory().Count(sessionID)
	return Status{
		SessionID:      sessionID,
		ProfileExists:  hasProfile,
		MemoryReady:    b.Ready(),
		Turns:          b.BufferLen(),
		StoredMemories: stored,
	}, nil
}

// Stats reports session activity totals.
func (c *Coach) Stats(ctx context.Context, sessionID string) (Stats, error) {
	b, err := c.registry.Lookup(ctx, sessionID)
	if err != nil {
		return Stats{}, err
	}
	stored := b.Memory().Count(sessionID)

	stats := Stats{
		SessionID:       sessionID,
		CreatedAt:       b.CreatedAt,
		DurationMinutes: int(time.Since(b.CreatedAt).Minutes()),
		Turns:           b.BufferLen(),
		StoredMemories:  stored,
	}
	if turns := b.RecentTurns(1); len(turns) > 0 {
		stats.LastActivity = turns[0].Timestamp
	}
	return stats, nil
}

// History returns the buffered conversation turns, oldest first.
func (c *Coach) History(ctx context.Context, sessionID string) ([]buffer.Turn, error) {
	b, err := c.registry.Lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return b.RecentTurns(buffer.DefaultSize), nil
}

// EndSession ends the session, optionally saving its durable snapshot.
// Idempotent.
func (c *Coach) EndSession(ctx context.Context, sessionID string, save bool) error {
	if err := c.registry.End(ctx, sessionID, save); err != nil {
		return err
	}
	c.log.Info().Str("session_id", sessionID).Bool("saved", save).Msg("session ended")
	return nil
}

// ActiveSessions reports the live bundle count for health reporting.
func (c *Coach) ActiveSessions() int {
	return c.registry.Len()
}
