package coach

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kintoreai/kintore/internal/llm"
	"github.com/kintoreai/kintore/internal/memory"
	"github.com/kintoreai/kintore/internal/session"
	"github.com/kintoreai/kintore/internal/snapshot"
)

// fakeMem is a controllable in-memory memory.Store.
type fakeMem struct {
	mu        sync.Mutex
	records   map[string][]memory.Record
	searchErr error
	pingGate  chan struct{} // non-nil blocks Ping until closed
	seq       int
}

func newFakeMem() *fakeMem {
	return &fakeMem{records: make(map[string][]memory.Record)}
}

func (f *fakeMem) Add(_ context.Context, rec memory.Record) (memory.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	rec.ID = strings.Repeat("r", f.seq)
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	f.records[rec.SessionID] = append(f.records[rec.SessionID], rec)
	return rec, nil
}

func (f *fakeMem) Search(_ context.Context, _ string, k int, sessionID string) ([]memory.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []memory.SearchResult
	for _, rec := range f.records[sessionID] {
		if len(out) == k {
			break
		}
		out = append(out, memory.SearchResult{Record: rec, CombinedScore: 0.9})
	}
	return out, nil
}

func (f *fakeMem) Export(_ context.Context, sessionID string) ([]memory.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]memory.Record(nil), f.records[sessionID]...), nil
}

func (f *fakeMem) Import(_ context.Context, recs []memory.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		f.records[rec.SessionID] = append(f.records[rec.SessionID], rec)
	}
	return nil
}

func (f *fakeMem) Clear(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, sessionID)
	return nil
}

func (f *fakeMem) Count(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sessionID == "" {
		n := 0
		for _, recs := range f.records {
			n += len(recs)
		}
		return n
	}
	return len(f.records[sessionID])
}

func (f *fakeMem) Ping(ctx context.Context) error {
	f.mu.Lock()
	gate := f.pingGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeMem) Close() error { return nil }

// fakeCompleter records the last request and returns a canned reply.
type fakeCompleter struct {
	mu       sync.Mutex
	lastSys  string
	lastUser string
	reply    string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, sys, user string, _ llm.Params) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastSys = sys
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestCoach(t *testing.T, mem memory.Store, completer Completer) *Coach {
	t.Helper()
	snaps, err := snapshot.NewSQLiteStore(filepath.Join(t.TempDir(), "snap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { snaps.Close() })
	reg := session.NewRegistry(mem, snaps, zerolog.Nop())
	return New(reg, completer, zerolog.Nop())
}

func waitReady(t *testing.T, c *Coach, sessionID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, err := c.Status(context.Background(), sessionID)
		require.NoError(t, err)
		if st.MemoryReady {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session %s never became ready", sessionID)
}

func sampleProfileData() map[string]any {
	return map[string]any{
		"name": "Alex", "age": 30, "weight": 70.0, "height": 175.0,
		"fitness_goal": "Build strength", "experience": "Intermediate",
		"equipment": "Dumbbells, pull-up bar", "limitations": "Weak left knee",
	}
}

func TestChatLifecycle(t *testing.T) {
	mem := newFakeMem()
	completer := &fakeCompleter{reply: "Start with goblet squats."}
	c := newTestCoach(t, mem, completer)
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)

	p, err := c.UpsertProfile(ctx, id, sampleProfileData())
	require.NoError(t, err)
	assert.Equal(t, 22.9, p.BMI)

	reply, err := c.Chat(ctx, id, "what should I do on leg day?")
	require.NoError(t, err)
	assert.Equal(t, "Start with goblet squats.", reply)

	assert.Contains(t, completer.lastSys, "CLIENT PROFILE:")
	assert.Contains(t, completer.lastSys, "Name: Alex")
	assert.Contains(t, completer.lastSys, "BMI: 22.9 (normal weight)")
	assert.Contains(t, completer.lastSys, "Physical Limitations: Weak left knee")
	assert.Equal(t, "what should I do on leg day?", completer.lastUser)

	st, err := c.Status(ctx, id)
	require.NoError(t, err)
	assert.True(t, st.ProfileExists)
	assert.Equal(t, 1, st.Turns)
	assert.Equal(t, 0, st.StoredMemories, "casual exchange stays below the retention threshold")
}

func TestChatStoresImportantExchange(t *testing.T) {
	mem := newFakeMem()
	completer := &fakeCompleter{reply: "Rest the injury and swap squats for leg press until the pain settles."}
	c := newTestCoach(t, mem, completer)
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)
	_, err = c.UpsertProfile(ctx, id, sampleProfileData())
	require.NoError(t, err)

	_, err = c.Chat(ctx, id, "my knee injury is causing pain during every workout and my progress toward my goal has stalled")
	require.NoError(t, err)

	st, err := c.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, st.StoredMemories)
}

func TestChatRequiresProfile(t *testing.T) {
	c := newTestCoach(t, newFakeMem(), &fakeCompleter{reply: "ok"})
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)

	_, err = c.Chat(ctx, id, "hello")
	require.ErrorIs(t, err, ErrProfileRequired)
}

func TestChatBeforeReady(t *testing.T) {
	mem := newFakeMem()
	gate := make(chan struct{})
	mem.pingGate = gate
	c := newTestCoach(t, mem, &fakeCompleter{reply: "ok"})
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)

	_, err = c.Chat(ctx, id, "hello")
	require.ErrorIs(t, err, session.ErrNotReady)

	close(gate)
	waitReady(t, c, id)
}

func TestChatProviderFailureRecordsNothing(t *testing.T) {
	completer := &fakeCompleter{err: llm.ErrProvider}
	c := newTestCoach(t, newFakeMem(), completer)
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)
	_, err = c.UpsertProfile(ctx, id, sampleProfileData())
	require.NoError(t, err)

	_, err = c.Chat(ctx, id, "my knee injury pain is back")
	require.ErrorIs(t, err, llm.ErrProvider)

	st, err := c.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Turns, "failed turn must not be buffered")
	assert.Equal(t, 0, st.StoredMemories)
}

func TestChatDegradesWhenRetrievalFails(t *testing.T) {
	mem := newFakeMem()
	completer := &fakeCompleter{reply: "Noted."}
	c := newTestCoach(t, mem, completer)
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)
	_, err = c.UpsertProfile(ctx, id, sampleProfileData())
	require.NoError(t, err)

	_, err = c.Chat(ctx, id, "first message about training")
	require.NoError(t, err)

	mem.mu.Lock()
	mem.searchErr = memory.ErrUnavailable
	mem.mu.Unlock()

	reply, err := c.Chat(ctx, id, "second message about training")
	require.NoError(t, err, "retrieval failure must not fail the chat")
	assert.Equal(t, "Noted.", reply)
	assert.Contains(t, completer.lastSys, "RECENT CONVERSATION CONTEXT:",
		"short-term context survives a retrieval outage")
	assert.NotContains(t, completer.lastSys, "RELEVANT PAST CONVERSATIONS:")
}

func TestGenerateWorkout(t *testing.T) {
	completer := &fakeCompleter{reply: "1. Warm-up..."}
	c := newTestCoach(t, newFakeMem(), completer)
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)
	_, err = c.UpsertProfile(ctx, id, sampleProfileData())
	require.NoError(t, err)

	plan, err := c.GenerateWorkout(ctx, id, WorkoutParams{Type: "upper body", DurationMinutes: 30, Intensity: "high"})
	require.NoError(t, err)
	assert.Equal(t, "1. Warm-up...", plan)

	assert.Contains(t, completer.lastUser, "upper body workout plan")
	assert.Contains(t, completer.lastUser, "30 minutes")
	assert.Contains(t, completer.lastSys, "CLIENT PROFILE:")

	st, err := c.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Turns, "plan generation is not a conversation turn")
}

func TestGenerateWorkoutDefaults(t *testing.T) {
	completer := &fakeCompleter{reply: "plan"}
	c := newTestCoach(t, newFakeMem(), completer)
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)
	_, err = c.UpsertProfile(ctx, id, sampleProfileData())
	require.NoError(t, err)

	_, err = c.GenerateWorkout(ctx, id, WorkoutParams{})
	require.NoError(t, err)
	assert.Contains(t, completer.lastUser, "full body workout plan")
	assert.Contains(t, completer.lastUser, "45 minutes")
	assert.Contains(t, completer.lastUser, "moderate intensity")
}

func TestEndSessionDiscard(t *testing.T) {
	c := newTestCoach(t, newFakeMem(), &fakeCompleter{reply: "ok"})
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)
	_, err = c.UpsertProfile(ctx, id, sampleProfileData())
	require.NoError(t, err)

	require.NoError(t, c.EndSession(ctx, id, false))
	require.NoError(t, c.EndSession(ctx, id, false)) // idempotent

	_, err = c.Chat(ctx, id, "still there?")
	require.ErrorIs(t, err, session.ErrSessionInvalid)
}

func TestEndSessionSaveAndResume(t *testing.T) {
	c := newTestCoach(t, newFakeMem(), &fakeCompleter{reply: "welcome back"})
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)
	_, err = c.UpsertProfile(ctx, id, sampleProfileData())
	require.NoError(t, err)
	_, err = c.Chat(ctx, id, "remember my squat form notes")
	require.NoError(t, err)

	require.NoError(t, c.EndSession(ctx, id, true))

	// A saved session resumes transparently on the next access.
	waitReady(t, c, id)
	reply, err := c.Chat(ctx, id, "back for more")
	require.NoError(t, err)
	assert.Equal(t, "welcome back", reply)

	history, err := c.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestStats(t *testing.T) {
	c := newTestCoach(t, newFakeMem(), &fakeCompleter{reply: "ok"})
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)
	_, err = c.UpsertProfile(ctx, id, sampleProfileData())
	require.NoError(t, err)
	_, err = c.Chat(ctx, id, "hello coach")
	require.NoError(t, err)

	stats, err := c.Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, stats.SessionID)
	assert.Equal(t, 1, stats.Turns)
	assert.False(t, stats.CreatedAt.IsZero())
	assert.False(t, stats.LastActivity.IsZero())
}

func TestProfileNotFound(t *testing.T) {
	c := newTestCoach(t, newFakeMem(), &fakeCompleter{})
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)

	_, err = c.Profile(ctx, id)
	require.ErrorIs(t, err, ErrProfileRequired)

	_, err = c.Profile(ctx, "unknown")
	require.ErrorIs(t, err, session.ErrSessionInvalid)
}

func TestUpsertProfileValidation(t *testing.T) {
	c := newTestCoach(t, newFakeMem(), &fakeCompleter{})
	ctx := context.Background()

	id, err := c.StartSession(ctx)
	require.NoError(t, err)
	waitReady(t, c, id)

	_, err = c.UpsertProfile(ctx, id, map[string]any{"name": "Alex"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field")
}
