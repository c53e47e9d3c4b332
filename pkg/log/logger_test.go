package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithContext(context.Background(), logger)
	FromCtx(ctx).Info().Str("session_id", "s1").Msg("attached")

	out := buf.String()
	if !strings.Contains(out, "attached") || !strings.Contains(out, "s1") {
		t.Fatalf("context logger output = %q", out)
	}
}

func TestFromCtxWithoutLogger(t *testing.T) {
	// A bare context yields a usable logger instead of nil.
	l := FromCtx(context.Background())
	if l == nil {
		t.Fatal("FromCtx returned nil")
	}
	l.Debug().Msg("noop")
}

func TestNewLevels(t *testing.T) {
	if got := New(false, false).GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("default level = %s, want info", got)
	}
	if got := New(true, false).GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("debug level = %s, want debug", got)
	}
}
