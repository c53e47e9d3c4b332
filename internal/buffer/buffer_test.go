package buffer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOEviction(t *testing.T) {
	const n = 10
	b := New(n)

	// N+k appends: Recent(N) must equal exactly the last N in order.
	for i := 0; i < n+7; i++ {
		b.Append(Turn{User: fmt.Sprintf("msg-%d", i), Timestamp: time.Now()})
	}

	require.Equal(t, n, b.Len())
	recent := b.Recent(n)
	require.Len(t, recent, n)
	for i, turn := range recent {
		assert.Equal(t, fmt.Sprintf("msg-%d", i+7), turn.User)
	}
}

func TestRecentChronologicalOrder(t *testing.T) {
	b := New(5)
	for i := 0; i < 3; i++ {
		b.Append(Turn{User: fmt.Sprintf("u%d", i)})
	}

	recent := b.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "u1", recent[0].User)
	assert.Equal(t, "u2", recent[1].User)
}

func TestRecentMoreThanLen(t *testing.T) {
	b := New(10)
	b.Append(Turn{User: "only"})

	recent := b.Recent(3)
	require.Len(t, recent, 1)
	assert.Equal(t, "only", recent[0].User)
}

func TestRecentEmpty(t *testing.T) {
	b := New(10)
	assert.Nil(t, b.Recent(3))
	assert.Nil(t, b.Recent(0))
}

func TestRecentReturnsCopy(t *testing.T) {
	b := New(10)
	b.Append(Turn{User: "a"})

	recent := b.Recent(1)
	recent[0].User = "mutated"
	assert.Equal(t, "a", b.Recent(1)[0].User)
}

func TestClear(t *testing.T) {
	b := New(10)
	b.Append(Turn{User: "a"})
	b.Append(Turn{User: "b"})

	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Recent(5))
}

func TestZeroSizeFallsBack(t *testing.T) {
	b := New(0)
	for i := 0; i < DefaultSize+1; i++ {
		b.Append(Turn{})
	}
	assert.Equal(t, DefaultSize, b.Len())
}
