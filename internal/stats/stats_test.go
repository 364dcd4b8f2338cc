package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndLookup(t *testing.T) {
	s := newTestStore(t)

	_, _, ok := s.Lookup("bmm:analyst")
	assert.False(t, ok, "fresh store knows nothing")

	require.NoError(t, s.Record("bmm:analyst"))
	require.NoError(t, s.Record("bmm:analyst"))
	require.NoError(t, s.Record("cis:coach"))

	count, last, ok := s.Lookup("bmm:analyst")
	require.True(t, ok)
	assert.Equal(t, 2, count)
	assert.WithinDuration(t, time.Now().UTC(), last, time.Minute)

	count, _, ok = s.Lookup("cis:coach")
	require.True(t, ok)
	assert.Equal(t, 1, count)
}

func TestSnapshotOrdering(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Record("bmm:analyst"))
	}
	require.NoError(t, s.Record("cis:coach"))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Equal(t, "bmm:analyst", snap[0].Key, "most used first")
	assert.Equal(t, 3, snap[0].UseCount)
	assert.Equal(t, "cis:coach", snap[1].Key)
}

func TestSessionID(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestStoresAreIsolated(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)

	require.NoError(t, a.Record("bmm:analyst"))
	_, _, ok := b.Lookup("bmm:analyst")
	assert.False(t, ok, "in-memory stores never share state")
}
