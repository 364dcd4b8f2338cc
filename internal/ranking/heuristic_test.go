package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUsage is an in-memory UsageView for tests.
type fakeUsage map[string]struct {
	count int
	last  time.Time
}

func (f fakeUsage) Lookup(key string) (int, time.Time, bool) {
	u, ok := f[key]
	return u.count, u.last, ok
}

func cands(keys ...string) []Candidate {
	out := make([]Candidate, len(keys))
	for i, k := range keys {
		out[i] = Candidate{Key: k, Order: i}
	}
	return out
}

func TestHeuristicDeterministicTieBreak(t *testing.T) {
	h := NewHeuristic(nil)

	got := h.Rank(cands("bmm:analyst", "cis:analyst", "core:analyst"), nil)
	require.Len(t, got, 3)
	// No usage, no boosts: declaration order decides.
	assert.Equal(t, "bmm:analyst", got[0].Key)
	assert.Equal(t, "cis:analyst", got[1].Key)
	assert.Equal(t, "core:analyst", got[2].Key)
}

func TestHeuristicRecentUsageWins(t *testing.T) {
	h := NewHeuristic(nil)
	usage := fakeUsage{
		"cis:analyst": {count: 2, last: time.Now().Add(-time.Minute)},
	}

	got := h.Rank(cands("bmm:analyst", "cis:analyst"), usage)
	assert.Equal(t, "cis:analyst", got[0].Key)
}

func TestHeuristicRecencyDecays(t *testing.T) {
	h := NewHeuristic(nil)
	usage := fakeUsage{
		"bmm:analyst": {count: 1, last: time.Now().Add(-24 * time.Hour)},
		"cis:analyst": {count: 1, last: time.Now().Add(-time.Minute)},
	}

	got := h.Rank(cands("bmm:analyst", "cis:analyst"), usage)
	assert.Equal(t, "cis:analyst", got[0].Key, "fresher use outranks stale use at equal counts")
}

func TestHeuristicBoosts(t *testing.T) {
	tests := []struct {
		name   string
		boosts map[string]float64
	}{
		{"full key", map[string]float64{"cis:analyst": 1}},
		{"module", map[string]float64{"cis": 1}},
		{"bare name", map[string]float64{"analyst": 0}}, // applies to both, no effect
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeuristic(tt.boosts)
			got := h.Rank([]Candidate{
				{Key: "bmm:analyst", Module: "bmm", Name: "analyst", Order: 0},
				{Key: "cis:analyst", Module: "cis", Name: "analyst", Order: 1},
			}, nil)

			if tt.boosts["analyst"] == 0 && len(tt.boosts) == 1 && tt.name == "bare name" {
				assert.Equal(t, "bmm:analyst", got[0].Key, "equal boosts fall back to order")
			} else {
				assert.Equal(t, "cis:analyst", got[0].Key)
			}
		})
	}
}

func TestHeuristicDoesNotMutateInput(t *testing.T) {
	h := NewHeuristic(map[string]float64{"cis:analyst": 1})
	in := []Candidate{
		{Key: "bmm:analyst", Order: 0},
		{Key: "cis:analyst", Order: 1},
	}
	_ = h.Rank(in, nil)
	assert.Equal(t, "bmm:analyst", in[0].Key)
}
