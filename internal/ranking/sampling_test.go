package ranking

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/bmad-mcp/internal/capability"
	"github.com/HendryAvila/bmad-mcp/internal/logging"
)

type fakeSampler struct {
	reply  string
	err    error
	delay  time.Duration
	called bool
}

func (f *fakeSampler) CreateMessage(ctx context.Context, _, _ string) (string, error) {
	f.called = true
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func newRanker(timeout time.Duration) *Ranker {
	return NewRanker(NewHeuristic(nil), timeout, logging.New(os.Stderr, "silent"))
}

func supported() capability.Sampling {
	return capability.Sampling{Supported: true}
}

func TestRankSamplingReordersCandidates(t *testing.T) {
	r := newRanker(time.Second)
	s := &fakeSampler{reply: "cis:analyst, bmm:analyst, core:analyst"}

	got := r.Rank(context.Background(), cands("bmm:analyst", "cis:analyst", "core:analyst"),
		nil, "help me research a market", supported(), s)

	require.Len(t, got, 3)
	assert.Equal(t, "cis:analyst", got[0].Key)
	assert.Equal(t, "bmm:analyst", got[1].Key)
	assert.True(t, s.called)
}

func TestRankSkipsSamplingWhenUnsupported(t *testing.T) {
	r := newRanker(time.Second)
	s := &fakeSampler{reply: "cis:analyst"}

	got := r.Rank(context.Background(), cands("bmm:analyst", "cis:analyst"),
		nil, "some context", capability.Sampling{Supported: false}, s)

	assert.Equal(t, "bmm:analyst", got[0].Key, "heuristic order when sampling unavailable")
	assert.False(t, s.called, "no sampling call without the capability")
}

func TestRankSkipsSamplingWithoutUserContext(t *testing.T) {
	r := newRanker(time.Second)
	s := &fakeSampler{reply: "cis:analyst"}

	_ = r.Rank(context.Background(), cands("bmm:analyst", "cis:analyst"), nil, "   ", supported(), s)
	assert.False(t, s.called)
}

func TestRankSamplingErrorFallsBackToHeuristic(t *testing.T) {
	r := newRanker(time.Second)
	s := &fakeSampler{err: errors.New("client refused")}

	got := r.Rank(context.Background(), cands("bmm:analyst", "cis:analyst"),
		nil, "context", supported(), s)

	require.Len(t, got, 2)
	assert.Equal(t, "bmm:analyst", got[0].Key)
}

func TestRankSamplingTimeoutFallsBackToHeuristic(t *testing.T) {
	r := newRanker(20 * time.Millisecond)
	s := &fakeSampler{reply: "cis:analyst", delay: 5 * time.Second}

	start := time.Now()
	got := r.Rank(context.Background(), cands("bmm:analyst", "cis:analyst"),
		nil, "context", supported(), s)

	require.Len(t, got, 2)
	assert.Equal(t, "bmm:analyst", got[0].Key)
	assert.Less(t, time.Since(start), time.Second, "the timeout must bound the wait")
}

func TestRankMalformedReplyBackfills(t *testing.T) {
	r := newRanker(time.Second)
	// Reply mentions one real key, one garbage token, empty fields.
	s := &fakeSampler{reply: "foo,, cis:analyst ,baz"}

	got := r.Rank(context.Background(), cands("bmm:analyst", "cis:analyst", "core:analyst"),
		nil, "context", supported(), s)

	require.Len(t, got, 3, "result is always a complete ordering")
	assert.Equal(t, "cis:analyst", got[0].Key)
	assert.Equal(t, "bmm:analyst", got[1].Key, "omitted keys keep heuristic relative order")
	assert.Equal(t, "core:analyst", got[2].Key)
}

func TestRankReplyWithListMarkersAndDuplicates(t *testing.T) {
	r := newRanker(time.Second)
	s := &fakeSampler{reply: "1. `cis:analyst`\n2. \"bmm:analyst\"\n3. cis:analyst"}

	got := r.Rank(context.Background(), cands("bmm:analyst", "cis:analyst"),
		nil, "context", supported(), s)

	require.Len(t, got, 2)
	assert.Equal(t, "cis:analyst", got[0].Key)
	assert.Equal(t, "bmm:analyst", got[1].Key)
}

func TestRankSingleCandidateSkipsSampling(t *testing.T) {
	r := newRanker(time.Second)
	s := &fakeSampler{reply: "whatever"}

	got := r.Rank(context.Background(), cands("bmm:analyst"), nil, "context", supported(), s)
	require.Len(t, got, 1)
	assert.False(t, s.called)
}

func TestSplitReply(t *testing.T) {
	got := splitReply("- a:x\n* b:y; c:z,\n2. 'd:w'")
	assert.Equal(t, []string{"a:x", "b:y", "c:z", "d:w"}, got)
}
