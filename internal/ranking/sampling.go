package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/bmad-mcp/internal/capability"
	"github.com/HendryAvila/bmad-mcp/internal/logging"
)

// Sampler performs one server-initiated LLM call through the client's
// advertised sampling capability.
type Sampler interface {
	CreateMessage(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const samplingSystemPrompt = `You rank candidate agents/workflows for a user request.
Reply with ONLY the candidate keys, best match first, comma-separated.
Use the keys exactly as given. No explanations.`

// Ranker selects a strategy per request: sampling-assisted when the session
// capability allows it and the request carries user context, the session
// heuristic otherwise. A malformed, partial or timed-out sampling response
// never produces an incomplete ordering — the heuristic order backfills.
type Ranker struct {
	heuristic *Heuristic
	timeout   time.Duration
	log       *logging.Logger
}

// NewRanker creates a Ranker around the given heuristic scorer.
func NewRanker(h *Heuristic, samplingTimeout time.Duration, log *logging.Logger) *Ranker {
	return &Ranker{heuristic: h, timeout: samplingTimeout, log: log.Sub("ranking")}
}

// Rank orders candidates. The capability value is threaded in explicitly —
// it was detected once at session start and is never re-probed here. When
// sampling is unsupported the request takes the heuristic path with no
// added latency, regardless of userText.
func (r *Ranker) Rank(ctx context.Context, cands []Candidate, usage UsageView,
	userText string, cap capability.Sampling, sampler Sampler) []Candidate {

	base := r.heuristic.Rank(cands, usage)
	if !cap.Supported || sampler == nil || strings.TrimSpace(userText) == "" || len(base) < 2 {
		return base
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := sampler.CreateMessage(ctx, samplingSystemPrompt, samplingPrompt(userText, base))
	if err != nil {
		// SamplingTimeout and friends are recovered here, never surfaced.
		r.log.Warn().Err(err).Msg("sampling-assisted ranking failed, using heuristic order")
		return base
	}

	return reorder(base, reply)
}

// samplingPrompt renders the user's text plus one line per candidate.
func samplingPrompt(userText string, cands []Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User request:\n%s\n\nCandidates:\n", strings.TrimSpace(userText))
	for _, c := range cands {
		line := c.Title
		if c.Description != "" {
			line += " — " + c.Description
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.Key, line)
	}
	return b.String()
}

// reorder applies the model's ordering to the heuristic baseline. Keys the
// model omitted or misnamed keep their heuristic relative order at the end,
// so the result always has exactly len(base) elements.
func reorder(base []Candidate, reply string) []Candidate {
	byKey := make(map[string]Candidate, len(base))
	for _, c := range base {
		byKey[strings.ToLower(c.Key)] = c
	}

	seen := make(map[string]bool, len(base))
	out := make([]Candidate, 0, len(base))
	for _, tok := range splitReply(reply) {
		key := strings.ToLower(tok)
		c, ok := byKey[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	for _, c := range base {
		if !seen[strings.ToLower(c.Key)] {
			out = append(out, c)
		}
	}
	return out
}

// splitReply tolerates comma- or line-delimited responses, list markers and
// surrounding noise.
func splitReply(reply string) []string {
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		f = strings.TrimLeft(f, "-*0123456789. ")
		f = strings.Trim(f, "`\"' ")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
