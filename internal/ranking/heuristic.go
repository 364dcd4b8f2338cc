// Package ranking orders resolution candidates.
//
// Two strategies share one entry point: a deterministic session-heuristic
// scorer that is always available, and a sampling-assisted ranker that asks
// the connected client's LLM when the session supports it. The caller never
// needs to know which one ran — the result is always a complete ordering of
// the input candidates.
package ranking

import (
	"sort"
	"time"
)

// Candidate is one entry under consideration, detached from the registry so
// ranking never mutates registry state.
type Candidate struct {
	Key         string // canonical module:name
	Module      string
	Name        string
	Title       string
	Description string
	// Order is the declaration index within the entry's source manifest,
	// used purely as the final tie-break.
	Order int
}

// UsageView exposes session usage stats to the scorer. Satisfied by
// *stats.Store.
type UsageView interface {
	Lookup(key string) (count int, last time.Time, ok bool)
}

// Score weights. Recency and frequency dominate; boosts keep configured
// high-traffic entries near the top of unqualified listings.
const (
	recencyWeight   = 0.5
	frequencyWeight = 0.3

	// recencyHalfLife is the age at which the recency component halves.
	recencyHalfLife = 30 * time.Minute
)

// Heuristic is the session-heuristic scorer. Deterministic, O(N log N),
// sub-millisecond on realistic candidate counts.
type Heuristic struct {
	boosts map[string]float64
	now    func() time.Time
}

// NewHeuristic creates a scorer with the configured boost table. Boost keys
// may be a full "module:name" key, a bare module, or a bare entry name.
func NewHeuristic(boosts map[string]float64) *Heuristic {
	return &Heuristic{boosts: boosts, now: time.Now}
}

// Rank returns the candidates ordered by descending score. The input slice
// is not modified.
func (h *Heuristic) Rank(cands []Candidate, usage UsageView) []Candidate {
	type scored struct {
		Candidate
		score float64
	}

	out := make([]scored, len(cands))
	for i, c := range cands {
		out[i] = scored{Candidate: c, score: h.score(c, usage)}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Key < out[j].Key
	})

	ranked := make([]Candidate, len(out))
	for i, s := range out {
		ranked[i] = s.Candidate
	}
	return ranked
}

func (h *Heuristic) score(c Candidate, usage UsageView) float64 {
	var recency, frequency float64
	if usage != nil {
		if count, last, ok := usage.Lookup(c.Key); ok && count > 0 {
			age := h.now().Sub(last)
			if age < 0 {
				age = 0
			}
			// Monotonically decreasing with age, zero only if never used.
			recency = float64(recencyHalfLife) / float64(recencyHalfLife+age)
			frequency = float64(count) / float64(count+5)
		}
	}
	return recencyWeight*recency + frequencyWeight*frequency + h.boost(c)
}

func (h *Heuristic) boost(c Candidate) float64 {
	return h.boosts[c.Key] + h.boosts[c.Module] + h.boosts[c.Name]
}
