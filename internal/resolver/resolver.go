// Package resolver is the orchestration core: it accepts lookup requests,
// consults the master registry, and produces exactly one of three typed
// outcomes — a single resolved entry, an explicit not-found, or an
// ambiguous result with ranked candidates.
//
// The request walks a small state machine: Received → LookupExact →
// (ResolvedSingle | ResolvedNone | CandidatesFound) → Ranking →
// ResolvedAmbiguous. Qualified lookups (module or remote) are exact and
// never ambiguous; only bare-name lookups with multiple cross-module
// matches enter the ranking state.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/bmad-mcp/internal/capability"
	"github.com/HendryAvila/bmad-mcp/internal/config"
	"github.com/HendryAvila/bmad-mcp/internal/logging"
	"github.com/HendryAvila/bmad-mcp/internal/manifest"
	"github.com/HendryAvila/bmad-mcp/internal/ranking"
	"github.com/HendryAvila/bmad-mcp/internal/registry"
	"github.com/HendryAvila/bmad-mcp/internal/source"
	"github.com/HendryAvila/bmad-mcp/internal/stats"
)

// Kind selects the registry category a request targets.
type Kind string

const (
	KindAgent    Kind = "agent"
	KindWorkflow Kind = "workflow"
)

// Outcome is a resolution's terminal state.
type Outcome string

const (
	OutcomeSingle    Outcome = "single"
	OutcomeNone      Outcome = "none"
	OutcomeAmbiguous Outcome = "ambiguous"
)

// Request is one lookup. Name may itself carry a qualifier ("module/name",
// "module:name" or "@remote:module/name"); explicit Module/Remote fields
// combine with it, with the explicit fields winning on conflict.
type Request struct {
	Kind   Kind
	Name   string
	Module string
	Remote string
	// UserContext is free-form text used only by sampling-assisted ranking.
	UserContext string
}

// Result is the typed outcome of a resolution. Callers distinguish "no
// match" from "ambiguous" from "single match" without error handling —
// ambiguity is a first-class result, not an exception.
type Result struct {
	Outcome Outcome
	Kind    Kind

	Agent    *manifest.AgentEntry
	Workflow *manifest.WorkflowEntry

	// Candidates is the ranked candidate list, ambiguous outcomes only.
	Candidates []ranking.Candidate
	// Summary is one compact line per candidate — never the full
	// definition bodies, to bound response size.
	Summary string
}

// Engine wires the registry, ranker and usage stats into the resolution
// state machine. One Engine serves one logical session.
type Engine struct {
	cfg      config.Config
	workDir  string
	registry *registry.Registry
	builder  *registry.Builder
	stats    *stats.Store
	ranker   *ranking.Ranker
	caps     *capability.Detector
	log      *logging.Logger
}

// New creates an Engine.
func New(cfg config.Config, workDir string, reg *registry.Registry, builder *registry.Builder,
	st *stats.Store, rk *ranking.Ranker, caps *capability.Detector, log *logging.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		workDir:  workDir,
		registry: reg,
		builder:  builder,
		stats:    st,
		ranker:   rk,
		caps:     caps,
		log:      log.Sub("resolver"),
	}
}

// Discover rebuilds the registry for the active source set and swaps it in.
// mode and remotes override the configured values when non-zero.
func (e *Engine) Discover(ctx context.Context, mode config.DiscoveryMode, remotes []config.Remote) (*registry.MasterManifest, error) {
	if mode == "" {
		mode = e.cfg.Mode
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown discovery mode %q", mode)
	}
	if remotes == nil {
		remotes = e.cfg.Remotes
	}

	locs, err := source.Locate(source.Options{
		WorkDir:     e.workDir,
		ProjectRoot: e.cfg.ProjectRoot,
		UserRoot:    e.cfg.UserRoot,
		Remotes:     remotes,
		Mode:        mode,
	})
	if err != nil {
		return nil, err
	}

	m := e.builder.Build(ctx, locs)
	e.registry.Swap(m)
	return m, nil
}

// RemoteSubset resolves configured remote names to their full definitions,
// for discovery runs restricted to a subset of the registered remotes.
func (e *Engine) RemoteSubset(names []string) ([]config.Remote, error) {
	out := make([]config.Remote, 0, len(names))
	for _, n := range names {
		r, ok := e.cfg.RemoteByName(n)
		if !ok {
			return nil, fmt.Errorf("unknown remote %q", n)
		}
		out = append(out, r)
	}
	return out, nil
}

// Manifest returns the active registry build.
func (e *Engine) Manifest() *registry.MasterManifest { return e.registry.Current() }

// UsageStats exposes the session usage store (for the stats resource).
func (e *Engine) UsageStats() *stats.Store { return e.stats }

// Capability returns the session's detected sampling capability.
func (e *Engine) Capability() capability.Sampling { return e.caps.Current() }

// RecordUsage bumps the session usage counter for key after a successful
// execute-class resolution. Fire-and-forget: the response is never blocked
// on the write.
func (e *Engine) RecordUsage(key string) {
	go func() {
		if err := e.stats.Record(key); err != nil {
			e.log.Warn().Err(err).Str("key", key).Msg("usage record failed")
		}
	}()
}

// Resolve runs the lookup state machine for req. The sampler is only
// consulted on the ambiguous path, and only when the session capability
// allows it.
func (e *Engine) Resolve(ctx context.Context, req Request, sampler ranking.Sampler) (Result, error) {
	remote, module, name, err := parseTarget(req.Name)
	if err != nil {
		return Result{}, err
	}
	if req.Module != "" {
		module = req.Module
	}
	if req.Remote != "" {
		remote = req.Remote
	}
	if name == "" {
		return Result{}, fmt.Errorf("empty name in lookup request")
	}

	m := e.registry.Current()

	// Remote- or module-qualified lookups are exact: one or zero results,
	// never ambiguous, no ranking.
	if remote != "" {
		return e.exactFromSource(m, req.Kind, "git:"+remote, module, name), nil
	}
	if module != "" {
		return e.exactByKey(m, req.Kind, module, name), nil
	}

	// Bare-name lookup: 0, 1 or N canonical entries across modules.
	cands := e.bareCandidates(m, req.Kind, name)
	switch len(cands) {
	case 0:
		return Result{Outcome: OutcomeNone, Kind: req.Kind}, nil
	case 1:
		return e.exactByKey(m, req.Kind, cands[0].Module, cands[0].Name), nil
	}

	ranked := e.ranker.Rank(ctx, cands, e.stats, req.UserContext, e.caps.Current(), sampler)
	return Result{
		Outcome:    OutcomeAmbiguous,
		Kind:       req.Kind,
		Candidates: ranked,
		Summary:    candidateSummary(name, ranked),
	}, nil
}

// Execute resolves req and, on a single match, renders the activation
// payload. Ambiguous and not-found outcomes pass through unchanged.
func (e *Engine) Execute(ctx context.Context, req Request, sampler ranking.Sampler) (*Activation, Result, error) {
	res, err := e.Resolve(ctx, req, sampler)
	if err != nil || res.Outcome != OutcomeSingle {
		return nil, res, err
	}

	switch req.Kind {
	case KindAgent:
		act := e.agentActivation(res.Agent)
		return act, res, nil
	case KindWorkflow:
		act := e.workflowActivation(res.Workflow)
		return act, res, nil
	default:
		return nil, res, fmt.Errorf("unknown execute kind %q", req.Kind)
	}
}

func (e *Engine) exactByKey(m *registry.MasterManifest, kind Kind, module, name string) Result {
	switch kind {
	case KindWorkflow:
		if w, ok := m.Workflow(module, name); ok {
			return Result{Outcome: OutcomeSingle, Kind: kind, Workflow: &w}
		}
	default:
		if a, ok := m.Agent(module, name); ok {
			return Result{Outcome: OutcomeSingle, Kind: kind, Agent: &a}
		}
	}
	return Result{Outcome: OutcomeNone, Kind: kind}
}

func (e *Engine) exactFromSource(m *registry.MasterManifest, kind Kind, label, module, name string) Result {
	switch kind {
	case KindWorkflow:
		if w, ok := m.WorkflowFromSource(label, module, name); ok {
			return Result{Outcome: OutcomeSingle, Kind: kind, Workflow: &w}
		}
	default:
		if a, ok := m.AgentFromSource(label, module, name); ok {
			return Result{Outcome: OutcomeSingle, Kind: kind, Agent: &a}
		}
	}
	return Result{Outcome: OutcomeNone, Kind: kind}
}

func (e *Engine) bareCandidates(m *registry.MasterManifest, kind Kind, name string) []ranking.Candidate {
	var cands []ranking.Candidate
	switch kind {
	case KindWorkflow:
		for _, w := range m.WorkflowsByName(name) {
			cands = append(cands, ranking.Candidate{
				Key:         w.Key(),
				Module:      w.Module,
				Name:        w.Name,
				Title:       w.Name,
				Description: w.Description,
				Order:       w.Order,
			})
		}
	default:
		for _, a := range m.AgentsByName(name) {
			desc := a.Role
			if desc == "" {
				desc = a.Title
			}
			cands = append(cands, ranking.Candidate{
				Key:         a.Key(),
				Module:      a.Module,
				Name:        a.Name,
				Title:       a.Title,
				Description: desc,
				Order:       a.Order,
			})
		}
	}
	return cands
}

// candidateSummary renders one line per candidate: module, short
// description, and how to disambiguate.
func candidateSummary(name string, cands []ranking.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q matches %d entries across modules:\n", name, len(cands))
	for i, c := range cands {
		desc := c.Description
		if desc == "" {
			desc = c.Title
		}
		fmt.Fprintf(&b, "%d. %s — %s (use %s/%s)\n", i+1, c.Key, desc, c.Module, c.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseTarget splits a request name into its optional qualifiers:
//
//	name
//	module/name  or  module:name
//	@remote:module/name  or  @remote:name
func parseTarget(raw string) (remote, module, name string, err error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "@") {
		rest := strings.TrimPrefix(raw, "@")
		idx := strings.Index(rest, ":")
		if idx <= 0 {
			return "", "", "", fmt.Errorf("malformed remote qualifier %q (want @remote:name)", raw)
		}
		remote = rest[:idx]
		raw = rest[idx+1:]
	}

	if idx := strings.IndexAny(raw, "/:"); idx >= 0 {
		module = raw[:idx]
		name = raw[idx+1:]
		if module == "" || name == "" || strings.ContainsAny(name, "/:") {
			return "", "", "", fmt.Errorf("malformed qualified name %q", raw)
		}
		return remote, module, name, nil
	}

	return remote, "", raw, nil
}
