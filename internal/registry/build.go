package registry

import (
	"context"
	"fmt"

	"github.com/HendryAvila/bmad-mcp/internal/installation"
	"github.com/HendryAvila/bmad-mcp/internal/logging"
	"github.com/HendryAvila/bmad-mcp/internal/manifest"
	"github.com/HendryAvila/bmad-mcp/internal/source"
)

// GitResolver resolves a git+ specifier to a local clone path. Satisfied by
// *gitcache.Cache.
type GitResolver interface {
	Resolve(ctx context.Context, specifier string) (string, error)
}

// Builder runs one discovery pass: resolve every source location to a root,
// detect its dialect, parse it, and merge everything into a fresh
// MasterManifest. A failure in one source becomes a warning against that
// source's provenance — it never aborts discovery of the others.
type Builder struct {
	git GitResolver
	log *logging.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(git GitResolver, log *logging.Logger) *Builder {
	return &Builder{git: git, log: log.Sub("registry")}
}

// Build constructs a new MasterManifest from the ordered source list. The
// build happens off to the side; the caller swaps it into a Registry once
// complete.
func (b *Builder) Build(ctx context.Context, locs []source.Location) *MasterManifest {
	m := newMaster()

	for _, loc := range locs {
		root := loc.Root
		if loc.Kind == source.KindGit {
			resolved, err := b.git.Resolve(ctx, loc.Specifier)
			if err != nil {
				b.warn(m, loc.Label, "resolving remote source: %v", err)
				continue
			}
			root = resolved
		}

		inst, err := installation.Detect(root)
		if err != nil {
			b.warn(m, loc.Label, "%v", err)
			continue
		}

		res, err := manifest.Parse(inst, loc.Label)
		if err != nil {
			b.warn(m, loc.Label, "%v", err)
			continue
		}

		m.Merge(res)
		b.log.Debug().
			Str("source", loc.Label).
			Str("dialect", string(inst.Type)).
			Int("agents", len(res.Agents)).
			Int("workflows", len(res.Workflows)).
			Msg("source merged")
	}

	m.linkWorkflows()
	b.log.Info().
		Int("sources", len(locs)).
		Int("agents", len(m.Agents)).
		Int("workflows", len(m.Workflows)).
		Int("warnings", len(m.Warnings)).
		Msg("registry built")
	return m
}

func (b *Builder) warn(m *MasterManifest, provenance, format string, args ...any) {
	w := manifest.Warning{Provenance: provenance}
	w.Message = fmt.Sprintf(format, args...)
	m.Warnings = append(m.Warnings, w)
	b.log.Warn().Str("source", provenance).Msg(w.Message)
}
