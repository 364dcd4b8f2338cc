// Package tools implements the MCP tool handlers.
//
// Each tool is a struct that receives its dependencies at construction
// (DIP) and exposes Definition/Handle for registration.
//
// Design principles:
// - SRP: each file = one tool
// - DIP: tools depend on the resolver engine, never on sources or parsers
// - OCP: new tools are added without modifying existing ones
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/bmad-mcp/internal/config"
	"github.com/HendryAvila/bmad-mcp/internal/resolver"
	"github.com/HendryAvila/bmad-mcp/internal/source"
	"github.com/mark3labs/mcp-go/mcp"
)

// DiscoverTool handles the bmad_discover MCP tool. It re-runs source
// discovery and rebuilds the registry.
type DiscoverTool struct {
	engine *resolver.Engine
}

// NewDiscoverTool creates a DiscoverTool backed by the given engine.
func NewDiscoverTool(engine *resolver.Engine) *DiscoverTool {
	return &DiscoverTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *DiscoverTool) Definition() mcp.Tool {
	return mcp.NewTool("bmad_discover",
		mcp.WithDescription(
			"Discover BMAD installations (project, user, configured git remotes), "+
				"rebuild the merged agent/workflow registry, and report what was found. "+
				"Run this after installing or updating a BMAD module.",
		),
		mcp.WithString("mode",
			mcp.Description("Discovery mode: 'auto' (project, then user, then remotes), "+
				"'strict' (configured git remotes only), 'local' (project only), 'user' (user only). "+
				"Defaults to the configured mode."),
			mcp.Enum("auto", "strict", "local", "user"),
		),
		mcp.WithString("remotes",
			mcp.Description("Comma-separated names of configured remotes to include, "+
				"instead of all of them"),
		),
	)
}

// Handle processes the bmad_discover tool call.
func (t *DiscoverTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := config.DiscoveryMode(req.GetString("mode", ""))
	if mode != "" && !mode.Valid() {
		return mcp.NewToolResultError(
			"'mode' must be one of: auto, strict, local, user",
		), nil
	}

	var remotes []config.Remote
	if raw := strings.TrimSpace(req.GetString("remotes", "")); raw != "" {
		var names []string
		for _, n := range strings.Split(raw, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		var rerr error
		remotes, rerr = t.engine.RemoteSubset(names)
		if rerr != nil {
			return mcp.NewToolResultError(rerr.Error()), nil
		}
	}

	m, err := t.engine.Discover(ctx, mode, remotes)
	if err != nil {
		if errors.Is(err, source.ErrNoSourcesConfigured) {
			return mcp.NewToolResultError(
				"No BMAD installation found. Install BMAD in this project (bmad/ directory), "+
					"in your user directory (~/.bmad), or configure a git remote.",
			), nil
		}
		return nil, fmt.Errorf("discovery: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Discovery Complete\n\n")
	fmt.Fprintf(&b, "**Agents:** %d (%d shadowed)\n", len(m.Agents), len(m.ShadowedAgents))
	fmt.Fprintf(&b, "**Workflows:** %d (%d shadowed)\n", len(m.Workflows), len(m.ShadowedWorkflows))
	fmt.Fprintf(&b, "**Tasks:** %d\n", len(m.Tasks))
	fmt.Fprintf(&b, "**Modules:** %s\n", strings.Join(m.Modules(), ", "))

	if len(m.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range m.Warnings {
			if w.Path != "" {
				fmt.Fprintf(&b, "- [%s] %s: %s\n", w.Provenance, w.Path, w.Message)
			} else {
				fmt.Fprintf(&b, "- [%s] %s\n", w.Provenance, w.Message)
			}
		}
	}

	b.WriteString("\nUse `bmad_list` to browse entries, `bmad_activate_agent` or `bmad_run_workflow` to start one.")

	return mcp.NewToolResultText(b.String()), nil
}
