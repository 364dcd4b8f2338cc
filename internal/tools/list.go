package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/bmad-mcp/internal/manifest"
	"github.com/HendryAvila/bmad-mcp/internal/resolver"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListTool handles the bmad_list MCP tool: browse the merged registry.
type ListTool struct {
	engine *resolver.Engine
}

// NewListTool creates a ListTool backed by the given engine.
func NewListTool(engine *resolver.Engine) *ListTool {
	return &ListTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("bmad_list",
		mcp.WithDescription(
			"List the agents and workflows in the merged BMAD registry, grouped by module. "+
				"Shadowed entries (duplicate keys from lower-priority sources) are shown separately.",
		),
		mcp.WithString("kind",
			mcp.Description("What to list: 'agents', 'workflows' or 'all'. Defaults to 'all'."),
			mcp.DefaultString("all"),
			mcp.Enum("agents", "workflows", "all"),
		),
		mcp.WithString("module",
			mcp.Description("Restrict the listing to one module"),
		),
	)
}

// Handle processes the bmad_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := req.GetString("kind", "all")
	module := req.GetString("module", "")

	m := t.engine.Manifest()
	if len(m.Agents) == 0 && len(m.Workflows) == 0 {
		return mcp.NewToolResultText(
			"The registry is empty. Run bmad_discover to scan for BMAD installations.",
		), nil
	}

	var b strings.Builder
	b.WriteString("# BMAD Registry\n")

	if kind == "agents" || kind == "all" {
		b.WriteString("\n## Agents\n\n")
		n := 0
		for _, a := range m.Agents {
			if module != "" && a.Module != module {
				continue
			}
			n++
			fmt.Fprintf(&b, "- **%s**", a.Key())
			if a.Title != "" {
				fmt.Fprintf(&b, " — %s", a.Title)
			}
			fmt.Fprintf(&b, " (%s)\n", a.Provenance)
		}
		if n == 0 {
			b.WriteString("(none)\n")
		}
		if shadowed := shadowedAgentLines(m.ShadowedAgents, module); shadowed != "" {
			b.WriteString("\n### Shadowed\n\n")
			b.WriteString(shadowed)
		}
	}

	if kind == "workflows" || kind == "all" {
		b.WriteString("\n## Workflows\n\n")
		n := 0
		for _, w := range m.Workflows {
			if module != "" && w.Module != module {
				continue
			}
			n++
			fmt.Fprintf(&b, "- **%s**", w.Key())
			if w.Description != "" {
				fmt.Fprintf(&b, " — %s", w.Description)
			}
			if !w.Standalone {
				b.WriteString(" [menu-only]")
			}
			fmt.Fprintf(&b, " (%s)\n", w.Provenance)
		}
		if n == 0 {
			b.WriteString("(none)\n")
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func shadowedAgentLines(shadowed []manifest.AgentEntry, module string) string {
	var b strings.Builder
	for _, a := range shadowed {
		if module != "" && a.Module != module {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s) — reach it with a source-qualified lookup\n", a.Key(), a.Provenance)
	}
	return b.String()
}
