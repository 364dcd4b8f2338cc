package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/bmad-mcp/internal/resolver"
	"github.com/mark3labs/mcp-go/mcp"
)

// ResolveTool handles the bmad_resolve MCP tool. It answers "which entry
// would this name activate?" without activating anything — a dry run of
// the resolution state machine.
type ResolveTool struct {
	engine *resolver.Engine
}

// NewResolveTool creates a ResolveTool backed by the given engine.
func NewResolveTool(engine *resolver.Engine) *ResolveTool {
	return &ResolveTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *ResolveTool) Definition() mcp.Tool {
	return mcp.NewTool("bmad_resolve",
		mcp.WithDescription(
			"Resolve an agent or workflow name without activating it. "+
				"Accepts bare names ('analyst'), module-qualified names ('bmm/analyst' or 'bmm:analyst'), "+
				"and remote-qualified names ('@myremote:bmm/analyst'). "+
				"Ambiguous bare names return a ranked candidate list instead of an error.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The agent or workflow name, optionally qualified"),
		),
		mcp.WithString("kind",
			mcp.Description("What to resolve: 'agent' or 'workflow'. Defaults to 'agent'."),
			mcp.DefaultString("agent"),
			mcp.Enum("agent", "workflow"),
		),
		mcp.WithString("module",
			mcp.Description("Restrict the lookup to one module; overrides any module qualifier in 'name'"),
		),
		mcp.WithString("remote",
			mcp.Description("Restrict the lookup to one configured remote; overrides any @remote qualifier in 'name'"),
		),
		mcp.WithString("context",
			mcp.Description("Optional free-form description of what the user wants to do; "+
				"improves candidate ranking on ambiguous names"),
		),
	)
}

// Handle processes the bmad_resolve tool call.
func (t *ResolveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	res, err := t.engine.Resolve(ctx, resolver.Request{
		Kind:        resolver.Kind(req.GetString("kind", "agent")),
		Name:        name,
		Module:      req.GetString("module", ""),
		Remote:      req.GetString("remote", ""),
		UserContext: req.GetString("context", ""),
	}, samplerFromContext(ctx))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(renderResolution(name, res)), nil
}

// renderResolution formats a resolution outcome. Shared with the
// execute-class tools for their ambiguous/none paths.
func renderResolution(name string, res resolver.Result) string {
	switch res.Outcome {
	case resolver.OutcomeSingle:
		var b strings.Builder
		if res.Agent != nil {
			a := res.Agent
			fmt.Fprintf(&b, "Resolved to agent **%s**", a.Key())
			if a.Title != "" {
				fmt.Fprintf(&b, " — %s", a.Title)
			}
			fmt.Fprintf(&b, " (source: %s)", a.Provenance)
		}
		if res.Workflow != nil {
			w := res.Workflow
			fmt.Fprintf(&b, "Resolved to workflow **%s**", w.Key())
			if w.Description != "" {
				fmt.Fprintf(&b, " — %s", w.Description)
			}
			fmt.Fprintf(&b, " (source: %s)", w.Provenance)
			if !w.Standalone {
				b.WriteString("\nMenu-only: normally launched from its owning agent's menu.")
			}
		}
		return b.String()

	case resolver.OutcomeAmbiguous:
		return res.Summary + "\n\nPick one and repeat the call with the qualified name."

	default:
		return fmt.Sprintf("No %s named %q found. Run bmad_discover to refresh, or bmad_list to browse what exists.", res.Kind, name)
	}
}
