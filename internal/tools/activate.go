package tools

import (
	"context"

	"github.com/HendryAvila/bmad-mcp/internal/resolver"
	"github.com/mark3labs/mcp-go/mcp"
)

// ActivateAgentTool handles the bmad_activate_agent MCP tool: resolve an
// agent and return its activation payload (persona, menu, definition).
type ActivateAgentTool struct {
	engine *resolver.Engine
}

// NewActivateAgentTool creates an ActivateAgentTool backed by the given engine.
func NewActivateAgentTool(engine *resolver.Engine) *ActivateAgentTool {
	return &ActivateAgentTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *ActivateAgentTool) Definition() mcp.Tool {
	return mcp.NewTool("bmad_activate_agent",
		mcp.WithDescription(
			"Activate a BMAD agent: resolve the name and return the agent's persona, "+
				"menu and definition for you to adopt. "+
				"Accepts bare names ('analyst'), module-qualified names ('bmm/analyst'), "+
				"and remote-qualified names ('@myremote:bmm/analyst').",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The agent name, optionally qualified"),
		),
		mcp.WithString("module",
			mcp.Description("Restrict the lookup to one module; overrides any module qualifier in 'name'"),
		),
		mcp.WithString("remote",
			mcp.Description("Restrict the lookup to one configured remote; overrides any @remote qualifier in 'name'"),
		),
		mcp.WithString("context",
			mcp.Description("Optional description of what the user wants to do; "+
				"improves candidate ranking when the name is ambiguous"),
		),
	)
}

// Handle processes the bmad_activate_agent tool call.
func (t *ActivateAgentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	act, res, err := t.engine.Execute(ctx, resolver.Request{
		Kind:        resolver.KindAgent,
		Name:        name,
		Module:      req.GetString("module", ""),
		Remote:      req.GetString("remote", ""),
		UserContext: req.GetString("context", ""),
	}, samplerFromContext(ctx))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.Outcome != resolver.OutcomeSingle {
		return mcp.NewToolResultText(renderResolution(name, res)), nil
	}

	t.engine.RecordUsage(act.Key)
	return mcp.NewToolResultText(act.Content), nil
}
