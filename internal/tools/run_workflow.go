package tools

import (
	"context"

	"github.com/HendryAvila/bmad-mcp/internal/resolver"
	"github.com/mark3labs/mcp-go/mcp"
)

// RunWorkflowTool handles the bmad_run_workflow MCP tool: resolve a
// workflow and return its definition plus the owning agent's handler
// instructions.
type RunWorkflowTool struct {
	engine *resolver.Engine
}

// NewRunWorkflowTool creates a RunWorkflowTool backed by the given engine.
func NewRunWorkflowTool(engine *resolver.Engine) *RunWorkflowTool {
	return &RunWorkflowTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *RunWorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("bmad_run_workflow",
		mcp.WithDescription(
			"Start a BMAD workflow: resolve the name and return the workflow definition "+
				"plus its owning agent's handler instructions. "+
				"Accepts bare names ('party-mode'), module-qualified names ('bmm/party-mode'), "+
				"and remote-qualified names ('@myremote:bmm/party-mode').",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The workflow name, optionally qualified"),
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

// Handle processes the bmad_run_workflow tool call.
func (t *RunWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	act, res, err := t.engine.Execute(ctx, resolver.Request{
		Kind:        resolver.KindWorkflow,
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
