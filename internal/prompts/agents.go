// Package prompts implements the MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/bmad-mcp/internal/resolver"
	"github.com/mark3labs/mcp-go/mcp"
)

// AgentsPrompt handles the bmad-agents MCP prompt. It gives the user a
// browsable picture of what the registry offers and how to activate it.
type AgentsPrompt struct {
	engine *resolver.Engine
}

// NewAgentsPrompt creates an AgentsPrompt backed by the given engine.
func NewAgentsPrompt(engine *resolver.Engine) *AgentsPrompt {
	return &AgentsPrompt{engine: engine}
}

// Definition returns the MCP prompt definition for registration.
func (p *AgentsPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("bmad-agents",
		mcp.WithPromptDescription(
			"Browse the available BMAD agents and pick one to activate.",
		),
		mcp.WithArgument("module",
			mcp.ArgumentDescription("Restrict the listing to one module"),
		),
	)
}

// Handle processes the bmad-agents prompt request.
func (p *AgentsPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	module := ""
	if args := req.Params.Arguments; args != nil {
		module = args["module"]
	}

	m := p.engine.Manifest()

	var b strings.Builder
	b.WriteString("Here are the BMAD agents available in this session:\n\n")
	n := 0
	for _, a := range m.Agents {
		if module != "" && a.Module != module {
			continue
		}
		n++
		line := a.Key()
		if a.Icon != "" {
			line = a.Icon + " " + line
		}
		if a.Title != "" {
			line += " — " + a.Title
		}
		fmt.Fprintf(&b, "- %s\n", line)
	}
	if n == 0 {
		b.Reset()
		b.WriteString("No agents are loaded yet. Run the bmad_discover tool first, then call this prompt again.\n")
	} else {
		b.WriteString("\nAsk me which one fits your task, or activate one directly with `bmad_activate_agent`.")
	}

	return &mcp.GetPromptResult{
		Description: "Available BMAD agents",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(b.String()),
			},
		},
	}, nil
}
