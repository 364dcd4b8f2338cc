package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/bmad-mcp/internal/ranking"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// mcpSampler adapts the MCP session's server-initiated sampling call to the
// ranking.Sampler interface. The server is recovered from the request
// context, so the adapter itself is stateless.
type mcpSampler struct{}

// samplerFromContext returns a Sampler bound to the session behind ctx, or
// nil when the call did not arrive through an MCP session. The ranker
// treats a nil sampler as "heuristic only".
func samplerFromContext(ctx context.Context) ranking.Sampler {
	if server.ServerFromContext(ctx) == nil {
		return nil
	}
	return mcpSampler{}
}

// CreateMessage issues one sampling request through the connected client.
func (mcpSampler) CreateMessage(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return "", fmt.Errorf("no MCP session in context")
	}

	result, err := srv.RequestSampling(ctx, mcp.CreateMessageRequest{
		CreateMessageParams: mcp.CreateMessageParams{
			Messages: []mcp.SamplingMessage{
				{
					Role: mcp.RoleUser,
					Content: mcp.TextContent{
						Type: "text",
						Text: userPrompt,
					},
				},
			},
			SystemPrompt: systemPrompt,
			MaxTokens:    256,
			Temperature:  0,
		},
	})
	if err != nil {
		return "", fmt.Errorf("sampling request: %w", err)
	}

	text, ok := mcp.AsTextContent(result.Content)
	if !ok {
		return "", fmt.Errorf("sampling returned non-text content")
	}
	return text.Text, nil
}
