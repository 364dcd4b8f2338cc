// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (bmad://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/bmad-mcp/internal/resolver"
	"github.com/HendryAvila/bmad-mcp/internal/stats"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler serves the registry and session-stats resource endpoints.
type Handler struct {
	engine *resolver.Engine
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(engine *resolver.Engine) *Handler {
	return &Handler{engine: engine}
}

// ManifestResource returns the MCP resource definition for the merged
// registry.
func (h *Handler) ManifestResource() mcp.Resource {
	return mcp.NewResource(
		"bmad://manifest",
		"BMAD Master Manifest",
		mcp.WithResourceDescription("The merged agent/workflow registry: canonical entries, shadowed entries, and validation warnings"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleManifest returns the active registry build as JSON.
func (h *Handler) HandleManifest(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(h.engine.Manifest(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// StatsResource returns the MCP resource definition for session usage
// statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		"bmad://stats",
		"BMAD Session Usage",
		mcp.WithResourceDescription("Per-session usage counters for resolved agents and workflows, plus the detected client sampling capability"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the session usage snapshot as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snapshot, err := h.engine.UsageStats().Snapshot()
	if err != nil {
		return nil, fmt.Errorf("reading usage stats: %w", err)
	}

	payload := struct {
		SessionID  string        `json:"session_id"`
		Usage      []stats.Usage `json:"usage"`
		Capability any           `json:"sampling_capability"`
	}{
		SessionID:  h.engine.UsageStats().SessionID(),
		Usage:      snapshot,
		Capability: h.engine.Capability(),
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling stats: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

func jsonResource(uri string, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}
