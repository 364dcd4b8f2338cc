// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"context"
	"fmt"
	"os"

	"github.com/HendryAvila/bmad-mcp/internal/capability"
	"github.com/HendryAvila/bmad-mcp/internal/config"
	"github.com/HendryAvila/bmad-mcp/internal/gitcache"
	"github.com/HendryAvila/bmad-mcp/internal/logging"
	"github.com/HendryAvila/bmad-mcp/internal/prompts"
	"github.com/HendryAvila/bmad-mcp/internal/ranking"
	"github.com/HendryAvila/bmad-mcp/internal/registry"
	"github.com/HendryAvila/bmad-mcp/internal/resolver"
	"github.com/HendryAvila/bmad-mcp/internal/resources"
	"github.com/HendryAvila/bmad-mcp/internal/stats"
	"github.com/HendryAvila/bmad-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts and
// resources registered, and runs the initial discovery pass.
//
// The returned cleanup function closes the session stats store and must be
// called on shutdown (typically via defer). It is always non-nil.
func New(cfgPath string) (*server.MCPServer, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, noop, fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(nil, cfg.Logging.Level)

	// --- Create shared dependencies ---

	usage, err := stats.New()
	if err != nil {
		return nil, noop, fmt.Errorf("creating usage store: %w", err)
	}
	cleanup := func() {
		if err := usage.Close(); err != nil {
			log.Warn().Err(err).Msg("closing usage store")
		}
	}

	cache := gitcache.New(cfg.CacheDir, log)
	builder := registry.NewBuilder(cache, log)
	reg := registry.NewRegistry()
	detector := capability.NewDetector()
	ranker := ranking.NewRanker(ranking.NewHeuristic(cfg.Ranking.Boosts), cfg.SamplingTimeout(), log)

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	engine := resolver.New(cfg, workDir, reg, builder, usage, ranker, detector, log)

	// --- Create the MCP server ---

	// Sampling capability is detected once per session, from the initialize
	// handshake. Never re-probed.
	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, message *mcp.InitializeRequest, result *mcp.InitializeResult) {
		supported := message.Params.Capabilities.Sampling != nil
		detector.Observe(message.Params.ClientInfo.Name, message.Params.ClientInfo.Version, supported)
		log.Info().
			Str("client", message.Params.ClientInfo.Name).
			Bool("sampling", supported).
			Msg("client capability detected")
	})

	s := server.NewMCPServer(
		"bmad-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
		server.WithHooks(hooks),
	)
	s.EnableSampling()

	// --- Register tools ---

	discoverTool := tools.NewDiscoverTool(engine)
	s.AddTool(discoverTool.Definition(), discoverTool.Handle)

	resolveTool := tools.NewResolveTool(engine)
	s.AddTool(resolveTool.Definition(), resolveTool.Handle)

	activateTool := tools.NewActivateAgentTool(engine)
	s.AddTool(activateTool.Definition(), activateTool.Handle)

	workflowTool := tools.NewRunWorkflowTool(engine)
	s.AddTool(workflowTool.Definition(), workflowTool.Handle)

	listTool := tools.NewListTool(engine)
	s.AddTool(listTool.Definition(), listTool.Handle)

	// --- Register prompts ---

	agentsPrompt := prompts.NewAgentsPrompt(engine)
	s.AddPrompt(agentsPrompt.Definition(), agentsPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(engine)
	s.AddResource(resourceHandler.ManifestResource(), resourceHandler.HandleManifest)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)

	// --- Initial discovery ---
	//
	// A missing installation is not fatal: the server still starts and the
	// client can configure remotes or install BMAD, then run bmad_discover.
	if _, err := engine.Discover(context.Background(), "", nil); err != nil {
		log.Warn().Err(err).Msg("initial discovery found no sources")
	}

	return s, cleanup, nil
}

// noop is the default cleanup when initialization fails early.
func noop() {}

// serverInstructions returns the system instructions that tell the AI how
// to use the BMAD tools effectively.
func serverInstructions() string {
	return `You have access to bmad-mcp, a BMAD agent and workflow resolution server.

## What it does
BMAD installations (project-local bmad/ directories, user-global ~/.bmad,
and configured git remotes) define agents (personas with command menus) and
workflows (guided multi-step procedures). This server merges every
installation into one registry and resolves names against it.

## Tools
- bmad_discover: rescan sources and rebuild the registry. Run after a BMAD
  module is installed or updated.
- bmad_list: browse agents and workflows, grouped by module.
- bmad_resolve: dry-run a name lookup without activating anything.
- bmad_activate_agent: resolve an agent and get its persona/menu to adopt.
- bmad_run_workflow: resolve a workflow and get its definition plus the
  owning agent's handler instructions.

## Name qualifiers
- Bare: "analyst" — may be ambiguous if several modules define it
- Module-qualified: "bmm/analyst" or "bmm:analyst" — exact
- Remote-qualified: "@myremote:bmm/analyst" — exact, reaches shadowed entries

## Ambiguity
An ambiguous bare name is not an error: the tool returns a ranked candidate
list. Present the candidates to the user, let them pick, then repeat the
call with the module-qualified name. When you call bmad_activate_agent or
bmad_run_workflow, pass a short 'context' argument describing what the user
wants — it improves the ranking.

## After activation
bmad_activate_agent returns a persona: adopt it for the rest of the session
and offer its menu commands. bmad_run_workflow returns a definition plus
handler instructions: follow them step by step.`
}
