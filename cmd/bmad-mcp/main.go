// bmad-mcp: BMAD agent and workflow resolution MCP server.
//
// Discovers BMAD installations (project, user, git remotes), merges their
// manifests into one registry, and serves name resolution and activation
// over the MCP stdio transport.
//
// Usage:
//
//	bmad-mcp serve       # Start MCP server (stdio transport)
//	bmad-mcp discover    # Run one discovery pass and print the registry
//	bmad-mcp update      # Update to the latest version
package main

import (
	"fmt"
	"os"

	"github.com/HendryAvila/bmad-mcp/internal/capability"
	"github.com/HendryAvila/bmad-mcp/internal/config"
	"github.com/HendryAvila/bmad-mcp/internal/gitcache"
	"github.com/HendryAvila/bmad-mcp/internal/logging"
	"github.com/HendryAvila/bmad-mcp/internal/ranking"
	"github.com/HendryAvila/bmad-mcp/internal/registry"
	"github.com/HendryAvila/bmad-mcp/internal/resolver"
	bmadserver "github.com/HendryAvila/bmad-mcp/internal/server"
	"github.com/HendryAvila/bmad-mcp/internal/stats"
	"github.com/HendryAvila/bmad-mcp/internal/updater"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:           "bmad-mcp",
		Short:         "BMAD agent and workflow resolution MCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.bmad-mcp/config.yaml)")

	root.AddCommand(serveCmd(), discoverCmd(), updateCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := bmadserver.New(cfgPath)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			// Background version check — stderr only, stdout belongs to
			// the stdio transport.
			go checkForUpdates()

			return server.ServeStdio(s)
		},
	}
}

func discoverCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run one discovery pass and print the merged registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			log := logging.New(nil, cfg.Logging.Level)

			usage, err := stats.New()
			if err != nil {
				return err
			}
			defer func() { _ = usage.Close() }()

			workDir, err := os.Getwd()
			if err != nil {
				workDir = "."
			}

			engine := resolver.New(cfg, workDir,
				registry.NewRegistry(),
				registry.NewBuilder(gitcache.New(cfg.CacheDir, log), log),
				usage,
				ranking.NewRanker(ranking.NewHeuristic(cfg.Ranking.Boosts), cfg.SamplingTimeout(), log),
				capability.NewDetector(),
				log,
			)

			m, err := engine.Discover(cmd.Context(), config.DiscoveryMode(mode), nil)
			if err != nil {
				return err
			}

			fmt.Printf("Agents: %d (%d shadowed)\n", len(m.Agents), len(m.ShadowedAgents))
			for _, a := range m.Agents {
				fmt.Printf("  %-30s %s (%s)\n", a.Key(), a.Title, a.Provenance)
			}
			fmt.Printf("Workflows: %d (%d shadowed)\n", len(m.Workflows), len(m.ShadowedWorkflows))
			for _, w := range m.Workflows {
				suffix := ""
				if !w.Standalone {
					suffix = " [menu-only]"
				}
				fmt.Printf("  %-30s %s (%s)%s\n", w.Key(), w.Description, w.Provenance, suffix)
			}
			if len(m.Warnings) > 0 {
				fmt.Printf("Warnings: %d\n", len(m.Warnings))
				for _, w := range m.Warnings {
					fmt.Printf("  [%s] %s\n", w.Provenance, w.Message)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "discovery mode: auto, strict, local or user")
	return cmd
}

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update to the latest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(os.Stderr, "Checking for updates...")

			result := updater.CheckVersion(bmadserver.Version)
			if !result.UpdateAvailable {
				fmt.Fprintf(os.Stderr, "Already at the latest version (v%s)\n", result.CurrentVersion)
				return nil
			}

			fmt.Fprintf(os.Stderr, "New version available: v%s -> v%s\nDownloading...\n",
				result.CurrentVersion, result.LatestVersion)

			if err := updater.SelfUpdate(bmadserver.Version); err != nil {
				fmt.Fprintf(os.Stderr, "You can download manually from:\n  %s\n", result.ReleaseURL)
				return fmt.Errorf("update failed: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Updated to v%s. Restart bmad-mcp to use the new version.\n", result.LatestVersion)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bmad-mcp v%s\n", bmadserver.Version)
		},
	}
}

// checkForUpdates runs a best-effort version check during serve and prints
// a notice to stderr if an update is available.
func checkForUpdates() {
	result := updater.CheckVersion(bmadserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  Update available: v%s -> v%s\n  Run: bmad-mcp update\n  Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}
