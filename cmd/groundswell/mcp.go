package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundswell-ai/groundswell"
	mcpAdapter "github.com/groundswell-ai/groundswell/pkg/adapters/mcp"
	"github.com/groundswell-ai/groundswell/pkg/cache"
	"github.com/groundswell-ai/groundswell/pkg/observability"
	"github.com/groundswell-ai/groundswell/pkg/templates"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) introspection server",
	Long: `Starts a workflow tree and exposes it as MCP tools over stdio.
Agents can query node status, ancestry, siblings and children, probe the
response cache, and spawn child workflows from pre-approved templates.`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("root")
		templatesPath, _ := cmd.Flags().GetString("templates")
		logger := newLogger(cmd)

		registry := templates.NewRegistry()
		if templatesPath != "" {
			loaded, err := templates.Load(templatesPath)
			if err != nil {
				log.Fatalf("Error loading templates: %v", err)
			}
			registry = loaded
		}

		engine, err := groundswell.New(name,
			groundswell.WithLogger(logger),
			groundswell.WithObserver(observability.NewSlogObserver(logger)),
		)
		if err != nil {
			log.Fatalf("Error initializing engine: %v", err)
		}

		store := cache.NewMemoryStore()
		responses := cache.New(store, cache.WithLogger(logger))

		srv := mcpAdapter.NewServer(engine, registry,
			mcpAdapter.WithCache(responses),
			mcpAdapter.WithLogger(logger),
		)

		// Logs must stay off stdout so they don't corrupt JSON-RPC frames.
		log.SetOutput(os.Stderr)
		logger.Info("starting MCP server (stdio)", "root", name, "templates", registry.Names())
		if err := srv.ServeStdio(); err != nil {
			logger.Error("MCP server execution failed", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("root", "main", "Name of the root workflow")
	mcpCmd.Flags().String("templates", "", "Path to a YAML spawn-template allow-list")
}
