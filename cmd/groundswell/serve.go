package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/groundswell-ai/groundswell"
	"github.com/groundswell-ai/groundswell/internal/config"
	httpAdapter "github.com/groundswell-ai/groundswell/pkg/adapters/http"
	"github.com/groundswell-ai/groundswell/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only HTTP inspection server",
	Long:  `Starts a workflow tree and exposes its live state as a JSON API over HTTP, including Prometheus metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)

		cfg := config.DefaultServer()
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			loaded, err := config.LoadServer(path)
			if err != nil {
				logger.Error("config load failed", "err", err)
				os.Exit(1)
			}
			cfg = loaded
		}
		// Flags set explicitly win over the file.
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetString("port")
		}
		if cmd.Flags().Changed("root") {
			cfg.Root, _ = cmd.Flags().GetString("root")
		}
		port, name := cfg.Port, cfg.Root

		registry := prometheus.NewRegistry()
		metrics, err := observability.NewMetricsObserver(registry)
		if err != nil {
			logger.Error("metrics setup failed", "err", err)
			os.Exit(1)
		}

		engine, err := groundswell.New(name,
			groundswell.WithLogger(logger),
			groundswell.WithObserver(metrics),
			groundswell.WithObserver(observability.NewSlogObserver(logger)),
		)
		if err != nil {
			logger.Error("engine setup failed", "err", err)
			os.Exit(1)
		}

		handler := httpAdapter.NewHandler(engine, logger, registry)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting inspection server", "addr", srv.Addr, "root", name)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			logger.Error("server error", "err", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("root", "main", "Name of the root workflow")
	serveCmd.Flags().String("config", "", "Path to a YAML server config file")
}
