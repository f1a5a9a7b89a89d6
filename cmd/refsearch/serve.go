// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"github.com/pdiddy/refsearch/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference search HTTP API",
	Long: `Serve exposes the reference search pipeline over HTTP. The OpenAPI
specification and interactive docs are served at /docs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg := loadConfig()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		searcher, cleanup, err := newSearcher(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		router := chi.NewRouter()
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type"},
		}))

		humaCfg := huma.DefaultConfig("refsearch", version)
		humaCfg.OpenAPI.Info.Description = "Aggregate academic reference search"
		humaCfg.DocsPath = "/docs"
		api.Setup(humachi.New(router, humaCfg), searcher)

		server := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: router,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", cfg.Server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")

	rootCmd.AddCommand(serveCmd)
}
