package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"thumbnail-editor-backend/docs"
	"thumbnail-editor-backend/internal/config"
	"thumbnail-editor-backend/internal/logger"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Starts the HTTP API. Backends for persistence, image storage, the
image model and the edit lock are chosen from the environment.`,
		Example: `  # Start with settings from the environment or .env
  server serve

  # Override the port
  server serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			log, err := logger.New(cfg.Environment)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			if cfg.Environment == "production" {
				gin.SetMode(gin.ReleaseMode)
			}
			configureSwagger(cfg)

			ctx := cmd.Context()
			router, cleanup, err := buildApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			server := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				log.Info("server starting",
					zap.String("addr", server.Addr),
					zap.String("environment", cfg.Environment))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-ctx.Done():
				log.Info("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					log.Error("server shutdown failed", zap.Error(err))
					return err
				}
				log.Info("server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (defaults to PORT)")

	return cmd
}

// configureSwagger points the served docs at BASE_URL.
func configureSwagger(cfg *config.Config) {
	if cfg.BaseURL == "" {
		return
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return
	}
	docs.SwaggerInfo.Host = baseURL.Host
	if baseURL.Scheme == "https" {
		docs.SwaggerInfo.Schemes = []string{"https", "http"}
	} else {
		docs.SwaggerInfo.Schemes = []string{"http", "https"}
	}
}
