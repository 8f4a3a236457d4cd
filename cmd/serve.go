package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ecomdash/backend/internal/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard web server",
	Long: `Start the dashboard web server.

Example:
  ecomdash serve --secrets-file .streamlit/secrets.toml
  ecomdash serve --address :8080 --parallel-panels`,
	RunE: runServer,
}

func init() {
	serveCmd.Flags().String("address", ":8501", "server listen address")
	serveCmd.Flags().Bool("parallel-panels", false, "run the panel queries of a report concurrently")
	serveCmd.Flags().Duration("shutdown-timeout", 15*time.Second, "graceful shutdown timeout")

	for key, flag := range map[string]string{
		"address":                   "address",
		"dashboard.parallel_panels": "parallel-panels",
		"shutdown-timeout":          "shutdown-timeout",
	} {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Errorf("failed to bind flags: %w", err))
		}
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.LogLevel)
	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Msg("Starting dashboard")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	hcfg := handler.Config{
		Schema:      cfg.Database.Schema,
		SecretsFile: cfg.SecretsFile,
		Metrics:     a.metrics,
		Logger:      logger.With().Str("component", "http").Logger(),
	}
	if cfg.Metrics.Enabled {
		hcfg.MetricsPath = cfg.Metrics.Path
		hcfg.Gatherer = a.registry
	}
	h := handler.New(a.dispatcher, a.provider, hcfg)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.Address).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal")
	case err := <-serverErrCh:
		return err
	}

	timeout := viper.GetDuration("shutdown-timeout")
	logger.Info().Dur("timeout", timeout).Msg("Starting graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	logger.Info().Msg("Server shutdown complete")
	return nil
}
