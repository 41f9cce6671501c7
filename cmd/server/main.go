package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"nestnav/forecaster/config"
	"nestnav/forecaster/internal/api"
	"nestnav/forecaster/internal/forecast"
	"nestnav/forecaster/internal/metrics"
	"nestnav/forecaster/internal/storage"
	"nestnav/forecaster/internal/trend"
)

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Serve price, plots and rentals forecasts over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(envFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			run(cfg)
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) {
	logger := cfg.Log.NewLogger()

	store, err := storage.Open(cfg.Data, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open store")
	}
	defer store.Close()

	zones, err := config.LoadZones(cfg.Data.ZonesFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load zones")
	}

	model := trend.NewModel(trend.Options{IntervalWidth: cfg.Forecast.IntervalWidth})
	service := forecast.NewService(store, model, logger)
	handler := api.NewHandler(service, store, zones, metrics.New(), logger)

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.NewRouter(handler, cfg.Server),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("addr", server.Addr).Infof("Starting server, backend %s", cfg.Data.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}
