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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cre-mailflow/api/internal/di"
	"github.com/cre-mailflow/api/internal/platform/observability"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	startedAt := time.Now().UTC()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	logger := rt.logger
	ctx = observability.WithLogger(ctx, logger)

	container, err := di.NewContainer(ctx, rt.cfg, logger, buildInfoFromEnv(rt.env, rt.cfg, startedAt))
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}
	defer func() {
		if err := container.Close(context.Background()); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:         ":" + rt.cfg.Server.Port,
		Handler:      container.Router(),
		ReadTimeout:  rt.cfg.Server.ReadTimeout,
		WriteTimeout: rt.cfg.Server.WriteTimeout,
		IdleTimeout:  rt.cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	serverErr := make(chan error, 1)
	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("mailflow api listening",
			zap.String("store", rt.cfg.Store.Backend),
			zap.Bool("ai", rt.cfg.AI.Enabled()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-shutdown:
	}
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
