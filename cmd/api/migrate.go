package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cre-mailflow/api/internal/platform/config"
	"github.com/cre-mailflow/api/internal/platform/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded SQL migrations to the Postgres campaign store",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if rt.cfg.Store.Backend != config.StoreBackendPostgres {
		return errors.New("migrate requires API_STORE_BACKEND=postgres")
	}

	db, err := postgres.Connect(ctx, rt.cfg.Store.DatabaseURL, rt.cfg.Store.MaxConns)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := postgres.RunMigrations(ctx, db, rt.logger.Named("migrate")); err != nil {
		return err
	}
	rt.logger.Info("migrations completed", zap.String("backend", rt.cfg.Store.Backend))
	fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully")
	return nil
}
