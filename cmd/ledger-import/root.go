package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/huangfeng15/taizhang/internal/config"
	"github.com/huangfeng15/taizhang/internal/logging"
	"github.com/huangfeng15/taizhang/internal/repository"
)

// cfg is loaded once by the root PersistentPreRunE and shared by all
// subcommands.
var cfg *config.Config

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ledger-import",
		Short:         "Bulk-import procurement ledger spreadsheets into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env if present; real env vars win.
			_ = godotenv.Load()

			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}

	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newRenumberCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// openStore connects the pgx pool using the loaded configuration.
func openStore(ctx context.Context) (*repository.Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Debug("database connected", "max_conns", cfg.Database.MaxConns)
	return repository.NewStore(pool), nil
}
