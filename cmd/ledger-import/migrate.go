package main

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run database schema migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sql.Open("pgx", cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			switch args[0] {
			case "up":
				return goose.Up(db, dir)
			case "down":
				return goose.Down(db, dir)
			case "status":
				return goose.Status(db, dir)
			}
			return fmt.Errorf("unknown migration command %q", args[0])
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "db/migrations", "Migrations directory")
	return cmd
}
