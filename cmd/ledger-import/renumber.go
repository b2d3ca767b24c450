package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/huangfeng15/taizhang/internal/importer"
	"github.com/huangfeng15/taizhang/internal/model"
)

func newRenumberCmd() *cobra.Command {
	var (
		contractCode string
		all          bool
	)

	cmd := &cobra.Command{
		Use:   "renumber",
		Short: "Repair payment code numbering after out-of-order backfills",
		Long: `Re-sort each contract's payments chronologically and reassign their
codes and sequences from 1. Incremental imports never renumber existing
payments, so a backfilled payment dated before existing ones keeps a later
number until this command runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if all == (contractCode != "") {
				return fmt.Errorf("exactly one of --contract or --all is required")
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var contracts []model.Contract
			if all {
				if contracts, err = store.Contracts().ListAll(ctx); err != nil {
					return err
				}
			} else {
				c, err := store.Contracts().FindByCode(ctx, contractCode)
				if err != nil {
					return err
				}
				if c == nil {
					return fmt.Errorf("contract %s not found", contractCode)
				}
				contracts = []model.Contract{*c}
			}

			seq := importer.NewSequencer(store.Payments())
			total := 0
			for i := range contracts {
				changed, err := seq.Renumber(ctx, store, &contracts[i])
				if err != nil {
					return fmt.Errorf("renumber %s: %w", contracts[i].Code, err)
				}
				if changed > 0 {
					slog.Info("renumbered", "contract", contracts[i].Code, "changed", changed)
				}
				total += changed
			}

			fmt.Printf("renumbered %d payments across %d contracts\n", total, len(contracts))
			return nil
		},
	}

	cmd.Flags().StringVar(&contractCode, "contract", "", "Renumber a single contract by code")
	cmd.Flags().BoolVar(&all, "all", false, "Renumber every contract")
	return cmd
}
