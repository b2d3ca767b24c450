package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huangfeng15/taizhang/internal/importer"
)

type importFlags struct {
	file       string
	module     string
	mode       string
	conflict   string
	project    string
	encoding   string
	dryRun     bool
	skipErrors bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a ledger spreadsheet",
		Long: `Import a long-form or wide-form spreadsheet into one ledger module.

Wide mode pivots period columns (for example 2024年1月, 2024年上半年) into
individual payment rows and is supported for the payment module only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts, err := parseImportFlags(flags)
			if err != nil {
				return err
			}
			if flags.file == "" {
				return fmt.Errorf("--file is required")
			}
			if opts.Encoding == "" {
				opts.Encoding = cfg.Import.DefaultEncoding
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := importer.NewEngine(store.Repos())
			report, err := engine.ImportFile(ctx, flags.file, opts)
			if report != nil {
				fmt.Println(report.Summary())
			}
			return err
		},
	}

	cmd.Flags().StringVar(&flags.file, "file", "", "Spreadsheet to import, .csv or .xlsx (required)")
	cmd.Flags().StringVar(&flags.module, "module", "", "Target module: project, procurement, contract, payment, evaluation (required)")
	cmd.Flags().StringVar(&flags.mode, "mode", "long", "Table shape: long or wide")
	cmd.Flags().StringVar(&flags.conflict, "conflict", "update", "Conflict mode: update, skip, error, replace")
	cmd.Flags().StringVar(&flags.project, "project", "", "Project code scope, required for --conflict=replace")
	cmd.Flags().StringVar(&flags.encoding, "encoding", "", "Declared charset for CSV input (default: detect)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Parse and validate only, write nothing")
	cmd.Flags().BoolVar(&flags.skipErrors, "skip-errors", false, "Continue past row-level failures")

	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("module")

	return cmd
}

func parseImportFlags(flags importFlags) (importer.Options, error) {
	var opts importer.Options
	var err error

	if opts.Module, err = importer.ParseModule(flags.module); err != nil {
		return opts, err
	}
	if opts.Mode, err = importer.ParseMode(flags.mode); err != nil {
		return opts, err
	}
	if opts.ConflictMode, err = importer.ParseConflictMode(flags.conflict); err != nil {
		return opts, err
	}
	opts.ProjectCode = flags.project
	opts.Encoding = flags.encoding
	opts.DryRun = flags.dryRun
	opts.SkipErrors = flags.skipErrors
	return opts, opts.Validate()
}
