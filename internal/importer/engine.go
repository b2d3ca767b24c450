package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Engine dispatches import runs to the module registered for the request.
type Engine struct {
	repos Repos
}

func NewEngine(repos Repos) *Engine {
	return &Engine{repos: repos}
}

// ImportFile reads the spreadsheet at path and runs the module import
// described by opts. The returned report is non-nil whenever the file was
// readable, even if every row failed.
func (e *Engine) ImportFile(ctx context.Context, path string, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	def, ok := Definition(opts.Module)
	if !ok {
		return nil, fmt.Errorf("unknown module %q", opts.Module)
	}

	table, err := ReadFile(path, def, opts.Encoding)
	if err != nil {
		return nil, err
	}
	return e.ImportTable(ctx, table, opts)
}

// ImportTable runs a module import over an already-parsed table.
func (e *Engine) ImportTable(ctx context.Context, table Table, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	def, ok := Definition(opts.Module)
	if !ok {
		return nil, fmt.Errorf("unknown module %q", opts.Module)
	}

	runID := uuid.New().String()
	start := time.Now()
	slog.Info("import started",
		"run_id", runID,
		"module", opts.Module,
		"mode", opts.Mode,
		"conflict", opts.ConflictMode,
		"dry_run", opts.DryRun,
		"rows", len(table.Rows),
	)

	report, err := def.New(e.repos).Import(ctx, table, opts)
	if err != nil {
		slog.Error("import aborted", "run_id", runID, "module", opts.Module, "error", err)
		return report, err
	}

	report.RunID = runID
	report.Module = opts.Module
	report.DryRun = opts.DryRun
	report.Duration = time.Since(start)
	slog.Info("import finished",
		"run_id", runID,
		"module", opts.Module,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return report, nil
}
