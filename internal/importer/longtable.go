package importer

// longtable.go is the single-pass importer used by the modules with no
// ordering dependency between rows: project, procurement, and evaluation.
// The shared row loop also backs the per-pass processing of the contract
// importer.
//
// Each data row commits in its own transaction, bounding the blast radius
// of a failure to one row. Row-level errors abort the run unless the
// skip-errors flag is set; integrity errors always abort.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huangfeng15/taizhang/internal/model"
	"github.com/shopspring/decimal"
)

// warnUnresolved logs an optional reference that could not be resolved.
// The row still imports with the reference left unset.
func warnUnresolved(entity, code, field, value string) {
	slog.Warn("unresolved reference left null",
		"entity", entity,
		"code", code,
		"field", field,
		"value", value,
	)
}

// rowFunc processes one classified data row and reports its outcome.
type rowFunc func(ctx context.Context, row Row) (outcome, error)

// runRows drives the classification/error-policy loop over rows, calling
// fn for each data row inside its own transaction (skipped under dry run,
// where fn must not write anyway).
func runRows(ctx context.Context, def ModuleDefinition, rows []Row, opts Options, tx TxManager, report *Report, fn rowFunc) error {
	for _, row := range rows {
		report.Total++

		switch Classify(row, def) {
		case RowBlank:
			report.Blank++
			continue
		case RowComment:
			report.Comments++
			continue
		}

		var o outcome
		var err error
		if opts.DryRun {
			o, err = fn(ctx, row)
		} else {
			err = tx.WithinTx(ctx, func(ctx context.Context) error {
				var ferr error
				o, ferr = fn(ctx, row)
				return ferr
			})
		}

		if err != nil {
			if IsIntegrity(err) {
				return RowError{Line: row.Line, Err: err}
			}
			report.Fail(row.Line, err)
			if !opts.SkipErrors {
				return RowError{Line: row.Line, Err: err}
			}
			continue
		}
		report.record(o)
	}
	return nil
}

// prepare validates options and clears the replace scope when applicable.
// Shared preamble of every importer's Import method.
func prepare(ctx context.Context, repos Repos, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.ConflictMode == ConflictReplace && !opts.DryRun {
		return clearReplaceScope(ctx, repos, opts.Module, opts.ProjectCode)
	}
	return nil
}

// guarded wraps create/update callbacks with the dry-run switch so
// applyConflict still classifies the outcome without touching the store.
func guarded(dryRun bool, fn func() error) func() error {
	if dryRun {
		return func() error { return nil }
	}
	return fn
}

// ---------------------------------------------------------------------------
// Project importer
// ---------------------------------------------------------------------------

type projectImporter struct {
	repos Repos
}

func newProjectImporter(repos Repos) Importer { return &projectImporter{repos: repos} }

func (im *projectImporter) Import(ctx context.Context, table Table, opts Options) (*Report, error) {
	report := &Report{Module: ModuleProject, DryRun: opts.DryRun}
	if err := prepare(ctx, im.repos, opts); err != nil {
		return report, err
	}

	def, _ := Definition(ModuleProject)
	err := runRows(ctx, def, table.Rows, opts, im.repos.Tx, report, func(ctx context.Context, row Row) (outcome, error) {
		code := row.Cell(colProjectCode)
		if code == "" {
			return 0, &ValidationError{Field: colProjectCode, Message: "required field is empty"}
		}
		if err := ValidateCode(code); err != nil {
			return 0, err
		}
		name := row.Cell(colProjectName)
		if name == "" {
			return 0, &ValidationError{Field: colProjectName, Message: "required field is empty"}
		}

		existing, err := im.repos.Projects.FindByCode(ctx, code)
		if err != nil {
			return 0, fmt.Errorf("find project %s: %w", code, err)
		}

		return applyConflict(opts.ConflictMode, existing != nil,
			guarded(opts.DryRun, func() error {
				return im.repos.Projects.Create(ctx, &model.Project{Code: code, Name: name})
			}),
			guarded(opts.DryRun, func() error {
				existing.Name = name
				return im.repos.Projects.Update(ctx, existing)
			}),
		)
	})
	return report, err
}

// ---------------------------------------------------------------------------
// Procurement importer
// ---------------------------------------------------------------------------

type procurementImporter struct {
	repos Repos
}

func newProcurementImporter(repos Repos) Importer { return &procurementImporter{repos: repos} }

func (im *procurementImporter) Import(ctx context.Context, table Table, opts Options) (*Report, error) {
	report := &Report{Module: ModuleProcurement, DryRun: opts.DryRun}
	if err := prepare(ctx, im.repos, opts); err != nil {
		return report, err
	}

	def, _ := Definition(ModuleProcurement)
	err := runRows(ctx, def, table.Rows, opts, im.repos.Tx, report, func(ctx context.Context, row Row) (outcome, error) {
		rec, err := im.parseRow(ctx, row)
		if err != nil {
			return 0, err
		}

		existing, err := im.repos.Procurements.FindByCode(ctx, rec.Code)
		if err != nil {
			return 0, fmt.Errorf("find procurement %s: %w", rec.Code, err)
		}

		return applyConflict(opts.ConflictMode, existing != nil,
			guarded(opts.DryRun, func() error {
				return im.repos.Procurements.Create(ctx, rec)
			}),
			guarded(opts.DryRun, func() error {
				rec.ID = existing.ID
				return im.repos.Procurements.Update(ctx, rec)
			}),
		)
	})
	return report, err
}

func (im *procurementImporter) parseRow(ctx context.Context, row Row) (*model.Procurement, error) {
	code := row.Cell(colProcCode)
	if code == "" {
		return nil, &ValidationError{Field: colProcCode, Message: "required field is empty"}
	}
	if err := ValidateCode(code); err != nil {
		return nil, err
	}

	rec := &model.Procurement{
		Code: code,
		Name: row.Cell(colProcName),
	}

	// Project reference is optional: warn and leave unset when unresolved.
	if pc := row.Cell(colProjectCode); pc != "" {
		project, err := im.repos.Projects.FindByCode(ctx, pc)
		if err != nil {
			return nil, fmt.Errorf("find project %s: %w", pc, err)
		}
		if project == nil {
			warnUnresolved("procurement", code, colProjectCode, pc)
		} else {
			rec.ProjectCode = project.Code
		}
	}

	if raw := row.Cell(colBudgetAmount); !IsEmptyValue(raw) {
		amount, ok := ParseAmount(raw)
		if !ok {
			return nil, &ValidationError{Field: colBudgetAmount, Value: raw, Message: "invalid amount"}
		}
		rec.BudgetAmount = decimal.NewNullDecimal(amount)
	}
	if raw := row.Cell(colWinningAmount); !IsEmptyValue(raw) {
		amount, ok := ParseAmount(raw)
		if !ok {
			return nil, &ValidationError{Field: colWinningAmount, Value: raw, Message: "invalid amount"}
		}
		rec.WinningAmount = decimal.NewNullDecimal(amount)
	}
	// Result date is non-critical: malformed values become null.
	if d, ok := row.Date(colResultDate); ok {
		rec.ResultDate = d
	}

	return rec, nil
}

// ---------------------------------------------------------------------------
// Evaluation importer
// ---------------------------------------------------------------------------

type evaluationImporter struct {
	repos Repos
}

func newEvaluationImporter(repos Repos) Importer { return &evaluationImporter{repos: repos} }

func (im *evaluationImporter) Import(ctx context.Context, table Table, opts Options) (*Report, error) {
	report := &Report{Module: ModuleEvaluation, DryRun: opts.DryRun}
	if err := prepare(ctx, im.repos, opts); err != nil {
		return report, err
	}

	def, _ := Definition(ModuleEvaluation)
	err := runRows(ctx, def, table.Rows, opts, im.repos.Tx, report, func(ctx context.Context, row Row) (outcome, error) {
		code := row.Cell(colEvalCode)
		if code == "" {
			return 0, &ValidationError{Field: colEvalCode, Message: "required field is empty"}
		}
		if err := ValidateCode(code); err != nil {
			return 0, err
		}

		contractCode := row.Cell(colContractCode)
		if contractCode == "" {
			return 0, &ValidationError{Field: colContractCode, Message: "required field is empty"}
		}
		contract, err := im.repos.Contracts.FindByCode(ctx, contractCode)
		if err != nil {
			return 0, fmt.Errorf("find contract %s: %w", contractCode, err)
		}
		if contract == nil {
			return 0, &ValidationError{Field: colContractCode, Value: contractCode, Message: "contract not found"}
		}

		raw := row.Cell(colScore)
		score, ok := ParseAmount(raw)
		if !ok {
			return 0, &ValidationError{Field: colScore, Value: raw, Message: "invalid score"}
		}
		scoreF, _ := score.Float64()
		if scoreF < 0 || scoreF > 100 {
			return 0, &ValidationError{Field: colScore, Value: raw, Message: "score must be between 0 and 100"}
		}

		rec := &model.Evaluation{
			Code:         code,
			ContractCode: contract.Code,
			Score:        scoreF,
		}
		if d, ok := row.Date(colEvaluatedAt); ok {
			rec.EvaluatedAt = d
		}

		existing, err := im.repos.Evaluations.FindByCode(ctx, code)
		if err != nil {
			return 0, fmt.Errorf("find evaluation %s: %w", code, err)
		}

		return applyConflict(opts.ConflictMode, existing != nil,
			guarded(opts.DryRun, func() error {
				return im.repos.Evaluations.Create(ctx, rec)
			}),
			guarded(opts.DryRun, func() error {
				rec.ID = existing.ID
				return im.repos.Evaluations.Update(ctx, rec)
			}),
		)
	})
	return report, err
}
