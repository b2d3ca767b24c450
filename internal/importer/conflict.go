package importer

// conflict.go applies the active conflict policy uniformly across all
// module importers, and performs the scope clearing that "replace" mode
// requires before any import work begins.

import (
	"context"
	"fmt"
	"log/slog"
)

// outcome is the per-record result of conflict resolution.
type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeSkipped
)

// applyConflict routes one record through the conflict policy. create and
// update perform the actual persistence; exists reports whether the
// business code is already present.
func applyConflict(mode ConflictMode, exists bool, create, update func() error) (outcome, error) {
	if !exists {
		if err := create(); err != nil {
			return 0, err
		}
		return outcomeCreated, nil
	}

	switch mode {
	case ConflictSkip:
		return outcomeSkipped, nil
	case ConflictError:
		return 0, ErrDuplicateCode
	default: // update, and replace after its scope was cleared
		if err := update(); err != nil {
			return 0, err
		}
		return outcomeUpdated, nil
	}
}

// record applies a resolution outcome to the report.
func (r *Report) record(o outcome) {
	switch o {
	case outcomeCreated:
		r.Created++
	case outcomeUpdated:
		r.Updated++
	case outcomeSkipped:
		r.Skipped++
	}
}

// clearReplaceScope deletes all in-scope records of the target module for
// the given project, inside one transaction, before the import proceeds.
// Contract scope cascades to payments.
func clearReplaceScope(ctx context.Context, repos Repos, module Module, projectCode string) error {
	if projectCode == "" {
		return fmt.Errorf("replace scope requires a project code")
	}

	return repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var (
			n   int64
			err error
		)
		switch module {
		case ModuleProcurement:
			n, err = repos.Procurements.DeleteByProject(ctx, projectCode)
		case ModuleContract:
			n, err = repos.Contracts.DeleteByProject(ctx, projectCode)
		case ModulePayment:
			n, err = repos.Payments.DeleteByProject(ctx, projectCode)
		case ModuleEvaluation:
			n, err = repos.Evaluations.DeleteByProject(ctx, projectCode)
		default:
			return fmt.Errorf("module %s does not support replace scope", module)
		}
		if err != nil {
			return fmt.Errorf("clear %s scope for project %s: %w", module, projectCode, err)
		}

		slog.Info("replace scope cleared",
			"module", module,
			"project", projectCode,
			"deleted", n,
		)
		return nil
	})
}
