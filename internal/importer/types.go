// Package importer provides the ledger bulk-import engine.
// This package has no transport dependencies and is driven equally by the
// CLI and the HTTP trigger surface.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/huangfeng15/taizhang/internal/model"
	"github.com/shopspring/decimal"
)

// Mode selects the shape of the input table.
type Mode string

const (
	ModeLong Mode = "long" // one row per record, already normalized
	ModeWide Mode = "wide" // one row per entity with period-labeled columns
)

// ParseMode validates an operator-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLong, ModeWide:
		return Mode(s), nil
	case "":
		return ModeLong, nil
	}
	return "", fmt.Errorf("unknown mode %q (want long or wide)", s)
}

// Module identifies the ledger module an import targets.
type Module string

const (
	ModuleProject     Module = "project"
	ModuleProcurement Module = "procurement"
	ModuleContract    Module = "contract"
	ModulePayment     Module = "payment"
	ModuleEvaluation  Module = "evaluation"
)

// ParseModule validates an operator-supplied module string.
func ParseModule(s string) (Module, error) {
	switch Module(s) {
	case ModuleProject, ModuleProcurement, ModuleContract, ModulePayment, ModuleEvaluation:
		return Module(s), nil
	}
	return "", fmt.Errorf("unknown module %q", s)
}

// ConflictMode governs what happens when an imported record's business key
// already exists.
type ConflictMode string

const (
	ConflictUpdate  ConflictMode = "update"  // upsert by business code
	ConflictSkip    ConflictMode = "skip"    // never mutate existing records
	ConflictError   ConflictMode = "error"   // any collision is a hard failure
	ConflictReplace ConflictMode = "replace" // clear the project scope, then import
)

// ParseConflictMode validates an operator-supplied conflict mode string.
func ParseConflictMode(s string) (ConflictMode, error) {
	switch ConflictMode(s) {
	case ConflictUpdate, ConflictSkip, ConflictError, ConflictReplace:
		return ConflictMode(s), nil
	case "":
		return ConflictUpdate, nil
	}
	return "", fmt.Errorf("unknown conflict mode %q", s)
}

// Options carries the operator's choices for a single import run.
type Options struct {
	Mode         Mode
	Module       Module
	ConflictMode ConflictMode
	ProjectCode  string // deletion scope, required for ConflictReplace
	SkipErrors   bool   // continue past row-level failures
	DryRun       bool   // parse and validate only, no writes
	Encoding     string // declared default encoding for CSV input
}

// Validate checks option combinations before any file or database work.
func (o Options) Validate() error {
	if _, err := ParseModule(string(o.Module)); err != nil {
		return err
	}
	if o.ConflictMode == ConflictReplace && o.ProjectCode == "" {
		return fmt.Errorf("conflict mode replace requires a project code scope")
	}
	if o.Mode == ModeWide && o.Module != ModulePayment {
		return fmt.Errorf("wide mode is only supported for the payment module")
	}
	return nil
}

// Row is one decoded spreadsheet row: cell values keyed by header name,
// plus the 1-based source line for error reporting.
type Row struct {
	Line  int
	Cells map[string]string
}

// Cell returns the cleaned value of the named column, or "" if absent.
func (r Row) Cell(name string) string {
	return r.Cells[name]
}

// Amount returns the parsed amount of the named column.
func (r Row) Amount(name string) (decimal.Decimal, bool) {
	return ParseAmount(r.Cell(name))
}

// Date returns the parsed date of the named column.
func (r Row) Date(name string) (time.Time, bool) {
	return ParseDate(r.Cell(name))
}

// Table is a decoded input file: the header row plus all data rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// Importer is implemented by each module's import strategy.
type Importer interface {
	Import(ctx context.Context, table Table, opts Options) (*Report, error)
}

// ProjectRepo is the persistence contract for projects.
// Find methods return (nil, nil) when no record matches.
type ProjectRepo interface {
	FindByCode(ctx context.Context, code string) (*model.Project, error)
	Create(ctx context.Context, p *model.Project) error
	Update(ctx context.Context, p *model.Project) error
}

// ProcurementRepo is the persistence contract for procurements.
type ProcurementRepo interface {
	FindByCode(ctx context.Context, code string) (*model.Procurement, error)
	Create(ctx context.Context, p *model.Procurement) error
	Update(ctx context.Context, p *model.Procurement) error
	DeleteByProject(ctx context.Context, projectCode string) (int64, error)
}

// ContractRepo is the persistence contract for contracts.
type ContractRepo interface {
	FindByCode(ctx context.Context, code string) (*model.Contract, error)
	FindBySequence(ctx context.Context, seq string) (*model.Contract, error)
	Create(ctx context.Context, c *model.Contract) error
	Update(ctx context.Context, c *model.Contract) error
	// DeleteByProject removes a project's contracts and, by cascade, their
	// payments. Returns the number of contracts deleted.
	DeleteByProject(ctx context.Context, projectCode string) (int64, error)
}

// PaymentRepo is the persistence contract for payments.
type PaymentRepo interface {
	FindByCode(ctx context.Context, code string) (*model.Payment, error)
	// ListByContract returns a contract's payments ordered by
	// (paid_at, created_at, code).
	ListByContract(ctx context.Context, contractCode string) ([]model.Payment, error)
	Create(ctx context.Context, p *model.Payment) error
	Update(ctx context.Context, p *model.Payment) error
	// BulkCreate inserts the batch and fails if the persisted count differs
	// from len(ps).
	BulkCreate(ctx context.Context, ps []model.Payment) error
	DeleteByProject(ctx context.Context, projectCode string) (int64, error)
}

// EvaluationRepo is the persistence contract for evaluations.
type EvaluationRepo interface {
	FindByCode(ctx context.Context, code string) (*model.Evaluation, error)
	Create(ctx context.Context, e *model.Evaluation) error
	Update(ctx context.Context, e *model.Evaluation) error
	DeleteByProject(ctx context.Context, projectCode string) (int64, error)
}

// TxManager scopes a function to a database transaction. The context passed
// to fn carries the transaction; repository methods called with it
// participate in the same transaction. Commit on nil return, rollback on
// error or panic.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repos bundles the injected persistence dependencies.
type Repos struct {
	Projects     ProjectRepo
	Procurements ProcurementRepo
	Contracts    ContractRepo
	Payments     PaymentRepo
	Evaluations  EvaluationRepo
	Tx           TxManager
}
