package importer

// contract.go implements the two-pass contract importer.
//
// A single pass cannot guarantee that a supplement's parent main contract
// already exists when the supplement row is reached: source files carry no
// ordering contract. Splitting the input by dependency class removes the
// requirement — pass 1 persists every main (and framework) contract, pass 2
// resolves supplements and terminations against the now-complete set.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huangfeng15/taizhang/internal/model"
	"github.com/shopspring/decimal"
)

type contractImporter struct {
	repos Repos
}

// warnClearedParent logs a parent reference dropped from a main contract.
func warnClearedParent(code, ref string) {
	slog.Warn("main contract cannot reference a parent, reference cleared",
		"contract", code,
		"parent_ref", ref,
	)
}

func newContractImporter(repos Repos) Importer { return &contractImporter{repos: repos} }

func (im *contractImporter) Import(ctx context.Context, table Table, opts Options) (*Report, error) {
	report := &Report{Module: ModuleContract, DryRun: opts.DryRun}
	if err := prepare(ctx, im.repos, opts); err != nil {
		return report, err
	}
	def, _ := Definition(ModuleContract)

	// Split the input by dependency class. Rows whose positioning parses to
	// supplement or termination wait for pass 2; everything else — main and
	// framework contracts, blank positioning (which defaults to main), and
	// rows with an invalid label that must fail exactly once — belongs to
	// pass 1. Blank and comment rows ride along and are classified there.
	var mains, dependents []Row
	for _, row := range table.Rows {
		pos, err := model.ParseFilePositioning(row.Cell(colPositioning))
		if err == nil && pos.IsDependent() {
			dependents = append(dependents, row)
		} else {
			mains = append(mains, row)
		}
	}

	// Pass 1: main contracts.
	pass1 := &Report{}
	err := runRows(ctx, def, mains, opts, im.repos.Tx, pass1, func(ctx context.Context, row Row) (outcome, error) {
		pos, perr := model.ParseFilePositioning(row.Cell(colPositioning))
		if perr != nil {
			return 0, &ValidationError{Field: colPositioning, Value: row.Cell(colPositioning), Message: "unknown file positioning"}
		}
		return im.importRow(ctx, row, pos, opts)
	})
	report.Add(pass1)
	if err != nil {
		return report, err
	}

	// Pass 2: supplements and terminations against the full main set.
	pass2 := &Report{}
	err = runRows(ctx, def, dependents, opts, im.repos.Tx, pass2, func(ctx context.Context, row Row) (outcome, error) {
		pos, _ := model.ParseFilePositioning(row.Cell(colPositioning))
		return im.importRow(ctx, row, pos, opts)
	})
	report.Add(pass2)
	return report, err
}

// importRow parses, resolves, validates, and persists one contract row.
func (im *contractImporter) importRow(ctx context.Context, row Row, pos model.FilePositioning, opts Options) (outcome, error) {
	rec, err := im.parseRow(ctx, row, pos)
	if err != nil {
		return 0, err
	}

	existing, err := im.repos.Contracts.FindByCode(ctx, rec.Code)
	if err != nil {
		return 0, fmt.Errorf("find contract %s: %w", rec.Code, err)
	}

	return applyConflict(opts.ConflictMode, existing != nil,
		guarded(opts.DryRun, func() error {
			return im.repos.Contracts.Create(ctx, rec)
		}),
		guarded(opts.DryRun, func() error {
			rec.ID = existing.ID
			return im.repos.Contracts.Update(ctx, rec)
		}),
	)
}

func (im *contractImporter) parseRow(ctx context.Context, row Row, pos model.FilePositioning) (*model.Contract, error) {
	code := row.Cell(colContractCode)
	if code == "" {
		return nil, &ValidationError{Field: colContractCode, Message: "required field is empty"}
	}
	if err := ValidateCode(code); err != nil {
		return nil, err
	}

	source, err := model.ParseContractSource(row.Cell(colContractSource))
	if err != nil {
		return nil, &ValidationError{Field: colContractSource, Value: row.Cell(colContractSource), Message: "unknown contract source"}
	}

	rec := &model.Contract{
		Code:           code,
		Name:           row.Cell(colContractName),
		SequenceNumber: row.Cell(colContractSeq),
		Positioning:    pos,
		Source:         source,
		PartyA:         row.Cell(colPartyA),
		PartyB:         row.Cell(colPartyB),
		PaymentMethod:  row.Cell(colPaymentMethod),
	}
	if d, ok := row.Date(colSignedAt); ok {
		rec.SignedAt = d
	}
	if d, ok := row.Date(colArchivedAt); ok {
		rec.ArchivedAt = d
	}
	if raw := row.Cell(colContractAmount); !IsEmptyValue(raw) {
		amount, ok := ParseAmount(raw)
		if !ok {
			return nil, &ValidationError{Field: colContractAmount, Value: raw, Message: "invalid amount"}
		}
		rec.Amount = decimal.NewNullDecimal(amount)
	}

	// Optional project/procurement references: warn and leave null when
	// unresolved.
	if pc := row.Cell(colProjectCode); pc != "" {
		project, err := im.repos.Projects.FindByCode(ctx, pc)
		if err != nil {
			return nil, fmt.Errorf("find project %s: %w", pc, err)
		}
		if project == nil {
			warnUnresolved("contract", code, colProjectCode, pc)
		} else {
			rec.ProjectCode = project.Code
		}
	}
	if sc := row.Cell(colSourceCode); sc != "" {
		proc, err := im.repos.Procurements.FindByCode(ctx, sc)
		if err != nil {
			return nil, fmt.Errorf("find procurement %s: %w", sc, err)
		}
		if proc == nil {
			warnUnresolved("contract", code, colSourceCode, sc)
		} else {
			rec.ProcurementCode = proc.Code
		}
	}

	if pos.IsDependent() {
		if err := im.resolveParent(ctx, row, rec); err != nil {
			return nil, err
		}
	} else if row.Cell(colParentSeq) != "" {
		// A main contract must not reference a parent: auto-clear the
		// reference, warn, and import the row anyway.
		warnClearedParent(rec.Code, row.Cell(colParentSeq))
	}

	return rec, nil
}

// resolveParent finds the dependent row's main contract, primarily by
// business sequence number with the contract code as fallback, and inherits
// the attributes the row leaves blank. An unresolved parent fails the row.
func (im *contractImporter) resolveParent(ctx context.Context, row Row, rec *model.Contract) error {
	ref := row.Cell(colParentSeq)
	if ref == "" {
		return &ValidationError{Field: colParentSeq, Message: fmt.Sprintf("%s must reference a main contract", rec.Positioning.Label())}
	}

	parent, err := im.repos.Contracts.FindBySequence(ctx, ref)
	if err != nil {
		return fmt.Errorf("find parent by sequence %s: %w", ref, err)
	}
	if parent == nil {
		parent, err = im.repos.Contracts.FindByCode(ctx, ref)
		if err != nil {
			return fmt.Errorf("find parent by code %s: %w", ref, err)
		}
	}
	if parent == nil {
		return &ValidationError{Field: colParentSeq, Value: ref, Message: fmt.Sprintf("%s must reference a main contract", rec.Positioning.Label())}
	}
	if parent.Positioning.IsDependent() {
		// A supplement chained onto another supplement would detach it from
		// the real main contract.
		return &ValidationError{Field: colParentSeq, Value: ref, Message: fmt.Sprintf("%s must reference a main contract, %s is %s", rec.Positioning.Label(), parent.Code, parent.Positioning.Label())}
	}

	rec.ParentCode = parent.Code

	// Inherit from the parent where the row is blank.
	if rec.Source == "" {
		rec.Source = parent.Source
	}
	if rec.ProcurementCode == "" {
		rec.ProcurementCode = parent.ProcurementCode
	}
	if rec.ProjectCode == "" {
		rec.ProjectCode = parent.ProjectCode
	}
	return nil
}
