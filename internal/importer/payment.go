package importer

// payment.go imports payment records and derives their sequence codes.
//
// Two input shapes share the same sequencing and conflict machinery:
//
//   - long: one row per payment, committed one transaction per row
//   - wide: one row per contract with period-labeled amount columns,
//     pivoted to candidates and committed in a single batch transaction
//
// Candidates are grouped per contract; the sequencer numbers each group
// after the contract's existing payments. A generated code colliding with a
// persisted one is routed through the active conflict mode so the reported
// statistics stay accurate.

import (
	"context"
	"fmt"

	"github.com/huangfeng15/taizhang/internal/model"
	"github.com/shopspring/decimal"
)

type paymentImporter struct {
	repos Repos
	seq   *Sequencer
}

func newPaymentImporter(repos Repos) Importer {
	return &paymentImporter{repos: repos, seq: NewSequencer(repos.Payments)}
}

// candidate is a parsed payment row awaiting code assignment.
type candidate struct {
	line     int
	payment  *model.Payment
	contract *model.Contract
}

// group is the per-contract unit the sequencer works on.
type group struct {
	contract   *model.Contract
	candidates []*candidate

	// contract-level updates carried by wide rows
	settlementPrice decimal.NullDecimal
	settled         bool
	touchContract   bool
}

func (im *paymentImporter) Import(ctx context.Context, table Table, opts Options) (*Report, error) {
	report := &Report{Module: ModulePayment, DryRun: opts.DryRun}
	if err := prepare(ctx, im.repos, opts); err != nil {
		return report, err
	}

	def, _ := Definition(ModulePayment)

	var (
		groups []*group
		err    error
	)
	if opts.Mode == ModeWide {
		groups, err = im.collectWide(ctx, def, table, opts, report)
	} else {
		groups, err = im.collectLong(ctx, def, table, opts, report)
	}
	if err != nil {
		return report, err
	}

	// Assign codes per contract group, then split fresh creates from
	// collisions with persisted codes.
	type prepared struct {
		g         *group
		fresh     []*candidate
		colliding []*candidate
	}
	var batch []prepared
	for _, g := range groups {
		payments := make([]*model.Payment, len(g.candidates))
		for i, c := range g.candidates {
			payments[i] = c.payment
		}
		existingCodes, err := im.seq.Assign(ctx, g.contract, payments)
		if err != nil {
			if IsIntegrity(err) {
				return report, err
			}
			for _, c := range g.candidates {
				report.Fail(c.line, err)
			}
			if !opts.SkipErrors {
				return report, err
			}
			continue
		}

		p := prepared{g: g}
		for _, c := range g.candidates {
			if existingCodes[c.payment.Code] {
				p.colliding = append(p.colliding, c)
			} else {
				p.fresh = append(p.fresh, c)
			}
		}
		batch = append(batch, p)
	}

	if opts.DryRun {
		for _, p := range batch {
			report.Created += len(p.fresh)
			if err := im.countCollisions(report, opts, p.colliding); err != nil {
				return report, err
			}
		}
		return report, nil
	}

	if opts.Mode == ModeWide {
		// One transaction for the entire prepared batch. A late validation
		// failure aborts the whole batch.
		err := im.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
			for _, p := range batch {
				if err := im.persistGroup(ctx, p.g, p.fresh, p.colliding, opts, report); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return report, err
		}
		return report, nil
	}

	// Long path: one transaction per payment row.
	for _, p := range batch {
		for _, c := range p.fresh {
			c := c
			err := im.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
				return im.repos.Payments.Create(ctx, c.payment)
			})
			if err != nil {
				report.Fail(c.line, err)
				if !opts.SkipErrors {
					return report, RowError{Line: c.line, Err: err}
				}
				continue
			}
			report.Created++
		}
		for _, c := range p.colliding {
			c := c
			o, err := im.resolveCollision(ctx, c, opts, true)
			if err != nil {
				report.Fail(c.line, err)
				if !opts.SkipErrors {
					return report, RowError{Line: c.line, Err: err}
				}
				continue
			}
			report.record(o)
		}
	}
	return report, nil
}

// collectLong parses long-form rows into per-contract groups.
func (im *paymentImporter) collectLong(ctx context.Context, def ModuleDefinition, table Table, opts Options, report *Report) ([]*group, error) {
	var groups []*group
	byCode := make(map[string]*group)

	err := runRows(ctx, def, table.Rows, opts, noTx{}, report, func(ctx context.Context, row Row) (outcome, error) {
		contract, err := im.resolveContract(ctx, row.Cell(colContractSeq), row.Cell(colContractCode))
		if err != nil {
			return 0, err
		}

		raw := row.Cell(colPaymentAmount)
		amount, ok := ParseAmount(raw)
		if !ok {
			return 0, &ValidationError{Field: colPaymentAmount, Value: raw, Message: "invalid amount"}
		}
		paidAt, ok := row.Date(colPaidAt)
		if !ok {
			// Payment date drives sequencing, so a malformed date fails the
			// row instead of becoming null.
			return 0, &ValidationError{Field: colPaidAt, Value: row.Cell(colPaidAt), Message: "invalid payment date"}
		}

		g := byCode[contract.Code]
		if g == nil {
			g = &group{contract: contract}
			byCode[contract.Code] = g
			groups = append(groups, g)
		}
		g.candidates = append(g.candidates, &candidate{
			line:     row.Line,
			contract: contract,
			payment: &model.Payment{
				ContractCode: contract.Code,
				Amount:       amount,
				PaidAt:       paidAt,
			},
		})
		return outcomePending, nil
	})
	return groups, err
}

// collectWide pivots wide-form rows into per-contract groups.
func (im *paymentImporter) collectWide(ctx context.Context, def ModuleDefinition, table Table, opts Options, report *Report) ([]*group, error) {
	periods := DetectPeriodColumns(table.Headers)
	if len(periods) == 0 {
		return nil, fmt.Errorf("no periodic columns recognized in header")
	}

	var groups []*group
	byCode := make(map[string]*group)

	err := runRows(ctx, def, table.Rows, opts, noTx{}, report, func(ctx context.Context, row Row) (outcome, error) {
		contract, err := im.resolveContract(ctx, row.Cell(colContractSeq), row.Cell(colContractCode))
		if err != nil {
			return 0, err
		}

		g := byCode[contract.Code]
		if g == nil {
			g = &group{contract: contract}
			byCode[contract.Code] = g
			groups = append(groups, g)
		}

		// One candidate per non-empty positive period cell.
		for _, rec := range PivotWide([]Row{row}, colContractSeq, periods) {
			g.candidates = append(g.candidates, &candidate{
				line:     rec.Line,
				contract: contract,
				payment: &model.Payment{
					ContractCode: contract.Code,
					Amount:       rec.Amount,
					PaidAt:       rec.Period,
				},
			})
		}

		// Settlement columns, when present, update the contract itself.
		if raw := row.Cell(colSettlementPrice); !IsEmptyValue(raw) {
			price, ok := ParseAmount(raw)
			if !ok {
				return 0, &ValidationError{Field: colSettlementPrice, Value: raw, Message: "invalid amount"}
			}
			g.settlementPrice = decimal.NewNullDecimal(price)
			g.touchContract = true
		}
		if raw := row.Cell(colSettled); raw != "" {
			g.settled = raw == "是" || raw == "已办理"
			g.touchContract = true
		}

		return outcomePending, nil
	})
	return groups, err
}

// persistGroup writes one contract group inside the caller's transaction:
// bulk-create for fresh candidates, conflict routing for collisions, and
// the contract's settlement update when a wide row carried one.
func (im *paymentImporter) persistGroup(ctx context.Context, g *group, fresh, colliding []*candidate, opts Options, report *Report) error {
	if len(fresh) > 0 {
		payments := make([]model.Payment, len(fresh))
		seen := make(map[string]bool, len(fresh))
		for i, c := range fresh {
			// Final defense in depth before the bulk write.
			if seen[c.payment.Code] {
				return &IntegrityError{Message: fmt.Sprintf("duplicate code %s in prepared batch", c.payment.Code)}
			}
			seen[c.payment.Code] = true
			payments[i] = *c.payment
		}
		if err := im.repos.Payments.BulkCreate(ctx, payments); err != nil {
			return fmt.Errorf("bulk create payments for %s: %w", g.contract.Code, err)
		}
		report.Created += len(fresh)
	}

	for _, c := range colliding {
		o, err := im.resolveCollision(ctx, c, opts, false)
		if err != nil {
			return RowError{Line: c.line, Err: err}
		}
		report.record(o)
	}

	if g.touchContract {
		g.contract.SettlementPrice = g.settlementPrice
		g.contract.Settled = g.settled
		if err := im.repos.Contracts.Update(ctx, g.contract); err != nil {
			return fmt.Errorf("update contract %s settlement: %w", g.contract.Code, err)
		}
	}
	return nil
}

// resolveCollision routes a generated code that already exists in the store
// through the conflict policy. ownTx wraps writes in their own transaction
// (long path); the wide path runs inside the batch transaction already.
func (im *paymentImporter) resolveCollision(ctx context.Context, c *candidate, opts Options, ownTx bool) (outcome, error) {
	update := func(ctx context.Context) error {
		existing, err := im.repos.Payments.FindByCode(ctx, c.payment.Code)
		if err != nil {
			return fmt.Errorf("find payment %s: %w", c.payment.Code, err)
		}
		if existing == nil {
			return &IntegrityError{Message: fmt.Sprintf("payment %s vanished during import", c.payment.Code)}
		}
		existing.Amount = c.payment.Amount
		existing.PaidAt = c.payment.PaidAt
		return im.repos.Payments.Update(ctx, existing)
	}

	return applyConflict(opts.ConflictMode, true,
		func() error { return nil }, // unreachable: exists is true
		func() error {
			if opts.DryRun {
				return nil
			}
			if ownTx {
				return im.repos.Tx.WithinTx(ctx, update)
			}
			return update(ctx)
		},
	)
}

// countCollisions applies the dry-run outcome of the colliding candidates to
// the report. Under conflict mode "error" each collision is recorded as a
// row error, and the run aborts the way a real run would unless errors are
// skipped.
func (im *paymentImporter) countCollisions(report *Report, opts Options, colliding []*candidate) error {
	switch opts.ConflictMode {
	case ConflictSkip:
		report.Skipped += len(colliding)
	case ConflictError:
		for _, c := range colliding {
			err := fmt.Errorf("payment %s: %w", c.payment.Code, ErrDuplicateCode)
			report.Fail(c.line, err)
			if !opts.SkipErrors {
				return RowError{Line: c.line, Err: err}
			}
		}
	default:
		report.Updated += len(colliding)
	}
	return nil
}

// resolveContract finds the payment row's contract, preferring the business
// sequence number over the contract code.
func (im *paymentImporter) resolveContract(ctx context.Context, seqRef, codeRef string) (*model.Contract, error) {
	if seqRef == "" && codeRef == "" {
		return nil, &ValidationError{Field: colContractSeq, Message: "required field is empty"}
	}
	if seqRef != "" {
		c, err := im.repos.Contracts.FindBySequence(ctx, seqRef)
		if err != nil {
			return nil, fmt.Errorf("find contract by sequence %s: %w", seqRef, err)
		}
		if c != nil {
			return c, nil
		}
		// A wide sheet's identifier column may hold codes as well.
		c, err = im.repos.Contracts.FindByCode(ctx, seqRef)
		if err != nil {
			return nil, fmt.Errorf("find contract by code %s: %w", seqRef, err)
		}
		if c != nil {
			return c, nil
		}
	}
	if codeRef != "" {
		c, err := im.repos.Contracts.FindByCode(ctx, codeRef)
		if err != nil {
			return nil, fmt.Errorf("find contract by code %s: %w", codeRef, err)
		}
		if c != nil {
			return c, nil
		}
	}
	ref := seqRef
	if ref == "" {
		ref = codeRef
	}
	return nil, &ValidationError{Field: colContractSeq, Value: ref, Message: "contract not found"}
}

// noTx satisfies TxManager for collection passes that must not open
// transactions of their own.
type noTx struct{}

func (noTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// outcomePending marks rows whose real outcome is decided later, during
// persistence. It must not reach Report.record.
const outcomePending outcome = -1

