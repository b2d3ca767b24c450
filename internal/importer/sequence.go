package importer

// sequence.go assigns chronologically ordered payment codes.
//
// The contract: a contract's payment codes read as its payments ordered by
// payment date, numbered from 1 with 3-digit zero padding, prefixed by the
// contract's business identifier (sequence number when present, otherwise
// the contract code).
//
// Incremental imports never renumber what is already persisted: rows that
// repeat a stored payment reclaim its code, and new payments continue
// numbering at (count of existing payments) + 1. A backfilled payment dated
// before existing ones therefore gets a later number; Renumber is the
// explicit repair routine for out-of-order backfills.

import (
	"context"
	"fmt"
	"sort"

	"github.com/huangfeng15/taizhang/internal/model"
)

// Sequencer derives payment codes for a contract's candidate batch.
type Sequencer struct {
	payments PaymentRepo
}

// NewSequencer builds a sequencer over the payment repository.
func NewSequencer(payments PaymentRepo) *Sequencer {
	return &Sequencer{payments: payments}
}

// Assign orders candidates by (payment date, batch position) and sets Code
// and Sequence on each. A candidate whose date and amount match a persisted
// payment takes over that payment's code, so re-importing a file routes its
// rows through the conflict mode instead of appending duplicates; genuinely
// new candidates are numbered after the contract's existing payments. It
// returns the set of already-persisted codes so the caller can split fresh
// creates from collisions. Candidates must all belong to contract.
func (s *Sequencer) Assign(ctx context.Context, contract *model.Contract, candidates []*model.Payment) (existingCodes map[string]bool, err error) {
	existing, err := s.payments.ListByContract(ctx, contract.Code)
	if err != nil {
		return nil, fmt.Errorf("list payments for %s: %w", contract.Code, err)
	}

	existingCodes = make(map[string]bool, len(existing))
	unclaimed := make(map[string][]*model.Payment)
	for i := range existing {
		p := &existing[i]
		existingCodes[p.Code] = true
		k := contentKey(p)
		unclaimed[k] = append(unclaimed[k], p)
	}

	// Stable sort: ties on payment date keep source row order, so repeated
	// imports of the same file assign identical codes.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PaidAt.Before(candidates[j].PaidAt)
	})

	ident := contract.PaymentIdent()
	seq := len(existing) + 1
	assigned := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if ps := unclaimed[contentKey(c)]; len(ps) > 0 {
			// Same date and amount as a persisted payment: this is a
			// re-imported row, not a new disbursement. Each persisted
			// payment is claimed at most once.
			c.Sequence = ps[0].Sequence
			c.Code = ps[0].Code
			unclaimed[contentKey(c)] = ps[1:]
		} else {
			c.Sequence = seq
			c.Code = model.PaymentCode(ident, seq)
			seq++
		}

		if assigned[c.Code] {
			// Sequences are strictly increasing and persisted codes are
			// claimed once, so a duplicate here means the generator itself
			// is broken. Never downgraded.
			return nil, &IntegrityError{
				Message: fmt.Sprintf("duplicate generated payment code %s", c.Code),
			}
		}
		assigned[c.Code] = true
	}

	return existingCodes, nil
}

// contentKey identifies a payment by what the source rows carry: the paid
// date and the amount.
func contentKey(p *model.Payment) string {
	return p.PaidAt.Format("2006-01-02") + "|" + p.Amount.String()
}

// Renumber re-sorts all of a contract's payments by (payment date, creation
// time, code) and reassigns sequences 1..N. Returns how many payments
// changed. This is the maintenance pass that repairs numbering after
// out-of-order historical backfills; the importer never runs it implicitly.
func (s *Sequencer) Renumber(ctx context.Context, tx TxManager, contract *model.Contract) (int, error) {
	changed := 0
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		payments, err := s.payments.ListByContract(ctx, contract.Code)
		if err != nil {
			return fmt.Errorf("list payments for %s: %w", contract.Code, err)
		}

		// ListByContract already orders by (paid_at, created_at, code);
		// re-sort locally so correctness does not hinge on the store.
		sort.SliceStable(payments, func(i, j int) bool {
			a, b := payments[i], payments[j]
			if !a.PaidAt.Equal(b.PaidAt) {
				return a.PaidAt.Before(b.PaidAt)
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.Code < b.Code
		})

		ident := contract.PaymentIdent()
		var moved []int
		for i := range payments {
			seq := i + 1
			if payments[i].Sequence != seq || payments[i].Code != model.PaymentCode(ident, seq) {
				moved = append(moved, i)
			}
		}

		// Two phases: park the moved rows on placeholder codes first so the
		// unique index never sees a transient collision mid-shuffle.
		for _, i := range moved {
			parked := payments[i]
			parked.Code = fmt.Sprintf("%s-FK-tmp%d", ident, i)
			if err := s.payments.Update(ctx, &parked); err != nil {
				return fmt.Errorf("park %s: %w", payments[i].Code, err)
			}
		}
		for _, i := range moved {
			payments[i].Sequence = i + 1
			payments[i].Code = model.PaymentCode(ident, i+1)
			if err := s.payments.Update(ctx, &payments[i]); err != nil {
				return fmt.Errorf("renumber %s: %w", payments[i].Code, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
