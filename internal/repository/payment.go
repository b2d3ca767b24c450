package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/huangfeng15/taizhang/internal/importer"
	"github.com/huangfeng15/taizhang/internal/model"
)

// PaymentStore persists payments.
type PaymentStore struct {
	store *Store
}

func (r *PaymentStore) FindByCode(ctx context.Context, code string) (*model.Payment, error) {
	const q = `
		SELECT id, code, contract_code, sequence, amount::text, paid_at, created_at
		FROM payments
		WHERE code = $1`

	p, err := scanPayment(r.store.db(ctx).QueryRow(ctx, q, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find payment %s: %w", code, err)
	}
	return p, nil
}

// ListByContract returns a contract's payments in chronological order. The
// ordering must stay aligned with what the sequencer assigns: paid date
// first, then insertion time, then code as the final tiebreak.
func (r *PaymentStore) ListByContract(ctx context.Context, contractCode string) ([]model.Payment, error) {
	const q = `
		SELECT id, code, contract_code, sequence, amount::text, paid_at, created_at
		FROM payments
		WHERE contract_code = $1
		ORDER BY paid_at, created_at, code`

	rows, err := r.store.db(ctx).Query(ctx, q, contractCode)
	if err != nil {
		return nil, fmt.Errorf("list payments of contract %s: %w", contractCode, err)
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("list payments of contract %s: %w", contractCode, err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payments of contract %s: %w", contractCode, err)
	}
	return out, nil
}

func (r *PaymentStore) Create(ctx context.Context, p *model.Payment) error {
	const q = `
		INSERT INTO payments (code, contract_code, sequence, amount, paid_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.store.db(ctx).QueryRow(ctx, q,
		p.Code, p.ContractCode, p.Sequence, p.Amount.String(), p.PaidAt,
	).Scan(&p.ID, &p.CreatedAt)
	if IsUniqueViolation(err) {
		// The importer checks for collisions before inserting; reaching the
		// constraint means a concurrent import won the race.
		return &importer.IntegrityError{
			Message: fmt.Sprintf("create payment %s: code already persisted", p.Code),
		}
	}
	if err != nil {
		return fmt.Errorf("create payment %s: %w", p.Code, err)
	}
	return nil
}

func (r *PaymentStore) Update(ctx context.Context, p *model.Payment) error {
	const q = `
		UPDATE payments
		SET contract_code = $2, sequence = $3, amount = $4, paid_at = $5, code = $6
		WHERE id = $1`

	tag, err := r.store.db(ctx).Exec(ctx, q,
		p.ID, p.ContractCode, p.Sequence, p.Amount.String(), p.PaidAt, p.Code,
	)
	if err != nil {
		return fmt.Errorf("update payment %s: %w", p.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update payment %s: no such row", p.Code)
	}
	return nil
}

// BulkCreate inserts the batch with the COPY protocol and verifies the
// reported row count against the batch size. A mismatch is an integrity
// failure that must abort the surrounding transaction.
func (r *PaymentStore) BulkCreate(ctx context.Context, ps []model.Payment) error {
	if len(ps) == 0 {
		return nil
	}

	rows := make([][]any, len(ps))
	for i, p := range ps {
		rows[i] = []any{p.Code, p.ContractCode, p.Sequence, p.Amount.String(), p.PaidAt}
	}

	copied, err := r.store.db(ctx).CopyFrom(ctx,
		pgx.Identifier{"payments"},
		[]string{"code", "contract_code", "sequence", "amount", "paid_at"},
		pgx.CopyFromRows(rows),
	)
	if IsUniqueViolation(err) {
		return &importer.IntegrityError{
			Message: "bulk create payments: generated code already persisted",
		}
	}
	if err != nil {
		return fmt.Errorf("bulk create payments: %w", err)
	}
	if copied != int64(len(ps)) {
		return &importer.IntegrityError{
			Message: fmt.Sprintf("bulk create payments: wrote %d of %d rows", copied, len(ps)),
		}
	}
	return nil
}

func (r *PaymentStore) DeleteByProject(ctx context.Context, projectCode string) (int64, error) {
	const q = `
		DELETE FROM payments
		WHERE contract_code IN (SELECT code FROM contracts WHERE project_code = $1)`

	tag, err := r.store.db(ctx).Exec(ctx, q, projectCode)
	if err != nil {
		return 0, fmt.Errorf("delete payments of project %s: %w", projectCode, err)
	}
	return tag.RowsAffected(), nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p      model.Payment
		amount string
	)
	if err := row.Scan(&p.ID, &p.Code, &p.ContractCode, &p.Sequence, &amount, &p.PaidAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	d, err := scanNullDecimal(&amount)
	if err != nil {
		return nil, err
	}
	p.Amount = d.Decimal
	return &p, nil
}
