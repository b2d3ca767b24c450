package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/huangfeng15/taizhang/internal/model"
)

// ContractStore persists contracts.
type ContractStore struct {
	store *Store
}

const contractColumns = `
	id, code, name, sequence_number, positioning, source, parent_code,
	project_code, procurement_code, party_a, party_b, signed_at,
	amount::text, payment_method, archived_at,
	settlement_price::text, settled, created_at
`

func (r *ContractStore) FindByCode(ctx context.Context, code string) (*model.Contract, error) {
	q := `SELECT` + contractColumns + `FROM contracts WHERE code = $1`
	return r.findOne(ctx, q, code)
}

func (r *ContractStore) FindBySequence(ctx context.Context, seq string) (*model.Contract, error) {
	q := `SELECT` + contractColumns + `FROM contracts WHERE sequence_number = $1`
	return r.findOne(ctx, q, seq)
}

func (r *ContractStore) findOne(ctx context.Context, q, arg string) (*model.Contract, error) {
	c, err := scanContract(r.store.db(ctx).QueryRow(ctx, q, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find contract %s: %w", arg, err)
	}
	return c, nil
}

func scanContract(row pgx.Row) (*model.Contract, error) {
	var (
		c          model.Contract
		source     *string
		parent     *string
		seqNum     *string
		project    *string
		proc       *string
		signedAt   *time.Time
		amount     *string
		archivedAt *time.Time
		settlement *string
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &seqNum, &c.Positioning, &source, &parent,
		&project, &proc, &c.PartyA, &c.PartyB, &signedAt,
		&amount, &c.PaymentMethod, &archivedAt,
		&settlement, &c.Settled, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.SequenceNumber = stringOrEmpty(seqNum)
	c.Source = model.ContractSource(stringOrEmpty(source))
	c.ParentCode = stringOrEmpty(parent)
	c.ProjectCode = stringOrEmpty(project)
	c.ProcurementCode = stringOrEmpty(proc)
	c.SignedAt = timeOrZero(signedAt)
	c.ArchivedAt = timeOrZero(archivedAt)
	if c.Amount, err = scanNullDecimal(amount); err != nil {
		return nil, err
	}
	if c.SettlementPrice, err = scanNullDecimal(settlement); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListAll returns every contract, ordered by code. Used by maintenance
// routines that walk the whole ledger.
func (r *ContractStore) ListAll(ctx context.Context) ([]model.Contract, error) {
	q := `SELECT` + contractColumns + `FROM contracts ORDER BY code`

	rows, err := r.store.db(ctx).Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	var out []model.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("list contracts: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return out, nil
}

func (r *ContractStore) Create(ctx context.Context, c *model.Contract) error {
	const q = `
		INSERT INTO contracts (
			code, name, sequence_number, positioning, source, parent_code,
			project_code, procurement_code, party_a, party_b, signed_at,
			amount, payment_method, archived_at, settlement_price, settled
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at`

	err := r.store.db(ctx).QueryRow(ctx, q,
		c.Code, c.Name, nullString(c.SequenceNumber), string(c.Positioning),
		nullString(string(c.Source)), nullString(c.ParentCode),
		nullString(c.ProjectCode), nullString(c.ProcurementCode),
		c.PartyA, c.PartyB, nullTime(c.SignedAt),
		nullDecimal(c.Amount), c.PaymentMethod, nullTime(c.ArchivedAt),
		nullDecimal(c.SettlementPrice), c.Settled,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create contract %s: %w", c.Code, err)
	}
	return nil
}

func (r *ContractStore) Update(ctx context.Context, c *model.Contract) error {
	const q = `
		UPDATE contracts
		SET name = $2, sequence_number = $3, positioning = $4, source = $5,
			parent_code = $6, project_code = $7, procurement_code = $8,
			party_a = $9, party_b = $10, signed_at = $11, amount = $12,
			payment_method = $13, archived_at = $14,
			settlement_price = $15, settled = $16
		WHERE code = $1`

	tag, err := r.store.db(ctx).Exec(ctx, q,
		c.Code, c.Name, nullString(c.SequenceNumber), string(c.Positioning),
		nullString(string(c.Source)), nullString(c.ParentCode),
		nullString(c.ProjectCode), nullString(c.ProcurementCode),
		c.PartyA, c.PartyB, nullTime(c.SignedAt), nullDecimal(c.Amount),
		c.PaymentMethod, nullTime(c.ArchivedAt),
		nullDecimal(c.SettlementPrice), c.Settled,
	)
	if err != nil {
		return fmt.Errorf("update contract %s: %w", c.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update contract %s: no such row", c.Code)
	}
	return nil
}

// DeleteByProject removes a project's contracts. Payments go with them via
// the ON DELETE CASCADE on payments.contract_code.
func (r *ContractStore) DeleteByProject(ctx context.Context, projectCode string) (int64, error) {
	const q = `DELETE FROM contracts WHERE project_code = $1`

	tag, err := r.store.db(ctx).Exec(ctx, q, projectCode)
	if err != nil {
		return 0, fmt.Errorf("delete contracts of project %s: %w", projectCode, err)
	}
	return tag.RowsAffected(), nil
}
