package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/huangfeng15/taizhang/internal/model"
)

// ProcurementStore persists procurements.
type ProcurementStore struct {
	store *Store
}

func (r *ProcurementStore) FindByCode(ctx context.Context, code string) (*model.Procurement, error) {
	const q = `
		SELECT id, code, name, project_code, budget_amount::text, winning_amount::text, result_date, created_at
		FROM procurements
		WHERE code = $1`

	var (
		p           model.Procurement
		projectCode *string
		budget      *string
		winning     *string
		resultDate  *time.Time
	)
	err := r.store.db(ctx).QueryRow(ctx, q, code).Scan(
		&p.ID, &p.Code, &p.Name, &projectCode, &budget, &winning, &resultDate, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find procurement %s: %w", code, err)
	}

	p.ProjectCode = stringOrEmpty(projectCode)
	p.ResultDate = timeOrZero(resultDate)
	if p.BudgetAmount, err = scanNullDecimal(budget); err != nil {
		return nil, err
	}
	if p.WinningAmount, err = scanNullDecimal(winning); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProcurementStore) Create(ctx context.Context, p *model.Procurement) error {
	const q = `
		INSERT INTO procurements (code, name, project_code, budget_amount, winning_amount, result_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.store.db(ctx).QueryRow(ctx, q,
		p.Code, p.Name, nullString(p.ProjectCode),
		nullDecimal(p.BudgetAmount), nullDecimal(p.WinningAmount), nullTime(p.ResultDate),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create procurement %s: %w", p.Code, err)
	}
	return nil
}

func (r *ProcurementStore) Update(ctx context.Context, p *model.Procurement) error {
	const q = `
		UPDATE procurements
		SET name = $2, project_code = $3, budget_amount = $4, winning_amount = $5, result_date = $6
		WHERE code = $1`

	tag, err := r.store.db(ctx).Exec(ctx, q,
		p.Code, p.Name, nullString(p.ProjectCode),
		nullDecimal(p.BudgetAmount), nullDecimal(p.WinningAmount), nullTime(p.ResultDate),
	)
	if err != nil {
		return fmt.Errorf("update procurement %s: %w", p.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update procurement %s: no such row", p.Code)
	}
	return nil
}

func (r *ProcurementStore) DeleteByProject(ctx context.Context, projectCode string) (int64, error) {
	const q = `DELETE FROM procurements WHERE project_code = $1`

	tag, err := r.store.db(ctx).Exec(ctx, q, projectCode)
	if err != nil {
		return 0, fmt.Errorf("delete procurements of project %s: %w", projectCode, err)
	}
	return tag.RowsAffected(), nil
}
