package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/huangfeng15/taizhang/internal/model"
)

// EvaluationStore persists contract evaluations.
type EvaluationStore struct {
	store *Store
}

func (r *EvaluationStore) FindByCode(ctx context.Context, code string) (*model.Evaluation, error) {
	const q = `
		SELECT id, code, contract_code, score, evaluated_at, created_at
		FROM evaluations
		WHERE code = $1`

	var (
		e           model.Evaluation
		evaluatedAt *time.Time
	)
	err := r.store.db(ctx).QueryRow(ctx, q, code).Scan(
		&e.ID, &e.Code, &e.ContractCode, &e.Score, &evaluatedAt, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find evaluation %s: %w", code, err)
	}
	e.EvaluatedAt = timeOrZero(evaluatedAt)
	return &e, nil
}

func (r *EvaluationStore) Create(ctx context.Context, e *model.Evaluation) error {
	const q = `
		INSERT INTO evaluations (code, contract_code, score, evaluated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.store.db(ctx).QueryRow(ctx, q,
		e.Code, e.ContractCode, e.Score, nullTime(e.EvaluatedAt),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create evaluation %s: %w", e.Code, err)
	}
	return nil
}

func (r *EvaluationStore) Update(ctx context.Context, e *model.Evaluation) error {
	const q = `
		UPDATE evaluations
		SET contract_code = $2, score = $3, evaluated_at = $4
		WHERE code = $1`

	tag, err := r.store.db(ctx).Exec(ctx, q,
		e.Code, e.ContractCode, e.Score, nullTime(e.EvaluatedAt),
	)
	if err != nil {
		return fmt.Errorf("update evaluation %s: %w", e.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update evaluation %s: no such row", e.Code)
	}
	return nil
}

func (r *EvaluationStore) DeleteByProject(ctx context.Context, projectCode string) (int64, error) {
	const q = `
		DELETE FROM evaluations
		WHERE contract_code IN (SELECT code FROM contracts WHERE project_code = $1)`

	tag, err := r.store.db(ctx).Exec(ctx, q, projectCode)
	if err != nil {
		return 0, fmt.Errorf("delete evaluations of project %s: %w", projectCode, err)
	}
	return tag.RowsAffected(), nil
}
