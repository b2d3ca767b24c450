package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/huangfeng15/taizhang/internal/model"
)

// ProjectStore persists projects.
type ProjectStore struct {
	store *Store
}

func (r *ProjectStore) FindByCode(ctx context.Context, code string) (*model.Project, error) {
	const q = `
		SELECT id, code, name, created_at
		FROM projects
		WHERE code = $1`

	var p model.Project
	err := r.store.db(ctx).QueryRow(ctx, q, code).Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find project %s: %w", code, err)
	}
	return &p, nil
}

func (r *ProjectStore) Create(ctx context.Context, p *model.Project) error {
	const q = `
		INSERT INTO projects (code, name)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.store.db(ctx).QueryRow(ctx, q, p.Code, p.Name).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create project %s: %w", p.Code, err)
	}
	return nil
}

func (r *ProjectStore) Update(ctx context.Context, p *model.Project) error {
	const q = `
		UPDATE projects
		SET name = $2
		WHERE code = $1`

	tag, err := r.store.db(ctx).Exec(ctx, q, p.Code, p.Name)
	if err != nil {
		return fmt.Errorf("update project %s: %w", p.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update project %s: no such row", p.Code)
	}
	return nil
}
