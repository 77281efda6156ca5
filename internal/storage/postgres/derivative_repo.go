package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/romariotrain/content-pipeline/internal/content/models"
	"github.com/romariotrain/content-pipeline/internal/content/repository"
)

type DerivativeRepo struct {
	db *sqlx.DB
}

func NewDerivativeRepo(db *sqlx.DB) *DerivativeRepo {
	return &DerivativeRepo{db: db}
}

func (r *DerivativeRepo) AddTx(ctx context.Context, tx repository.Tx, d *models.Derivative) error {
	stx, ok := tx.(*sqlx.Tx)
	if !ok {
		return models.ErrInvalidArgument
	}

	const q = `
		INSERT INTO derivatives (id, content_id, kind, location, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := stx.ExecContext(ctx, q,
		d.ID, d.ContentID, d.Kind, d.Location, d.CreatedAt,
	); err != nil {
		return fmt.Errorf("derivative add: %w", err)
	}
	return nil
}

func (r *DerivativeRepo) ListByContentID(ctx context.Context, contentID uuid.UUID) ([]models.Derivative, error) {
	const q = `
		SELECT id, content_id, kind, location, created_at
		FROM derivatives
		WHERE content_id = $1
		ORDER BY created_at ASC, kind ASC
	`

	var ds []models.Derivative
	if err := r.db.SelectContext(ctx, &ds, q, contentID); err != nil {
		return nil, fmt.Errorf("derivatives list: %w", err)
	}
	return ds, nil
}
