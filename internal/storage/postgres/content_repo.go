package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/romariotrain/content-pipeline/internal/content/models"
	"github.com/romariotrain/content-pipeline/internal/content/repository"
)

type ContentRepo struct {
	db *sqlx.DB
}

func NewContentRepo(db *sqlx.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

func (r *ContentRepo) Create(ctx context.Context, c *models.Content) error {
	const q = `
		INSERT INTO content (id, status, type, source, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.Status, c.Type, c.Source, c.FailureReason, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("content create: %w", err)
	}
	return nil
}

func (r *ContentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	const q = `
		SELECT id, status, type, source, failure_reason, created_at, updated_at
		FROM content
		WHERE id = $1
	`

	var c models.Content
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("content get by id: %w", err)
	}

	return &c, nil
}

func (r *ContentRepo) BeginTx(ctx context.Context) (repository.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

func (r *ContentRepo) UpdateStatusTx(ctx context.Context, tx repository.Tx, id uuid.UUID, status models.Status, reason string) (*models.Content, error) {
	stx, ok := tx.(*sqlx.Tx)
	if !ok {
		return nil, models.ErrInvalidArgument
	}

	const q = `
        UPDATE content
        SET status = $2, failure_reason = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING id, status, type, source, failure_reason, created_at, updated_at
    `

	var c models.Content
	if err := stx.GetContext(ctx, &c, q, id, status, reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("content update status tx: %w", err)
	}

	return &c, nil
}

// ClaimUploaded атомарно забирает пачку uploaded элементов под обработку.
// SKIP LOCKED — чтобы конкурирующие воркеры не дрались за одни и те же строки.
// Outbox события пишутся в той же транзакции, что и смена статуса.
func (r *ContentRepo) ClaimUploaded(ctx context.Context, limit int) ([]*models.Content, error) {
	if limit <= 0 {
		return nil, models.ErrInvalidArgument
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("claim begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
        UPDATE content
        SET status = $1, updated_at = NOW()
        WHERE id IN (
            SELECT id FROM content
            WHERE status = $2
            ORDER BY created_at ASC
            LIMIT $3
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id, status, type, source, failure_reason, created_at, updated_at
    `

	var claimed []*models.Content
	if err := tx.SelectContext(ctx, &claimed, q, models.ProcessingStatus, models.UploadedStatus, limit); err != nil {
		return nil, fmt.Errorf("claim uploaded: %w", err)
	}

	for _, c := range claimed {
		event := models.NewContentStatusChanged(c.ID, models.UploadedStatus, models.ProcessingStatus, "claimed by worker")
		if err := insertOutbox(ctx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("claim commit: %w", err)
	}

	return claimed, nil
}

// FailStaleUploading добивает загрузки, чей клиент пропал: uploading старше
// cutoff уходит в failed, дальше им займётся оператор через retry.
func (r *ContentRepo) FailStaleUploading(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("stale begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
        UPDATE content
        SET status = $1, failure_reason = $2, updated_at = NOW()
        WHERE status = $3 AND created_at < $4
        RETURNING id
    `

	var ids []uuid.UUID
	if err := tx.SelectContext(ctx, &ids, q, models.FailedStatus, reason, models.UploadingStatus, cutoff); err != nil {
		return 0, fmt.Errorf("fail stale uploading: %w", err)
	}

	for _, id := range ids {
		event := models.NewContentStatusChanged(id, models.UploadingStatus, models.FailedStatus, reason)
		if err := insertOutbox(ctx, tx, event); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("stale commit: %w", err)
	}

	return int64(len(ids)), nil
}

// FailStaleProcessing добивает элементы, застрявшие в processing: воркер взял
// их и умер, не доведя до completed/failed. Срез по updated_at — claim его
// обновляет, так что свежевзятые элементы не задеваются.
func (r *ContentRepo) FailStaleProcessing(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("stale begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
        UPDATE content
        SET status = $1, failure_reason = $2, updated_at = NOW()
        WHERE status = $3 AND updated_at < $4
        RETURNING id
    `

	var ids []uuid.UUID
	if err := tx.SelectContext(ctx, &ids, q, models.FailedStatus, reason, models.ProcessingStatus, cutoff); err != nil {
		return 0, fmt.Errorf("fail stale processing: %w", err)
	}

	for _, id := range ids {
		event := models.NewContentStatusChanged(id, models.ProcessingStatus, models.FailedStatus, reason)
		if err := insertOutbox(ctx, tx, event); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("stale commit: %w", err)
	}

	return int64(len(ids)), nil
}

func insertOutbox(ctx context.Context, tx *sqlx.Tx, event models.DomainEvent) error {
	const q = `
        INSERT INTO outbox (event_id, event_type, aggregate_id, payload, occurred_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q,
		event.EventID(), event.EventType(), event.AggregateID(), payload, event.OccurredAt(),
	); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}
