package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/content-pipeline/internal/content/models"
)

// Tx — минимальный контракт транзакции, чтобы сервис не зависел от sqlx.
type Tx interface {
	Commit() error
	Rollback() error
}

type ContentRepository interface {
	Create(ctx context.Context, c *models.Content) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Content, error)

	BeginTx(ctx context.Context) (Tx, error)
	UpdateStatusTx(ctx context.Context, tx Tx, id uuid.UUID, status models.Status, reason string) (*models.Content, error)

	// ClaimUploaded атомарно переводит до limit элементов uploaded -> processing
	// и возвращает их. Конкурирующие воркеры не получают одни и те же строки.
	ClaimUploaded(ctx context.Context, limit int) ([]*models.Content, error)

	// FailStaleUploading помечает failed загрузки, начатые раньше cutoff.
	FailStaleUploading(ctx context.Context, cutoff time.Time, reason string) (int64, error)

	// FailStaleProcessing помечает failed элементы, застрявшие в processing
	// (воркер умер после claim): последнее обновление раньше cutoff.
	FailStaleProcessing(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

type DerivativeRepository interface {
	AddTx(ctx context.Context, tx Tx, d *models.Derivative) error
	ListByContentID(ctx context.Context, contentID uuid.UUID) ([]models.Derivative, error)
}

type OutboxRepository interface {
	Add(ctx context.Context, tx Tx, event models.DomainEvent) error
}
