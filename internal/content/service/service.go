package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/content-pipeline/internal/content/domain"
	"github.com/romariotrain/content-pipeline/internal/content/models"
	"github.com/romariotrain/content-pipeline/internal/content/repository"
)

type Service struct {
	repo   repository.ContentRepository
	derivs repository.DerivativeRepository
	outbox repository.OutboxRepository
	clock  func() time.Time
	idGen  func() uuid.UUID
}

func New(repo repository.ContentRepository, derivs repository.DerivativeRepository, outbox repository.OutboxRepository) *Service {
	return &Service{
		repo:   repo,
		derivs: derivs,
		outbox: outbox,
		clock:  time.Now,
		idGen:  uuid.New,
	}
}

// GetContent returns a content item by id. It simply delegates to the repository
// and passes through domain errors (e.g. models.ErrNotFound) so the transport
// layer can map them to HTTP.
func (s *Service) GetContent(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	return s.repo.GetByID(ctx, id)
}

// RegisterUpload creates a new content item in the uploading state.
// Service owns invariants: id, initial status, timestamps, basic validation.
func (s *Service) RegisterUpload(ctx context.Context, contentType models.ContentType, source string) (*models.Content, error) {
	if contentType == "" || source == "" {
		return nil, models.ErrInvalidArgument
	}

	now := s.clock()

	c := &models.Content{
		ID:        s.idGen(),
		Status:    models.UploadingStatus,
		Type:      contentType,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// FinishUpload fixes the end of the transfer: uploading -> uploaded.
func (s *Service) FinishUpload(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	return s.ChangeStatus(ctx, id, models.UploadedStatus, "")
}

// Retry re-enqueues a failed item: failed -> uploaded, so the processing
// worker claims it again on its next poll. This is the manual intervention
// the failed state asks for; nothing retries on its own.
func (s *Service) Retry(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	return s.ChangeStatus(ctx, id, models.UploadedStatus, "retry requested")
}

// Fail moves an item to failed with a reason for the operator.
func (s *Service) Fail(ctx context.Context, id uuid.UUID, reason string) (*models.Content, error) {
	if reason == "" {
		reason = "processing failed"
	}
	return s.ChangeStatus(ctx, id, models.FailedStatus, reason)
}

func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, to models.Status, reason string) (*models.Content, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}

	// 1. Текущий статус нужен для валидации перехода.
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateTransition(c.Status, to); err != nil {
		return nil, err
	}

	// Если статус уже такой — ничего не делаем
	if c.Status == to {
		return c, nil
	}

	// 2. Статус и событие — в одной транзакции (outbox паттерн).
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // откатится если не сделаем Commit

	updated, err := s.repo.UpdateStatusTx(ctx, tx, id, to, reason)
	if err != nil {
		return nil, err
	}

	event := models.NewContentStatusChanged(id, c.Status, to, reason)
	if err := s.outbox.Add(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return updated, nil
}

// DerivativeSpec — то, что произвёл процессор для одного артефакта.
type DerivativeSpec struct {
	Kind     string
	Location string
}

// CompleteProcessing writes the produced derivatives and moves the item
// processing -> completed atomically. Derivatives, the status row and the
// outbox events land in one transaction, so a consumer never sees a completed
// item without its derivatives.
func (s *Service) CompleteProcessing(ctx context.Context, id uuid.UUID, specs []DerivativeSpec) (*models.Content, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	for _, spec := range specs {
		if spec.Kind == "" || spec.Location == "" {
			return nil, models.ErrInvalidArgument
		}
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTransition(c.Status, models.CompletedStatus); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	updated, err := s.repo.UpdateStatusTx(ctx, tx, id, models.CompletedStatus, "")
	if err != nil {
		return nil, err
	}

	now := s.clock()
	for _, spec := range specs {
		d := &models.Derivative{
			ID:        s.idGen(),
			ContentID: id,
			Kind:      spec.Kind,
			Location:  spec.Location,
			CreatedAt: now,
		}
		if err := s.derivs.AddTx(ctx, tx, d); err != nil {
			return nil, fmt.Errorf("add derivative: %w", err)
		}
		if err := s.outbox.Add(ctx, tx, models.NewDerivativeCreated(id, d.ID, d.Kind)); err != nil {
			return nil, fmt.Errorf("add outbox: %w", err)
		}
	}

	event := models.NewContentStatusChanged(id, c.Status, models.CompletedStatus, "")
	if err := s.outbox.Add(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return updated, nil
}

// ListDerivatives — delivery-слой: отдаёт артефакты готового контента.
func (s *Service) ListDerivatives(ctx context.Context, id uuid.UUID) ([]models.Derivative, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	// Проверяем существование, чтобы отличать "нет такого" от "ещё нет артефактов".
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.derivs.ListByContentID(ctx, id)
}

// ClaimUploaded passes through to the repository for the processing worker.
func (s *Service) ClaimUploaded(ctx context.Context, limit int) ([]*models.Content, error) {
	if limit <= 0 {
		return nil, models.ErrInvalidArgument
	}
	return s.repo.ClaimUploaded(ctx, limit)
}

// SweepStaleUploads fails uploading items older than olderThan. A transfer
// whose client vanished would otherwise sit in uploading forever.
func (s *Service) SweepStaleUploads(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, models.ErrInvalidArgument
	}
	cutoff := s.clock().Add(-olderThan)
	return s.repo.FailStaleUploading(ctx, cutoff, "upload stalled")
}

// SweepStaleProcessing fails processing items that stopped making progress:
// a worker claimed them and died before completing or failing them.
func (s *Service) SweepStaleProcessing(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, models.ErrInvalidArgument
	}
	cutoff := s.clock().Add(-olderThan)
	return s.repo.FailStaleProcessing(ctx, cutoff, "processing stalled")
}
