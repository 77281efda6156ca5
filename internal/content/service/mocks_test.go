package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/content-pipeline/internal/content/models"
	"github.com/romariotrain/content-pipeline/internal/content/repository"
)

type TxMock struct {
	mock.Mock
}

func (t *TxMock) Commit() error {
	return t.Called().Error(0)
}

func (t *TxMock) Rollback() error {
	return t.Called().Error(0)
}

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Create(ctx context.Context, c *models.Content) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *StoreMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Content), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) BeginTx(ctx context.Context) (repository.Tx, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(repository.Tx), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) UpdateStatusTx(ctx context.Context, tx repository.Tx, id uuid.UUID, status models.Status, reason string) (*models.Content, error) {
	args := m.Called(ctx, tx, id, status, reason)
	if v := args.Get(0); v != nil {
		return v.(*models.Content), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) ClaimUploaded(ctx context.Context, limit int) ([]*models.Content, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]*models.Content), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) FailStaleUploading(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	args := m.Called(ctx, cutoff, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StoreMock) FailStaleProcessing(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	args := m.Called(ctx, cutoff, reason)
	return args.Get(0).(int64), args.Error(1)
}

type DerivativesMock struct {
	mock.Mock
}

func (m *DerivativesMock) AddTx(ctx context.Context, tx repository.Tx, d *models.Derivative) error {
	args := m.Called(ctx, tx, d)
	return args.Error(0)
}

func (m *DerivativesMock) ListByContentID(ctx context.Context, contentID uuid.UUID) ([]models.Derivative, error) {
	args := m.Called(ctx, contentID)
	if v := args.Get(0); v != nil {
		return v.([]models.Derivative), args.Error(1)
	}
	return nil, args.Error(1)
}

type OutboxMock struct {
	mock.Mock
}

func (m *OutboxMock) Add(ctx context.Context, tx repository.Tx, event models.DomainEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}
