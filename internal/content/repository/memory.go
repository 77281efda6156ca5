package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/content-pipeline/internal/content/models"
)

// MemoryRepository — хранилище в памяти для тестов и локальной разработки.
// Транзакционность условная: memTx держит общий мьютекс до Commit/Rollback.
type MemoryRepository struct {
	mu          sync.RWMutex
	data        map[uuid.UUID]*models.Content
	derivatives map[uuid.UUID][]models.Derivative
	events      []models.DomainEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data:        make(map[uuid.UUID]*models.Content),
		derivatives: make(map[uuid.UUID][]models.Derivative),
	}
}

type memTx struct {
	repo *MemoryRepository
	done bool
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.repo.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	// Изменения применяются сразу, откат не поддерживаем. Для тестов
	// сервисного слоя этого достаточно: Rollback после Commit — no-op.
	if t.done {
		return nil
	}
	t.done = true
	t.repo.mu.Unlock()
	return nil
}

func (r *MemoryRepository) BeginTx(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	return &memTx{repo: r}, nil
}

func (r *MemoryRepository) Create(ctx context.Context, c *models.Content) error {
	if c == nil {
		return models.ErrInvalidArgument
	}
	if c.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}

	//TODO ctx на будущее (таймауты/кансел), для in-memory просто проверим отмену
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[c.ID]; exists {
		return models.ErrConflict
	}

	// Защитная копия, чтобы внешняя сторона не могла мутировать хранимый объект
	cp := *c
	r.data[c.ID] = &cp

	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) UpdateStatusTx(ctx context.Context, tx Tx, id uuid.UUID, status models.Status, reason string) (*models.Content, error) {
	if _, ok := tx.(*memTx); !ok {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Мьютекс уже у memTx.
	c, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	c.Status = status
	c.FailureReason = reason
	c.UpdatedAt = time.Now()

	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) ClaimUploaded(ctx context.Context, limit int) ([]*models.Content, error) {
	if limit <= 0 {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []uuid.UUID
	for id, c := range r.data {
		if c.Status == models.UploadedStatus {
			ids = append(ids, id)
		}
	}
	// Стабильный порядок: старые раньше.
	sort.Slice(ids, func(i, j int) bool {
		return r.data[ids[i]].CreatedAt.Before(r.data[ids[j]].CreatedAt)
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	claimed := make([]*models.Content, 0, len(ids))
	now := time.Now()
	for _, id := range ids {
		c := r.data[id]
		c.Status = models.ProcessingStatus
		c.UpdatedAt = now
		r.events = append(r.events, models.NewContentStatusChanged(id, models.UploadedStatus, models.ProcessingStatus, "claimed by worker"))
		cp := *c
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (r *MemoryRepository) FailStaleUploading(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	now := time.Now()
	for _, c := range r.data {
		if c.Status == models.UploadingStatus && c.CreatedAt.Before(cutoff) {
			c.Status = models.FailedStatus
			c.FailureReason = reason
			c.UpdatedAt = now
			r.events = append(r.events, models.NewContentStatusChanged(c.ID, models.UploadingStatus, models.FailedStatus, reason))
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) FailStaleProcessing(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	now := time.Now()
	for _, c := range r.data {
		// По UpdatedAt: claim обновляет его, так что свежевзятые не задеваем.
		if c.Status == models.ProcessingStatus && c.UpdatedAt.Before(cutoff) {
			c.Status = models.FailedStatus
			c.FailureReason = reason
			c.UpdatedAt = now
			r.events = append(r.events, models.NewContentStatusChanged(c.ID, models.ProcessingStatus, models.FailedStatus, reason))
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Add(ctx context.Context, tx Tx, event models.DomainEvent) error {
	if event == nil {
		return models.ErrInvalidArgument
	}
	if _, ok := tx.(*memTx); !ok {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.events = append(r.events, event)
	return nil
}

// Events возвращает накопленные события (для проверок в тестах).
func (r *MemoryRepository) Events() []models.DomainEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

// AddTx/ListByContentID реализуют DerivativeRepository.
func (r *MemoryRepository) AddTx(ctx context.Context, tx Tx, d *models.Derivative) error {
	if d == nil || d.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if _, ok := tx.(*memTx); !ok {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.derivatives[d.ContentID] = append(r.derivatives[d.ContentID], *d)
	return nil
}

func (r *MemoryRepository) ListByContentID(ctx context.Context, contentID uuid.UUID) ([]models.Derivative, error) {
	if contentID == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ds := r.derivatives[contentID]
	out := make([]models.Derivative, len(ds))
	copy(out, ds)
	return out, nil
}
