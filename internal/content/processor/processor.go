package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/romariotrain/content-pipeline/internal/content/models"
	"github.com/romariotrain/content-pipeline/internal/content/service"
)

// Pipeline — операции сервиса, нужные воркеру.
type Pipeline interface {
	ClaimUploaded(ctx context.Context, limit int) ([]*models.Content, error)
	CompleteProcessing(ctx context.Context, id uuid.UUID, specs []service.DerivativeSpec) (*models.Content, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) (*models.Content, error)
	SweepStaleUploads(ctx context.Context, olderThan time.Duration) (int64, error)
	SweepStaleProcessing(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Transformer превращает загруженный контент в набор артефактов.
type Transformer interface {
	Transform(ctx context.Context, c *models.Content) ([]service.DerivativeSpec, error)
}

type Config struct {
	Pipeline     Pipeline
	Transformer  Transformer
	PollInterval time.Duration
	BatchSize    int
	Workers      int
	// StaleAfter — возраст, после которого зависшие uploading уходят в failed.
	StaleAfter    time.Duration
	SweepInterval time.Duration
	Logger        zerolog.Logger
}

type Processor struct {
	pipeline      Pipeline
	transformer   Transformer
	pollInterval  time.Duration
	batchSize     int
	workers       int
	staleAfter    time.Duration
	sweepInterval time.Duration
	logger        zerolog.Logger
}

func New(cfg Config) (*Processor, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if cfg.Transformer == nil {
		return nil, fmt.Errorf("transformer is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	return &Processor{
		pipeline:      cfg.Pipeline,
		transformer:   cfg.Transformer,
		pollInterval:  cfg.PollInterval,
		batchSize:     cfg.BatchSize,
		workers:       cfg.Workers,
		staleAfter:    cfg.StaleAfter,
		sweepInterval: cfg.SweepInterval,
		logger:        cfg.Logger.With().Str("component", "processor").Logger(),
	}, nil
}

// Run блокирует до отмены контекста: по тикеру забирает uploaded элементы
// и обрабатывает их пулом воркеров, периодически подметает зависшие загрузки.
func (p *Processor) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	sweep := time.NewTicker(p.sweepInterval)
	defer sweep.Stop()

	p.logger.Info().
		Dur("poll_interval", p.pollInterval).
		Int("batch_size", p.batchSize).
		Int("workers", p.workers).
		Msg("processor started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Err(ctx.Err()).Msg("processor stopped")
			return ctx.Err()

		case <-ticker.C:
			if err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error().Err(err).Msg("batch failed")
			}

		case <-sweep.C:
			p.sweepStale(ctx)
		}
	}
}

// sweepStale подметает оба вида зависших элементов: брошенные загрузки
// и processing, чей воркер умер после claim.
func (p *Processor) sweepStale(ctx context.Context) {
	n, err := p.pipeline.SweepStaleUploads(ctx, p.staleAfter)
	if err != nil {
		p.logger.Error().Err(err).Msg("stale upload sweep failed")
	} else if n > 0 {
		p.logger.Warn().Int64("count", n).Msg("failed stale uploads")
	}

	n, err = p.pipeline.SweepStaleProcessing(ctx, p.staleAfter)
	if err != nil {
		p.logger.Error().Err(err).Msg("stale processing sweep failed")
	} else if n > 0 {
		p.logger.Warn().Int64("count", n).Msg("failed stale processing items")
	}
}

// ProcessBatch забирает одну пачку и обрабатывает её параллельно.
func (p *Processor) ProcessBatch(ctx context.Context) error {
	items, err := p.pipeline.ClaimUploaded(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("claim uploaded: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	p.logger.Info().Int("count", len(items)).Msg("claimed batch")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, item := range items {
		item := item
		g.Go(func() error {
			p.processOne(gctx, item)
			return nil
		})
	}
	return g.Wait()
}

func (p *Processor) processOne(ctx context.Context, c *models.Content) {
	itemLogger := p.logger.With().
		Str("content_id", c.ID.String()).
		Str("type", string(c.Type)).
		Logger()

	itemLogger.Debug().Msg("processing started")

	specs, err := p.transformer.Transform(ctx, c)
	if err != nil {
		itemLogger.Error().Err(err).Msg("transform failed")
		if _, failErr := p.pipeline.Fail(ctx, c.ID, err.Error()); failErr != nil {
			// Не смогли даже зафейлить. Элемент зависнет в processing,
			// пока его не добьёт sweep по updated_at.
			itemLogger.Error().Err(failErr).Msg("failed to mark item failed")
		}
		return
	}

	if _, err := p.pipeline.CompleteProcessing(ctx, c.ID, specs); err != nil {
		itemLogger.Error().Err(err).Msg("failed to complete item")
		return
	}

	itemLogger.Info().Int("derivatives", len(specs)).Msg("processing completed")
}
