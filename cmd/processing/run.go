package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/romariotrain/content-pipeline/internal/config"
	"github.com/romariotrain/content-pipeline/internal/content/processor"
	"github.com/romariotrain/content-pipeline/internal/content/service"
	pg "github.com/romariotrain/content-pipeline/internal/storage/postgres"
)

func run(ctx context.Context, logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	repo := pg.NewContentRepo(db)
	derivs := pg.NewDerivativeRepo(db)
	outbox := pg.NewOutboxRepo(db)
	svc := service.New(repo, derivs, outbox)

	transformer, err := processor.NewLocalTransformer(cfg.DerivedBase)
	if err != nil {
		return err
	}

	proc, err := processor.New(processor.Config{
		Pipeline:      svc,
		Transformer:   transformer,
		PollInterval:  cfg.PollInterval,
		BatchSize:     cfg.BatchSize,
		Workers:       cfg.Workers,
		StaleAfter:    cfg.StaleAfter,
		SweepInterval: cfg.SweepInterval,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	if err := proc.Run(ctx); err != nil && !isContextErr(err) {
		return err
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
