package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

const cartRetentionDays = 30

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CartRetentionJobParams configure the abandoned cart cleanup.
type CartRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository cartRetentionRepo
	Retention  int
}

type cartRetentionRepo interface {
	DeleteStaleLines(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewCartRetentionJob builds the job that drops cart lines nobody touched
// within the retention window.
func NewCartRetentionJob(params CartRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = cartRetentionDays
	}
	return &cartRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type cartRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      cartRetentionRepo
	retention int
	now       func() time.Time
}

func (j *cartRetentionJob) Name() string { return "cart-retention" }

func (j *cartRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteStaleLines(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("cart retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "cart retention cleanup complete")
	return nil
}
