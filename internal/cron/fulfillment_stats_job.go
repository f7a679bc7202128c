package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bookstore-backend/internal/fulfillment"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

const (
	fulfillmentStatsSnapshot = "fulfillment-stats"
	defaultSnapshotTTL       = 10 * time.Minute
)

type statsSource interface {
	Stats(ctx context.Context) (*fulfillment.Stats, error)
}

type statusGauges interface {
	SetStatusCounts(counts map[enums.FulfillmentStatus]int64)
}

type snapshotStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SnapshotKey(name string) string
}

// FulfillmentStatsJobParams configure the stats refresher.
type FulfillmentStatsJobParams struct {
	Logger      *logger.Logger
	Stats       statsSource
	Metrics     statusGauges
	Snapshots   snapshotStore
	SnapshotTTL time.Duration
}

// FulfillmentStatsSnapshot is the payload stored for dashboards.
type FulfillmentStatsSnapshot struct {
	fulfillment.Stats
	GeneratedAt time.Time `json:"generated_at"`
}

// NewFulfillmentStatsJob refreshes the per-status gauges and the cached
// snapshot. Metrics and snapshots are both optional sinks.
func NewFulfillmentStatsJob(params FulfillmentStatsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Stats == nil {
		return nil, fmt.Errorf("fulfillment stats source required")
	}
	ttl := params.SnapshotTTL
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &fulfillmentStatsJob{
		logg:      params.Logger,
		stats:     params.Stats,
		metrics:   params.Metrics,
		snapshots: params.Snapshots,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

type fulfillmentStatsJob struct {
	logg      *logger.Logger
	stats     statsSource
	metrics   statusGauges
	snapshots snapshotStore
	ttl       time.Duration
	now       func() time.Time
}

func (j *fulfillmentStatsJob) Name() string { return "fulfillment-stats" }

func (j *fulfillmentStatsJob) Run(ctx context.Context) error {
	stats, err := j.stats.Stats(ctx)
	if err != nil {
		return fmt.Errorf("load fulfillment stats: %w", err)
	}
	if j.metrics != nil {
		j.metrics.SetStatusCounts(stats.ByStatus())
	}

	var errs error
	if j.snapshots != nil {
		errs = multierr.Append(errs, j.storeSnapshot(ctx, *stats))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"pending":    stats.Pending,
		"processing": stats.Processing,
		"shipped":    stats.Shipped,
		"delivered":  stats.Delivered,
		"cancelled":  stats.Cancelled,
	})
	j.logg.Info(logCtx, "fulfillment stats refreshed")
	return errs
}

func (j *fulfillmentStatsJob) storeSnapshot(ctx context.Context, stats fulfillment.Stats) error {
	payload, err := json.Marshal(FulfillmentStatsSnapshot{Stats: stats, GeneratedAt: j.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode stats snapshot: %w", err)
	}
	if err := j.snapshots.Set(ctx, j.snapshots.SnapshotKey(fulfillmentStatsSnapshot), string(payload), j.ttl); err != nil {
		return fmt.Errorf("store stats snapshot: %w", err)
	}
	return nil
}
