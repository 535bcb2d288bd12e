package worker

import (
	"context"
	"sync"
	"time"

	"github.com/queued/queued/internal/core"
	"github.com/queued/queued/internal/pkg/logger"
	"go.uber.org/zap"
)

// StatsWorkerConfig holds configuration for the stats worker.
type StatsWorkerConfig struct {
	Interval time.Duration
	// Project scopes which project's queues get walked; nil means the
	// null/default project.
	Project *string
	// PageSize bounds how many queue names are listed per tick.
	PageSize int64
}

// DefaultStatsWorkerConfig returns sensible defaults.
func DefaultStatsWorkerConfig() StatsWorkerConfig {
	return StatsWorkerConfig{
		Interval: 60 * time.Second,
		PageSize: 100,
	}
}

// StatsWorker periodically walks a project's queues and logs their
// claimed/free counts. It is strictly read-only: it never claims,
// unclaims, or deletes a message, and exists purely for observability —
// adapted from the teacher's idempotency-sweep ticker-loop shape, with
// the mutating cleanup it performed replaced by a read-only stats scan
// since this spec's claim lifecycle has no equivalent idempotency-key
// reconciliation step.
type StatsWorker struct {
	queues *core.QueueController
	config StatsWorkerConfig
	logger *logger.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStatsWorker creates a new stats worker.
func NewStatsWorker(queues *core.QueueController, config StatsWorkerConfig, log *logger.Logger) *StatsWorker {
	return &StatsWorker{
		queues: queues,
		config: config,
		logger: log,
		stopCh: make(chan struct{}),
	}
}

// Name returns the worker's name.
func (w *StatsWorker) Name() string {
	return "StatsWorker"
}

// Start begins the worker's processing loop.
func (w *StatsWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	w.logger.Info("stats worker started", zap.Duration("interval", w.config.Interval))

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopping due to context cancellation")
			return
		case <-w.stopCh:
			w.logger.Info("stats worker stopping due to stop signal")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop gracefully stops the worker.
func (w *StatsWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.logger.Info("stats worker stopped")
}

func (w *StatsWorker) sweep(ctx context.Context) {
	start := time.Now()

	queues, err := w.queues.List(ctx, w.config.Project, "", w.config.PageSize, false)
	if err != nil {
		w.logger.Error("stats worker failed to list queues", zap.Error(err))
		return
	}

	for _, q := range queues {
		stats, err := w.queues.Stats(ctx, w.config.Project, q.Name)
		if err != nil {
			w.logger.Warn("stats worker failed to read queue stats",
				zap.String("queue", q.Name), zap.Error(err))
			continue
		}
		w.logger.Debug("queue stats",
			zap.String("queue", q.Name),
			zap.Int64("claimed", stats.Claimed),
			zap.Int64("free", stats.Free),
		)
	}

	w.logger.Debug("stats worker cycle completed",
		zap.Int("queues", len(queues)),
		zap.Duration("duration", time.Since(start)),
	)
}
