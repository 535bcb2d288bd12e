package worker

import (
	"context"
	"sync"
	"time"

	"github.com/queued/queued/internal/pkg/logger"
	"github.com/queued/queued/internal/pkg/mongostore"
	"go.mongodb.org/mongo-driver/mongo"
)

// PoolMonitorWorker periodically logs the store's connection pool stats.
// It never touches queue or claim state — purely an operability worker,
// adapted from the teacher's grace-period ticker-loop shape.
type PoolMonitorWorker struct {
	client   *mongo.Client
	interval time.Duration
	logger   *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoolMonitorWorker creates a new pool monitor worker.
func NewPoolMonitorWorker(client *mongo.Client, interval time.Duration, log *logger.Logger) *PoolMonitorWorker {
	return &PoolMonitorWorker{client: client, interval: interval, logger: log}
}

// Name returns the worker's name.
func (w *PoolMonitorWorker) Name() string {
	return "PoolMonitorWorker"
}

// Start begins the worker's monitoring loop.
func (w *PoolMonitorWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	mongostore.StartPoolMonitor(runCtx, w.client, w.logger, w.interval)
}

// Stop gracefully stops the worker.
func (w *PoolMonitorWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
