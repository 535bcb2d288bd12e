package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/queued/queued/internal/config"
	"github.com/queued/queued/internal/pkg/logger"
	"github.com/queued/queued/internal/pkg/retry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// NewClient creates a new MongoDB client and connects to it.
func NewClient(cfg *config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	return client, nil
}

// NewClientWithRetry creates a client with connection retry, mirroring the
// bootstrap retry the teacher applies to its connection pool.
func NewClientWithRetry(cfg *config.MongoConfig, log *logger.Logger) (*mongo.Client, error) {
	retryCfg := retry.Config{
		MaxAttempts:    5,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		OnRetry: func(attempt int, err error, nextBackoff time.Duration) {
			log.Warn("mongo connection attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
				zap.Duration("next_retry_in", nextBackoff),
			)
		},
	}

	client, err := retry.DoWithResult(context.Background(), retryCfg, func() (*mongo.Client, error) {
		client, err := NewClient(cfg)
		if err != nil {
			return nil, err
		}

		if err := HealthCheck(context.Background(), client, cfg.PingTimeout); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}

		return client, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect after retries: %w", err)
	}

	log.Info("mongo connection established",
		zap.String("database", cfg.Database),
	)

	return client, nil
}

// HealthCheck verifies connectivity with a ping to the primary.
func HealthCheck(ctx context.Context, client *mongo.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	return nil
}
