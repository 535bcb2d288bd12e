package mongostore

import (
	"context"
	"time"

	"github.com/queued/queued/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PoolStats represents a snapshot of the server's connection counts,
// taken from the "connections" section of the serverStatus command.
type PoolStats struct {
	Connections bson.M
}

// GetPoolStats returns the server's current connection counts via serverStatus.
func GetPoolStats(ctx context.Context, client *mongo.Client) (PoolStats, error) {
	var result bson.M
	err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "serverStatus", Value: 1}}).Decode(&result)
	if err != nil {
		return PoolStats{}, err
	}

	conns, _ := result["connections"].(bson.M)
	return PoolStats{Connections: conns}, nil
}

// StartPoolMonitor starts periodic pool stats logging. It never touches
// queue or claim state; it exists purely for operability.
func StartPoolMonitor(ctx context.Context, client *mongo.Client, log *logger.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("starting connection pool monitor",
		zap.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping connection pool monitor")
			return
		case <-ticker.C:
			stats, err := GetPoolStats(ctx, client)
			if err != nil {
				log.Warn("failed to read pool stats", zap.Error(err))
				continue
			}
			log.Debug("connection pool stats",
				zap.Any("connections", stats.Connections),
			)
		}
	}
}
