// Package core implements the queue/message/claim controllers: the
// operations the spec's component design (§4) names, built directly over
// the internal/domain repository interfaces.
package core

import (
	"context"
	"time"

	"github.com/queued/queued/internal/domain"
	"github.com/queued/queued/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QueueController implements §4.1.
type QueueController struct {
	queues   domain.QueueRepository
	messages domain.MessageRepository
	log      *logger.Logger
}

// NewQueueController builds a QueueController over the given repositories.
func NewQueueController(queues domain.QueueRepository, messages domain.MessageRepository, log *logger.Logger) *QueueController {
	return &QueueController{queues: queues, messages: messages, log: log.WithService("queue_controller")}
}

// List returns queue summaries ordered ascending by name, after marker.
func (c *QueueController) List(ctx context.Context, project *string, marker string, limit int64, detailed bool) ([]*domain.Queue, error) {
	return c.queues.List(ctx, project, marker, limit, detailed)
}

// Get returns a queue's metadata, failing ErrQueueNotFound if absent.
func (c *QueueController) Get(ctx context.Context, project *string, name string) (*domain.Queue, error) {
	return c.queues.Get(ctx, project, name)
}

// GetID resolves a queue name to its internal id.
func (c *QueueController) GetID(ctx context.Context, project *string, name string) (primitive.ObjectID, error) {
	return c.queues.GetID(ctx, project, name)
}

// Upsert creates the queue if absent, otherwise replaces its metadata.
// Returns whether a new queue was created.
func (c *QueueController) Upsert(ctx context.Context, project *string, name string, metadata map[string]interface{}) (bool, error) {
	_, created, err := c.queues.Upsert(ctx, project, name, metadata)
	if err != nil {
		return false, err
	}
	return created, nil
}

// Delete purges the queue's messages, then removes the queue document.
// Deleting a nonexistent queue is not an error.
func (c *QueueController) Delete(ctx context.Context, project *string, name string) error {
	qid, err := c.queues.GetID(ctx, project, name)
	if err != nil {
		if err == domain.ErrQueueNotFound {
			return nil
		}
		return err
	}

	if err := c.messages.PurgeQueue(ctx, qid); err != nil {
		return err
	}
	return c.queues.Delete(ctx, project, name)
}

// Stats reports claimed/free message counts, computed as a snapshot via
// the message repository's active/claimed counts — not transactional.
func (c *QueueController) Stats(ctx context.Context, project *string, name string) (domain.QueueStats, error) {
	qid, err := c.queues.GetID(ctx, project, name)
	if err != nil {
		return domain.QueueStats{}, err
	}

	now := time.Now().UTC()
	free, err := c.messages.CountActive(ctx, qid, now)
	if err != nil {
		return domain.QueueStats{}, err
	}
	claimed, err := c.messages.CountClaimed(ctx, qid, now)
	if err != nil {
		return domain.QueueStats{}, err
	}

	return domain.QueueStats{Claimed: claimed, Free: free}, nil
}
