package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/queued/queued/internal/core"
	"github.com/queued/queued/internal/domain"
	"github.com/queued/queued/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strPtr(s string) *string { return &s }

func newQueueControllerFixture() (*core.QueueController, *fakeQueueRepository, *fakeMessageRepository) {
	queues := newFakeQueueRepository()
	messages := newFakeMessageRepository()
	return core.NewQueueController(queues, messages, logger.NewNop()), queues, messages
}

func TestQueueController_UpsertReportsCreatedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	controller, _, _ := newQueueControllerFixture()

	created, err := controller.Upsert(ctx, strPtr("acme"), "orders", nil)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = controller.Upsert(ctx, strPtr("acme"), "orders", map[string]interface{}{"v": 1})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestQueueController_DeleteCascadesMessagesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	controller, queues, messages := newQueueControllerFixture()

	_, err := controller.Upsert(ctx, nil, "orders", nil)
	require.NoError(t, err)
	qid, err := queues.GetID(ctx, nil, "orders")
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, messages.Insert(ctx, []*domain.Message{
		domain.NewMessage(qid, 60, "", map[string]interface{}{"i": 1}, now),
		domain.NewMessage(qid, 60, "", map[string]interface{}{"i": 2}, now),
	}))

	count, err := messages.CountActive(ctx, qid, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	require.NoError(t, controller.Delete(ctx, nil, "orders"))

	count, err = messages.CountActive(ctx, qid, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "deleting a queue must purge its messages")

	_, err = queues.Get(ctx, nil, "orders")
	assert.ErrorIs(t, err, domain.ErrQueueNotFound)

	assert.NoError(t, controller.Delete(ctx, nil, "orders"), "deleting a queue a second time is not an error")
}

func TestQueueController_StatsReflectsClaimedAndFreeCounts(t *testing.T) {
	ctx := context.Background()
	controller, queues, messages := newQueueControllerFixture()

	_, err := controller.Upsert(ctx, nil, "orders", nil)
	require.NoError(t, err)
	qid, err := queues.GetID(ctx, nil, "orders")
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, messages.Insert(ctx, []*domain.Message{
		domain.NewMessage(qid, 60, "", nil, now),
		domain.NewMessage(qid, 60, "", nil, now),
		domain.NewMessage(qid, 60, "", nil, now),
	}))

	ids, err := messages.ActiveIDs(ctx, qid, now, 1)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	n, err := messages.ClaimMany(ctx, qid, ids, primitive.NewObjectID(), 30, now.Add(30*time.Second), now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	stats, err := controller.Stats(ctx, nil, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Claimed)
	assert.Equal(t, int64(2), stats.Free)
}
