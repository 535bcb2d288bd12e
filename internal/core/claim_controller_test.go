package core_test

import (
	"context"
	"testing"

	"github.com/queued/queued/internal/core"
	"github.com/queued/queued/internal/domain"
	"github.com/queued/queued/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClaimControllerFixture() (*core.QueueController, *core.MessageController, *core.ClaimController) {
	queues := newFakeQueueRepository()
	messages := newFakeMessageRepository()
	log := logger.NewNop()
	return core.NewQueueController(queues, messages, log),
		core.NewMessageController(queues, messages, log),
		core.NewClaimController(queues, messages, log)
}

func TestClaimController_CreateNeverClaimsMoreThanAvailable(t *testing.T) {
	ctx := context.Background()
	queueCtl, msgCtl, claimCtl := newClaimControllerFixture()
	_, err := queueCtl.Upsert(ctx, nil, "orders", nil)
	require.NoError(t, err)

	_, err = msgCtl.Post(ctx, nil, "orders", []core.PostedMessage{
		{TTL: 60, Body: map[string]interface{}{"i": 1}},
		{TTL: 60, Body: map[string]interface{}{"i": 2}},
	}, "producer-u")
	require.NoError(t, err)

	claimID, views, err := claimCtl.Create(ctx, nil, "orders", core.ClaimOptions{TTL: 30, Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, claimID)
	assert.Len(t, views, 2)

	// A second claim attempt has nothing left to win.
	_, views2, err := claimCtl.Create(ctx, nil, "orders", core.ClaimOptions{TTL: 30, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, views2)
}

func TestClaimController_CreateRespectsLimit(t *testing.T) {
	ctx := context.Background()
	queueCtl, msgCtl, claimCtl := newClaimControllerFixture()
	_, err := queueCtl.Upsert(ctx, nil, "orders", nil)
	require.NoError(t, err)

	_, err = msgCtl.Post(ctx, nil, "orders", []core.PostedMessage{
		{TTL: 60, Body: map[string]interface{}{"i": 1}},
		{TTL: 60, Body: map[string]interface{}{"i": 2}},
		{TTL: 60, Body: map[string]interface{}{"i": 3}},
	}, "producer-u")
	require.NoError(t, err)

	_, views, err := claimCtl.Create(ctx, nil, "orders", core.ClaimOptions{TTL: 30, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, views, 1, "claim create must never return more than the requested limit")
}

func TestClaimController_CreateWithZeroLimitClaimsNothing(t *testing.T) {
	ctx := context.Background()
	queueCtl, msgCtl, claimCtl := newClaimControllerFixture()
	_, err := queueCtl.Upsert(ctx, nil, "orders", nil)
	require.NoError(t, err)

	_, err = msgCtl.Post(ctx, nil, "orders", []core.PostedMessage{
		{TTL: 60, Body: map[string]interface{}{"i": 1}},
	}, "producer-u")
	require.NoError(t, err)

	claimID, views, err := claimCtl.Create(ctx, nil, "orders", core.ClaimOptions{TTL: 30, Limit: 0})
	require.NoError(t, err)
	assert.NotEmpty(t, claimID)
	assert.Empty(t, views, "limit=0 must claim nothing, not everything active")

	// The message must still be unclaimed and available to a real claim.
	_, views, err = claimCtl.Create(ctx, nil, "orders", core.ClaimOptions{TTL: 30, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, views, 1, "a limit=0 create must perform no writes")
}

func TestClaimController_UpdateExtendsExpiryAndRejectsUnknownClaim(t *testing.T) {
	ctx := context.Background()
	queueCtl, msgCtl, claimCtl := newClaimControllerFixture()
	_, err := queueCtl.Upsert(ctx, nil, "orders", nil)
	require.NoError(t, err)

	_, err = msgCtl.Post(ctx, nil, "orders", []core.PostedMessage{
		{TTL: 5, Body: map[string]interface{}{"i": 1}},
	}, "producer-u")
	require.NoError(t, err)

	claimID, views, err := claimCtl.Create(ctx, nil, "orders", core.ClaimOptions{TTL: 5, Limit: 10})
	require.NoError(t, err)
	require.Len(t, views, 1)

	require.NoError(t, claimCtl.Update(ctx, nil, "orders", claimID, core.ClaimOptions{TTL: 120}))

	view, _, err := claimCtl.Get(ctx, nil, "orders", claimID)
	require.NoError(t, err)
	assert.Equal(t, 120, view.TTL)

	err = claimCtl.Update(ctx, nil, "orders", "000000000000000000000000", core.ClaimOptions{TTL: 120})
	assert.ErrorIs(t, err, domain.ErrClaimNotFound)
}

func TestClaimController_DeleteReleasesMessagesForReclaim(t *testing.T) {
	ctx := context.Background()
	queueCtl, msgCtl, claimCtl := newClaimControllerFixture()
	_, err := queueCtl.Upsert(ctx, nil, "orders", nil)
	require.NoError(t, err)

	_, err = msgCtl.Post(ctx, nil, "orders", []core.PostedMessage{
		{TTL: 60, Body: map[string]interface{}{"i": 1}},
	}, "producer-u")
	require.NoError(t, err)

	claimID, views, err := claimCtl.Create(ctx, nil, "orders", core.ClaimOptions{TTL: 30, Limit: 10})
	require.NoError(t, err)
	require.Len(t, views, 1)

	require.NoError(t, claimCtl.Delete(ctx, claimID))

	_, views2, err := claimCtl.Create(ctx, nil, "orders", core.ClaimOptions{TTL: 30, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, views2, 1, "after releasing a claim, the message must be claimable again")
}

func TestClaimController_GetUnknownClaimFails(t *testing.T) {
	ctx := context.Background()
	queueCtl, _, claimCtl := newClaimControllerFixture()
	_, err := queueCtl.Upsert(ctx, nil, "orders", nil)
	require.NoError(t, err)

	_, _, err = claimCtl.Get(ctx, nil, "orders", "000000000000000000000000")
	assert.ErrorIs(t, err, domain.ErrClaimNotFound)
}

func TestClaimController_CreateOnEmptyQueueReturnsNoMessages(t *testing.T) {
	ctx := context.Background()
	queueCtl, _, claimCtl := newClaimControllerFixture()
	_, err := queueCtl.Upsert(ctx, nil, "orders", nil)
	require.NoError(t, err)

	claimID, views, err := claimCtl.Create(ctx, nil, "orders", core.ClaimOptions{TTL: 30, Limit: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, claimID)
	assert.Empty(t, views)
}
