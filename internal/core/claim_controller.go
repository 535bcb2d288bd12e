package core

import (
	"context"
	"time"

	"github.com/queued/queued/internal/domain"
	"github.com/queued/queued/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ClaimController implements §4.3, the claim race.
type ClaimController struct {
	queues   domain.QueueRepository
	messages domain.MessageRepository
	log      *logger.Logger
}

// NewClaimController builds a ClaimController over the given repositories.
func NewClaimController(queues domain.QueueRepository, messages domain.MessageRepository, log *logger.Logger) *ClaimController {
	return &ClaimController{queues: queues, messages: messages, log: log.WithService("claim_controller")}
}

// Get resolves the claim view and remaining covered messages. Fails
// ErrClaimNotFound if no live message carries this claim.
func (c *ClaimController) Get(ctx context.Context, project *string, queueName, claimID string) (*domain.ClaimView, []*domain.MessageView, error) {
	qid, err := c.queues.GetID(ctx, project, queueName)
	if err != nil {
		return nil, nil, err
	}

	cid, ok := parseObjectID(claimID)
	if !ok {
		return nil, nil, domain.ErrClaimNotFound
	}

	now := time.Now().UTC()
	cursor, err := c.messages.Claimed(ctx, qid, &cid, now, 0)
	if err != nil {
		return nil, nil, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, domain.ErrClaimNotFound
	}

	var first messageRecord
	if err := cursor.Decode(&first); err != nil {
		return nil, nil, err
	}

	view := &domain.ClaimView{
		ID:  cid.Hex(),
		TTL: first.Claim.TTL,
		Age: ageSeconds(cid, now),
	}

	messages := []*domain.MessageView{{
		ID:   first.ID.Hex(),
		Age:  ageSeconds(first.ID, now),
		TTL:  first.TTL,
		Body: first.Body,
	}}

	rest, _, err := drainMessageViews(ctx, cursor, now)
	if err != nil {
		return nil, nil, err
	}
	messages = append(messages, rest...)

	return view, messages, nil
}

// ClaimOptions configures Create and Update.
type ClaimOptions struct {
	TTL   int
	Limit int64
}

// Create is the hard operation (§4.3): select-then-conditional-update,
// never overclaiming, possibly underclaiming, with no internal retry —
// the caller decides whether to re-issue Create for the remainder.
func (c *ClaimController) Create(ctx context.Context, project *string, queueName string, opts ClaimOptions) (string, []*domain.MessageView, error) {
	qid, err := c.queues.GetID(ctx, project, queueName)
	if err != nil {
		return "", nil, err
	}

	cid := primitive.NewObjectID()
	now := time.Now().UTC()
	expires := now.Add(time.Duration(opts.TTL) * time.Second)

	// limit=0 means zero, not unbounded — ActiveIDs only caps the query
	// when limit>0, so this has to be turned away before step 2.
	if opts.Limit == 0 {
		return cid.Hex(), nil, nil
	}

	// Step 2: enumerate candidates.
	candidates, err := c.messages.ActiveIDs(ctx, qid, now, opts.Limit)
	if err != nil {
		return "", nil, err
	}
	if len(candidates) == 0 {
		return cid.Hex(), nil, nil
	}

	// Step 3: recompute now to shrink the selection-to-update window.
	now = time.Now().UTC()

	// Step 4: the race-deciding conditional update. Only messages still
	// null-or-expired at this instant are claimed; a competing claimer's
	// earlier win is invisible to this filter and so can never be
	// overwritten.
	updated, err := c.messages.ClaimMany(ctx, qid, candidates, cid, opts.TTL, expires, now)
	if err != nil {
		return "", nil, err
	}

	c.log.WithContext(ctx).Debug("claim create",
		zap.String("queue", queueName),
		zap.Int("candidates", len(candidates)),
		zap.Int64("claimed", updated),
	)

	if updated == 0 {
		// Every candidate was lost to a race between steps 2 and 4.
		return cid.Hex(), nil, nil
	}

	// Step 5: extend message lifetime to outlive the claim.
	if err := c.messages.ExtendExpiry(ctx, qid, cid, opts.TTL, expires); err != nil {
		return "", nil, err
	}

	// Step 6: report exactly what this call actually claimed.
	cursor, err := c.messages.Claimed(ctx, qid, &cid, now, 0)
	if err != nil {
		return "", nil, err
	}
	defer cursor.Close(ctx)

	views, _, err := drainMessageViews(ctx, cursor, now)
	if err != nil {
		return "", nil, err
	}

	return cid.Hex(), views, nil
}

// Update renews an existing claim, extending its expiry and the
// expiry of every message it covers. Fails ErrClaimNotFound for a
// malformed or unknown id or when no message still carries the claim
// live, or ErrInvalidTTL when the new expiry would not be strictly in
// the future.
func (c *ClaimController) Update(ctx context.Context, project *string, queueName, claimID string, opts ClaimOptions) error {
	qid, err := c.queues.GetID(ctx, project, queueName)
	if err != nil {
		return err
	}

	cid, ok := parseObjectID(claimID)
	if !ok {
		return domain.ErrClaimNotFound
	}

	now := time.Now().UTC()
	expires := now.Add(time.Duration(opts.TTL) * time.Second)
	if !expires.After(now) {
		return domain.ErrInvalidTTL
	}

	// An expired claim is not renewed: at least one message must still
	// carry it live.
	live, err := c.messages.Claimed(ctx, qid, &cid, now, 1)
	if err != nil {
		return err
	}
	found := live.Next(ctx)
	liveErr := live.Err()
	live.Close(ctx)
	if liveErr != nil {
		return liveErr
	}
	if !found {
		return domain.ErrClaimNotFound
	}

	modified, err := c.messages.UpdateClaim(ctx, qid, cid, opts.TTL, expires)
	if err != nil {
		return err
	}
	if modified == 0 {
		return domain.ErrClaimNotFound
	}

	return c.messages.ExtendExpiry(ctx, qid, cid, opts.TTL, expires)
}

// Delete releases the claim. Idempotent; never fails for unknown ids.
func (c *ClaimController) Delete(ctx context.Context, claimID string) error {
	cid, ok := parseObjectID(claimID)
	if !ok {
		return nil
	}
	return c.messages.Unclaim(ctx, cid)
}
