package core

import (
	"context"
	"time"

	"github.com/queued/queued/internal/domain"
	"github.com/queued/queued/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostedMessage is one caller-supplied message body for MessageController.Post.
type PostedMessage struct {
	TTL  int
	Body map[string]interface{}
}

// MessageController implements §4.2.
type MessageController struct {
	queues   domain.QueueRepository
	messages domain.MessageRepository
	log      *logger.Logger
}

// NewMessageController builds a MessageController over the given repositories.
func NewMessageController(queues domain.QueueRepository, messages domain.MessageRepository, log *logger.Logger) *MessageController {
	return &MessageController{queues: queues, messages: messages, log: log.WithService("message_controller")}
}

// Post resolves the queue, then inserts one document per input message.
// Returns the newly minted message ids as strings, in input order.
func (c *MessageController) Post(ctx context.Context, project *string, queueName string, messages []PostedMessage, clientUUID string) ([]string, error) {
	qid, err := c.queues.GetID(ctx, project, queueName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	docs := make([]*domain.Message, len(messages))
	for i, m := range messages {
		if m.TTL <= 0 {
			return nil, domain.ErrInvalidTTL
		}
		docs[i] = domain.NewMessage(qid, m.TTL, clientUUID, m.Body, now)
	}

	if err := c.messages.Insert(ctx, docs); err != nil {
		return nil, err
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID.Hex()
	}
	return ids, nil
}

// Get returns a message projection, failing ErrMessageNotFound for a
// malformed id, a missing document, a queue that no longer exists, or an
// expired message.
func (c *MessageController) Get(ctx context.Context, project *string, queueName, id string) (*domain.MessageView, error) {
	qid, err := c.queues.GetID(ctx, project, queueName)
	if err != nil {
		return nil, domain.ErrMessageNotFound
	}

	mid, ok := parseObjectID(id)
	if !ok {
		return nil, domain.ErrMessageNotFound
	}

	now := time.Now().UTC()
	msg, err := c.messages.FindByID(ctx, qid, mid, now)
	if err != nil {
		return nil, err
	}
	return toMessageView(msg, now), nil
}

// List is the public consumer view: active messages, echo- and
// marker-filtered, plus the next marker. A nonexistent queue yields an
// empty result rather than an error.
func (c *MessageController) List(ctx context.Context, project *string, queueName, marker string, limit int64, echo bool, clientUUID string) ([]*domain.MessageView, string, error) {
	qid, err := c.queues.GetID(ctx, project, queueName)
	if err != nil {
		if err == domain.ErrQueueNotFound {
			return nil, "", nil
		}
		return nil, "", err
	}

	var markerID *primitive.ObjectID
	if marker != "" {
		if id, ok := parseObjectID(marker); ok {
			markerID = &id
		}
	}

	exclude := ""
	if !echo {
		exclude = clientUUID
	}

	now := time.Now().UTC()
	cursor, err := c.messages.Active(ctx, qid, markerID, exclude, now, limit)
	if err != nil {
		return nil, "", err
	}
	defer cursor.Close(ctx)

	views, lastID, err := drainMessageViews(ctx, cursor, now)
	if err != nil {
		return nil, "", err
	}

	nextMarker := marker
	if lastID != "" {
		nextMarker = lastID
	}
	return views, nextMarker, nil
}

// ActiveIDs returns the ids of active (unclaimed-or-claim-expired,
// unexpired) messages, without echo filtering. The claim controller
// selects its candidates through the repository's ActiveIDs directly.
func (c *MessageController) ActiveIDs(ctx context.Context, qid primitive.ObjectID, now time.Time, limit int64) ([]primitive.ObjectID, error) {
	return c.messages.ActiveIDs(ctx, qid, now, limit)
}

// Claimed enumerates the messages covered by a live claim.
func (c *MessageController) Claimed(ctx context.Context, qid primitive.ObjectID, claimID *primitive.ObjectID, expiresAfter time.Time, limit int64) ([]*domain.ClaimedMessageView, error) {
	cursor, err := c.messages.Claimed(ctx, qid, claimID, expiresAfter, limit)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	now := time.Now().UTC()
	var views []*domain.ClaimedMessageView
	for cursor.Next(ctx) {
		var doc claimedMessageDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		views = append(views, &domain.ClaimedMessageView{
			MessageView: domain.MessageView{
				ID:   doc.ID.Hex(),
				Age:  ageSeconds(doc.ID, now),
				TTL:  doc.TTL,
				Body: doc.Body,
			},
			Claim: domain.Claim{ID: doc.Claim.ID, Expires: doc.Claim.Expires, TTL: doc.Claim.TTL},
		})
	}
	return views, cursor.Err()
}

// Delete removes a message. When claim is non-empty, the delete only
// succeeds if the message is live and covered by that exact claim;
// otherwise it fails ErrClaimNotPermitted. Malformed ids are silent
// no-ops.
func (c *MessageController) Delete(ctx context.Context, project *string, queueName, id, claim string) error {
	qid, err := c.queues.GetID(ctx, project, queueName)
	if err != nil {
		return nil
	}

	mid, ok := parseObjectID(id)
	if !ok {
		return nil
	}

	if claim == "" {
		return c.messages.Delete(ctx, qid, mid)
	}

	claimID, ok := parseObjectID(claim)
	if !ok {
		return domain.ErrClaimNotPermitted
	}

	now := time.Now().UTC()
	deleted, err := c.messages.DeleteWithClaim(ctx, qid, mid, claimID, now)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrClaimNotPermitted
	}
	return nil
}

// PurgeQueue removes every message owned by qid; a missing queue is not
// an error (the caller is expected to have already resolved qid, or to
// tolerate a no-op on a zero id).
func (c *MessageController) PurgeQueue(ctx context.Context, qid primitive.ObjectID) error {
	return c.messages.PurgeQueue(ctx, qid)
}

// Unclaim releases every message held by claimID. Malformed ids are
// silently ignored.
func (c *MessageController) Unclaim(ctx context.Context, claimID string) error {
	cid, ok := parseObjectID(claimID)
	if !ok {
		return nil
	}
	return c.messages.Unclaim(ctx, cid)
}
