package store

import (
	"context"
	"errors"
	"time"

	"github.com/queued/queued/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// claimDoc is the embedded claim record: {id, e, t}.
type claimDoc struct {
	ID      *primitive.ObjectID `bson:"id"`
	Expires time.Time           `bson:"e"`
	TTL     int                 `bson:"t,omitempty"`
}

func (d claimDoc) toDomain() domain.Claim {
	return domain.Claim{ID: d.ID, Expires: d.Expires, TTL: d.TTL}
}

func claimDocFrom(c domain.Claim) claimDoc {
	return claimDoc{ID: c.ID, Expires: c.Expires, TTL: c.TTL}
}

// messageDoc is the on-disk shape of a message document: {_id, q, t, e, u, c, b}.
type messageDoc struct {
	ID       primitive.ObjectID     `bson:"_id,omitempty"`
	QueueID  primitive.ObjectID     `bson:"q"`
	TTL      int                    `bson:"t"`
	Expires  time.Time              `bson:"e"`
	ClientID string                 `bson:"u,omitempty"`
	Claim    claimDoc               `bson:"c"`
	Body     map[string]interface{} `bson:"b"`
}

func messageDocFrom(m *domain.Message) messageDoc {
	body := m.Body
	if body == nil {
		body = map[string]interface{}{}
	}
	return messageDoc{
		ID:       m.ID,
		QueueID:  m.QueueID,
		TTL:      m.TTL,
		Expires:  m.Expires,
		ClientID: m.ClientID,
		Claim:    claimDocFrom(m.Claim),
		Body:     body,
	}
}

func (d messageDoc) toDomain() *domain.Message {
	return &domain.Message{
		ID:       d.ID,
		QueueID:  d.QueueID,
		TTL:      d.TTL,
		Expires:  d.Expires,
		ClientID: d.ClientID,
		Claim:    d.Claim.toDomain(),
		Body:     d.Body,
	}
}

// MessageRepository implements domain.MessageRepository over the messages
// collection. Query and update shapes are grounded directly in marconi's
// MessageController/ClaimController: the claim race never retries
// internally, relying instead on the conditional update's matched count.
type MessageRepository struct {
	collection *mongo.Collection
}

var _ domain.MessageRepository = (*MessageRepository)(nil)

func (r *MessageRepository) Insert(ctx context.Context, messages []*domain.Message) error {
	if len(messages) == 0 {
		return nil
	}
	docs := make([]interface{}, len(messages))
	for i, m := range messages {
		if m.ID.IsZero() {
			m.ID = primitive.NewObjectID()
		}
		docs[i] = messageDocFrom(m)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *MessageRepository) FindByID(ctx context.Context, qid, id primitive.ObjectID, now time.Time) (*domain.Message, error) {
	var doc messageDoc
	err := r.collection.FindOne(ctx, bson.M{
		"_id": id,
		"q":   qid,
		"e":   bson.M{"$gt": now},
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// Active enumerates unexpired, unclaimed-or-expired-claim messages,
// ascending by _id, optionally filtering out the producing client's own
// messages (echo suppression) and resuming strictly after marker.
func (r *MessageRepository) Active(ctx context.Context, qid primitive.ObjectID, marker *primitive.ObjectID, excludeClientID string, now time.Time, limit int64) (domain.MessageCursor, error) {
	filter := bson.M{
		"q":   qid,
		"e":   bson.M{"$gt": now},
		"c.e": bson.M{"$lte": now},
	}
	if marker != nil {
		filter["_id"] = bson.M{"$gt": *marker}
	}
	if excludeClientID != "" {
		filter["u"] = bson.M{"$ne": excludeClientID}
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return newMongoCursor(cursor), nil
}

func (r *MessageRepository) ActiveIDs(ctx context.Context, qid primitive.ObjectID, now time.Time, limit int64) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"q":   qid,
		"e":   bson.M{"$gt": now},
		"c.e": bson.M{"$lte": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (r *MessageRepository) Claimed(ctx context.Context, qid primitive.ObjectID, claimID *primitive.ObjectID, expiresAfter time.Time, limit int64) (domain.MessageCursor, error) {
	filter := bson.M{
		"q":   qid,
		"e":   bson.M{"$gt": expiresAfter},
		"c.e": bson.M{"$gt": expiresAfter},
	}
	if claimID != nil {
		filter["c.id"] = *claimID
	} else {
		filter["c.id"] = bson.M{"$ne": nil}
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return newMongoCursor(cursor), nil
}

// ClaimMany is the heart of the claim race (§4.3 step 4): a single
// conditional multi-document update that only touches documents whose
// claim is currently null or expired. Mongo guarantees this update is
// atomic per document, so two concurrent claimers racing over the same
// candidate ids can never both win it — one's matched count includes the
// document, the other's doesn't. No retry happens here: an unmatched id
// is simply a message this call failed to claim, exactly as §5 requires.
func (r *MessageRepository) ClaimMany(ctx context.Context, qid primitive.ObjectID, ids []primitive.ObjectID, claimID primitive.ObjectID, ttl int, expires, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	filter := bson.M{
		"_id": bson.M{"$in": ids},
		"$or": []bson.M{
			{"c.id": nil},
			{"c.id": bson.M{"$ne": nil}, "c.e": bson.M{"$lte": now}},
		},
	}
	update := bson.M{"$set": bson.M{
		"c": claimDoc{ID: &claimID, Expires: expires, TTL: ttl},
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// ExtendExpiry is the claim race's lifetime-extension step (§4.3 step 5):
// every message this claim ended up owning must outlive the claim itself,
// so any message whose own TTL would expire before the claim's does gets
// its expiry (and TTL, for display) bumped to match. This mirrors
// marconi's literal "dirty hack" update in ClaimController.create.
func (r *MessageRepository) ExtendExpiry(ctx context.Context, qid primitive.ObjectID, claimID primitive.ObjectID, ttl int, expires time.Time) error {
	filter := bson.M{
		"q":    qid,
		"e":    bson.M{"$lt": expires},
		"c.id": claimID,
	}
	update := bson.M{"$set": bson.M{"e": expires, "t": ttl}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

func (r *MessageRepository) UpdateClaim(ctx context.Context, qid primitive.ObjectID, claimID primitive.ObjectID, ttl int, expires time.Time) (int64, error) {
	filter := bson.M{"q": qid, "c.id": claimID}
	update := bson.M{"$set": bson.M{
		"c": claimDoc{ID: &claimID, Expires: expires, TTL: ttl},
	}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// Unclaim releases every message held by claimID back to the pool. The
// claim id is cleared and the embedded expiry is reset to the epoch
// (mirroring the original implementation's literal 0), rather than "now":
// the active filter only tests c.e <= now, and either value already
// satisfies it, so this is purely a disk-representation choice, not a
// behavioral one.
func (r *MessageRepository) Unclaim(ctx context.Context, claimID primitive.ObjectID) error {
	filter := bson.M{"c.id": claimID}
	update := bson.M{"$set": bson.M{"c": claimDoc{ID: nil, Expires: time.Unix(0, 0).UTC()}}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

func (r *MessageRepository) Delete(ctx context.Context, qid, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "q": qid})
	return err
}

// DeleteWithClaim deletes a message only if it is still covered by a live
// claim with the given id, so a consumer can't delete (ack) a message
// whose claim has already expired out from under it.
func (r *MessageRepository) DeleteWithClaim(ctx context.Context, qid, id, claimID primitive.ObjectID, now time.Time) (int64, error) {
	filter := bson.M{
		"_id":  id,
		"q":    qid,
		"e":    bson.M{"$gt": now},
		"c.id": claimID,
		"c.e":  bson.M{"$gt": now},
	}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *MessageRepository) PurgeQueue(ctx context.Context, qid primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"q": qid})
	return err
}

func (r *MessageRepository) CountActive(ctx context.Context, qid primitive.ObjectID, now time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"q":   qid,
		"e":   bson.M{"$gt": now},
		"c.e": bson.M{"$lte": now},
	})
}

func (r *MessageRepository) CountClaimed(ctx context.Context, qid primitive.ObjectID, now time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"q":   qid,
		"e":   bson.M{"$gt": now},
		"c.e": bson.M{"$gt": now},
	})
}
