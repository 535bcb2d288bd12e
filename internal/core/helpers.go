package core

import (
	"context"
	"math"
	"time"

	"github.com/queued/queued/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// parseObjectID parses a hex id, reporting false on malformed input —
// kept local to core (rather than shared with internal/store) so core
// only talks to domain's repository interfaces.
func parseObjectID(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// ageSeconds derives a document's age from the creation time encoded in
// its ObjectID, rounded to whole seconds per §4.3's claim view age field.
func ageSeconds(id primitive.ObjectID, now time.Time) int64 {
	age := now.Sub(id.Timestamp()).Seconds()
	return int64(math.Round(age))
}

// claimRecord mirrors the embedded claim document shape for decoding
// cursor results; kept local to core so it never needs a dependency on
// internal/store's unexported decode types.
type claimRecord struct {
	ID      *primitive.ObjectID `bson:"id"`
	Expires time.Time           `bson:"e"`
	TTL     int                 `bson:"t,omitempty"`
}

// messageRecord mirrors the on-disk message document shape for decoding
// cursor results returned by domain.MessageRepository's enumerating
// methods.
type messageRecord struct {
	ID       primitive.ObjectID     `bson:"_id"`
	QueueID  primitive.ObjectID     `bson:"q"`
	TTL      int                    `bson:"t"`
	Expires  time.Time              `bson:"e"`
	ClientID string                 `bson:"u,omitempty"`
	Claim    claimRecord            `bson:"c"`
	Body     map[string]interface{} `bson:"b"`
}

// claimedMessageDoc is an alias kept for readability at call sites that
// decode claimed-message cursors.
type claimedMessageDoc = messageRecord

func toMessageView(m *domain.Message, now time.Time) *domain.MessageView {
	return &domain.MessageView{
		ID:   m.ID.Hex(),
		Age:  ageSeconds(m.ID, now),
		TTL:  m.TTL,
		Body: m.Body,
	}
}

// drainMessageViews decodes every remaining document off a cursor into
// message views, returning the hex id of the last one decoded (the next
// page marker) alongside the views themselves. Callers retain ownership
// of closing the cursor.
func drainMessageViews(ctx context.Context, cursor domain.MessageCursor, now time.Time) ([]*domain.MessageView, string, error) {
	var views []*domain.MessageView
	lastID := ""
	for cursor.Next(ctx) {
		var doc messageRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, "", err
		}
		views = append(views, &domain.MessageView{
			ID:   doc.ID.Hex(),
			Age:  ageSeconds(doc.ID, now),
			TTL:  doc.TTL,
			Body: doc.Body,
		})
		lastID = doc.ID.Hex()
	}
	if err := cursor.Err(); err != nil {
		return nil, "", err
	}
	return views, lastID, nil
}
