package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Queue is a named, project-scoped ordered collection of messages.
//
// Field names mirror the on-disk abbreviation (p/n/m): see
// internal/store for the bson tags that apply this mapping.
type Queue struct {
	ID       primitive.ObjectID
	Project  *string
	Name     string
	Metadata map[string]interface{}
}

// NewQueue builds a fresh queue value. The ID is minted by the store on
// insert; callers constructing a value before insertion leave it zero.
func NewQueue(project *string, name string, metadata map[string]interface{}) *Queue {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &Queue{
		Project:  project,
		Name:     name,
		Metadata: metadata,
	}
}

// QueueStats reports the claimed/free message counts for a queue.
type QueueStats struct {
	Claimed int64
	Free    int64
}

// Claim is the embedded reservation record carried by every message.
// A claim is live iff ID is non-nil and Expires is in the future.
type Claim struct {
	ID      *primitive.ObjectID `bson:"id"`
	Expires time.Time           `bson:"e"`
	TTL     int                 `bson:"t,omitempty"`
}

// IsLive reports whether the claim is currently held.
func (c Claim) IsLive(now time.Time) bool {
	return c.ID != nil && c.Expires.After(now)
}

// unclaimedPlaceholder is the embedded claim value every fresh message
// carries before it has ever been claimed.
func unclaimedPlaceholder(createdAt time.Time) Claim {
	return Claim{ID: nil, Expires: createdAt}
}

// Message is an opaque body with a TTL, owned by one queue, optionally
// covered by one live claim.
type Message struct {
	ID       primitive.ObjectID
	QueueID  primitive.ObjectID
	TTL      int
	Expires  time.Time
	ClientID string // producing client UUID, for echo suppression
	Claim    Claim
	Body     map[string]interface{}
}

// NewMessage builds a fresh, unclaimed message ready for insertion.
func NewMessage(queueID primitive.ObjectID, ttlSeconds int, clientID string, body map[string]interface{}, now time.Time) *Message {
	if body == nil {
		body = map[string]interface{}{}
	}
	return &Message{
		QueueID:  queueID,
		TTL:      ttlSeconds,
		Expires:  now.Add(time.Duration(ttlSeconds) * time.Second),
		ClientID: clientID,
		Claim:    unclaimedPlaceholder(now),
		Body:     body,
	}
}

// MessageView is the consumer-facing projection of a message: {id, age,
// ttl, body} with the embedded claim stripped, per §4.2 `get`/`list`.
type MessageView struct {
	ID   string
	Age  int64
	TTL  int
	Body map[string]interface{}
}

// ClaimedMessageView additionally exposes the embedded claim, per §4.2
// `claimed`.
type ClaimedMessageView struct {
	MessageView
	Claim Claim
}

// ClaimView is the claim-level projection returned by the claim
// controller's `get`, built from the embedded record on the first
// covered message.
type ClaimView struct {
	ID  string
	TTL int
	Age int64
}
