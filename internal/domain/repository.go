package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageCursor is the lazy, store-side iterator returned by the
// enumerating message queries. It mirrors the subset of *mongo.Cursor the
// core needs, so the domain package stays free of a driver import while
// internal/store's implementation wraps the real cursor directly.
//
// Callers must call Close once done, including on early abandonment of
// iteration — the underlying store cursor holds a live server resource.
type MessageCursor interface {
	Next(ctx context.Context) bool
	Decode(v interface{}) error
	Err() error
	Close(ctx context.Context) error
}

// QueueRepository persists queue metadata documents (§4.1, §6).
type QueueRepository interface {
	// Upsert creates the queue if absent, otherwise replaces its metadata.
	// The bool reports whether a new queue was created.
	Upsert(ctx context.Context, project *string, name string, metadata map[string]interface{}) (primitive.ObjectID, bool, error)
	Get(ctx context.Context, project *string, name string) (*Queue, error)
	GetID(ctx context.Context, project *string, name string) (primitive.ObjectID, error)
	// List returns queues ordered ascending by name, strictly after marker.
	List(ctx context.Context, project *string, marker string, limit int64, detailed bool) ([]*Queue, error)
	Delete(ctx context.Context, project *string, name string) error
}

// MessageRepository persists message documents, including their embedded
// claim record (§4.2, §4.3, §6).
type MessageRepository interface {
	Insert(ctx context.Context, messages []*Message) error

	// FindByID returns a single non-expired message owned by qid.
	FindByID(ctx context.Context, qid, id primitive.ObjectID, now time.Time) (*Message, error)

	// Active enumerates messages with q=qid, e>now, c.e<=now, ascending by
	// id strictly greater than marker (nil marker means "from the start").
	// When excludeClientID is non-empty, messages with u=excludeClientID
	// are filtered out.
	Active(ctx context.Context, qid primitive.ObjectID, marker *primitive.ObjectID, excludeClientID string, now time.Time, limit int64) (MessageCursor, error)

	// ActiveIDs selects up to limit candidate ids for a claim, ascending
	// by id, with no echo filtering (claims are not producer-scoped).
	ActiveIDs(ctx context.Context, qid primitive.ObjectID, now time.Time, limit int64) ([]primitive.ObjectID, error)

	// Claimed enumerates messages whose embedded claim is live as of
	// expiresAfter. When claimID is non-nil, also requires c.id=claimID;
	// otherwise requires c.id != null.
	Claimed(ctx context.Context, qid primitive.ObjectID, claimID *primitive.ObjectID, expiresAfter time.Time, limit int64) (MessageCursor, error)

	// ClaimMany is the claim-race conditional update (§4.3 step 4): sets
	// c={id: claimID, t: ttl, e: expires} on every message in ids whose
	// current claim is null or expired as of now. Returns the number of
	// messages actually modified.
	ClaimMany(ctx context.Context, qid primitive.ObjectID, ids []primitive.ObjectID, claimID primitive.ObjectID, ttl int, expires, now time.Time) (int64, error)

	// ExtendExpiry is the claim-race lifetime extension (§4.3 step 5):
	// sets e=expires, t=ttl on every message with q=qid, c.id=claimID,
	// e<expires.
	ExtendExpiry(ctx context.Context, qid primitive.ObjectID, claimID primitive.ObjectID, ttl int, expires time.Time) error

	// UpdateClaim rewrites the embedded claim on every message matching
	// (q, c.id=claimID), used by claim renewal. Returns the number
	// modified so the caller can detect "claim does not exist".
	UpdateClaim(ctx context.Context, qid primitive.ObjectID, claimID primitive.ObjectID, ttl int, expires time.Time) (int64, error)

	// Unclaim clears the embedded claim back to the null placeholder on
	// every message whose c.id equals claimID.
	Unclaim(ctx context.Context, claimID primitive.ObjectID) error

	// Delete unconditionally removes a single message from a queue.
	Delete(ctx context.Context, qid, id primitive.ObjectID) error

	// DeleteWithClaim removes a message only if it is unexpired and
	// currently covered by a live claim with the given id. Returns the
	// number of documents deleted (0 or 1); a 0 does not tell a missing
	// message apart from a claim mismatch.
	DeleteWithClaim(ctx context.Context, qid, id, claimID primitive.ObjectID, now time.Time) (int64, error)

	PurgeQueue(ctx context.Context, qid primitive.ObjectID) error

	CountActive(ctx context.Context, qid primitive.ObjectID, now time.Time) (int64, error)
	CountClaimed(ctx context.Context, qid primitive.ObjectID, now time.Time) (int64, error)
}
