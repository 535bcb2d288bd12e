package core_test

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/queued/queued/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeQueueRepository and fakeMessageRepository are minimal in-memory
// stand-ins for internal/store's mongo-backed implementations, used to
// unit-test internal/core's controllers without a live document store.
// They implement the exact same filter semantics the store package does
// (mirroring marconi's query shapes), just over a Go map instead of
// mongo-driver calls.

type fakeQueueRepository struct {
	mu    sync.Mutex
	byKey map[string]*domain.Queue
}

func newFakeQueueRepository() *fakeQueueRepository {
	return &fakeQueueRepository{byKey: map[string]*domain.Queue{}}
}

func key(project *string, name string) string {
	p := "\x01"
	if project != nil {
		p = "\x02" + *project
	}
	return p + "\x00" + name
}

func (r *fakeQueueRepository) Upsert(ctx context.Context, project *string, name string, metadata map[string]interface{}) (primitive.ObjectID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(project, name)
	if q, ok := r.byKey[k]; ok {
		q.Metadata = metadata
		return q.ID, false, nil
	}

	id := primitive.NewObjectID()
	r.byKey[k] = &domain.Queue{ID: id, Project: project, Name: name, Metadata: metadata}
	return id, true, nil
}

func (r *fakeQueueRepository) Get(ctx context.Context, project *string, name string) (*domain.Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.byKey[key(project, name)]
	if !ok {
		return nil, domain.ErrQueueNotFound
	}
	return q, nil
}

func (r *fakeQueueRepository) GetID(ctx context.Context, project *string, name string) (primitive.ObjectID, error) {
	q, err := r.Get(ctx, project, name)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return q.ID, nil
}

func (r *fakeQueueRepository) List(ctx context.Context, project *string, marker string, limit int64, detailed bool) ([]*domain.Queue, error) {
	return nil, nil
}

func (r *fakeQueueRepository) Delete(ctx context.Context, project *string, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byKey, key(project, name))
	return nil
}

type fakeMessage struct {
	id       primitive.ObjectID
	qid      primitive.ObjectID
	ttl      int
	expires  time.Time
	clientID string
	claim    domain.Claim
	body     map[string]interface{}
}

type fakeMessageRepository struct {
	mu       sync.Mutex
	messages map[primitive.ObjectID]*fakeMessage
}

func newFakeMessageRepository() *fakeMessageRepository {
	return &fakeMessageRepository{messages: map[primitive.ObjectID]*fakeMessage{}}
}

func (r *fakeMessageRepository) Insert(ctx context.Context, messages []*domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range messages {
		if m.ID.IsZero() {
			m.ID = primitive.NewObjectID()
		}
		r.messages[m.ID] = &fakeMessage{
			id: m.ID, qid: m.QueueID, ttl: m.TTL, expires: m.Expires,
			clientID: m.ClientID, claim: m.Claim, body: m.Body,
		}
	}
	return nil
}

func (r *fakeMessageRepository) FindByID(ctx context.Context, qid, id primitive.ObjectID, now time.Time) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok || m.qid != qid || !m.expires.After(now) {
		return nil, domain.ErrMessageNotFound
	}
	return &domain.Message{ID: m.id, QueueID: m.qid, TTL: m.ttl, Expires: m.expires, ClientID: m.clientID, Claim: m.claim, Body: m.body}, nil
}

type fakeCursor struct {
	items []*fakeMessage
	pos   int
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	if c.pos >= len(c.items) {
		return false
	}
	c.pos++
	return true
}

// Decode populates an internal/core-shaped decode struct (messageRecord,
// with its embedded claimRecord) by field name via reflection, since that
// type is unexported and unreachable by name from this external test
// package.
func (c *fakeCursor) Decode(v interface{}) error {
	m := c.items[c.pos-1]
	elem := reflect.ValueOf(v).Elem()

	setField := func(name string, value interface{}) {
		f := elem.FieldByName(name)
		if f.IsValid() && f.CanSet() {
			f.Set(reflect.ValueOf(value))
		}
	}

	setField("ID", m.id)
	setField("QueueID", m.qid)
	setField("TTL", m.ttl)
	setField("Expires", m.expires)
	setField("ClientID", m.clientID)
	setField("Body", m.body)

	if claimField := elem.FieldByName("Claim"); claimField.IsValid() && claimField.CanSet() {
		claimSetField := func(name string, value interface{}) {
			f := claimField.FieldByName(name)
			if f.IsValid() && f.CanSet() {
				f.Set(reflect.ValueOf(value))
			}
		}
		claimSetField("ID", m.claim.ID)
		claimSetField("Expires", m.claim.Expires)
		claimSetField("TTL", m.claim.TTL)
	}

	return nil
}

func (c *fakeCursor) Err() error            { return nil }
func (c *fakeCursor) Close(ctx context.Context) error { return nil }

func (r *fakeMessageRepository) Active(ctx context.Context, qid primitive.ObjectID, marker *primitive.ObjectID, excludeClientID string, now time.Time, limit int64) (domain.MessageCursor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*fakeMessage
	for _, m := range r.messages {
		if m.qid != qid || !m.expires.After(now) || m.claim.Expires.After(now) {
			continue
		}
		if marker != nil && !objectIDGreater(m.id, *marker) {
			continue
		}
		if excludeClientID != "" && m.clientID == excludeClientID {
			continue
		}
		items = append(items, m)
	}
	sortByID(items)
	if limit > 0 && int64(len(items)) > limit {
		items = items[:limit]
	}
	return &fakeCursor{items: items}, nil
}

func (r *fakeMessageRepository) ActiveIDs(ctx context.Context, qid primitive.ObjectID, now time.Time, limit int64) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*fakeMessage
	for _, m := range r.messages {
		if m.qid == qid && m.expires.After(now) && !m.claim.Expires.After(now) {
			items = append(items, m)
		}
	}
	sortByID(items)
	if limit > 0 && int64(len(items)) > limit {
		items = items[:limit]
	}
	ids := make([]primitive.ObjectID, len(items))
	for i, m := range items {
		ids[i] = m.id
	}
	return ids, nil
}

func (r *fakeMessageRepository) Claimed(ctx context.Context, qid primitive.ObjectID, claimID *primitive.ObjectID, expiresAfter time.Time, limit int64) (domain.MessageCursor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*fakeMessage
	for _, m := range r.messages {
		if m.qid != qid || !m.expires.After(expiresAfter) || !m.claim.Expires.After(expiresAfter) {
			continue
		}
		if claimID != nil {
			if m.claim.ID == nil || *m.claim.ID != *claimID {
				continue
			}
		} else if m.claim.ID == nil {
			continue
		}
		items = append(items, m)
	}
	sortByID(items)
	if limit > 0 && int64(len(items)) > limit {
		items = items[:limit]
	}
	return &fakeCursor{items: items}, nil
}

func (r *fakeMessageRepository) ClaimMany(ctx context.Context, qid primitive.ObjectID, ids []primitive.ObjectID, claimID primitive.ObjectID, ttl int, expires, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var modified int64
	for _, id := range ids {
		m, ok := r.messages[id]
		if !ok {
			continue
		}
		if m.claim.ID != nil && m.claim.Expires.After(now) {
			continue
		}
		cid := claimID
		m.claim = domain.Claim{ID: &cid, Expires: expires, TTL: ttl}
		modified++
	}
	return modified, nil
}

func (r *fakeMessageRepository) ExtendExpiry(ctx context.Context, qid primitive.ObjectID, claimID primitive.ObjectID, ttl int, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.qid == qid && m.claim.ID != nil && *m.claim.ID == claimID && m.expires.Before(expires) {
			m.expires = expires
			m.ttl = ttl
		}
	}
	return nil
}

func (r *fakeMessageRepository) UpdateClaim(ctx context.Context, qid primitive.ObjectID, claimID primitive.ObjectID, ttl int, expires time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var modified int64
	for _, m := range r.messages {
		if m.qid == qid && m.claim.ID != nil && *m.claim.ID == claimID {
			cid := claimID
			m.claim = domain.Claim{ID: &cid, Expires: expires, TTL: ttl}
			modified++
		}
	}
	return modified, nil
}

func (r *fakeMessageRepository) Unclaim(ctx context.Context, claimID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.claim.ID != nil && *m.claim.ID == claimID {
			m.claim = domain.Claim{ID: nil, Expires: time.Unix(0, 0).UTC()}
		}
	}
	return nil
}

func (r *fakeMessageRepository) Delete(ctx context.Context, qid, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok && m.qid == qid {
		delete(r.messages, id)
	}
	return nil
}

func (r *fakeMessageRepository) DeleteWithClaim(ctx context.Context, qid, id, claimID primitive.ObjectID, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok || m.qid != qid || !m.expires.After(now) || m.claim.ID == nil || *m.claim.ID != claimID || !m.claim.Expires.After(now) {
		return 0, nil
	}
	delete(r.messages, id)
	return 1, nil
}

func (r *fakeMessageRepository) PurgeQueue(ctx context.Context, qid primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.messages {
		if m.qid == qid {
			delete(r.messages, id)
		}
	}
	return nil
}

func (r *fakeMessageRepository) CountActive(ctx context.Context, qid primitive.ObjectID, now time.Time) (int64, error) {
	ids, err := r.ActiveIDs(ctx, qid, now, 0)
	return int64(len(ids)), err
}

func (r *fakeMessageRepository) CountClaimed(ctx context.Context, qid primitive.ObjectID, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.messages {
		if m.qid == qid && m.expires.After(now) && m.claim.Expires.After(now) {
			n++
		}
	}
	return n, nil
}

func objectIDGreater(a, b primitive.ObjectID) bool {
	return a.Hex() > b.Hex()
}

func sortByID(items []*fakeMessage) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].id.Hex() < items[j-1].id.Hex(); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}
