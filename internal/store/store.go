// Package store is the document-store layer: queues and messages
// collections over go.mongodb.org/mongo-driver, including the TTL and
// compound indexes the claim engine relies on.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	queuesCollectionName   = "queues"
	messagesCollectionName = "messages"
)

// Store groups the queues and messages collections behind one handle,
// mirroring the teacher's repository-container grouping pattern.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

// New builds a Store bound to the given database name.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client:   client,
		database: client.Database(database),
	}
}

// Database exposes the underlying database handle for test setup.
func (s *Store) Database() *mongo.Database {
	return s.database
}

func (s *Store) queues() *mongo.Collection {
	return s.database.Collection(queuesCollectionName)
}

func (s *Store) messages() *mongo.Collection {
	return s.database.Collection(messagesCollectionName)
}

// EnsureIndexes builds the indexes the spec's query patterns require:
// a unique compound index on queues(p,n), a TTL index on messages.e with
// zero grace, and the two compound indexes backing `active` and
// `claimed`.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.queues().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "p", Value: 1}, {Key: "n", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = s.messages().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "e", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{
				{Key: "q", Value: 1},
				{Key: "e", Value: 1},
				{Key: "c.e", Value: 1},
				{Key: "_id", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "q", Value: 1},
				{Key: "c.id", Value: 1},
				{Key: "c.e", Value: 1},
				{Key: "_id", Value: -1},
			},
		},
	})
	return err
}

// NewQueueRepository builds the QueueRepository implementation over this store.
func (s *Store) NewQueueRepository() *QueueRepository {
	return &QueueRepository{collection: s.queues()}
}

// NewMessageRepository builds the MessageRepository implementation over this store.
func (s *Store) NewMessageRepository() *MessageRepository {
	return &MessageRepository{collection: s.messages()}
}
