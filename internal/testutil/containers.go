package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/queued/queued/internal/store"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoContainer wraps a MongoDB testcontainer with a connected client and
// an EnsureIndexes'd store ready for use by integration tests.
type MongoContainer struct {
	Container *mongodb.MongoDBContainer
	Client    *mongo.Client
	Store     *store.Store
}

// NewMongoContainer starts a MongoDB container, connects to it, and builds
// indexes on the queues/messages collections.
func NewMongoContainer(t *testing.T) *MongoContainer {
	ctx := context.Background()

	container, err := mongodb.RunContainer(ctx,
		testcontainers.WithImage("mongo:6"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Waiting for connections").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	st := store.New(client, "queued_test")
	if err := st.EnsureIndexes(ctx); err != nil {
		t.Fatalf("failed to ensure indexes: %v", err)
	}

	return &MongoContainer{
		Container: container,
		Client:    client,
		Store:     st,
	}
}

// CleanCollections drops the queues and messages collections for test
// isolation between subtests sharing one container.
func (mc *MongoContainer) CleanCollections(ctx context.Context) error {
	db := mc.Store.Database()
	if err := db.Collection("queues").Drop(ctx); err != nil {
		return err
	}
	if err := db.Collection("messages").Drop(ctx); err != nil {
		return err
	}
	return mc.Store.EnsureIndexes(ctx)
}
