package store

import (
	"context"
	"errors"

	"github.com/queued/queued/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// queueDoc is the on-disk shape of a queue document: {p, n, m}.
type queueDoc struct {
	ID       primitive.ObjectID     `bson:"_id,omitempty"`
	Project  *string                `bson:"p"`
	Name     string                 `bson:"n"`
	Metadata map[string]interface{} `bson:"m"`
}

func (d queueDoc) toDomain() *domain.Queue {
	metadata := d.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &domain.Queue{
		ID:       d.ID,
		Project:  d.Project,
		Name:     d.Name,
		Metadata: metadata,
	}
}

// QueueRepository implements domain.QueueRepository over the queues collection.
type QueueRepository struct {
	collection *mongo.Collection
}

var _ domain.QueueRepository = (*QueueRepository)(nil)

func (r *QueueRepository) Upsert(ctx context.Context, project *string, name string, metadata map[string]interface{}) (primitive.ObjectID, bool, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	filter := bson.M{"p": project, "n": name}
	update := bson.M{"$set": bson.M{"m": metadata}, "$setOnInsert": bson.M{"p": project, "n": name}}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return primitive.NilObjectID, false, err
	}

	if result.UpsertedID != nil {
		id, ok := result.UpsertedID.(primitive.ObjectID)
		if !ok {
			return primitive.NilObjectID, false, errors.New("queue upsert: unexpected upserted id type")
		}
		return id, true, nil
	}

	id, err := r.GetID(ctx, project, name)
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	return id, false, nil
}

func (r *QueueRepository) Get(ctx context.Context, project *string, name string) (*domain.Queue, error) {
	var doc queueDoc
	err := r.collection.FindOne(ctx, bson.M{"p": project, "n": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrQueueNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *QueueRepository) GetID(ctx context.Context, project *string, name string) (primitive.ObjectID, error) {
	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := r.collection.FindOne(
		ctx, bson.M{"p": project, "n": name},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, domain.ErrQueueNotFound
		}
		return primitive.NilObjectID, err
	}
	return doc.ID, nil
}

func (r *QueueRepository) List(ctx context.Context, project *string, marker string, limit int64, detailed bool) ([]*domain.Queue, error) {
	filter := bson.M{"p": project}
	if marker != "" {
		filter["n"] = bson.M{"$gt": marker}
	}

	projection := bson.M{"n": 1}
	if detailed {
		projection["m"] = 1
	}

	opts := options.Find().
		SetProjection(projection).
		SetSort(bson.D{{Key: "n", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var queues []*domain.Queue
	for cursor.Next(ctx) {
		var doc queueDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		doc.Project = project
		queues = append(queues, doc.toDomain())
	}
	return queues, cursor.Err()
}

func (r *QueueRepository) Delete(ctx context.Context, project *string, name string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"p": project, "n": name})
	return err
}
