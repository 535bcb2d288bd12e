package store

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// mongoCursor adapts *mongo.Cursor to domain.MessageCursor so the domain
// package never has to import the driver.
type mongoCursor struct {
	cursor *mongo.Cursor
}

func newMongoCursor(c *mongo.Cursor) *mongoCursor {
	return &mongoCursor{cursor: c}
}

func (c *mongoCursor) Next(ctx context.Context) bool {
	return c.cursor.Next(ctx)
}

func (c *mongoCursor) Decode(v interface{}) error {
	return c.cursor.Decode(v)
}

func (c *mongoCursor) Err() error {
	return c.cursor.Err()
}

func (c *mongoCursor) Close(ctx context.Context) error {
	return c.cursor.Close(ctx)
}
