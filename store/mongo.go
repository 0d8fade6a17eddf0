package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo keeps one document per collection name in a single MongoDB
// collection: {_id: name, items: [...], updatedAt}.
type Mongo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

type mongoSnapshot struct {
	Name      string     `bson:"_id"`
	Items     []bson.Raw `bson:"items"`
	UpdatedAt time.Time  `bson:"updatedAt"`
}

func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll, timeout: 5 * time.Second}
}

func (m *Mongo) Read(ctx context.Context, name string) ([]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var snap mongoSnapshot
	err := m.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", name, err)
	}

	out := make([]json.RawMessage, 0, len(snap.Items))
	for i, item := range snap.Items {
		b, err := bson.MarshalExtJSON(item, false, false)
		if err != nil {
			return nil, fmt.Errorf("mongo decode %s[%d]: %w", name, i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *Mongo) Write(ctx context.Context, name string, records []json.RawMessage) error {
	items := make(bson.A, 0, len(records))
	for i, r := range records {
		var doc bson.D
		if err := bson.UnmarshalExtJSON(r, false, &doc); err != nil {
			return fmt.Errorf("mongo encode %s[%d]: %w", name, i, err)
		}
		items = append(items, doc)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.coll.ReplaceOne(ctx,
		bson.M{"_id": name},
		bson.M{"_id": name, "items": items, "updatedAt": time.Now()},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo replace %s: %w", name, err)
	}
	return nil
}
