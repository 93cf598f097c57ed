package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo is a Store on a MongoDB database. Struct fields without a bson tag
// are stored under their json names.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{UseJSONStructTags: true, NilMapAsEmpty: true, NilSliceAsEmpty: true})
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) Put(ctx context.Context, collection, id string, record any) error {
	_, err := m.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, record, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, collection, id string, out any) error {
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Mongo) Query(ctx context.Context, collection string, filter Filter, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := m.db.Collection(collection).Find(ctx, bson.M(filter), opts)
	if err != nil {
		return fmt.Errorf("query %s: %w", collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("query %s: %w", collection, err)
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
