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

// Open connects to MongoDB, pings the primary and returns the services and
// appointments collections of database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1).
			SetStrict(true).
			SetDeprecationErrors(true)).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	return &Store{
		Services:     &MongoCollection{coll: db.Collection(ServicesCollection)},
		Appointments: &MongoCollection{coll: db.Collection(AppointmentsCollection)},
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}

type MongoCollection struct {
	coll *mongo.Collection
}

func (c *MongoCollection) Find(ctx context.Context, filter Document) ([]Document, error) {
	cur, err := c.coll.Find(ctx, nonNil(filter))
	if err != nil {
		return nil, err
	}
	var docs []Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

func (c *MongoCollection) FindOne(ctx context.Context, filter Document, projection ...string) (Document, error) {
	opts := options.FindOne()
	if len(projection) > 0 {
		proj := bson.M{}
		for _, field := range projection {
			proj[field] = 1
		}
		opts.SetProjection(proj)
	}

	var doc Document
	err := c.coll.FindOne(ctx, nonNil(filter), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *MongoCollection) InsertOne(ctx context.Context, doc Document) (*InsertResult, error) {
	res, err := c.coll.InsertOne(ctx, nonNil(doc))
	if err != nil {
		return nil, err
	}
	return &InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func (c *MongoCollection) DeleteOne(ctx context.Context, filter Document) (*DeleteResult, error) {
	res, err := c.coll.DeleteOne(ctx, nonNil(filter))
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (c *MongoCollection) UpdateOne(ctx context.Context, filter, set Document, upsert bool) (*UpdateResult, error) {
	res, err := c.coll.UpdateOne(ctx, nonNil(filter), bson.M{"$set": set}, options.Update().SetUpsert(upsert))
	if err != nil {
		return nil, err
	}
	return &UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}, nil
}

func nonNil(doc Document) Document {
	if doc == nil {
		return Document{}
	}
	return doc
}
