// Package store is the document store behind the API. Documents are
// schema-less; the only field the server ever writes on its own is an
// appointment's "approved" flag.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ServicesCollection     = "services"
	AppointmentsCollection = "appointments"
)

var ErrDuplicateKey = errors.New("E11000 duplicate key error")

type Document = bson.M

// Collection is the subset of collection operations the handlers use.
// Filters are top-level equality matches.
type Collection interface {
	Find(ctx context.Context, filter Document) ([]Document, error)
	// FindOne returns nil, nil when nothing matches. With a projection only
	// the named fields and _id are returned.
	FindOne(ctx context.Context, filter Document, projection ...string) (Document, error)
	InsertOne(ctx context.Context, doc Document) (*InsertResult, error)
	DeleteOne(ctx context.Context, filter Document) (*DeleteResult, error)
	UpdateOne(ctx context.Context, filter, set Document, upsert bool) (*UpdateResult, error)
}

type Store struct {
	Services     Collection
	Appointments Collection

	ping  func(context.Context) error
	close func(context.Context) error
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return errors.New("store not configured")
	}
	return s.ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// ReadyCheck adapts Ping for the readiness probe.
func ReadyCheck(s *Store) func(context.Context) error {
	return s.Ping
}

// ParseID converts a hex path parameter into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}

// ByID is the filter matching a single document by identifier.
func ByID(id primitive.ObjectID) Document {
	return Document{"_id": id}
}

type InsertResult struct {
	Acknowledged bool `json:"acknowledged"`
	InsertedID   any  `json:"insertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
	UpsertedCount int64 `json:"upsertedCount"`
	UpsertedID    any   `json:"upsertedId"`
}
