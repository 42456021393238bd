package store

import (
	"context"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewMemory returns a Store kept in process memory. It mirrors the MongoDB
// semantics the handlers rely on: generated ObjectIDs, equality filters,
// projections, duplicate _id rejection and upserts.
func NewMemory() *Store {
	return &Store{
		Services:     NewMemoryCollection(),
		Appointments: NewMemoryCollection(),
		ping:         func(context.Context) error { return nil },
	}
}

type MemoryCollection struct {
	mu   sync.RWMutex
	docs []Document
}

func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{}
}

func (c *MemoryCollection) Find(ctx context.Context, filter Document) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []Document{}
	for _, doc := range c.docs {
		if matches(doc, filter) {
			out = append(out, clone(doc))
		}
	}
	return out, nil
}

func (c *MemoryCollection) FindOne(ctx context.Context, filter Document, projection ...string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOf(filter)
	if i < 0 {
		return nil, nil
	}
	doc := c.docs[i]
	if len(projection) == 0 {
		return clone(doc), nil
	}
	out := Document{"_id": doc["_id"]}
	for _, field := range projection {
		if v, ok := doc[field]; ok {
			out[field] = v
		}
	}
	return out, nil
}

func (c *MemoryCollection) InsertOne(ctx context.Context, doc Document) (*InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc = clone(doc)
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(Document{"_id": doc["_id"]}) >= 0 {
		return nil, ErrDuplicateKey
	}
	c.docs = append(c.docs, doc)
	return &InsertResult{Acknowledged: true, InsertedID: doc["_id"]}, nil
}

func (c *MemoryCollection) DeleteOne(ctx context.Context, filter Document) (*DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(filter)
	if i < 0 {
		return &DeleteResult{Acknowledged: true}, nil
	}
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return &DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (c *MemoryCollection) UpdateOne(ctx context.Context, filter, set Document, upsert bool) (*UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(filter); i >= 0 {
		res := &UpdateResult{Acknowledged: true, MatchedCount: 1}
		doc := c.docs[i]
		for k, v := range set {
			if old, ok := doc[k]; !ok || !reflect.DeepEqual(old, v) {
				res.ModifiedCount = 1
			}
			doc[k] = v
		}
		return res, nil
	}
	if !upsert {
		return &UpdateResult{Acknowledged: true}, nil
	}

	// An upserted document holds the filter's equality fields plus the $set.
	doc := clone(filter)
	for k, v := range set {
		doc[k] = v
	}
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}
	c.docs = append(c.docs, doc)
	return &UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: doc["_id"]}, nil
}

// Len reports the number of stored documents.
func (c *MemoryCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *MemoryCollection) indexOf(filter Document) int {
	for i, doc := range c.docs {
		if matches(doc, filter) {
			return i
		}
	}
	return -1
}

// matches treats a nil filter value as matching both a missing field and an
// explicit null, as MongoDB does.
func matches(doc, filter Document) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if want == nil {
			if ok && got != nil {
				return false
			}
			continue
		}
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func clone(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
