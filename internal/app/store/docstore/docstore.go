// Package docstore provides uniform access to named, schemaless MongoDB
// collections. It is the only component that touches the physical read/write
// path for site content; entity stores are built on top of it and impose all
// shape guarantees client-side.
//
// Documents are plain field maps keyed by a string id. The gateway owns the
// createdAt/updatedAt timestamps (callers never set them) and publishes a
// change event on the injected bus for every successful mutation.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/events"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Document is a schemaless record. The gateway annotates documents it returns
// with their id under FieldID and strips the id from data it writes.
type Document map[string]any

// Reserved field names managed by the gateway.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// ErrNotFound is returned by Get and Update when no document has the
// requested id. Callers distinguish it from transport failures with
// errors.Is.
var ErrNotFound = errors.New("document not found")

// ID returns the document's id, or "" if it has none.
func (d Document) ID() string {
	s, _ := d[FieldID].(string)
	return s
}

// Condition is a single query filter. Conditions combine conjunctively.
// Supported operators: ==, !=, <, <=, >, >=, in, array-contains.
type Condition struct {
	Field string
	Op    string
	Value any
}

// QueryOptions controls ordering and result size for Query.
type QueryOptions struct {
	OrderBy    string
	Descending bool
	Limit      int64
}

// Store is the gateway contract. *Gateway is the MongoDB implementation;
// tests substitute an in-memory fake.
type Store interface {
	Set(ctx context.Context, collection, id string, data Document) error
	Add(ctx context.Context, collection string, data Document) (string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	GetAll(ctx context.Context, collection string) ([]Document, error)
	Update(ctx context.Context, collection, id string, data Document) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, conds []Condition, opts *QueryOptions) ([]Document, error)
}

// Gateway performs reads and writes against MongoDB collections and emits
// change events on the bus. Documents use string _id values so ids chosen by
// callers and ids generated by Add share one namespace.
type Gateway struct {
	db  *mongo.Database
	bus *events.Bus
	now func() time.Time
}

var _ Store = (*Gateway)(nil)

// New creates a gateway over db, publishing change events on bus.
func New(db *mongo.Database, bus *events.Bus) *Gateway {
	return &Gateway{db: db, bus: bus, now: time.Now}
}

// Set upserts the document with the given id, merging at top-level field
// granularity: fields present in data overwrite stored fields of the same
// name, fields absent from data are preserved. updatedAt is refreshed
// unconditionally; createdAt is set only when the write inserts.
func (g *Gateway) Set(ctx context.Context, collection, id string, data Document) error {
	now := g.now().UTC()
	fields := writeFields(data)
	fields[FieldUpdatedAt] = now

	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{FieldCreatedAt: now},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := g.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update, opts); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}

	g.publish(collection, events.OpUpdated, id)
	return nil
}

// Add inserts a new document under a generated id and returns the id.
// Both createdAt and updatedAt are set.
func (g *Gateway) Add(ctx context.Context, collection string, data Document) (string, error) {
	now := g.now().UTC()
	id := uuid.NewString()

	fields := writeFields(data)
	fields["_id"] = id
	fields[FieldCreatedAt] = now
	fields[FieldUpdatedAt] = now

	if _, err := g.db.Collection(collection).InsertOne(ctx, fields); err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}

	g.publish(collection, events.OpCreated, id)
	return id, nil
}

// Get fetches one document by id. Returns ErrNotFound if it does not exist.
func (g *Gateway) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := g.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

// GetAll fetches every document in the collection, each annotated with its
// id, in store-defined order.
func (g *Gateway) GetAll(ctx context.Context, collection string) ([]Document, error) {
	cur, err := g.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("get all %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	return decodeAll(ctx, collection, cur)
}

// Update applies a partial update touching only the top-level fields named
// in data, refreshing updatedAt. Returns ErrNotFound if no document has the
// id; Update never inserts.
func (g *Gateway) Update(ctx context.Context, collection, id string, data Document) error {
	fields := writeFields(data)
	fields[FieldUpdatedAt] = g.now().UTC()

	res, err := g.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
	}

	g.publish(collection, events.OpUpdated, id)
	return nil
}

// Delete removes the document. Deleting a nonexistent id succeeds silently;
// the gateway does not special-case it.
func (g *Gateway) Delete(ctx context.Context, collection, id string) error {
	if _, err := g.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}

	g.publish(collection, events.OpDeleted, id)
	return nil
}

// Query fetches documents matching all conditions, optionally ordered by one
// field and capped at opts.Limit results.
func (g *Gateway) Query(ctx context.Context, collection string, conds []Condition, opts *QueryOptions) ([]Document, error) {
	filter := bson.M{}
	for _, c := range conds {
		expr, err := conditionExpr(c)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		filter[c.Field] = expr
	}

	findOpts := options.Find()
	if opts != nil {
		if opts.OrderBy != "" {
			dir := 1
			if opts.Descending {
				dir = -1
			}
			findOpts.SetSort(bson.D{{Key: opts.OrderBy, Value: dir}})
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
	}

	cur, err := g.db.Collection(collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	return decodeAll(ctx, collection, cur)
}

func (g *Gateway) publish(collection string, op events.Operation, id string) {
	if g.bus == nil {
		return
	}
	g.bus.Publish(events.Event{Collection: collection, Operation: op, DocID: id})
}

// conditionExpr maps a Condition operator to its Mongo filter expression.
func conditionExpr(c Condition) (any, error) {
	switch c.Op {
	case "==":
		return c.Value, nil
	case "!=":
		return bson.M{"$ne": c.Value}, nil
	case "<":
		return bson.M{"$lt": c.Value}, nil
	case "<=":
		return bson.M{"$lte": c.Value}, nil
	case ">":
		return bson.M{"$gt": c.Value}, nil
	case ">=":
		return bson.M{"$gte": c.Value}, nil
	case "in":
		return bson.M{"$in": c.Value}, nil
	case "array-contains":
		// Mongo matches array fields element-wise with plain equality.
		return c.Value, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q on field %q", c.Op, c.Field)
	}
}

// writeFields copies data for writing, dropping the reserved fields the
// gateway manages itself.
func writeFields(data Document) bson.M {
	fields := make(bson.M, len(data))
	for k, v := range data {
		switch k {
		case FieldID, FieldCreatedAt, FieldUpdatedAt, "_id":
			continue
		}
		fields[k] = v
	}
	return fields
}

// fromBSON converts a decoded document to the Document shape, replacing the
// _id key with the public id annotation.
func fromBSON(raw bson.M) Document {
	doc := make(Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	if id, ok := raw["_id"].(string); ok {
		doc[FieldID] = id
	}
	return doc
}

func decodeAll(ctx context.Context, collection string, cur *mongo.Cursor) ([]Document, error) {
	var docs []Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", collection, err)
		}
		docs = append(docs, fromBSON(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	return docs, nil
}
