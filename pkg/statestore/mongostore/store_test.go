package mongostore_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/statekit/pkg/statestore"
	"github.com/dmitrymomot/statekit/pkg/statestore/mongostore"
	"github.com/dmitrymomot/statekit/pkg/statestore/storetest"
)

// fakeCollection stores documents by _id and understands the filters and
// updates the store sends.
type fakeCollection struct {
	mu      sync.Mutex
	docs    map[string]bson.M
	err     error
	upserts int
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: make(map[string]bson.M)}
}

func field(d any, name string) any {
	for _, e := range d.(bson.D) {
		if e.Key == name {
			return e.Value
		}
	}
	return nil
}

func (c *fakeCollection) FindOne(_ context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, c.err, nil)
	}
	doc, ok := c.docs[field(filter, "_id").(string)]
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func (c *fakeCollection) Find(_ context.Context, filter any, _ ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	machine := field(filter, "machine").(string)

	var ids []string
	for _, d := range c.docs {
		if d["machine"] == machine {
			ids = append(ids, d["instance_id"].(string))
		}
	}
	slices.Sort(ids)

	docs := make([]any, len(ids))
	for i, id := range ids {
		docs[i] = bson.D{{Key: "instance_id", Value: id}}
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (c *fakeCollection) UpdateOne(_ context.Context, filter, update any, _ ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	id := field(filter, "_id").(string)
	doc := bson.M{"_id": id}
	for _, e := range field(update, "$set").(bson.D) {
		doc[e.Key] = e.Value
	}
	c.docs[id] = doc
	c.upserts++
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

func (c *fakeCollection) DeleteOne(_ context.Context, filter any, _ ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	delete(c.docs, field(filter, "_id").(string))
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()
	storetest.RunContract(t, mongostore.New(newFakeCollection()))
}

func TestStore_DocumentLayout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	coll := newFakeCollection()
	store := mongostore.New(coll)

	require.NoError(t, store.Save(ctx, statestore.Key{Machine: "order", ID: "42"}, "approved"))

	doc, ok := coll.docs["order/42"]
	require.True(t, ok)
	assert.Equal(t, "order", doc["machine"])
	assert.Equal(t, "42", doc["instance_id"])
	assert.Equal(t, "approved", doc["state"])
	assert.NotNil(t, doc["updated_at"])
}

func TestStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("server selection timeout")
	coll := newFakeCollection()
	coll.err = boom
	store := mongostore.New(coll)
	key := statestore.Key{Machine: "order", ID: "1"}

	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, statestore.ErrNotFound)

	assert.ErrorIs(t, store.Save(ctx, key, "pending"), boom)
	assert.ErrorIs(t, store.Delete(ctx, key), boom)

	_, err = store.List(ctx, "order")
	assert.ErrorIs(t, err, boom)
}
