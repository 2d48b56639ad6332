// Package mongostore persists state machine states in MongoDB, one document
// per machine instance keyed by "machine/id".
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/statekit/pkg/statestore"
)

// Collection is the subset of *mongo.Collection the store needs.
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
}

type stateDocument struct {
	ID         string    `bson:"_id"`
	Machine    string    `bson:"machine"`
	InstanceID string    `bson:"instance_id"`
	State      string    `bson:"state"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// Store implements statestore.Store on a MongoDB collection.
type Store struct {
	coll Collection
	now  func() time.Time
}

var _ statestore.Store = (*Store)(nil)

func New(coll Collection) *Store {
	return &Store{coll: coll, now: time.Now}
}

func byKey(key statestore.Key) bson.D {
	return bson.D{{Key: "_id", Value: key.String()}}
}

func (s *Store) Load(ctx context.Context, key statestore.Key) (string, error) {
	var doc stateDocument
	err := s.coll.FindOne(ctx, byKey(key)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", statestore.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("mongostore: load %s: %w", key, err)
	}
	return doc.State, nil
}

// Save upserts the instance document.
func (s *Store) Save(ctx context.Context, key statestore.Key, state string) error {
	if err := key.Validate(); err != nil {
		return err
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "machine", Value: key.Machine},
		{Key: "instance_id", Value: key.ID},
		{Key: "state", Value: state},
		{Key: "updated_at", Value: s.now().UTC()},
	}}}
	if _, err := s.coll.UpdateOne(ctx, byKey(key), update, options.UpdateOne().SetUpsert(true)); err != nil {
		return fmt.Errorf("mongostore: save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key statestore.Key) error {
	if _, err := s.coll.DeleteOne(ctx, byKey(key)); err != nil {
		return fmt.Errorf("mongostore: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, machine string) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "instance_id", Value: 1}}).
		SetSort(bson.D{{Key: "instance_id", Value: 1}})

	cur, err := s.coll.Find(ctx, bson.D{{Key: "machine", Value: machine}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: list %s: %w", machine, err)
	}

	var docs []stateDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: list %s: %w", machine, err)
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.InstanceID
	}
	return ids, nil
}
