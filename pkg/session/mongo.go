package session

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default Mongo locations for DialMongo.
const (
	defaultMongoDatabase   = "vizhost"
	defaultMongoCollection = "sessions"
)

// MongoStore keeps sessions in a MongoDB collection, one document per
// session keyed by _id. Multi-host deployments use it so every host sees
// the same sessions.
type MongoStore struct {
	coll   *mongo.Collection
	client *mongo.Client // owned when dialed, nil when the collection was injected
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore wraps an existing collection. The caller keeps ownership
// of the client; Close is a no-op.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// DialMongo connects to the given URI and returns a store on the default
// database and collection. The store owns the connection; Close
// disconnects it.
func DialMongo(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		coll:   client.Database(defaultMongoDatabase).Collection(defaultMongoCollection),
		client: client,
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", id, err)
	}
	return &sess, nil
}

func (s *MongoStore) Put(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		return ErrInvalidID
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sess.ID}, sess, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store session %q: %w", sess.ID, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	// Graphs are left out of the projection; listings only need counts.
	opts := options.Find().
		SetProjection(bson.M{"name": 1, "updated_at": 1, "instances.id": 1}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cur.Close(ctx)

	var summaries []Summary
	for cur.Next(ctx) {
		var sess Session
		if err := cur.Decode(&sess); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		summaries = append(summaries, sess.Summary())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return summaries, nil
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}
