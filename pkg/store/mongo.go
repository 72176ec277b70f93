package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tilewright/tilewright/pkg/errors"
)

// MongoStore archives runs in a MongoDB collection, for deployments
// where several server instances share one archive.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection with
// a ping. Runs are stored in the "runs" collection of the given
// database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to connect to mongodb at %s", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "mongodb ping %s failed", uri)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection("runs"),
	}, nil
}

// Put saves a run, replacing any existing record with the same id.
func (s *MongoStore) Put(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "run must have an id")
	}
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": run.ID}, run, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to save run %q", run.ID)
	}
	return nil
}

// Get retrieves a run by id.
func (s *MongoStore) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to load run %q", id)
	}
	return &run, nil
}

// List returns run metadata, newest first.
func (s *MongoStore) List(ctx context.Context, limit int) ([]*Run, error) {
	findOpts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetProjection(bson.M{"png": 0})
	if limit > 0 {
		findOpts = findOpts.SetLimit(int64(limit))
	}

	cursor, err := s.collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to list runs")
	}
	defer cursor.Close(ctx)

	var runs []*Run
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to decode runs")
	}
	return runs, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
