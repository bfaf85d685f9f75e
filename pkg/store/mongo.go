package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	ferrors "github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/observability"
)

// Mongo defaults.
const (
	DefaultDatabase   = "flowtower"
	DefaultCollection = "flows"
	connectTimeout    = 10 * time.Second
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string `toml:"uri" yaml:"uri"`
	Database   string `toml:"database" yaml:"database"`
	Collection string `toml:"collection" yaml:"collection"`
}

// MongoStore keeps records in a MongoDB collection, one document per record
// keyed by its UUID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB, pings it and ensures the listing index.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, ferrors.New(ferrors.ErrCodeInvalidOptions, "mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(connectTimeout))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "ping mongo")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "create index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) SaveFlow(ctx context.Context, r *Record) (id string, err error) {
	defer observe(ctx, "save", time.Now(), &err)

	prepare(r)
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return "", ferrors.Wrap(ferrors.ErrCodeNetwork, err, "save flow %s", r.ID)
	}
	return r.ID, nil
}

func (s *MongoStore) GetFlow(ctx context.Context, id string) (rec *Record, err error) {
	defer observe(ctx, "get", time.Now(), &err)

	var r Record
	err = s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "get flow %s", id)
	}
	return &r, nil
}

func (s *MongoStore) ListFlows(ctx context.Context, limit int) (out []Summary, err error) {
	defer observe(ctx, "list", time.Now(), &err)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limitOrDefault(limit))).
		SetProjection(bson.M{"xml": 0, "graph": 0})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "list flows")
	}
	out = []Summary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "decode flows")
	}
	return out, nil
}

func (s *MongoStore) DeleteFlow(ctx context.Context, id string) (err error) {
	defer observe(ctx, "delete", time.Now(), &err)

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeNetwork, err, "delete flow %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func observe(ctx context.Context, op string, start time.Time, err *error) {
	observability.Store().OnStoreOp(ctx, op, time.Since(start), *err)
}

var _ Store = (*MongoStore)(nil)
