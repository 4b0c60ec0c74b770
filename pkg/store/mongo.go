package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	gerrors "github.com/matzehuels/goalgraph/pkg/errors"
	"github.com/matzehuels/goalgraph/pkg/goal"
	"github.com/matzehuels/goalgraph/pkg/observability"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string // MongoDB connection string
	Database   string
	Collection string
	DocumentID string // _id of the single document this store manages

	RedisAddr    string // Redis host:port used for change fan-out
	RedisChannel string // pub/sub channel name
}

// MongoStore persists the document as a single MongoDB record and fans
// changes out over a Redis pub/sub channel. Writes publish a small
// notification {origin, document_id}; subscribers refetch the document from
// MongoDB rather than trusting the payload, so a lost message costs one
// missed repaint, never a corrupted document.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	rdb     *redis.Client
	channel string
	docID   string
}

// envelope wraps the document for storage under a fixed _id.
type envelope struct {
	ID  string         `bson:"_id"`
	Doc *goal.Document `bson:"doc"`
}

// notification is the pub/sub payload announcing a write.
type notification struct {
	Origin     string `json:"origin"`
	DocumentID string `json:"document_id"`
}

// NewMongoStore connects to MongoDB and Redis and returns the store.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeSyncFetch, err, "connect to mongodb at %s", cfg.URI)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = client.Disconnect(ctx)
		return nil, gerrors.Wrap(gerrors.ErrCodeSyncSubscribe, err, "connect to redis at %s", cfg.RedisAddr)
	}

	return &MongoStore{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		rdb:     rdb,
		channel: cfg.RedisChannel,
		docID:   cfg.DocumentID,
	}, nil
}

// Close disconnects from both backends.
func (s *MongoStore) Close(ctx context.Context) error {
	rerr := s.rdb.Close()
	if err := s.client.Disconnect(ctx); err != nil {
		return err
	}
	return rerr
}

func (s *MongoStore) Fetch(ctx context.Context) (*goal.Document, error) {
	start := time.Now()

	var env envelope
	err := s.coll.FindOne(ctx, bson.M{"_id": s.docID}).Decode(&env)
	observability.Store().OnFetch(ctx, "mongo", time.Since(start), err)

	if err == mongo.ErrNoDocuments {
		return goal.NewDocument(), nil
	}
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeSyncFetch, err, "fetch document %s", s.docID)
	}

	doc := env.Doc
	if doc == nil {
		doc = goal.NewDocument()
	}
	if doc.Nodes == nil {
		doc.Nodes = make(map[goal.NodeID]*goal.Node)
	}
	if doc.History == nil {
		doc.History = make(map[goal.DayKey]goal.DayStats)
	}
	return doc, nil
}

func (s *MongoStore) Write(ctx context.Context, doc *goal.Document, origin string) error {
	start := time.Now()

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": s.docID},
		envelope{ID: s.docID, Doc: doc},
		options.Replace().SetUpsert(true),
	)
	observability.Store().OnWrite(ctx, "mongo", time.Since(start), err)
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeSyncWrite, err, "persist document %s", s.docID)
	}

	payload, err := json.Marshal(notification{Origin: origin, DocumentID: s.docID})
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeSyncWrite, err, "encode change notification")
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeSyncWrite, err, "publish change notification")
	}
	return nil
}

// Subscribe listens on the Redis channel and refetches the document for every
// notification about this store's document ID. Delivery runs on a background
// goroutine until Unsubscribe is called or ctx is cancelled.
func (s *MongoStore) Subscribe(ctx context.Context, fn func(Change)) (Unsubscribe, error) {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, gerrors.Wrap(gerrors.ErrCodeSyncSubscribe, err, "subscribe to %s", s.channel)
	}

	go func() {
		for msg := range pubsub.Channel() {
			var note notification
			if err := json.Unmarshal([]byte(msg.Payload), &note); err != nil {
				continue
			}
			if note.DocumentID != s.docID {
				continue
			}
			doc, err := s.Fetch(ctx)
			if err != nil {
				continue
			}
			fn(Change{Doc: doc, Origin: note.Origin})
		}
	}()

	return func() { _ = pubsub.Close() }, nil
}

var _ Store = (*MongoStore)(nil)
