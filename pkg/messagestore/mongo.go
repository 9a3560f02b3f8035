package messagestore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// mongoMessage keeps the field names the admin and user chat pages already
// read from the messages collection.
type mongoMessage struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversationId"`
	SenderID       string    `bson:"senderId"`
	ReceiverID     string    `bson:"receiverId"`
	Message        string    `bson:"message"`
	Timestamp      time.Time `bson:"timestamp"`
}

func (m *mongoMessage) toDomain() Message {
	return Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Body:           m.Message,
		Timestamp:      m.Timestamp.UTC(),
	}
}

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	seq        *Sequencer
}

// NewMongoStore connects, pings the primary and ensures the
// (conversationId, _id) index.
func NewMongoStore(cfg MongoConfig) (*MongoStore, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create messages index: %w", err)
	}

	return &MongoStore{client: client, collection: collection, seq: NewSequencer()}, nil
}

func (s *MongoStore) Append(ctx context.Context, conversationID, senderID, receiverID, body string) (*Message, error) {
	if err := validateAppend(conversationID, senderID, receiverID, body); err != nil {
		return nil, err
	}

	id, ts := s.seq.Next()
	doc := &mongoMessage{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Message:        body,
		Timestamp:      ts,
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	msg := doc.toDomain()
	return &msg, nil
}

func (s *MongoStore) QueryByConversation(ctx context.Context, conversationID, cursor string, limit int) (*Page, error) {
	if conversationID == "" {
		return nil, ErrInvalidQuery
	}

	filter := bson.D{{Key: "conversationId", Value: conversationID}}
	if cursor != "" {
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$gt", Value: cursor}}})
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if n := fetchLimit(limit); n > 0 {
		opts.SetLimit(int64(n))
	}

	cur, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	var docs []mongoMessage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	messages := make([]Message, 0, len(docs))
	for i := range docs {
		messages = append(messages, docs[i].toDomain())
	}
	return buildPage(messages, limit), nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
