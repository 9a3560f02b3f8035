package messagestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

// CassandraConfig holds Cassandra connection settings.
type CassandraConfig struct {
	Hosts          []string      `mapstructure:"hosts"`
	Keyspace       string        `mapstructure:"keyspace"`
	Consistency    string        `mapstructure:"consistency"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout"`
	NumConns       int           `mapstructure:"num_conns"`
}

const cassandraSchema = `
	CREATE TABLE IF NOT EXISTS messages_by_conversation (
		conversation_id text,
		message_id text,
		sender_id text,
		receiver_id text,
		content text,
		created_at timestamp,
		PRIMARY KEY ((conversation_id), message_id)
	) WITH CLUSTERING ORDER BY (message_id ASC)`

// CassandraStore keeps one partition per conversation, clustered by the
// lexicographically sortable message ID.
type CassandraStore struct {
	session *gocql.Session
	seq     *Sequencer
}

// NewCassandraStore connects to the cluster and ensures the table exists.
// The keyspace itself must already exist.
func NewCassandraStore(cfg CassandraConfig) (*CassandraStore, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = parseConsistency(cfg.Consistency)
	if cfg.ConnectTimeout > 0 {
		cluster.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	}
	if cfg.NumConns > 0 {
		cluster.NumConns = cfg.NumConns
	}

	if cfg.Username != "" && cfg.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		NumRetries: 3,
		Min:        100 * time.Millisecond,
		Max:        2 * time.Second,
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	if err := session.Query(cassandraSchema).Exec(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to create messages table: %w", err)
	}

	return &CassandraStore{session: session, seq: NewSequencer()}, nil
}

func (s *CassandraStore) Append(ctx context.Context, conversationID, senderID, receiverID, body string) (*Message, error) {
	if err := validateAppend(conversationID, senderID, receiverID, body); err != nil {
		return nil, err
	}

	id, ts := s.seq.Next()
	query := `
		INSERT INTO messages_by_conversation (
			conversation_id, message_id, sender_id, receiver_id, content, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`

	err := s.session.Query(query,
		conversationID,
		id,
		senderID,
		receiverID,
		body,
		ts,
	).WithContext(ctx).Exec()
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return &Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           body,
		Timestamp:      ts,
	}, nil
}

func (s *CassandraStore) QueryByConversation(ctx context.Context, conversationID, cursor string, limit int) (*Page, error) {
	if conversationID == "" {
		return nil, ErrInvalidQuery
	}

	query := `SELECT message_id, sender_id, receiver_id, content, created_at
			  FROM messages_by_conversation
			  WHERE conversation_id = ?`
	args := []interface{}{conversationID}

	if cursor != "" {
		query += ` AND message_id > ?`
		args = append(args, cursor)
	}
	query += ` ORDER BY message_id ASC`
	if n := fetchLimit(limit); n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	iter := s.session.Query(query, args...).WithContext(ctx).Iter()

	var messages []Message
	var msg Message
	var createdAt time.Time

	for iter.Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Body,
		&createdAt,
	) {
		msg.ConversationID = conversationID
		msg.Timestamp = createdAt.UTC()
		messages = append(messages, msg)
		msg = Message{}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return buildPage(messages, limit), nil
}

func (s *CassandraStore) Close() error {
	if s.session != nil {
		s.session.Close()
	}
	return nil
}

// parseConsistency converts a string consistency level to gocql.Consistency.
func parseConsistency(s string) gocql.Consistency {
	switch strings.ToUpper(s) {
	case "ANY":
		return gocql.Any
	case "ONE":
		return gocql.One
	case "TWO":
		return gocql.Two
	case "THREE":
		return gocql.Three
	case "QUORUM":
		return gocql.Quorum
	case "ALL":
		return gocql.All
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum
	case "EACH_QUORUM":
		return gocql.EachQuorum
	case "LOCAL_ONE":
		return gocql.LocalOne
	default:
		return gocql.LocalQuorum
	}
}
