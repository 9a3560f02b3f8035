package kafka

import (
	"context"

	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
)

// MessageProducer publishes persisted chat messages to the event stream.
type MessageProducer interface {
	ProduceMessage(ctx context.Context, msg *messagestore.Message) error
	Close() error
}

// NoopProducer is used when the event stream is disabled.
type NoopProducer struct{}

func (NoopProducer) ProduceMessage(context.Context, *messagestore.Message) error { return nil }
func (NoopProducer) Close() error                                                { return nil }
