// Package pubsub bridges Redis publish/subscribe into iterator-shaped
// event sources.
//
// Subscribe returns an iter.Seq, which slots directly into event-stream
// handlers: breaking out of the range loop tears down the Redis
// subscription, so an SSE client disconnect releases the connection
// without any bookkeeping in the handler.
//
//	func (h *handler) feed(c loom.Context) (any, error) {
//		return loom.Events(func(yield func(any) bool) {
//			for msg := range h.broker.Subscribe(c, "updates") {
//				if !yield(loom.Fragment("dashboard", "stats", msg.Channel)) {
//					return
//				}
//			}
//		}), nil
//	}
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/redis/go-redis/v9"
)

// Message is one published value as received from Redis.
type Message struct {
	Channel string
	Payload []byte
}

// Decode unmarshals the JSON payload into v.
func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("pubsub: decode message from %q: %w", m.Channel, err)
	}
	return nil
}

// Broker publishes and subscribes through a Redis connection.
type Broker struct {
	client redis.UniversalClient
}

// New creates a broker over the given Redis client.
func New(client redis.UniversalClient) *Broker {
	return &Broker{client: client}
}

// Publish JSON-encodes payload and publishes it on the channel.
// Raw []byte and string payloads are sent as-is.
func (b *Broker) Publish(ctx context.Context, channel string, payload any) error {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("pubsub: encode payload for %q: %w", channel, err)
		}
		data = encoded
	}

	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("pubsub: publish to %q: %w", channel, err)
	}
	return nil
}

// Subscribe delivers messages from the given channels until the context
// is canceled or the consumer stops ranging. The Redis subscription is
// closed in both cases.
func (b *Broker) Subscribe(ctx context.Context, channels ...string) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		sub := b.client.Subscribe(ctx, channels...)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if !yield(Message{Channel: msg.Channel, Payload: []byte(msg.Payload)}) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}
