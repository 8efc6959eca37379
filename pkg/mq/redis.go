package mq

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a Publisher and Subscriber on Redis Pub/Sub. Channels are
// namespaced as tasklists:{namespace}:{topic}. Delivery is at-most-once.
type Redis struct {
	rdb       *redis.Client
	namespace string
}

func NewRedis(opts *redis.Options, namespace string) (*Redis, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	return &Redis{rdb: redis.NewClient(opts), namespace: namespace}, nil
}

// Channel returns the Redis channel used for topic.
func (r *Redis) Channel(topic string) string {
	return fmt.Sprintf("tasklists:%s:%s", r.namespace, topic)
}

func (r *Redis) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := r.rdb.Publish(ctx, r.Channel(topic), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, topic string, handler func([]byte) error) error {
	pubsub := r.rdb.Subscribe(ctx, r.Channel(topic))
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := handler([]byte(msg.Payload)); err != nil {
				return err
			}
		}
	}
}

func (r *Redis) Close() error { return r.rdb.Close() }
