// Package mq carries task events between processes. Noop is used when no
// broker is configured.
package mq

import "context"

type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Subscriber delivers messages on topic to handler until ctx is done or
// handler returns an error.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler func([]byte) error) error
}

type Noop struct{}

func (Noop) Publish(ctx context.Context, topic string, payload []byte) error { return nil }

func (Noop) Subscribe(ctx context.Context, topic string, handler func([]byte) error) error {
	<-ctx.Done()
	return nil
}
