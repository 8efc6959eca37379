package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	r, err := NewRedis(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestNewRedisRejectsEmptyNamespace(t *testing.T) {
	_, err := NewRedis(&redis.Options{Addr: "localhost:6379"}, "")
	assert.Error(t, err)
}

func TestRedisChannel(t *testing.T) {
	r, _ := setupRedis(t)
	assert.Equal(t, "tasklists:test:task.created", r.Channel("task.created"))
}

func TestRedisPublishSubscribe(t *testing.T) {
	r, mr := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []byte, 1)
	done := make(chan error, 1)
	go func() {
		done <- r.Subscribe(ctx, "task.created", func(b []byte) error {
			got <- b
			return nil
		})
	}()

	channel := r.Channel("task.created")
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(channel)[channel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, r.Publish(ctx, "task.created", []byte(`{"type":"task.created"}`)))

	select {
	case b := <-got:
		assert.JSONEq(t, `{"type":"task.created"}`, string(b))
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestRedisSubscribeHandlerError(t *testing.T) {
	r, mr := setupRedis(t)
	ctx := context.Background()
	boom := errors.New("boom")

	done := make(chan error, 1)
	go func() {
		done <- r.Subscribe(ctx, "task.deleted", func([]byte) error { return boom })
	}()

	channel := r.Channel("task.deleted")
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(channel)[channel] == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, r.Publish(ctx, "task.deleted", []byte("x")))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not return handler error")
	}
}

func TestNoop(t *testing.T) {
	var n Noop
	assert.NoError(t, n.Publish(context.Background(), "x", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, n.Subscribe(ctx, "x", func([]byte) error { return nil }))
}
