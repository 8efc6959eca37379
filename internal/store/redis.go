package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tasklists/internal/task"
)

// Redis key pattern helpers
//
// Key pattern: tasklists:{namespace}:task:{id} (hash)
// Index:       tasklists:{namespace}:tasks (sorted set scored by createdAt in microseconds)

func TaskKey(namespace, id string) string {
	return fmt.Sprintf("tasklists:%s:task:%s", namespace, id)
}

func TaskIndexKey(namespace string) string {
	return fmt.Sprintf("tasklists:%s:tasks", namespace)
}

// RedisStore keeps each task in a hash and orders them with a sorted set.
// Ids are UUIDv4.
type RedisStore struct {
	rdb       *redis.Client
	namespace string
	now       func() time.Time
}

func OpenRedis(ctx context.Context, addr, password string, db int, namespace string) (*RedisStore, error) {
	s, err := NewRedis(&redis.Options{Addr: addr, Password: password, DB: db}, namespace)
	if err != nil {
		return nil, err
	}
	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func NewRedis(opts *redis.Options, namespace string) (*RedisStore, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	return &RedisStore{rdb: redis.NewClient(opts), namespace: namespace, now: time.Now}, nil
}

func (s *RedisStore) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	t := task.Task{
		ID:        uuid.NewString(),
		Content:   d.Content,
		ListType:  d.ListType,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, TaskKey(s.namespace, t.ID), taskToHash(t))
		p.ZAdd(ctx, TaskIndexKey(s.namespace), redis.Z{Score: float64(t.CreatedAt.UnixMicro()), Member: t.ID})
		return nil
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("failed to write task to Redis: %w", err)
	}
	return t, nil
}

// FindAll walks the index newest first. Equal scores come back in
// descending id order.
func (s *RedisStore) FindAll(ctx context.Context) ([]task.Task, error) {
	ids, err := s.rdb.ZRevRange(ctx, TaskIndexKey(s.namespace), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read task index: %w", err)
	}
	if len(ids) == 0 {
		return []task.Task{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, TaskKey(s.namespace, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}

	out := make([]task.Task, 0, len(ids))
	for _, cmd := range cmds {
		h := cmd.Val()
		// Index entry without a hash: deleted between the two reads.
		if len(h) == 0 {
			continue
		}
		t, err := hashToTask(h)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, TaskKey(s.namespace, id))
		p.ZRem(ctx, TaskIndexKey(s.namespace), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete task from Redis: %w", err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.rdb.Close() }

func taskToHash(t task.Task) map[string]interface{} {
	return map[string]interface{}{
		"id":         t.ID,
		"content":    t.Content,
		"list_type":  t.ListType.String(),
		"created_at": t.CreatedAt.Format(time.RFC3339Nano),
	}
}

func hashToTask(h map[string]string) (task.Task, error) {
	created, err := time.Parse(time.RFC3339Nano, h["created_at"])
	if err != nil {
		return task.Task{}, fmt.Errorf("task %s: invalid created_at: %w", h["id"], err)
	}
	return task.Task{
		ID:        h["id"],
		Content:   h["content"],
		ListType:  task.NewListName(h["list_type"]),
		CreatedAt: created.UTC(),
	}, nil
}
