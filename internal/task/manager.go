package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tasklists/pkg/cache"
	"tasklists/pkg/mq"
)

// ErrNotFound is returned by a Store when no task has the requested id.
// Malformed ids are reported the same way.
var ErrNotFound = errors.New("task not found")

// Event topics published after successful writes.
const (
	TopicCreated = "task.created"
	TopicDeleted = "task.deleted"
)

// Store is the persistence a Manager needs. FindAll returns tasks newest
// first.
type Store interface {
	Create(ctx context.Context, d Draft) (Task, error)
	FindAll(ctx context.Context) ([]Task, error)
	Delete(ctx context.Context, id string) error
}

// Event is the payload published on TopicCreated and TopicDeleted.
type Event struct {
	Type string    `json:"type"`
	Task Task      `json:"task"`
	At   time.Time `json:"at"`
}

const boardKey = "board"

type Manager struct {
	st    Store
	pub   mq.Publisher
	views *cache.MemoryCache[View]
	now   func() time.Time

	// gen counts invalidations so a Board that read before a write does
	// not put its view back into the cache.
	mu  sync.Mutex
	gen uint64
}

type Option func(*Manager)

// WithPublisher sets where task events go. The default drops them.
func WithPublisher(p mq.Publisher) Option {
	return func(m *Manager) { m.pub = p }
}

// WithViewCache keeps the built board for ttl. Writes through the same
// Manager invalidate it; writes from other processes are seen after ttl.
func WithViewCache(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.views = cache.NewMemory[View](ttl)
		}
	}
}

func NewManager(st Store, opts ...Option) *Manager {
	m := &Manager{st: st, pub: mq.Noop{}, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Board loads every task and groups it by list.
func (m *Manager) Board(ctx context.Context) (View, error) {
	if m.views != nil {
		if v, ok := m.views.Get(boardKey); ok {
			return v, nil
		}
	}
	gen := m.generation()
	all, err := m.st.FindAll(ctx)
	if err != nil {
		return View{}, fmt.Errorf("load tasks: %w", err)
	}
	v := BuildView(all)
	if m.views != nil {
		m.mu.Lock()
		if m.gen == gen {
			m.views.Set(boardKey, v)
		}
		m.mu.Unlock()
	}
	return v, nil
}

// Add creates a task. Blank content or list name yields ErrMissingContent
// or ErrMissingList and the store is not touched.
func (m *Manager) Add(ctx context.Context, content, listType string) (Task, error) {
	d, err := NewDraft(content, listType)
	if err != nil {
		return Task{}, err
	}
	t, err := m.st.Create(ctx, d)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	m.invalidate()
	m.publish(ctx, TopicCreated, t)
	return t, nil
}

// Delete removes the task with id. Unknown ids are not an error.
func (m *Manager) Delete(ctx context.Context, id string) error {
	err := m.st.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	m.invalidate()
	m.publish(ctx, TopicDeleted, Task{ID: id})
	return nil
}

func (m *Manager) generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

func (m *Manager) invalidate() {
	if m.views == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.views.Delete(boardKey)
}

func (m *Manager) publish(ctx context.Context, topic string, t Task) {
	b, err := json.Marshal(Event{Type: topic, Task: t, At: m.now().UTC()})
	if err != nil {
		log.Printf("[Tasks] Failed to marshal %s event: %v", topic, err)
		return
	}
	if err := m.pub.Publish(ctx, topic, b); err != nil {
		log.Printf("[Tasks] Failed to publish %s event: %v", topic, err)
	}
}
