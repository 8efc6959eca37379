// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tasklists/internal/task"
)

// FakeStore is an in-memory implementation of task.Store for testing.
type FakeStore struct {
	mu    sync.RWMutex
	tasks []task.Task
	seq   int
	clock time.Time

	// Error injection for testing
	CreateErr  error
	FindAllErr error
	DeleteErr  error

	// Call counters
	Creates  int
	FindAlls int
	Deletes  int
}

// NewFakeStore creates an empty FakeStore. Each created task gets a
// timestamp one second after the previous one.
func NewFakeStore() *FakeStore {
	return &FakeStore{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Seed adds tasks in creation order (oldest first) and returns them.
func (f *FakeStore) Seed(pairs ...[2]string) []task.Task {
	out := make([]task.Task, 0, len(pairs))
	for _, p := range pairs {
		d, err := task.NewDraft(p[0], p[1])
		if err != nil {
			panic(err)
		}
		f.mu.Lock()
		out = append(out, f.insert(d))
		f.mu.Unlock()
	}
	return out
}

// Len returns the number of stored tasks.
func (f *FakeStore) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tasks)
}

// Create implements task.Store.
func (f *FakeStore) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Creates++
	if f.CreateErr != nil {
		return task.Task{}, f.CreateErr
	}
	return f.insert(d), nil
}

func (f *FakeStore) insert(d task.Draft) task.Task {
	f.seq++
	f.clock = f.clock.Add(time.Second)
	t := task.Task{
		ID:        fmt.Sprintf("task-%d", f.seq),
		Content:   d.Content,
		ListType:  d.ListType,
		CreatedAt: f.clock,
	}
	f.tasks = append(f.tasks, t)
	return t
}

// FindAll implements task.Store.
func (f *FakeStore) FindAll(ctx context.Context) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FindAlls++
	if f.FindAllErr != nil {
		return nil, f.FindAllErr
	}
	out := make([]task.Task, len(f.tasks))
	copy(out, f.tasks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete implements task.Store.
func (f *FakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deletes++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return task.ErrNotFound
}

// Ping always succeeds.
func (f *FakeStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (f *FakeStore) Close() error { return nil }

// RecordingPublisher captures published events.
type RecordingPublisher struct {
	mu     sync.Mutex
	Topics []string
	Bodies [][]byte
	Err    error
}

// Publish implements mq.Publisher.
func (p *RecordingPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Topics = append(p.Topics, topic)
	p.Bodies = append(p.Bodies, payload)
	return p.Err
}
