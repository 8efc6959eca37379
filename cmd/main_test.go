package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklists/internal/config"
	"tasklists/internal/store"
	"tasklists/internal/task"
	"tasklists/internal/testutil"
	"tasklists/pkg/mq"
)

// withFakeStore points every command at st and runs from an empty dir.
func withFakeStore(t *testing.T, st *testutil.FakeStore) {
	t.Chdir(t.TempDir())
	t.Setenv("TASKLISTS_EVENTS_REDIS_ADDR", "")
	prev := openBackend
	openBackend = func(context.Context, *config.Config) (store.Backend, error) { return st, nil }
	t.Cleanup(func() { openBackend = prev })

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTasksCommand(t *testing.T) {
	st := testutil.NewFakeStore()
	st.Seed([2]string{"Buy eggs", "Shopping"}, [2]string{"Write report", "Work"}, [2]string{"Buy milk", "Shopping"})
	withFakeStore(t, st)

	out, err := run(t, "tasks")
	require.NoError(t, err)
	assert.Equal(t, "Shopping (2)\n  - Buy milk [task-3]\n  - Buy eggs [task-1]\n\nWork (1)\n  - Write report [task-2]\n", out)
}

func TestTasksCommandEmpty(t *testing.T) {
	withFakeStore(t, testutil.NewFakeStore())

	out, err := run(t, "ls")
	require.NoError(t, err)
	assert.Equal(t, "no tasks\n", out)
}

func TestAddCommand(t *testing.T) {
	st := testutil.NewFakeStore()
	withFakeStore(t, st)

	out, err := run(t, "add", "--list", " Work ", "Write", "report")
	require.NoError(t, err)
	assert.Equal(t, "added task-1 to Work\n", out)

	all, err := st.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Write report", all[0].Content)

	_, err = run(t, "add", "Write report")
	assert.ErrorIs(t, err, task.ErrMissingList)
}

func TestDeleteCommand(t *testing.T) {
	st := testutil.NewFakeStore()
	st.Seed([2]string{"a", "x"})
	withFakeStore(t, st)

	out, err := run(t, "rm", "task-1")
	require.NoError(t, err)
	assert.Equal(t, "deleted task-1\n", out)
	assert.Zero(t, st.Len())

	_, err = run(t, "delete")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	st := testutil.NewFakeStore()
	st.Seed([2]string{"a", "x"})
	withFakeStore(t, st)

	out, err := run(t, "export", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "list,id,content,created_at\nx,task-1,a,")

	path := filepath.Join(t.TempDir(), "board.pdf")
	out, err = run(t, "export", "-f", "pdf", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported -> "+path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))

	_, err = run(t, "export", "--format", "xml")
	assert.Error(t, err)
}

func TestBadConfigFails(t *testing.T) {
	withFakeStore(t, testutil.NewFakeStore())

	_, err := run(t, "tasks", "--config", "missing.yml")
	assert.ErrorContains(t, err, "config")
}

func TestWatchNeedsEvents(t *testing.T) {
	withFakeStore(t, testutil.NewFakeStore())

	_, err := run(t, "watch")
	assert.ErrorContains(t, err, "events.redis_addr")
}

// syncBuffer is written by subscriber goroutines and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchEvents(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	mr := miniredis.RunT(t)
	events, err := mq.NewRedis(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { events.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- watchEvents(ctx, events, &out) }()

	created, deleted := events.Channel(task.TopicCreated), events.Channel(task.TopicDeleted)
	require.Eventually(t, func() bool {
		n := mr.PubSubNumSub(created, deleted)
		return n[created] == 1 && n[deleted] == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, events.Publish(ctx, task.TopicCreated, []byte("not json")))

	m := task.NewManager(testutil.NewFakeStore(), task.WithPublisher(events))
	added, err := m.Add(ctx, "Buy milk", "Shopping")
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, added.ID))

	require.Eventually(t, func() bool {
		s := out.String()
		return bytes.Contains([]byte(s), []byte("+ Buy milk [Shopping] "+added.ID)) &&
			bytes.Contains([]byte(s), []byte("- "+added.ID))
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
