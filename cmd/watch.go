package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tasklists/internal/task"
	"tasklists/pkg/mq"
)

func newWatchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream task events until interrupted",
		Long: `watch prints task.created and task.deleted events published by any
tasklists process sharing the same events.redis_addr and namespace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			events, err := newEvents(cfg)
			if err != nil {
				return err
			}
			if events == nil {
				return fmt.Errorf("watch needs events.redis_addr (or TASKLISTS_EVENTS_REDIS_ADDR)")
			}
			defer events.Close()

			return watchEvents(cmd.Context(), events, cmd.OutOrStdout())
		},
	}
}

func watchEvents(ctx context.Context, sub mq.Subscriber, w io.Writer) error {
	var mu sync.Mutex
	handle := func(b []byte) error {
		var ev task.Event
		if err := json.Unmarshal(b, &ev); err != nil {
			log.Printf("[Watch] Skipping malformed event %q: %v", b, err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		printEvent(w, ev)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, topic := range []string{task.TopicCreated, task.TopicDeleted} {
		g.Go(func() error { return sub.Subscribe(ctx, topic, handle) })
	}
	return g.Wait()
}

func printEvent(w io.Writer, ev task.Event) {
	dim.Fprintf(w, "%s ", ev.At.Local().Format("15:04:05"))
	switch ev.Type {
	case task.TopicCreated:
		green.Fprintf(w, "+ ")
		fmt.Fprintf(w, "%s ", ev.Task.Content)
		listHeader.Fprintf(w, "[%s]", ev.Task.ListType)
		dim.Fprintf(w, " %s\n", ev.Task.ID)
	case task.TopicDeleted:
		red.Fprintf(w, "- ")
		fmt.Fprintf(w, "%s\n", ev.Task.ID)
	default:
		fmt.Fprintf(w, "%s %s\n", ev.Type, ev.Task.ID)
	}
}
