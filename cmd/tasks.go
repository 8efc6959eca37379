package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tasklists/internal/task"
)

var (
	listHeader = color.New(color.FgCyan, color.Bold)
	dim        = color.New(color.Faint)
	green      = color.New(color.FgGreen)
	red        = color.New(color.FgRed)
)

func newTasksCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"ls"},
		Short:   "Print every task grouped by list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.tasks.Board(cmd.Context())
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func printBoard(w io.Writer, v task.View) {
	if v.Count() == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	for i, name := range v.Lists() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		listHeader.Fprintf(w, "%s (%d)\n", name, len(v.TasksByList[name]))
		for _, t := range v.TasksByList[name] {
			fmt.Fprintf(w, "  - %s ", t.Content)
			dim.Fprintf(w, "[%s]\n", t.ID)
		}
	}
}

func newAddCmd(configPath *string) *cobra.Command {
	var list string

	cmd := &cobra.Command{
		Use:   "add --list <name> <content...>",
		Short: "Add a task to a list",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.tasks.Add(cmd.Context(), strings.Join(args, " "), list)
			if err != nil {
				return err
			}
			green.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", t.ID, t.ListType)
			return nil
		},
	}
	cmd.Flags().StringVarP(&list, "list", "l", "", "list name")
	return cmd
}

func newDeleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task by id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			red.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
