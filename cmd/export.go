package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tasklists/internal/result"
)

func newExportCmd(configPath *string) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the board as json, csv or pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := result.NewExporter(a.tasks).Export(cmd.Context(), format)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.WriteFile(out, b, 0644); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported -> %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format: json|csv|pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default stdout)")
	return cmd
}
