package result

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tasklists/internal/task"

	"github.com/jung-kurt/gofpdf"
)

var ErrUnknownFormat = errors.New("unknown format")

// Board is the subset of task.Manager the exporter reads from.
type Board interface {
	Board(ctx context.Context) (task.View, error)
}

type Exporter struct{ b Board }

func NewExporter(b Board) *Exporter { return &Exporter{b: b} }

// ContentType returns the MIME type for an export format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "csv":
		return "text/csv; charset=utf-8"
	case "pdf":
		return "application/pdf"
	default:
		return "application/json"
	}
}

func (e *Exporter) Export(ctx context.Context, format string) ([]byte, error) {
	format = strings.ToLower(format)
	switch format {
	case "json", "csv", "pdf":
	default:
		return nil, fmt.Errorf("%w %s", ErrUnknownFormat, format)
	}

	v, err := e.b.Board(ctx)
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		return json.MarshalIndent(v, "", "  ")
	case "csv":
		return exportCSV(v)
	default:
		return exportPDF(v)
	}
}

func exportCSV(v task.View) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"list", "id", "content", "created_at"})
	for _, name := range v.Lists() {
		for _, t := range v.TasksByList[name] {
			_ = w.Write([]string{name, t.ID, t.Content, t.CreatedAt.UTC().Format(time.RFC3339)})
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func exportPDF(v task.View) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; task text is UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task Lists")
	pdf.Ln(12)
	if v.Count() == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(40, 6, "No tasks")
	}
	for _, name := range v.Lists() {
		ts := v.TasksByList[name]
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, tr(fmt.Sprintf("%s (%d)", name, len(ts))))
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		for _, t := range ts {
			line := fmt.Sprintf("- %s  [%s]", t.Content, t.CreatedAt.UTC().Format("2006-01-02 15:04"))
			pdf.MultiCell(0, 6, tr(line), "0", "L", false)
		}
		pdf.Ln(4)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
