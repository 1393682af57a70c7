// Package csvexport implements the ExportSink port as CSV output.
package csvexport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ExportSink = (*Exporter)(nil)

// Exporter writes tabular exports as CSV: a single-cell metadata row, the
// header row, then the data rows.
type Exporter struct {
	w   io.Writer
	now func() time.Time
}

// NewExporter creates an Exporter writing to w.
func NewExporter(w io.Writer) *Exporter {
	return &Exporter{w: w, now: time.Now}
}

// Write renders the rows to CSV. The metadata row is kept to one cell so
// spreadsheet tools do not misread it as data.
func (e *Exporter) Write(ctx context.Context, columns []string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cw := csv.NewWriter(e.w)

	meta := fmt.Sprintf("# Exported at: %s | Records: %d",
		e.now().UTC().Format("2006-01-02 15:04:05 UTC"), len(rows))
	if err := cw.Write([]string{meta}); err != nil {
		return fmt.Errorf("write metadata row: %w", err)
	}

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
