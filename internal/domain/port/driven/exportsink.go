package driven

import "context"

// ExportSink is the driven port for tabular export. Implementations own the
// output format; callers hand over a header and pre-rendered string rows.
type ExportSink interface {
	Write(ctx context.Context, columns []string, rows [][]string) error
}
