// Package notes applies the sanitizer over one HTML column of a CSV file:
// one sanitized string out per raw string in, rows never reordered,
// dropped, or added.
package notes

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/robertej19/csvss"
)

// ErrMissingColumn is returned when the configured HTML column is absent
// from the CSV header.
var ErrMissingColumn = errors.New("notes: missing html column")

// Stats summarizes one batch run.
type Stats struct {
	RowsTotal   int
	RowsChanged int
	CharsBefore int
	CharsAfter  int
}

// Batch sanitizes the named column of a CSV stream. The zero value is not
// usable; fill in Policy and Column.
type Batch struct {
	// Policy is shared read-only across all workers.
	Policy *csvss.Policy
	// Column is the header name of the HTML column.
	Column string
	// Workers bounds concurrency; <= 0 means one per CPU.
	Workers int
}

// Run reads CSV records from r, sanitizes the HTML column, and writes the
// full CSV (header included, column order unchanged) to w. Rows map 1:1
// and keep their order regardless of worker count.
func (b *Batch) Run(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return Stats{}, fmt.Errorf("notes: read csv: %w", err)
	}
	if len(records) == 0 {
		return Stats{}, fmt.Errorf("notes: empty csv, no header row")
	}

	col := -1
	for i, name := range records[0] {
		if name == b.Column {
			col = i
			break
		}
	}
	if col < 0 {
		return Stats{}, fmt.Errorf("%w: %q", ErrMissingColumn, b.Column)
	}

	rows := records[1:]
	before := make([]string, len(rows))
	after := make([]string, len(rows))

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rows {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if col >= len(rows[i]) {
				// Short row: nothing to sanitize.
				return nil
			}
			before[i] = rows[i][col]
			after[i] = csvss.Sanitize(before[i], b.Policy)
			rows[i][col] = after[i]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("notes: sanitize rows: %w", err)
	}

	stats := Stats{RowsTotal: len(rows)}
	for i := range rows {
		stats.CharsBefore += len(before[i])
		stats.CharsAfter += len(after[i])
		if before[i] != after[i] {
			stats.RowsChanged++
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return Stats{}, fmt.Errorf("notes: write csv: %w", err)
	}
	return stats, nil
}

// RunFile is Run over file paths. Writing in place (outPath == inPath) is
// safe because the input is fully read before the output is created.
func (b *Batch) RunFile(ctx context.Context, inPath, outPath string) (Stats, error) {
	in, err := os.ReadFile(inPath)
	if err != nil {
		return Stats{}, fmt.Errorf("notes: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return Stats{}, fmt.Errorf("notes: %w", err)
	}
	stats, runErr := b.Run(ctx, bytes.NewReader(in), out)
	if closeErr := out.Close(); runErr == nil && closeErr != nil {
		return Stats{}, fmt.Errorf("notes: close %s: %w", outPath, closeErr)
	}
	return stats, runErr
}
