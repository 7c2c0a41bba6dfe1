package storage

import (
	"context"
	"fmt"
)

// DefaultBatchSize is the export batch size when none is configured.
const DefaultBatchSize = 5000

// ExportResult summarises one export.
type ExportResult struct {
	Rows    int64
	Batches int64
}

// Export creates cfg.Table if needed and copies rows into it in batches.
// Columns of cfg are the destination column names, aligned with each row.
func Export(ctx context.Context, cfg Config, rows [][]string, batchSize int) (ExportResult, error) {
	if len(cfg.Columns) == 0 {
		return ExportResult{}, fmt.Errorf("export: no columns")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	repo, err := New(ctx, cfg)
	if err != nil {
		return ExportResult{}, fmt.Errorf("export: open %s: %w", cfg.Kind, err)
	}
	defer repo.Close()

	if err := EnsureTable(ctx, cfg.Kind, repo, cfg.Table, cfg.Columns); err != nil {
		return ExportResult{}, fmt.Errorf("export: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan []any, batchSize)
	go func() {
		defer close(in)
		for _, row := range rows {
			vals := make([]any, len(cfg.Columns))
			for i := range vals {
				if i < len(row) {
					vals[i] = row[i]
				} else {
					vals[i] = ""
				}
			}
			select {
			case in <- vals:
			case <-ctx.Done():
				return
			}
		}
	}()

	var res ExportResult
	n, err := LoadBatches(ctx, cfg.Columns, in, batchSize, repo.CopyFrom, func(int64) { res.Batches++ })
	res.Rows = n
	if err != nil {
		return res, fmt.Errorf("export to %s: %w", cfg.Table, err)
	}
	return res, nil
}
