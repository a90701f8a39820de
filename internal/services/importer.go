package services

import (
	"context"
	"io"
	"sort"

	"github.com/foxxcyber/pex/internal/inventory"
	"github.com/foxxcyber/pex/internal/models"
	"github.com/foxxcyber/pex/internal/report"
)

// ImportFailure is a CSV line that was not imported
type ImportFailure struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// ImportSummary reports the outcome of a CSV import
type ImportSummary struct {
	Rows     int             `json:"rows"`
	Imported int             `json:"imported"`
	DryRun   bool            `json:"dry_run"`
	Failures []ImportFailure `json:"failures"`
}

// ImportCSV adds every valid row of r to store with a single write.
// With dryRun set rows are only validated. Invalid rows never stop the import.
func ImportCSV(ctx context.Context, store *inventory.Store, r io.Reader, dryRun bool) (*ImportSummary, error) {
	rows, err := report.ParseCSV(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &ImportSummary{Rows: len(rows), DryRun: dryRun, Failures: []ImportFailure{}}
	drafts := make([]models.ProductDraft, 0, len(rows))
	lines := make([]int, 0, len(rows))
	for _, row := range rows {
		if row.Err != nil {
			summary.Failures = append(summary.Failures, ImportFailure{Line: row.Line, Error: row.Err.Error()})
			continue
		}
		drafts = append(drafts, row.Draft)
		lines = append(lines, row.Line)
	}

	errs := make([]error, len(drafts))
	if dryRun {
		for i, d := range drafts {
			_, errs[i] = store.Validate(d)
		}
	} else {
		_, errs, err = store.AddMany(ctx, drafts)
		if err != nil {
			return nil, err
		}
	}

	for i, err := range errs {
		if err != nil {
			summary.Failures = append(summary.Failures, ImportFailure{Line: lines[i], Error: err.Error()})
			continue
		}
		summary.Imported++
	}
	sort.Slice(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].Line < summary.Failures[j].Line
	})
	return summary, nil
}
