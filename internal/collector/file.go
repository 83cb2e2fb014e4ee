package collector

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StockLens/internal/model"
)

// FileFetcher reads <Dir>/<SYMBOL>.csv exports (Yahoo download format or any
// file with date and close columns).
type FileFetcher struct {
	Dir string
}

// NewFileFetcher creates a fetcher rooted at dir.
func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{Dir: dir}
}

func (f *FileFetcher) Name() string { return "csv" }

// Fetch parses the symbol's file and clips it to [start, end].
func (f *FileFetcher) Fetch(ctx context.Context, symbol model.Symbol, start, end time.Time) (*model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(f.Dir, string(symbol)+".csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("csv %s: %w", symbol, ErrNoData)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", path, model.ErrMalformedInput, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv %s: %w", symbol, ErrNoData)
	}

	series, err := model.FromRecords(symbol, records[0], records[1:])
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	clipped := series.Between(start, end)
	if clipped.Len() == 0 {
		return nil, fmt.Errorf("csv %s %s..%s: %w", symbol, start.Format(model.DateLayout), end.Format(model.DateLayout), ErrNoData)
	}
	return clipped, nil
}
