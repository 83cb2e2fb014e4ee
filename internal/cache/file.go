package cache

import (
	"context"
	"fmt"
	"os"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"StockLens/internal/model"
)

// File keeps one JSON document per key in a directory, so entries survive a
// restart of the one-shot CLI.
type File struct {
	mu  sync.Mutex
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFile creates dir if needed. ttl <= 0 means DefaultTTL.
func NewFile(dir string, ttl time.Duration) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &File{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (f *File) Name() string { return "file" }

// path escapes every byte outside [A-Za-z0-9-_.~], so distinct keys never
// share a file.
func (f *File) path(key Key) string {
	return filepath.Join(f.dir, url.QueryEscape(key.String())+".json")
}

// Get reads an entry. A missing or expired file, or one holding another
// symbol, is a miss.
func (f *File) Get(_ context.Context, key Key) (*model.PriceSeries, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.path(key)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	s, storedAt, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	if s.Symbol != key.Symbol || f.now().Sub(storedAt) >= f.ttl {
		_ = os.Remove(p)
		return nil, false, nil
	}
	return s, true, nil
}

// Set writes the entry through a temp file and rename.
func (f *File) Set(_ context.Context, key Key, series *model.PriceSeries) error {
	data, err := encode(series, f.now())
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.path(key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
