package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
)

// Watchlist keeps the client state document as a JSON file. A missing file is
// created with the default watchlist on first read.
type Watchlist struct {
	Path string

	mu sync.Mutex
}

var _ application.WatchlistStore = (*Watchlist)(nil)

func NewWatchlist(path string) *Watchlist { return &Watchlist{Path: path} }

func (w *Watchlist) Load(_ context.Context) (domain.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := os.ReadFile(w.Path)
	if errors.Is(err, fs.ErrNotExist) {
		st := domain.DefaultState()
		return st, w.write(st)
	}
	if err != nil {
		return domain.State{}, fmt.Errorf("read state: %w", err)
	}
	var st domain.State
	if err := json.Unmarshal(b, &st); err != nil {
		return domain.State{}, fmt.Errorf("decode state %s: %w", w.Path, err)
	}
	if st.Watchlist == nil {
		st.Watchlist = []string{}
	}
	return st, nil
}

func (w *Watchlist) Save(_ context.Context, st domain.State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.write(st)
}

// write replaces the file atomically via a temp file in the same directory.
func (w *Watchlist) write(st domain.State) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.Path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
