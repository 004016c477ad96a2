package application

import (
	"context"
	"sync"

	"stocktracker-service/internal/domain"
)

// WatchlistService serializes read-modify-write cycles on the state document.
type WatchlistService struct {
	store WatchlistStore
	mu    sync.Mutex
}

func NewWatchlistService(store WatchlistStore) *WatchlistService {
	return &WatchlistService{store: store}
}

func (s *WatchlistService) State(ctx context.Context) (domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load(ctx)
}

func (s *WatchlistService) Add(ctx context.Context, symbol string) (domain.State, error) {
	return s.update(ctx, symbol, (*domain.State).Add)
}

func (s *WatchlistService) Remove(ctx context.Context, symbol string) (domain.State, error) {
	return s.update(ctx, symbol, (*domain.State).Remove)
}

func (s *WatchlistService) update(ctx context.Context, symbol string, op func(*domain.State, string) bool) (domain.State, error) {
	sym := domain.NormalizeSymbol(symbol)
	if sym == "" {
		return domain.State{}, ErrBadRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.store.Load(ctx)
	if err != nil {
		return domain.State{}, err
	}
	if !op(&st, sym) {
		return st, nil
	}
	if err := s.store.Save(ctx, st); err != nil {
		return domain.State{}, err
	}
	return st, nil
}
