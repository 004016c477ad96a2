package application

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"stocktracker-service/internal/domain"
)

var ErrRepo = errors.New("repo error")

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

type fakeCache[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock Clock
	items map[string]Entry[T]
}

func newFakeCache[T any](ttl time.Duration, c Clock) *fakeCache[T] {
	return &fakeCache[T]{ttl: ttl, clock: c, items: map[string]Entry[T]{}}
}

func (f *fakeCache[T]) Get(ctx context.Context, key string) (Entry[T], bool) {
	e, ok := f.Peek(ctx, key)
	if !ok || !e.Fresh(f.clock.Now(), f.ttl) {
		return Entry[T]{}, false
	}
	return e, true
}

func (f *fakeCache[T]) Peek(_ context.Context, key string) (Entry[T], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[key]
	return e, ok
}

func (f *fakeCache[T]) Set(_ context.Context, key string, v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[key] = Entry[T]{Value: v, FetchedAt: f.clock.Now()}
}

type fakeIdem struct{ seen map[string]bool }

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func (f *fakeIdem) Release(_ context.Context, k string) error {
	delete(f.seen, k)
	return nil
}

type fakeHoldingRepo struct {
	store  map[string]domain.Holding
	nextID int64
	err    error
}

func (f *fakeHoldingRepo) List(context.Context) ([]domain.Holding, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Holding, 0, len(f.store))
	for _, h := range f.store {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (f *fakeHoldingRepo) Upsert(_ context.Context, h domain.Holding) (domain.Holding, error) {
	if f.err != nil {
		return domain.Holding{}, f.err
	}
	if f.store == nil {
		f.store = map[string]domain.Holding{}
	}
	if old, ok := f.store[h.Symbol]; ok {
		h.ID = old.ID
	} else {
		f.nextID++
		h.ID = f.nextID
	}
	f.store[h.Symbol] = h
	return h, nil
}

func (f *fakeHoldingRepo) Delete(_ context.Context, symbol string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.store, symbol)
	return nil
}

type fakeTxRepo struct {
	txs []domain.Transaction
	err error
}

func (f *fakeTxRepo) List(context.Context) ([]domain.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Transaction(nil), f.txs...), nil
}

func (f *fakeTxRepo) Append(_ context.Context, tx domain.Transaction) (domain.Transaction, error) {
	if f.err != nil {
		return domain.Transaction{}, f.err
	}
	tx.ID = int64(len(f.txs) + 1)
	f.txs = append(f.txs, tx)
	return tx, nil
}

type fakeStateStore struct {
	st    *domain.State
	saves int
}

func (f *fakeStateStore) Load(context.Context) (domain.State, error) {
	if f.st == nil {
		st := domain.DefaultState()
		f.st = &st
	}
	return domain.State{Watchlist: append([]string(nil), f.st.Watchlist...)}, nil
}

func (f *fakeStateStore) Save(_ context.Context, st domain.State) error {
	f.saves++
	f.st = &st
	return nil
}

type fakeBars struct {
	bars  []domain.Bar
	err   error
	calls int
}

func (f *fakeBars) Bars(context.Context, string, string, string) ([]domain.Bar, error) {
	f.calls++
	return f.bars, f.err
}

type fakeDaily struct {
	closes []float64
	err    error
	calls  int
}

func (f *fakeDaily) DailyCloses(context.Context, string) ([]float64, error) {
	f.calls++
	return f.closes, f.err
}

type fakeInfo struct {
	info  domain.Info
	err   error
	calls int
}

func (f *fakeInfo) Info(context.Context, string) (domain.Info, error) {
	f.calls++
	return f.info, f.err
}

func newQueryCache(c Clock) *fakeCache[json.RawMessage] { return newFakeCache[json.RawMessage](QueryTTL, c) }

func f64(v float64) *float64 { return &v }
func strPtr(s string) *string { return &s }

func barsFromCloses(closes ...float64) []domain.Bar {
	out := make([]domain.Bar, len(closes))
	for i, c := range closes {
		out[i] = domain.Bar{T: int64(i) * 86400000, C: c}
	}
	return out
}
