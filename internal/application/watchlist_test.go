package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"stocktracker-service/internal/domain"
)

func TestWatchlist_DefaultState(t *testing.T) {
	t.Parallel()
	svc := NewWatchlistService(&fakeStateStore{})
	st, err := svc.State(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.DefaultWatchlist, st.Watchlist)
}

func TestWatchlist_AddRemove(t *testing.T) {
	t.Parallel()
	store := &fakeStateStore{st: &domain.State{Watchlist: []string{"MSFT"}}}
	svc := NewWatchlistService(store)
	ctx := context.Background()

	st, err := svc.Add(ctx, " aapl ")
	require.NoError(t, err)
	require.Equal(t, []string{"MSFT", "AAPL"}, st.Watchlist)

	st, err = svc.Add(ctx, "AAPL")
	require.NoError(t, err)
	require.Equal(t, []string{"MSFT", "AAPL"}, st.Watchlist)
	require.Equal(t, 1, store.saves)

	st, err = svc.Remove(ctx, "msft")
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, st.Watchlist)

	_, err = svc.Remove(ctx, "")
	require.ErrorIs(t, err, ErrBadRequest)
}
