package market

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/services/valuation"
	"Brokerage/internal/storage/postgres"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWatchlist struct {
	items []models.WatchlistItem
}

func (f *fakeWatchlist) ListWatchlist(_ context.Context, userId int64) ([]models.WatchlistItem, error) {
	var out []models.WatchlistItem
	for _, item := range f.items {
		if item.UserId == userId {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeWatchlist) AddWatchlistItem(_ context.Context, item models.WatchlistItem) error {
	for _, existing := range f.items {
		if existing.UserId == item.UserId && existing.Symbol == item.Symbol {
			return postgres.ErrWatchlistExists
		}
	}
	f.items = append(f.items, item)
	return nil
}

func (f *fakeWatchlist) RemoveWatchlistItem(_ context.Context, userId int64, symbol string) error {
	for i, item := range f.items {
		if item.UserId == userId && item.Symbol == symbol {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return postgres.ErrWatchlistNotExists
}

// fallbackPricer always misses, so every quote comes back at the
// caller-supplied fallback price.
type fallbackPricer struct{}

func (fallbackPricer) Quote(_ context.Context, symbol string, fallback decimal.Decimal, _ time.Duration) models.Quote {
	return models.Quote{Symbol: symbol, Price: fallback}
}

func (p fallbackPricer) QuoteAll(ctx context.Context, reqs []valuation.QuoteRequest, ttl time.Duration) []models.Quote {
	quotes := make([]models.Quote, len(reqs))
	for i, req := range reqs {
		quotes[i] = p.Quote(ctx, req.Symbol, req.Fallback, ttl)
	}
	return quotes
}

type fakeSearcher struct {
	matches []models.SymbolMatch
	err     error
}

func (f *fakeSearcher) SearchSymbols(_ context.Context, _ string) ([]models.SymbolMatch, error) {
	return f.matches, f.err
}

func newService(wl *fakeWatchlist, search *fakeSearcher) *MarketService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(*log, wl, fallbackPricer{}, search, time.Minute)
}

func TestWatchlist_DefaultsPlusUserItems(t *testing.T) {
	wl := &fakeWatchlist{items: []models.WatchlistItem{
		{UserId: 1, Name: "Netflix Inc", Symbol: "NFLX", FallbackPrice: decimal.RequireFromString("1200")},
	}}
	svc := newService(wl, &fakeSearcher{})

	stocks, err := svc.Watchlist(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, stocks, 6)
	assert.Equal(t, "AAPL", stocks[0].Symbol)
	assert.True(t, stocks[0].Default)
	assert.True(t, stocks[0].Quote.Price.Equal(decimal.RequireFromString("245.27")))

	last := stocks[len(stocks)-1]
	assert.Equal(t, "NFLX", last.Symbol)
	assert.False(t, last.Default)
}

func TestWatchlist_DedupesAgainstDefaults(t *testing.T) {
	wl := &fakeWatchlist{items: []models.WatchlistItem{
		{UserId: 1, Name: "Apple Inc", Symbol: "AAPL"},
	}}
	svc := newService(wl, &fakeSearcher{})

	stocks, err := svc.Watchlist(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, stocks, 5)
}

func TestAddToWatchlist(t *testing.T) {
	wl := &fakeWatchlist{}
	svc := newService(wl, &fakeSearcher{})
	ctx := context.Background()

	require.NoError(t, svc.AddToWatchlist(ctx, 1, "Netflix Inc", "nflx"))
	assert.Len(t, wl.items, 1)
	assert.Equal(t, "NFLX", wl.items[0].Symbol)

	assert.ErrorIs(t, svc.AddToWatchlist(ctx, 1, "Netflix Inc", "NFLX"), ErrAlreadyWatched)
	assert.ErrorIs(t, svc.AddToWatchlist(ctx, 1, "Apple Inc", "AAPL"), ErrAlreadyWatched)
	assert.ErrorIs(t, svc.AddToWatchlist(ctx, 1, "", ""), ErrEmptySymbol)
}

func TestRemoveFromWatchlist(t *testing.T) {
	wl := &fakeWatchlist{items: []models.WatchlistItem{
		{UserId: 1, Symbol: "NFLX"},
	}}
	svc := newService(wl, &fakeSearcher{})
	ctx := context.Background()

	require.NoError(t, svc.RemoveFromWatchlist(ctx, 1, "nflx"))
	assert.Empty(t, wl.items)
	assert.ErrorIs(t, svc.RemoveFromWatchlist(ctx, 1, "NFLX"), ErrNotWatched)
}

func TestIndices(t *testing.T) {
	svc := newService(&fakeWatchlist{}, &fakeSearcher{})

	out := svc.Indices(context.Background())
	require.Len(t, out, 4)
	assert.Equal(t, "NIFTY 50", out[0].Name)
}

func TestSearch(t *testing.T) {
	search := &fakeSearcher{matches: []models.SymbolMatch{{Symbol: "AAPL", Name: "Apple Inc"}}}
	svc := newService(&fakeWatchlist{}, search)
	ctx := context.Background()

	matches, err := svc.Search(ctx, "apple")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	_, err = svc.Search(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	search.err = errors.New("rate limited")
	_, err = svc.Search(ctx, "apple")
	assert.Error(t, err)
}

func TestPrice_FallsBackForDefaultSymbols(t *testing.T) {
	svc := newService(&fakeWatchlist{}, &fakeSearcher{})
	ctx := context.Background()

	quote, err := svc.Price(ctx, "tsla")
	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("413.49")))

	quote, err = svc.Price(ctx, "ZZZZ")
	require.NoError(t, err)
	assert.True(t, quote.Price.IsZero())

	_, err = svc.Price(ctx, "")
	assert.ErrorIs(t, err, ErrEmptySymbol)
}
