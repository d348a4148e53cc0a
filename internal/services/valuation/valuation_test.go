package valuation

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/storage/redis"
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

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValuate(t *testing.T) {
	// 10 shares at avg 100, last price 100, live 110, day change +2
	v := Valuate(10, d("100"), d("100"), d("110"), d("2"))

	assert.True(t, v.Investment.Equal(d("1000")))
	assert.True(t, v.CurrentValue.Equal(d("1100")))
	assert.True(t, v.Pnl.Equal(d("100")))
	assert.True(t, v.PnlPercentage.Equal(d("10")))
	assert.True(t, v.DayPnl.Equal(d("20")))
	assert.True(t, v.DayPnlPercentage.Equal(d("2")))
	assert.False(t, v.IsLoss)
}

func TestValuate_Loss(t *testing.T) {
	v := Valuate(5, d("200"), d("200"), d("180"), d("-4"))

	assert.True(t, v.Pnl.Equal(d("-100")))
	assert.True(t, v.PnlPercentage.Equal(d("-10")))
	assert.True(t, v.DayPnl.Equal(d("-20")))
	assert.True(t, v.DayPnlPercentage.Equal(d("-2")))
	assert.True(t, v.IsLoss)
}

func TestValuate_ZeroInvestmentDoesNotDivide(t *testing.T) {
	v := Valuate(0, d("0"), d("0"), d("100"), d("1"))

	assert.True(t, v.PnlPercentage.IsZero())
	assert.True(t, v.DayPnlPercentage.IsZero())
	assert.True(t, v.Pnl.IsZero())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Valuation{
		Valuate(10, d("100"), d("100"), d("110"), d("2")),
		Valuate(4, d("250"), d("205"), d("200"), d("-5")),
	})

	assert.True(t, s.TotalInvestment.Equal(d("2000")))
	assert.True(t, s.CurrentValue.Equal(d("1900")))
	assert.True(t, s.TotalPnl.Equal(d("-100")))
	assert.True(t, s.PnlPercentage.Equal(d("-5")))
	assert.True(t, s.DayPnl.Equal(d("0")))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.True(t, s.TotalInvestment.IsZero())
	assert.True(t, s.PnlPercentage.IsZero())
}

type fakeCache struct {
	quotes     map[string]models.Quote
	saved      map[string]time.Duration
	batchSaves int
	err        error
}

func newFakeCache() *fakeCache {
	return &fakeCache{quotes: map[string]models.Quote{}, saved: map[string]time.Duration{}}
}

func (f *fakeCache) GetQuote(_ context.Context, symbol string) (models.Quote, error) {
	if f.err != nil {
		return models.Quote{}, f.err
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return models.Quote{}, redis.ErrQuoteNotCached
	}
	return q, nil
}

func (f *fakeCache) SaveQuote(_ context.Context, quote models.Quote, ttl time.Duration) error {
	f.quotes[quote.Symbol] = quote
	f.saved[quote.Symbol] = ttl
	return nil
}

func (f *fakeCache) SaveQuotes(_ context.Context, quotes []models.Quote, ttl time.Duration) error {
	f.batchSaves++
	for _, quote := range quotes {
		f.quotes[quote.Symbol] = quote
		f.saved[quote.Symbol] = ttl
	}
	return nil
}

type fakeProvider struct {
	quote  models.Quote
	quotes map[string]models.Quote
	err    error
	calls  int
}

func (f *fakeProvider) GetQuote(_ context.Context, symbol string) (models.Quote, error) {
	f.calls++
	if q, ok := f.quotes[symbol]; ok {
		return q, nil
	}
	return f.quote, f.err
}

func newPricer(cache *fakeCache, provider *fakeProvider) *Pricer {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPricer(*log, cache, provider)
}

func TestPricer_CacheHitSkipsProvider(t *testing.T) {
	cache := newFakeCache()
	cache.quotes["AAPL"] = models.Quote{Symbol: "AAPL", Price: d("110")}
	provider := &fakeProvider{}

	quote := newPricer(cache, provider).Quote(context.Background(), "AAPL", d("100"), time.Minute)

	assert.True(t, quote.Price.Equal(d("110")))
	assert.Zero(t, provider.calls)
}

func TestPricer_MissFetchesAndCaches(t *testing.T) {
	cache := newFakeCache()
	provider := &fakeProvider{quote: models.Quote{Symbol: "AAPL", Price: d("120"), Change: d("2")}}

	quote := newPricer(cache, provider).Quote(context.Background(), "AAPL", d("100"), 30*time.Second)

	require.Equal(t, 1, provider.calls)
	assert.True(t, quote.Price.Equal(d("120")))
	assert.Equal(t, 30*time.Second, cache.saved["AAPL"])
}

func TestPricer_ProviderFailureFallsBack(t *testing.T) {
	cache := newFakeCache()
	provider := &fakeProvider{err: errors.New("rate limited")}

	quote := newPricer(cache, provider).Quote(context.Background(), "AAPL", d("95.50"), time.Minute)

	assert.True(t, quote.Price.Equal(d("95.50")))
	assert.True(t, quote.Change.IsZero())
	assert.True(t, quote.Fallback)
	assert.Empty(t, cache.saved)
}

func TestPricer_QuoteAllBatchCaches(t *testing.T) {
	cache := newFakeCache()
	cache.quotes["AAPL"] = models.Quote{Symbol: "AAPL", Price: d("110")}
	provider := &fakeProvider{
		quotes: map[string]models.Quote{
			"MSFT": {Symbol: "MSFT", Price: d("500"), Change: d("3")},
			"AMZN": {Symbol: "AMZN", Price: d("210"), Change: d("-1")},
		},
		err: errors.New("rate limited"),
	}

	quotes := newPricer(cache, provider).QuoteAll(context.Background(), []QuoteRequest{
		{Symbol: "AAPL", Fallback: d("100")},
		{Symbol: "MSFT", Fallback: d("490")},
		{Symbol: "TSLA", Fallback: d("400")},
		{Symbol: "AMZN", Fallback: d("200")},
	}, time.Minute)

	require.Len(t, quotes, 4)
	assert.True(t, quotes[0].Price.Equal(d("110"))) // cache hit
	assert.True(t, quotes[1].Price.Equal(d("500")))
	assert.True(t, quotes[2].Fallback)
	assert.True(t, quotes[2].Price.Equal(d("400")))
	assert.True(t, quotes[3].Price.Equal(d("210")))

	// both provider hits land in a single pipelined write, fallbacks never cached
	assert.Equal(t, 1, cache.batchSaves)
	assert.Equal(t, time.Minute, cache.saved["MSFT"])
	assert.Equal(t, time.Minute, cache.saved["AMZN"])
	_, cached := cache.saved["TSLA"]
	assert.False(t, cached)
}

func TestPricer_CacheErrorStillFetches(t *testing.T) {
	cache := newFakeCache()
	cache.err = errors.New("connection refused")
	provider := &fakeProvider{quote: models.Quote{Symbol: "AAPL", Price: d("120")}}

	quote := newPricer(cache, provider).Quote(context.Background(), "AAPL", d("100"), time.Minute)

	assert.True(t, quote.Price.Equal(d("120")))
}
