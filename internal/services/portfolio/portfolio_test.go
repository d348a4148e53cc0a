package portfolio

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/services/order"
	"Brokerage/internal/storage/postgres"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeHoldings struct {
	holdings map[uuid.UUID]models.Holding
}

func newFakeHoldings() *fakeHoldings {
	return &fakeHoldings{holdings: map[uuid.UUID]models.Holding{}}
}

func (f *fakeHoldings) ListHoldings(_ context.Context, userId int64) ([]models.Holding, error) {
	var out []models.Holding
	for _, h := range f.holdings {
		if h.UserId == userId {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHoldings) GetHoldingById(_ context.Context, userId int64, id uuid.UUID) (models.Holding, error) {
	h, ok := f.holdings[id]
	if !ok || h.UserId != userId {
		return models.Holding{}, postgres.ErrHoldingNotExists
	}
	return h, nil
}

func (f *fakeHoldings) CreateHolding(_ context.Context, h models.Holding) (models.Holding, error) {
	f.holdings[h.Id] = h
	return h, nil
}

func (f *fakeHoldings) UpdateHolding(_ context.Context, h models.Holding) (models.Holding, error) {
	if _, ok := f.holdings[h.Id]; !ok {
		return models.Holding{}, postgres.ErrHoldingNotExists
	}
	f.holdings[h.Id] = h
	return h, nil
}

func (f *fakeHoldings) DeleteHolding(_ context.Context, userId int64, id uuid.UUID) error {
	h, ok := f.holdings[id]
	if !ok || h.UserId != userId {
		return postgres.ErrHoldingNotExists
	}
	delete(f.holdings, id)
	return nil
}

type fakePositions struct {
	positions map[string]models.Position
	saved     int
}

func newFakePositions() *fakePositions {
	return &fakePositions{positions: map[string]models.Position{}}
}

func (f *fakePositions) ListPositions(_ context.Context, userId int64) ([]models.Position, error) {
	var out []models.Position
	for _, p := range f.positions {
		if p.UserId == userId {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePositions) GetPosition(_ context.Context, userId int64, symbol string) (models.Position, error) {
	p, ok := f.positions[symbol]
	if !ok || p.UserId != userId {
		return models.Position{}, postgres.ErrPositionNotExists
	}
	return p, nil
}

func (f *fakePositions) SavePositionLive(_ context.Context, p models.Position) error {
	f.positions[p.Symbol] = p
	f.saved++
	return nil
}

// staticPricer serves a fixed quote per symbol, falling back like the real
// pricer when it has none.
type staticPricer struct {
	quotes map[string]models.Quote
}

func (s *staticPricer) Quote(_ context.Context, symbol string, fallback decimal.Decimal, _ time.Duration) models.Quote {
	if q, ok := s.quotes[symbol]; ok {
		return q
	}
	return models.Quote{Symbol: symbol, Price: fallback, Fallback: true}
}

type fakePlacer struct {
	placed []order.Request
}

func (f *fakePlacer) CreateOrder(_ context.Context, userId int64, req order.Request) (models.Order, error) {
	f.placed = append(f.placed, req)
	return models.Order{
		Id:     uuid.New(),
		UserId: userId,
		Symbol: req.Symbol,
		Qty:    req.Qty,
		Price:  req.Price,
		Mode:   models.Sell,
		Status: models.Completed,
	}, nil
}

func newService(holdings *fakeHoldings, positions *fakePositions, pricer *staticPricer, placer *fakePlacer) *PortfolioService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(*log, holdings, positions, pricer, placer, time.Minute, 30*time.Second)
}

func seedHolding(holdings *fakeHoldings, symbol string, qty int64, avg, last string) models.Holding {
	h := models.Holding{
		Id:        uuid.New(),
		UserId:    1,
		Name:      symbol,
		Symbol:    symbol,
		Qty:       qty,
		Avg:       d(avg),
		LastPrice: d(last),
		Exchange:  models.NSE,
	}
	holdings.holdings[h.Id] = h
	return h
}

func TestHoldings_LiveValuation(t *testing.T) {
	holdings := newFakeHoldings()
	seedHolding(holdings, "AAPL", 10, "100", "105")
	pricer := &staticPricer{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: d("110"), Change: d("2")},
	}}
	svc := newService(holdings, newFakePositions(), pricer, &fakePlacer{})

	views, summary, err := svc.Holdings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 1)

	v := views[0].Valuation
	assert.True(t, v.Investment.Equal(d("1000")))
	assert.True(t, v.CurrentValue.Equal(d("1100")))
	assert.True(t, v.Pnl.Equal(d("100")))
	assert.True(t, v.DayPnl.Equal(d("20")))
	assert.True(t, summary.PnlPercentage.Equal(d("10")))
}

func TestHoldings_FallbackToLastPrice(t *testing.T) {
	holdings := newFakeHoldings()
	seedHolding(holdings, "AAPL", 10, "100", "105")
	svc := newService(holdings, newFakePositions(), &staticPricer{}, &fakePlacer{})

	views, _, err := svc.Holdings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.True(t, views[0].Quote.Fallback)
	assert.True(t, views[0].Valuation.CurrentValue.Equal(d("1050")))
}

func TestAddHolding_ValidationAndDefaults(t *testing.T) {
	holdings := newFakeHoldings()
	svc := newService(holdings, newFakePositions(), &staticPricer{}, &fakePlacer{})
	ctx := context.Background()

	_, err := svc.AddHolding(ctx, 1, models.Holding{Symbol: "AAPL", Qty: 0, Avg: d("100")})
	assert.ErrorIs(t, err, ErrInvalidHolding)

	created, err := svc.AddHolding(ctx, 1, models.Holding{Symbol: "aapl", Qty: 5, Avg: d("100")})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", created.Symbol)
	assert.Equal(t, models.NSE, created.Exchange)
	assert.True(t, created.LastPrice.Equal(d("100")))
}

func TestPositions_PersistsLiveFields(t *testing.T) {
	positions := newFakePositions()
	positions.positions["TSLA"] = models.Position{
		Id: uuid.New(), UserId: 1, Name: "Tesla Inc", Symbol: "TSLA",
		Qty: 4, Avg: d("400"), LastPrice: d("410"),
		Product: models.MIS, Exchange: models.NSE,
	}
	pricer := &staticPricer{quotes: map[string]models.Quote{
		"TSLA": {Symbol: "TSLA", Price: d("420"), Change: d("10")},
	}}
	svc := newService(newFakeHoldings(), positions, pricer, &fakePlacer{})

	out, summary, err := svc.Positions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.True(t, out[0].LivePrice.Equal(d("420")))
	assert.True(t, out[0].Pnl.Equal(d("80")))
	assert.True(t, out[0].DayPnl.Equal(d("40")))
	assert.Equal(t, 1, positions.saved)
	assert.True(t, summary.TotalPnl.Equal(d("80")))
}

func TestSquareOff(t *testing.T) {
	positions := newFakePositions()
	positions.positions["TSLA"] = models.Position{
		Id: uuid.New(), UserId: 1, Name: "Tesla Inc", Symbol: "TSLA",
		Qty: 4, Avg: d("400"), LastPrice: d("410"),
		Product: models.MIS, Exchange: models.NSE,
	}
	pricer := &staticPricer{quotes: map[string]models.Quote{
		"TSLA": {Symbol: "TSLA", Price: d("450"), Change: d("5")},
	}}
	placer := &fakePlacer{}
	svc := newService(newFakeHoldings(), positions, pricer, placer)

	result, err := svc.SquareOff(context.Background(), 1, "tsla", decimal.Zero)
	require.NoError(t, err)

	require.Len(t, placer.placed, 1)
	assert.Equal(t, "TSLA", placer.placed[0].Symbol)
	assert.Equal(t, int64(4), placer.placed[0].Qty)
	assert.Equal(t, "SELL", placer.placed[0].Mode)
	assert.True(t, placer.placed[0].Price.Equal(d("450")))
	assert.True(t, result.Pnl.Equal(d("200")))
}

func TestSquareOff_ExplicitPriceOverridesQuote(t *testing.T) {
	positions := newFakePositions()
	positions.positions["TSLA"] = models.Position{
		Id: uuid.New(), UserId: 1, Name: "Tesla Inc", Symbol: "TSLA",
		Qty: 4, Avg: d("400"), LastPrice: d("410"),
		Product: models.MIS, Exchange: models.NSE,
	}
	pricer := &staticPricer{quotes: map[string]models.Quote{
		"TSLA": {Symbol: "TSLA", Price: d("450"), Change: d("5")},
	}}
	placer := &fakePlacer{}
	svc := newService(newFakeHoldings(), positions, pricer, placer)

	result, err := svc.SquareOff(context.Background(), 1, "TSLA", d("430"))
	require.NoError(t, err)

	require.Len(t, placer.placed, 1)
	assert.True(t, placer.placed[0].Price.Equal(d("430")))
	assert.True(t, result.Pnl.Equal(d("120")))
}

func TestSquareOff_NotFound(t *testing.T) {
	svc := newService(newFakeHoldings(), newFakePositions(), &staticPricer{}, &fakePlacer{})

	_, err := svc.SquareOff(context.Background(), 1, "ZZZZ", decimal.Zero)
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

func TestDashboard_MarginModel(t *testing.T) {
	holdings := newFakeHoldings()
	seedHolding(holdings, "AAPL", 10, "100", "100")
	pricer := &staticPricer{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: d("110"), Change: d("0")},
	}}
	svc := newService(holdings, newFakePositions(), pricer, &fakePlacer{})

	summary, marginUsed, marginAvailable, count, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.True(t, summary.CurrentValue.Equal(d("1100")))
	assert.True(t, marginUsed.Equal(d("110")))
	assert.True(t, marginAvailable.Equal(d("99890")))
}
