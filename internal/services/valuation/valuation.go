package valuation

import (
	"Brokerage/internal/domain/models"
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Pricer resolves live quotes through the cache first, then the provider,
// and degrades to a caller-supplied fallback price when both miss. Read
// paths built on it never fail because of the quote provider.
type Pricer struct {
	log    slog.Logger
	cache  QuoteCache
	quotes QuoteProvider
}

type QuoteCache interface {
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)
	SaveQuote(ctx context.Context, quote models.Quote, ttl time.Duration) error
	SaveQuotes(ctx context.Context, quotes []models.Quote, ttl time.Duration) error
}

type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)
}

func NewPricer(log slog.Logger, cache QuoteCache, quotes QuoteProvider) *Pricer {
	return &Pricer{
		log:    log,
		cache:  cache,
		quotes: quotes,
	}
}

// Quote returns the freshest price available for symbol. Provider hits are
// written back to the cache under the given ttl; failures fall back to a
// zero-change quote at the fallback price.
func (p *Pricer) Quote(ctx context.Context, symbol string, fallback decimal.Decimal, ttl time.Duration) models.Quote {
	quote, err := p.cache.GetQuote(ctx, symbol)
	if err == nil {
		return quote
	}

	quote, err = p.quotes.GetQuote(ctx, symbol)
	if err != nil {
		p.log.Warn("quote unavailable, using fallback price", "symbol", symbol, "err", err)
		return models.Quote{Symbol: symbol, Price: fallback, Fallback: true}
	}

	if err := p.cache.SaveQuote(ctx, quote, ttl); err != nil {
		p.log.Warn("failed to cache quote", "symbol", symbol, "err", err)
	}

	return quote
}

// QuoteRequest names a symbol to quote and the price to fall back to.
type QuoteRequest struct {
	Symbol   string
	Fallback decimal.Decimal
}

// QuoteAll resolves a batch of symbols with the same cache-then-provider
// policy as Quote, but writes all provider hits back in one pipelined
// round trip. Results are returned in request order.
func (p *Pricer) QuoteAll(ctx context.Context, reqs []QuoteRequest, ttl time.Duration) []models.Quote {
	quotes := make([]models.Quote, len(reqs))
	var fetched []models.Quote

	for i, req := range reqs {
		quote, err := p.cache.GetQuote(ctx, req.Symbol)
		if err == nil {
			quotes[i] = quote
			continue
		}

		quote, err = p.quotes.GetQuote(ctx, req.Symbol)
		if err != nil {
			p.log.Warn("quote unavailable, using fallback price", "symbol", req.Symbol, "err", err)
			quotes[i] = models.Quote{Symbol: req.Symbol, Price: req.Fallback, Fallback: true}
			continue
		}

		quotes[i] = quote
		fetched = append(fetched, quote)
	}

	if len(fetched) > 0 {
		if err := p.cache.SaveQuotes(ctx, fetched, ttl); err != nil {
			p.log.Warn("failed to cache quotes", "count", len(fetched), "err", err)
		}
	}

	return quotes
}

// Valuation is the derived state of one lot at a live price. All values
// are kept at full precision; rounding is a transport concern.
type Valuation struct {
	Investment       decimal.Decimal
	CurrentValue     decimal.Decimal
	Pnl              decimal.Decimal
	PnlPercentage    decimal.Decimal
	DayPnl           decimal.Decimal
	DayPnlPercentage decimal.Decimal
	IsLoss           bool
}

// Valuate computes P&L for qty units bought at avg and now trading at
// livePrice, where change is the day's absolute price move and lastPrice
// is the stored last traded price the day change is expressed against.
func Valuate(qty int64, avg, lastPrice, livePrice, change decimal.Decimal) Valuation {
	qtyDec := decimal.NewFromInt(qty)

	investment := avg.Mul(qtyDec)
	currentValue := livePrice.Mul(qtyDec)
	pnl := currentValue.Sub(investment)
	dayPnl := change.Mul(qtyDec)

	v := Valuation{
		Investment:   investment,
		CurrentValue: currentValue,
		Pnl:          pnl,
		DayPnl:       dayPnl,
		IsLoss:       pnl.IsNegative(),
	}

	if investment.IsPositive() {
		v.PnlPercentage = pnl.Div(investment).Mul(hundred)
	}
	if lastPrice.IsPositive() {
		v.DayPnlPercentage = change.Div(lastPrice).Mul(hundred)
	}

	return v
}

// Summary aggregates per-symbol valuations into portfolio totals.
type Summary struct {
	TotalInvestment  decimal.Decimal
	CurrentValue     decimal.Decimal
	TotalPnl         decimal.Decimal
	PnlPercentage    decimal.Decimal
	DayPnl           decimal.Decimal
	DayPnlPercentage decimal.Decimal
}

func Summarize(valuations []Valuation) Summary {
	var s Summary
	s.TotalInvestment = decimal.Zero
	s.CurrentValue = decimal.Zero
	s.TotalPnl = decimal.Zero
	s.DayPnl = decimal.Zero

	for _, v := range valuations {
		s.TotalInvestment = s.TotalInvestment.Add(v.Investment)
		s.CurrentValue = s.CurrentValue.Add(v.CurrentValue)
		s.TotalPnl = s.TotalPnl.Add(v.Pnl)
		s.DayPnl = s.DayPnl.Add(v.DayPnl)
	}

	if s.TotalInvestment.IsPositive() {
		s.PnlPercentage = s.TotalPnl.Div(s.TotalInvestment).Mul(hundred)
		s.DayPnlPercentage = s.DayPnl.Div(s.TotalInvestment).Mul(hundred)
	} else {
		s.PnlPercentage = decimal.Zero
		s.DayPnlPercentage = decimal.Zero
	}

	return s
}
