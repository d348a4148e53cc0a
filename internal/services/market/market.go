package market

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/services/valuation"
	"Brokerage/internal/storage/postgres"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrAlreadyWatched = errors.New("symbol already in watchlist")
	ErrNotWatched     = errors.New("symbol not in watchlist")
	ErrEmptySymbol    = errors.New("symbol is required")
	ErrEmptyQuery     = errors.New("search query is required")
)

// defaultWatchlist seeds every account's watchlist. Fallback prices keep
// the list renderable when the quote provider is down or throttled.
var defaultWatchlist = []models.WatchlistItem{
	{Name: "Apple Inc", Symbol: "AAPL", FallbackPrice: decimal.RequireFromString("245.27")},
	{Name: "Microsoft Corporation", Symbol: "MSFT", FallbackPrice: decimal.RequireFromString("510.96")},
	{Name: "Tesla Inc", Symbol: "TSLA", FallbackPrice: decimal.RequireFromString("413.49")},
	{Name: "Amazon.com Inc", Symbol: "AMZN", FallbackPrice: decimal.RequireFromString("216.37")},
	{Name: "Alphabet Inc", Symbol: "GOOGL", FallbackPrice: decimal.RequireFromString("236.57")},
}

// Index is a market index with a static reference level.
type Index struct {
	Name    string
	Value   decimal.Decimal
	Change  decimal.Decimal
	Percent decimal.Decimal
}

var indices = []Index{
	{Name: "NIFTY 50", Value: decimal.RequireFromString("25327.05"), Change: decimal.RequireFromString("83.30"), Percent: decimal.RequireFromString("0.33")},
	{Name: "SENSEX", Value: decimal.RequireFromString("82626.23"), Change: decimal.RequireFromString("270.01"), Percent: decimal.RequireFromString("0.33")},
	{Name: "NASDAQ", Value: decimal.RequireFromString("21700.39"), Change: decimal.RequireFromString("-72.63"), Percent: decimal.RequireFromString("-0.33")},
	{Name: "S&P 500", Value: decimal.RequireFromString("6460.26"), Change: decimal.RequireFromString("-41.60"), Percent: decimal.RequireFromString("-0.64")},
}

type MarketService struct {
	log          slog.Logger
	watchlist    WatchlistManager
	pricer       Pricer
	quotes       QuoteSearcher
	watchlistTTL time.Duration
}

type WatchlistManager interface {
	ListWatchlist(ctx context.Context, userId int64) ([]models.WatchlistItem, error)
	AddWatchlistItem(ctx context.Context, item models.WatchlistItem) error
	RemoveWatchlistItem(ctx context.Context, userId int64, symbol string) error
}

type Pricer interface {
	Quote(ctx context.Context, symbol string, fallback decimal.Decimal, ttl time.Duration) models.Quote
	QuoteAll(ctx context.Context, reqs []valuation.QuoteRequest, ttl time.Duration) []models.Quote
}

type QuoteSearcher interface {
	SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error)
}

func New(log slog.Logger, watchlist WatchlistManager, pricer Pricer, quotes QuoteSearcher, watchlistTTL time.Duration) *MarketService {
	return &MarketService{
		log:          log,
		watchlist:    watchlist,
		pricer:       pricer,
		quotes:       quotes,
		watchlistTTL: watchlistTTL,
	}
}

// WatchedStock is one watchlist row quoted live.
type WatchedStock struct {
	Name    string
	Symbol  string
	Default bool
	Quote   models.Quote
}

// Watchlist merges the default symbols with the user's own additions,
// deduplicated by symbol, each quoted at the freshest available price.
func (s *MarketService) Watchlist(ctx context.Context, userId int64) ([]WatchedStock, error) {
	const op = "market.Watchlist"

	userItems, err := s.watchlist.ListWatchlist(ctx, userId)
	if err != nil {
		s.log.Error("failed to list watchlist", "user_id", userId, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seen := make(map[string]bool, len(defaultWatchlist)+len(userItems))
	stocks := make([]WatchedStock, 0, len(defaultWatchlist)+len(userItems))
	reqs := make([]valuation.QuoteRequest, 0, len(defaultWatchlist)+len(userItems))

	for _, item := range defaultWatchlist {
		seen[item.Symbol] = true
		stocks = append(stocks, WatchedStock{Name: item.Name, Symbol: item.Symbol, Default: true})
		reqs = append(reqs, valuation.QuoteRequest{Symbol: item.Symbol, Fallback: item.FallbackPrice})
	}
	for _, item := range userItems {
		if seen[item.Symbol] {
			continue
		}
		seen[item.Symbol] = true
		stocks = append(stocks, WatchedStock{Name: item.Name, Symbol: item.Symbol})
		reqs = append(reqs, valuation.QuoteRequest{Symbol: item.Symbol, Fallback: item.FallbackPrice})
	}

	for i, quote := range s.pricer.QuoteAll(ctx, reqs, s.watchlistTTL) {
		stocks[i].Quote = quote
	}

	return stocks, nil
}

func (s *MarketService) AddToWatchlist(ctx context.Context, userId int64, name, symbol string) error {
	const op = "market.AddToWatchlist"

	symbol = strings.ToUpper(symbol)
	if symbol == "" {
		return ErrEmptySymbol
	}
	for _, item := range defaultWatchlist {
		if item.Symbol == symbol {
			return ErrAlreadyWatched
		}
	}
	if name == "" {
		name = symbol
	}

	quote := s.pricer.Quote(ctx, symbol, decimal.Zero, s.watchlistTTL)

	err := s.watchlist.AddWatchlistItem(ctx, models.WatchlistItem{
		Id:            uuid.New(),
		UserId:        userId,
		Name:          name,
		Symbol:        symbol,
		FallbackPrice: quote.Price,
	})
	if err != nil {
		if errors.Is(err, postgres.ErrWatchlistExists) {
			return ErrAlreadyWatched
		}
		s.log.Error("failed to add watchlist item", "symbol", symbol, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *MarketService) RemoveFromWatchlist(ctx context.Context, userId int64, symbol string) error {
	const op = "market.RemoveFromWatchlist"

	symbol = strings.ToUpper(symbol)
	if symbol == "" {
		return ErrEmptySymbol
	}

	if err := s.watchlist.RemoveWatchlistItem(ctx, userId, symbol); err != nil {
		if errors.Is(err, postgres.ErrWatchlistNotExists) {
			return ErrNotWatched
		}
		s.log.Error("failed to remove watchlist item", "symbol", symbol, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *MarketService) Indices(_ context.Context) []Index {
	out := make([]Index, len(indices))
	copy(out, indices)
	return out
}

func (s *MarketService) Search(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	const op = "market.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	matches, err := s.quotes.SearchSymbols(ctx, query)
	if err != nil {
		s.log.Error("symbol search failed", "query", query, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return matches, nil
}

// Price quotes one symbol, degrading to the default-watchlist fallback
// price when the provider is unavailable. It never fails on provider
// errors; an unknown symbol simply quotes at zero.
func (s *MarketService) Price(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.Quote{}, ErrEmptySymbol
	}

	fallback := decimal.Zero
	for _, item := range defaultWatchlist {
		if item.Symbol == symbol {
			fallback = item.FallbackPrice
			break
		}
	}

	return s.pricer.Quote(ctx, symbol, fallback, s.watchlistTTL), nil
}
