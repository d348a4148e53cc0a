package handler

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/domain/models/transport"
	"Brokerage/internal/services/market"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type MarketHandler struct {
	log           *slog.Logger
	marketService marketService
	validate      *validator.Validate
}

type marketService interface {
	Watchlist(ctx context.Context, userId int64) ([]market.WatchedStock, error)
	AddToWatchlist(ctx context.Context, userId int64, name, symbol string) error
	RemoveFromWatchlist(ctx context.Context, userId int64, symbol string) error
	Indices(ctx context.Context) []market.Index
	Search(ctx context.Context, query string) ([]models.SymbolMatch, error)
	Price(ctx context.Context, symbol string) (models.Quote, error)
}

func NewMarketHandler(log *slog.Logger, marketService marketService, validate *validator.Validate) *MarketHandler {
	return &MarketHandler{
		log:           log,
		marketService: marketService,
		validate:      validate,
	}
}

// WatchlistRoutes serves the watchlist collection.
func (h *MarketHandler) WatchlistRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/", h.GetWatchlist)
	router.Post("/add", h.PostAddToWatchlist)
	router.Delete("/{symbol}", h.DeleteFromWatchlist)

	return router
}

// StocksRoutes serves symbol search and single-symbol prices.
func (h *MarketHandler) StocksRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/search", h.GetSearch)
	router.Get("/price", h.GetPrice)

	return router
}

// IndicesRoutes serves the market indices snapshot.
func (h *MarketHandler) IndicesRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/", h.GetIndices)

	return router
}

func (h *MarketHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stocks, err := h.marketService.Watchlist(r.Context(), userID(r))
	if err != nil {
		h.log.Error("Failed to get watchlist", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to get watchlist",
		})
		return
	}

	payloads := make([]transport.WatchlistItemPayload, 0, len(stocks))
	for _, stock := range stocks {
		payloads = append(payloads, transport.WatchlistItemPayload{
			Name:          stock.Name,
			Symbol:        stock.Symbol,
			CurrentPrice:  stock.Quote.Price.StringFixed(2),
			Change:        stock.Quote.Change.StringFixed(2),
			PercentChange: stock.Quote.PercentChange.StringFixed(2),
			IsLoss:        stock.Quote.Change.IsNegative(),
			UsingFallback: stock.Quote.Fallback,
		})
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.WatchlistResponse{
		Success: true,
		Data:    payloads,
	})
}

func (h *MarketHandler) PostAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req transport.WatchlistAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("Failed to decode request", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Invalid request format",
		})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.log.Error("Validation failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Name and symbol are required",
		})
		return
	}

	if err := h.marketService.AddToWatchlist(r.Context(), userID(r), req.Name, req.Symbol); err != nil {
		switch {
		case errors.Is(err, market.ErrAlreadyWatched):
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Symbol already in watchlist",
			})
		case errors.Is(err, market.ErrEmptySymbol):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Symbol is required",
			})
		default:
			h.log.Error("Failed to add to watchlist", "error", err, "symbol", req.Symbol)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Failed to add to watchlist",
			})
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Added to watchlist",
	})
}

func (h *MarketHandler) DeleteFromWatchlist(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := h.marketService.RemoveFromWatchlist(r.Context(), userID(r), chi.URLParam(r, "symbol")); err != nil {
		switch {
		case errors.Is(err, market.ErrNotWatched):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Symbol not in watchlist",
			})
		case errors.Is(err, market.ErrEmptySymbol):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Symbol is required",
			})
		default:
			h.log.Error("Failed to remove from watchlist", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Failed to remove from watchlist",
			})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Removed from watchlist",
	})
}

func (h *MarketHandler) GetIndices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	payloads := make([]transport.IndexPayload, 0, 4)
	for _, index := range h.marketService.Indices(r.Context()) {
		payloads = append(payloads, transport.IndexPayload{
			Name:          index.Name,
			Value:         index.Value.StringFixed(2),
			Change:        index.Change.StringFixed(2),
			PercentChange: index.Percent.StringFixed(2),
			UsingFallback: true,
		})
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.IndicesResponse{
		Success: true,
		Data:    payloads,
	})
}

func (h *MarketHandler) GetSearch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	matches, err := h.marketService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, market.ErrEmptyQuery) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Search query is required",
			})
			return
		}

		h.log.Error("Symbol search failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Search failed",
		})
		return
	}

	payloads := make([]transport.SymbolMatchPayload, 0, len(matches))
	for _, m := range matches {
		payloads = append(payloads, transport.SymbolMatchPayload{
			Symbol:   m.Symbol,
			Name:     m.Name,
			Region:   m.Region,
			Currency: m.Currency,
		})
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.SearchResponse{
		Success: true,
		Data:    payloads,
	})
}

func (h *MarketHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	quote, err := h.marketService.Price(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		if errors.Is(err, market.ErrEmptySymbol) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Symbol is required",
			})
			return
		}

		h.log.Error("Failed to get price", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to get price",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.PriceResponse{
		Success:       true,
		Symbol:        quote.Symbol,
		Price:         quote.Price.StringFixed(2),
		Change:        quote.Change.StringFixed(2),
		PercentChange: quote.PercentChange.StringFixed(2),
		UsingFallback: quote.Fallback,
	})
}
