package handler

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/domain/models/transport"
	"Brokerage/internal/services/portfolio"
	"Brokerage/internal/services/valuation"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type HoldingsHandler struct {
	log              *slog.Logger
	portfolioService holdingsService
	validate         *validator.Validate
}

type holdingsService interface {
	Holdings(ctx context.Context, userId int64) ([]portfolio.HoldingView, valuation.Summary, error)
	AddHolding(ctx context.Context, userId int64, h models.Holding) (models.Holding, error)
	UpdateHolding(ctx context.Context, userId int64, id uuid.UUID, qty int64, avg, lastPrice decimal.Decimal) (models.Holding, error)
	DeleteHolding(ctx context.Context, userId int64, id uuid.UUID) error
}

func NewHoldingsHandler(log *slog.Logger, portfolioService holdingsService, validate *validator.Validate) *HoldingsHandler {
	return &HoldingsHandler{
		log:              log,
		portfolioService: portfolioService,
		validate:         validate,
	}
}

func (h *HoldingsHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/", h.GetHoldings)
	router.Post("/", h.PostAddHolding)
	router.Put("/{id}", h.PutUpdateHolding)
	router.Delete("/{id}", h.DeleteHolding)

	return router
}

func (h *HoldingsHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	views, summary, err := h.portfolioService.Holdings(r.Context(), userID(r))
	if err != nil {
		h.log.Error("Failed to get holdings", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to get holdings",
		})
		return
	}

	payloads := make([]transport.HoldingPayload, 0, len(views))
	for _, view := range views {
		payloads = append(payloads, holdingPayload(view))
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.HoldingsResponse{
		Success:     true,
		Data:        payloads,
		Summary:     portfolioSummary(summary),
		LastUpdated: time.Now(),
	})
}

func (h *HoldingsHandler) PostAddHolding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req transport.AddHoldingRequest
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
			Error: "Name, symbol, a positive qty and avg price are required",
		})
		return
	}

	created, err := h.portfolioService.AddHolding(r.Context(), userID(r), models.Holding{
		Name:       req.Name,
		Symbol:     req.Symbol,
		Qty:        req.Qty,
		Avg:        req.Avg,
		Exchange:   models.StockExchange(req.Exchange),
		Instrument: models.Instrument(req.Instrument),
	})
	if err != nil {
		if errors.Is(err, portfolio.ErrInvalidHolding) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Symbol, a positive qty and avg price are required",
			})
			return
		}

		h.log.Error("Failed to add holding", "error", err, "symbol", req.Symbol)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to add holding",
		})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Holding added",
		"data":    rawHoldingPayload(created),
	})
}

func (h *HoldingsHandler) PutUpdateHolding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Invalid holding id",
		})
		return
	}

	var req transport.UpdateHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("Failed to decode request", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Invalid request format",
		})
		return
	}

	var qty int64
	if req.Qty != nil {
		qty = *req.Qty
	}
	var avg, lastPrice decimal.Decimal
	if req.Avg != nil {
		avg = *req.Avg
	}
	if req.LastPrice != nil {
		lastPrice = *req.LastPrice
	}

	updated, err := h.portfolioService.UpdateHolding(r.Context(), userID(r), id, qty, avg, lastPrice)
	if err != nil {
		if errors.Is(err, portfolio.ErrHoldingNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Holding not found",
			})
			return
		}

		h.log.Error("Failed to update holding", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to update holding",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Holding updated",
		"data":    rawHoldingPayload(updated),
	})
}

func (h *HoldingsHandler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Invalid holding id",
		})
		return
	}

	if err := h.portfolioService.DeleteHolding(r.Context(), userID(r), id); err != nil {
		if errors.Is(err, portfolio.ErrHoldingNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Holding not found",
			})
			return
		}

		h.log.Error("Failed to delete holding", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to delete holding",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Holding removed",
	})
}

func holdingPayload(view portfolio.HoldingView) transport.HoldingPayload {
	h := view.Holding
	return transport.HoldingPayload{
		Id:               h.Id.String(),
		Name:             h.Name,
		Symbol:           h.Symbol,
		Quantity:         h.Qty,
		AveragePrice:     h.Avg.StringFixed(2),
		LastPrice:        h.LastPrice.StringFixed(2),
		LivePrice:        view.Quote.Price.StringFixed(2),
		Change:           view.Quote.Change.StringFixed(2),
		ChangePercentage: view.Quote.PercentChange.StringFixed(2),
		Investment:       view.Valuation.Investment.StringFixed(2),
		CurrentValue:     view.Valuation.CurrentValue.StringFixed(2),
		Pnl:              view.Valuation.Pnl.StringFixed(2),
		PnlPercentage:    view.Valuation.PnlPercentage.StringFixed(2),
		DayPnl:           view.Valuation.DayPnl.StringFixed(2),
		Exchange:         string(h.Exchange),
		Instrument:       string(h.Instrument),
		UsingFallback:    view.Quote.Fallback,
	}
}

func rawHoldingPayload(h models.Holding) transport.HoldingPayload {
	return transport.HoldingPayload{
		Id:           h.Id.String(),
		Name:         h.Name,
		Symbol:       h.Symbol,
		Quantity:     h.Qty,
		AveragePrice: h.Avg.StringFixed(2),
		LastPrice:    h.LastPrice.StringFixed(2),
		Exchange:     string(h.Exchange),
		Instrument:   string(h.Instrument),
	}
}

func portfolioSummary(s valuation.Summary) transport.PortfolioSummary {
	return transport.PortfolioSummary{
		TotalInvestment:    s.TotalInvestment.StringFixed(2),
		CurrentValue:       s.CurrentValue.StringFixed(2),
		TotalPnl:           s.TotalPnl.StringFixed(2),
		TotalPnlPercentage: s.PnlPercentage.StringFixed(2),
		DayPnl:             s.DayPnl.StringFixed(2),
	}
}
