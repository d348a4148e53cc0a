package handler

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/domain/models/transport"
	"Brokerage/internal/services/order"
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
	"github.com/shopspring/decimal"
)

type PositionsHandler struct {
	log              *slog.Logger
	portfolioService positionsService
	validate         *validator.Validate
}

type positionsService interface {
	Positions(ctx context.Context, userId int64) ([]models.Position, valuation.Summary, error)
	Position(ctx context.Context, userId int64, symbol string) (models.Position, error)
	SquareOff(ctx context.Context, userId int64, symbol string, price decimal.Decimal) (portfolio.SquareOffResult, error)
}

func NewPositionsHandler(log *slog.Logger, portfolioService positionsService, validate *validator.Validate) *PositionsHandler {
	return &PositionsHandler{
		log:              log,
		portfolioService: portfolioService,
		validate:         validate,
	}
}

func (h *PositionsHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/", h.GetPositions)
	router.Get("/{symbol}", h.GetPosition)
	router.Post("/square-off", h.PostSquareOff)

	return router
}

func (h *PositionsHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	positions, summary, err := h.portfolioService.Positions(r.Context(), userID(r))
	if err != nil {
		h.log.Error("Failed to get positions", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to get positions",
		})
		return
	}

	payloads := make([]transport.PositionPayload, 0, len(positions))
	for _, p := range positions {
		payloads = append(payloads, positionPayload(p))
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.PositionsResponse{
		Success: true,
		Data:    payloads,
		Summary: transport.PositionsSummary{
			TotalInvestment:    summary.TotalInvestment.StringFixed(2),
			TotalCurrentValue:  summary.CurrentValue.StringFixed(2),
			TotalPnl:           summary.TotalPnl.StringFixed(2),
			TotalPnlPercentage: summary.PnlPercentage.StringFixed(2),
			DayPnl:             summary.DayPnl.StringFixed(2),
		},
		LastUpdated: time.Now(),
	})
}

func (h *PositionsHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	position, err := h.portfolioService.Position(r.Context(), userID(r), chi.URLParam(r, "symbol"))
	if err != nil {
		if errors.Is(err, portfolio.ErrPositionNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Position not found",
			})
			return
		}

		h.log.Error("Failed to get position", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to get position",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    positionPayload(position),
	})
}

func (h *PositionsHandler) PostSquareOff(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req transport.SquareOffRequest
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
			Error: "Symbol is required",
		})
		return
	}

	exitPrice := decimal.Zero
	if req.Price != nil {
		exitPrice = *req.Price
	}

	result, err := h.portfolioService.SquareOff(r.Context(), userID(r), req.Symbol, exitPrice)
	if err != nil {
		switch {
		case errors.Is(err, portfolio.ErrPositionNotFound):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Position not found",
			})
		case errors.Is(err, order.ErrInsufficientHoldings):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Insufficient holdings to sell",
			})
		default:
			h.log.Error("Failed to square off", "error", err, "symbol", req.Symbol)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Failed to square off position",
			})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.SquareOffResponse{
		Success: true,
		Message: "Position squared off",
		Data: transport.SquareOffPayload{
			Symbol:         result.Order.Symbol,
			Quantity:       result.Order.Qty,
			AveragePrice:   result.AvgPrice.StringFixed(2),
			SquareOffPrice: result.Order.Price.StringFixed(2),
			Pnl:            result.Pnl.StringFixed(2),
			PnlPercentage:  result.PnlPercentage.StringFixed(2),
		},
	})
}

func positionPayload(p models.Position) transport.PositionPayload {
	qty := decimal.NewFromInt(p.Qty)
	return transport.PositionPayload{
		Id:               p.Id.String(),
		Name:             p.Name,
		Symbol:           p.Symbol,
		Product:          string(p.Product),
		Quantity:         p.Qty,
		AveragePrice:     p.Avg.StringFixed(2),
		LastPrice:        p.LastPrice.StringFixed(2),
		LivePrice:        p.LivePrice.StringFixed(2),
		Change:           p.Change.StringFixed(2),
		ChangePercentage: p.ChangePercentage.StringFixed(2),
		Investment:       p.Avg.Mul(qty).StringFixed(2),
		CurrentValue:     p.LivePrice.Mul(qty).StringFixed(2),
		Pnl:              p.Pnl.StringFixed(2),
		PnlPercentage:    p.PnlPercentage.StringFixed(2),
		DayPnl:           p.DayPnl.StringFixed(2),
		DayPnlPercentage: p.DayPnlPercentage.StringFixed(2),
		IsLoss:           p.IsLoss,
		Exchange:         string(p.Exchange),
		Instrument:       string(p.Instrument),
		LastUpdated:      p.LastUpdated,
	}
}
