package handler

import (
	"Brokerage/internal/domain/models/transport"
	"Brokerage/internal/services/valuation"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

type SummaryHandler struct {
	log              *slog.Logger
	dashboardService dashboardService
}

type dashboardService interface {
	Dashboard(ctx context.Context, userId int64) (valuation.Summary, decimal.Decimal, decimal.Decimal, int, error)
}

func NewSummaryHandler(log *slog.Logger, dashboardService dashboardService) *SummaryHandler {
	return &SummaryHandler{
		log:              log,
		dashboardService: dashboardService,
	}
}

func (h *SummaryHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/", h.GetSummary)

	return router
}

func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, _ := UserFromContext(r.Context())

	summary, marginUsed, marginAvailable, holdingsCount, err := h.dashboardService.Dashboard(r.Context(), user.Id)
	if err != nil {
		h.log.Error("Failed to build summary", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to get summary",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.SummaryResponse{
		Success:         true,
		UserName:        user.Username,
		UserId:          user.Id,
		MarginAvailable: marginAvailable.StringFixed(2),
		MarginUsed:      marginUsed.StringFixed(2),
		HoldingsCount:   holdingsCount,
		TotalInvested:   summary.TotalInvestment.StringFixed(2),
		CurrentValue:    summary.CurrentValue.StringFixed(2),
		Pnl:             summary.TotalPnl.StringFixed(2),
		PnlPercent:      summary.PnlPercentage.StringFixed(2),
		IsLoss:          summary.TotalPnl.IsNegative(),
		LastUpdated:     time.Now(),
	})
}
