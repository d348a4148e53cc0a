package handler

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/domain/models/transport"
	"Brokerage/internal/services/funds"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type FundsHandler struct {
	log          *slog.Logger
	fundsService fundsService
	validate     *validator.Validate
}

type fundsService interface {
	Summary(ctx context.Context, userId int64) (funds.Balance, []models.LedgerEntry, error)
	Add(ctx context.Context, userId int64, amount decimal.Decimal, paymentRef, description string) (funds.Balance, error)
	Withdraw(ctx context.Context, userId int64, amount decimal.Decimal, description string) (funds.Balance, error)
}

func NewFundsHandler(log *slog.Logger, fundsService fundsService, validate *validator.Validate) *FundsHandler {
	return &FundsHandler{
		log:          log,
		fundsService: fundsService,
		validate:     validate,
	}
}

func (h *FundsHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/my-funds", h.GetFunds)
	router.Post("/add", h.PostAddFunds)
	router.Post("/withdraw", h.PostWithdrawFunds)

	return router
}

func (h *FundsHandler) GetFunds(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	balance, history, err := h.fundsService.Summary(r.Context(), userID(r))
	if err != nil {
		h.log.Error("Failed to get funds", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to get funds",
		})
		return
	}

	entries := make([]transport.LedgerEntryPayload, 0, len(history))
	for _, e := range history {
		entries = append(entries, transport.LedgerEntryPayload{
			Id:          e.Id.String(),
			Amount:      e.Amount.StringFixed(2),
			Type:        string(e.Type),
			Description: e.Description,
			Date:        e.CreatedAt,
			PaymentRef:  e.PaymentRef,
			Status:      string(e.Status),
		})
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.FundsResponse{
		Success: true,
		Data: transport.FundsPayload{
			TotalFunds:       balance.NetFunds.StringFixed(2),
			AvailableBalance: balance.Available.StringFixed(2),
			InvestedAmount:   balance.TotalInvested.StringFixed(2),
			Breakdown: transport.FundsBreakdown{
				TotalAdded:      balance.TotalAdded.StringFixed(2),
				TotalWithdrawn:  balance.TotalWithdrawn.StringFixed(2),
				TotalInvestment: balance.TotalInvested.StringFixed(2),
			},
			History: entries,
		},
	})
}

func (h *FundsHandler) PostAddFunds(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req transport.AddFundsRequest
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
			Error: "Amount is required",
		})
		return
	}

	balance, err := h.fundsService.Add(r.Context(), userID(r), req.Amount, req.PaymentRef, req.Description)
	if err != nil {
		if errors.Is(err, funds.ErrInvalidAmount) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Amount must be greater than zero",
			})
			return
		}

		h.log.Error("Failed to add funds", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to add funds",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.FundsMutationResponse{
		Success: true,
		Message: "Funds added",
		Data: transport.FundsMutationPayload{
			Amount:           req.Amount.StringFixed(2),
			TotalFunds:       balance.NetFunds.StringFixed(2),
			AvailableBalance: balance.Available.StringFixed(2),
			TransactionId:    req.PaymentRef,
		},
	})
}

func (h *FundsHandler) PostWithdrawFunds(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req transport.WithdrawFundsRequest
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
			Error: "Amount is required",
		})
		return
	}

	balance, err := h.fundsService.Withdraw(r.Context(), userID(r), req.Amount, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, funds.ErrInvalidAmount):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Amount must be greater than zero",
			})
		case errors.Is(err, funds.ErrInsufficientFunds):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Insufficient available balance",
			})
		default:
			h.log.Error("Failed to withdraw funds", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Failed to withdraw funds",
			})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.FundsMutationResponse{
		Success: true,
		Message: "Funds withdrawn",
		Data: transport.FundsMutationPayload{
			Amount:           req.Amount.StringFixed(2),
			TotalFunds:       balance.NetFunds.StringFixed(2),
			AvailableBalance: balance.Available.StringFixed(2),
		},
	})
}
