package handler

import (
	"Brokerage/internal/domain/models/transport"
	"Brokerage/internal/services/payment"
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

type PaymentHandler struct {
	log            *slog.Logger
	paymentService paymentService
	validate       *validator.Validate
}

type paymentService interface {
	CreateIntent(ctx context.Context, userId int64, amount decimal.Decimal) (payment.Intent, error)
	ConfirmIntent(ctx context.Context, userId int64, intentId string) (payment.Intent, error)
}

func NewPaymentHandler(log *slog.Logger, paymentService paymentService, validate *validator.Validate) *PaymentHandler {
	return &PaymentHandler{
		log:            log,
		paymentService: paymentService,
		validate:       validate,
	}
}

func (h *PaymentHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Post("/create-payment-intent", h.PostCreateIntent)
	router.Get("/payment-intent/{id}", h.GetPaymentIntent)

	return router
}

func (h *PaymentHandler) PostCreateIntent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req transport.CreatePaymentIntentRequest
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

	intent, err := h.paymentService.CreateIntent(r.Context(), userID(r), req.Amount)
	if err != nil {
		if errors.Is(err, payment.ErrAmountTooSmall) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Amount must be at least 1.00",
			})
			return
		}

		h.log.Error("Failed to create payment intent", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to create payment intent",
		})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(transport.CreatePaymentIntentResponse{
		Success:         true,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentId: intent.Id,
	})
}

func (h *PaymentHandler) GetPaymentIntent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	intentId := chi.URLParam(r, "id")
	if intentId == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Payment intent id is required",
		})
		return
	}

	intent, err := h.paymentService.ConfirmIntent(r.Context(), userID(r), intentId)
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Payment intent not found",
			})
			return
		}

		h.log.Error("Failed to confirm payment intent", "error", err, "intentId", intentId)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to confirm payment",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.PaymentIntentResponse{
		Success:  true,
		Id:       intent.Id,
		Amount:   intent.Amount.StringFixed(2),
		Currency: intent.Currency,
		Status:   intent.Status,
		Created:  time.Now(),
	})
}
