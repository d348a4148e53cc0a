package handler

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/domain/models/transport"
	"Brokerage/internal/services/order"
	"Brokerage/internal/storage/postgres"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type OrderHandler struct {
	log          *slog.Logger
	orderService orderService
	validate     *validator.Validate
}

type orderService interface {
	CreateOrder(ctx context.Context, userId int64, req order.Request) (models.Order, error)
	GetOrder(ctx context.Context, userId int64, id uuid.UUID) (models.Order, error)
	ListOrders(ctx context.Context, userId int64, filter models.OrderFilter) ([]models.Order, int64, error)
	CancelOrder(ctx context.Context, userId int64, id uuid.UUID) (models.Order, error)
}

func NewOrderHandler(log *slog.Logger, orderService orderService, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{
		log:          log,
		orderService: orderService,
		validate:     validate,
	}
}

func (h *OrderHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Post("/create", h.PostCreateOrder)
	router.Get("/", h.GetOrders)
	router.Get("/{id}", h.GetOrder)
	router.Put("/{id}/cancel", h.PutCancelOrder)

	return router
}

func (h *OrderHandler) PostCreateOrder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req transport.CreateOrderRequest
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
			Error: "Name, symbol, a positive qty, price and mode are required",
		})
		return
	}

	placed, err := h.orderService.CreateOrder(r.Context(), userID(r), order.Request{
		Name:       req.Name,
		Symbol:     req.Symbol,
		Qty:        req.Qty,
		Price:      req.Price,
		Mode:       req.Mode,
		OrderType:  req.OrderType,
		Product:    req.Product,
		Exchange:   req.Exchange,
		PaymentRef: req.PaymentRef,
	})
	if err != nil {
		h.log.Error("Failed to create order", "error", err, "symbol", req.Symbol)

		switch {
		case errors.Is(err, order.ErrMissingFields):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Name, symbol, a positive qty, price and mode are required",
			})
		case errors.Is(err, order.ErrInvalidMode):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Mode must be BUY or SELL",
			})
		case errors.Is(err, order.ErrInsufficientHoldings):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Insufficient holdings to sell",
			})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Failed to place order",
			})
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(transport.OrderResponse{
		Success: true,
		Message: "Order placed",
		Data:    orderPayload(placed),
	})
}

func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filter := models.OrderFilter{
		Symbol: r.URL.Query().Get("symbol"),
		Status: models.OrderStatus(strings.ToUpper(r.URL.Query().Get("status"))),
		Mode:   models.OrderMode(strings.ToUpper(r.URL.Query().Get("mode"))),
	}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	orders, total, err := h.orderService.ListOrders(r.Context(), userID(r), filter)
	if err != nil {
		h.log.Error("Failed to list orders", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to get orders",
		})
		return
	}

	payloads := make([]transport.OrderPayload, 0, len(orders))
	for _, o := range orders {
		payloads = append(payloads, orderPayload(o))
	}

	pages := int(total) / filter.Limit
	if int(total)%filter.Limit != 0 {
		pages++
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.OrderListResponse{
		Success: true,
		Data:    payloads,
		Pagination: transport.Pagination{
			Current: filter.Page,
			Pages:   pages,
			Total:   total,
		},
	})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Invalid order id",
		})
		return
	}

	found, err := h.orderService.GetOrder(r.Context(), userID(r), id)
	if err != nil {
		if errors.Is(err, postgres.ErrOrderNotExists) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Order not found",
			})
			return
		}

		h.log.Error("Failed to get order", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to get order",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.OrderResponse{
		Success: true,
		Data:    orderPayload(found),
	})
}

func (h *OrderHandler) PutCancelOrder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Invalid order id",
		})
		return
	}

	cancelled, err := h.orderService.CancelOrder(r.Context(), userID(r), id)
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrOrderNotExists):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Order not found",
			})
		case errors.Is(err, order.ErrNotCancellable):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Only pending orders can be cancelled",
			})
		default:
			h.log.Error("Failed to cancel order", "error", err, "id", id)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Failed to cancel order",
			})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.OrderResponse{
		Success: true,
		Message: "Order cancelled",
		Data:    orderPayload(cancelled),
	})
}

func orderPayload(o models.Order) transport.OrderPayload {
	return transport.OrderPayload{
		OrderId:     o.Id.String(),
		Name:        o.Name,
		Symbol:      o.Symbol,
		Quantity:    o.Qty,
		Price:       o.Price.StringFixed(2),
		Mode:        string(o.Mode),
		OrderType:   string(o.OrderType),
		Product:     string(o.Product),
		Exchange:    string(o.Exchange),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
	}
}
