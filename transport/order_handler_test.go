package handler

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/domain/models/transport"
	"Brokerage/internal/services/order"
	"Brokerage/internal/storage/postgres"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderService struct {
	order     models.Order
	createErr error
	getErr    error
}

func (s *stubOrderService) CreateOrder(_ context.Context, _ int64, _ order.Request) (models.Order, error) {
	return s.order, s.createErr
}

func (s *stubOrderService) GetOrder(_ context.Context, _ int64, _ uuid.UUID) (models.Order, error) {
	return s.order, s.getErr
}

func (s *stubOrderService) ListOrders(_ context.Context, _ int64, _ models.OrderFilter) ([]models.Order, int64, error) {
	return []models.Order{s.order}, 1, nil
}

func (s *stubOrderService) CancelOrder(_ context.Context, _ int64, _ uuid.UUID) (models.Order, error) {
	return s.order, s.getErr
}

func newOrderHandler(svc *stubOrderService) *OrderHandler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrderHandler(log, svc, validator.New())
}

func withUser(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, models.User{Id: 1, Username: "trader"})
	return r.WithContext(ctx)
}

func sampleOrder() models.Order {
	return models.Order{
		Id:          uuid.New(),
		UserId:      1,
		Name:        "Apple Inc",
		Symbol:      "AAPL",
		Qty:         10,
		Price:       decimal.RequireFromString("100"),
		Mode:        models.Buy,
		OrderType:   models.Market,
		Product:     models.CNC,
		Exchange:    models.NSE,
		TotalAmount: decimal.RequireFromString("1000"),
		Status:      models.Completed,
	}
}

func TestPostCreateOrder_Created(t *testing.T) {
	h := newOrderHandler(&stubOrderService{order: sampleOrder()})

	body := `{"name":"Apple Inc","symbol":"AAPL","qty":10,"price":"100","mode":"BUY","product":"CNC"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	h.PostCreateOrder(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp transport.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "AAPL", resp.Data.Symbol)
	assert.Equal(t, "1000.00", resp.Data.TotalAmount)
}

func TestPostCreateOrder_ValidationError(t *testing.T) {
	h := newOrderHandler(&stubOrderService{order: sampleOrder()})

	body := `{"symbol":"AAPL","qty":0,"mode":"BUY"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	h.PostCreateOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostCreateOrder_InsufficientHoldings(t *testing.T) {
	h := newOrderHandler(&stubOrderService{createErr: order.ErrInsufficientHoldings})

	body := `{"name":"Apple Inc","symbol":"AAPL","qty":10,"price":"100","mode":"SELL","product":"CNC"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	h.PostCreateOrder(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp transport.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Insufficient holdings to sell", resp.Error)
}

func TestGetOrder_NotFound(t *testing.T) {
	h := newOrderHandler(&stubOrderService{getErr: postgres.ErrOrderNotExists})

	req := withUser(httptest.NewRequest(http.MethodGet, "/"+uuid.NewString(), nil))
	rec := httptest.NewRecorder()

	router := h.Routes()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutCancelOrder_NotPending(t *testing.T) {
	h := newOrderHandler(&stubOrderService{getErr: order.ErrNotCancellable})

	req := withUser(httptest.NewRequest(http.MethodPut, "/"+uuid.NewString()+"/cancel", nil))
	rec := httptest.NewRecorder()

	router := h.Routes()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp transport.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Only pending orders can be cancelled", resp.Error)
}

func TestGetOrder_InvalidId(t *testing.T) {
	h := newOrderHandler(&stubOrderService{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/not-a-uuid", nil))
	rec := httptest.NewRecorder()

	router := h.Routes()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
