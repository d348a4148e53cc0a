package order

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/storage/postgres"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingFields        = errors.New("name, symbol, qty, price and mode are required")
	ErrInvalidMode          = errors.New("mode must be either BUY or SELL")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrNotCancellable       = errors.New("only pending orders can be cancelled")
)

type OrderService struct {
	log       slog.Logger
	orders    Manager
	holdings  HoldingProvider
	positions PositionProvider
	ledger    LedgerProvider
}

type Manager interface {
	GetOrder(ctx context.Context, userId int64, id uuid.UUID) (models.Order, error)
	GetOrderByPaymentRef(ctx context.Context, userId int64, paymentRef string) (models.Order, error)
	ListOrders(ctx context.Context, userId int64, filter models.OrderFilter) ([]models.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, userId int64, id uuid.UUID, status models.OrderStatus) (models.Order, error)
	ApplyBooking(ctx context.Context, booking models.OrderBooking) error
}

type HoldingProvider interface {
	GetHolding(ctx context.Context, userId int64, symbol string) (models.Holding, error)
}

type PositionProvider interface {
	GetPosition(ctx context.Context, userId int64, symbol string) (models.Position, error)
}

type LedgerProvider interface {
	GetLedgerByPaymentRef(ctx context.Context, paymentRef string) (models.LedgerEntry, error)
}

func New(log slog.Logger, orders Manager, holdings HoldingProvider, positions PositionProvider, ledger LedgerProvider) *OrderService {
	return &OrderService{
		log:       log,
		orders:    orders,
		holdings:  holdings,
		positions: positions,
		ledger:    ledger,
	}
}

// Request carries the client-supplied order fields before normalization.
type Request struct {
	Name       string
	Symbol     string
	Qty        int64
	Price      decimal.Decimal
	Mode       string
	OrderType  string
	Product    string
	Exchange   string
	PaymentRef string
}

// CreateOrder validates and books one trade: the order row plus the holding,
// position and ledger mutations it implies, committed atomically. A repeated
// request carrying an already-seen payment reference returns the original
// order without re-applying any side effect.
func (s *OrderService) CreateOrder(ctx context.Context, userId int64, req Request) (models.Order, error) {
	const op = "order.CreateOrder"

	if req.PaymentRef != "" {
		existing, err := s.orders.GetOrderByPaymentRef(ctx, userId, req.PaymentRef)
		if err == nil {
			s.log.Info("order already exists for payment reference",
				"user_id", userId, "payment_ref", req.PaymentRef)
			return existing, nil
		}
		if !errors.Is(err, postgres.ErrOrderNotExists) {
			return models.Order{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	order, settlement, err := normalize(userId, req)
	if err != nil {
		return models.Order{}, err
	}

	booking := models.OrderBooking{Order: order}

	if settlement == models.Delivery {
		if err := s.reconcileHolding(ctx, &booking); err != nil {
			return models.Order{}, err
		}
	}
	if err := s.reconcilePosition(ctx, &booking); err != nil {
		return models.Order{}, err
	}
	if err := s.reconcileLedger(ctx, &booking); err != nil {
		return models.Order{}, err
	}

	if err := s.orders.ApplyBooking(ctx, booking); err != nil {
		if errors.Is(err, postgres.ErrOrderAlreadyExists) && req.PaymentRef != "" {
			// Lost a race with a retry of the same payment; hand back the winner.
			return s.orders.GetOrderByPaymentRef(ctx, userId, req.PaymentRef)
		}
		s.log.Error("failed to book order", "user_id", userId, "symbol", order.Symbol, "err", err)
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userId int64, id uuid.UUID) (models.Order, error) {
	const op = "order.GetOrder"

	order, err := s.orders.GetOrder(ctx, userId, id)
	if err != nil {
		if errors.Is(err, postgres.ErrOrderNotExists) {
			return order, err
		}
		s.log.Error("failed to get order", "id", id, "err", err)
		return order, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userId int64, filter models.OrderFilter) ([]models.Order, int64, error) {
	const op = "order.ListOrders"

	filter.Symbol = strings.ToUpper(filter.Symbol)
	orders, total, err := s.orders.ListOrders(ctx, userId, filter)
	if err != nil {
		s.log.Error("failed to list orders", "user_id", userId, "err", err)
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return orders, total, nil
}

// CancelOrder moves a PENDING order to CANCELLED; any other status is final.
func (s *OrderService) CancelOrder(ctx context.Context, userId int64, id uuid.UUID) (models.Order, error) {
	const op = "order.CancelOrder"

	order, err := s.orders.GetOrder(ctx, userId, id)
	if err != nil {
		if errors.Is(err, postgres.ErrOrderNotExists) {
			return order, err
		}
		s.log.Error("failed to get order", "id", id, "err", err)
		return order, fmt.Errorf("%s: %w", op, err)
	}

	if order.Status != models.Pending {
		return order, ErrNotCancellable
	}

	cancelled, err := s.orders.UpdateOrderStatus(ctx, userId, id, models.Cancelled)
	if err != nil {
		s.log.Error("failed to cancel order", "id", id, "err", err)
		return cancelled, fmt.Errorf("%s: %w", op, err)
	}

	return cancelled, nil
}

// normalize validates the request and builds the order row. The settlement
// type is decided here, once, and drives whether holdings are touched.
func normalize(userId int64, req Request) (models.Order, models.Settlement, error) {
	if req.Name == "" || req.Symbol == "" || req.Qty <= 0 || req.Price.LessThanOrEqual(decimal.Zero) || req.Mode == "" {
		return models.Order{}, "", ErrMissingFields
	}

	mode := models.OrderMode(strings.ToUpper(req.Mode))
	if mode != models.Buy && mode != models.Sell {
		return models.Order{}, "", ErrInvalidMode
	}

	orderType := models.OrderType(strings.ToUpper(req.OrderType))
	switch orderType {
	case models.Market, models.Limit, models.StopLoss, models.StopLossMarket:
	default:
		orderType = models.Market
	}

	product := models.Product(strings.ToUpper(req.Product))

	// Only an explicitly intraday product skips holdings. An absent or
	// unrecognized product settles as delivery even though it is stored
	// with the MIS default.
	settlement := models.Delivery
	if product == models.MIS || product == models.NRML {
		settlement = models.Intraday
	}

	switch product {
	case models.MIS, models.CNC, models.NRML:
	default:
		product = models.MIS
	}

	exchange := models.StockExchange(strings.ToUpper(req.Exchange))
	if exchange != models.NSE && exchange != models.BSE {
		exchange = models.NSE
	}

	now := time.Now()
	order := models.Order{
		Id:          uuid.New(),
		OrderRef:    newOrderRef(),
		UserId:      userId,
		Name:        req.Name,
		Symbol:      strings.ToUpper(req.Symbol),
		Qty:         req.Qty,
		Price:       req.Price,
		Mode:        mode,
		OrderType:   orderType,
		Product:     product,
		Exchange:    exchange,
		TotalAmount: req.Price.Mul(decimal.NewFromInt(req.Qty)).Round(2),
		Status:      models.Completed,
		PaymentRef:  req.PaymentRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return order, settlement, nil
}

func (s *OrderService) reconcileHolding(ctx context.Context, booking *models.OrderBooking) error {
	const op = "order.reconcileHolding"
	o := booking.Order

	holding, err := s.holdings.GetHolding(ctx, o.UserId, o.Symbol)
	exists := err == nil
	if err != nil && !errors.Is(err, postgres.ErrHoldingNotExists) {
		s.log.Error("failed to get holding", "symbol", o.Symbol, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	switch o.Mode {
	case models.Buy:
		if exists {
			holding.Avg = weightedAvg(holding.Avg, holding.Qty, o.Price, o.Qty)
			holding.Qty += o.Qty
			holding.LastPrice = o.Price
			holding.UpdatedAt = o.CreatedAt
		} else {
			holding = models.Holding{
				Id:         uuid.New(),
				UserId:     o.UserId,
				Name:       o.Name,
				Symbol:     o.Symbol,
				Qty:        o.Qty,
				Avg:        o.Price,
				LastPrice:  o.Price,
				Exchange:   o.Exchange,
				Instrument: models.Equity,
				CreatedAt:  o.CreatedAt,
				UpdatedAt:  o.CreatedAt,
			}
		}
		booking.Holding = &holding
	case models.Sell:
		if !exists || holding.Qty < o.Qty {
			return ErrInsufficientHoldings
		}
		holding.Qty -= o.Qty
		holding.UpdatedAt = o.CreatedAt
		booking.Holding = &holding
		booking.RemoveHolding = holding.Qty == 0
	}

	return nil
}

func (s *OrderService) reconcilePosition(ctx context.Context, booking *models.OrderBooking) error {
	const op = "order.reconcilePosition"
	o := booking.Order

	position, err := s.positions.GetPosition(ctx, o.UserId, o.Symbol)
	exists := err == nil
	if err != nil && !errors.Is(err, postgres.ErrPositionNotExists) {
		s.log.Error("failed to get position", "symbol", o.Symbol, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	switch o.Mode {
	case models.Buy:
		if exists {
			position.Avg = weightedAvg(position.Avg, position.Qty, o.Price, o.Qty)
			position.Qty += o.Qty
			position.LastPrice = o.Price
			position.LastUpdated = o.CreatedAt
		} else {
			position = models.Position{
				Id:          uuid.New(),
				UserId:      o.UserId,
				Product:     o.Product,
				Name:        o.Name,
				Symbol:      o.Symbol,
				Qty:         o.Qty,
				Avg:         o.Price,
				LastPrice:   o.Price,
				Exchange:    o.Exchange,
				Instrument:  models.Equity,
				LastUpdated: o.CreatedAt,
				CreatedAt:   o.CreatedAt,
			}
		}
		booking.Position = &position
	case models.Sell:
		if !exists {
			// Selling with no open position only happens on non-delivery
			// products; there is nothing to decrement.
			return nil
		}
		position.Qty -= o.Qty
		if position.Qty < 0 {
			position.Qty = 0
		}
		position.LastPrice = o.Price
		position.LastUpdated = o.CreatedAt
		booking.Position = &position
		booking.RemovePosition = position.Qty == 0
	}

	return nil
}

func (s *OrderService) reconcileLedger(ctx context.Context, booking *models.OrderBooking) error {
	const op = "order.reconcileLedger"
	o := booking.Order

	if o.PaymentRef != "" {
		_, err := s.ledger.GetLedgerByPaymentRef(ctx, o.PaymentRef)
		if err == nil {
			s.log.Info("ledger entry already exists for payment reference",
				"payment_ref", o.PaymentRef)
			return nil
		}
		if !errors.Is(err, postgres.ErrLedgerNotExists) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	entryType := models.LedgerInvestment
	paymentRef := o.PaymentRef
	if o.Mode == models.Sell {
		entryType = models.LedgerAdd
		paymentRef = ""
	}

	booking.Ledger = &models.LedgerEntry{
		Id:          uuid.New(),
		UserId:      o.UserId,
		Amount:      o.TotalAmount,
		Type:        entryType,
		PaymentRef:  paymentRef,
		Description: fmt.Sprintf("%s %d %s @ %s", o.Mode, o.Qty, o.Symbol, o.Price),
		Status:      models.LedgerCompleted,
		CreatedAt:   o.CreatedAt,
	}

	return nil
}

// weightedAvg keeps the average cost at full precision; rounding happens at
// the response boundary only.
func weightedAvg(avg decimal.Decimal, qty int64, price decimal.Decimal, addQty int64) decimal.Decimal {
	oldQty := decimal.NewFromInt(qty)
	newQty := decimal.NewFromInt(addQty)
	totalCost := avg.Mul(oldQty).Add(price.Mul(newQty))
	return totalCost.Div(oldQty.Add(newQty))
}

func newOrderRef() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := strings.ToUpper(uuid.NewString()[:5])
	return "ORD" + strings.ToUpper(ts) + suffix
}
