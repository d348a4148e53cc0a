package portfolio

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/services/order"
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
	ErrHoldingNotFound  = errors.New("holding not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrInvalidHolding   = errors.New("symbol, qty and avg price are required")
)

// Hardcoded margin model: used margin is 10% of the current portfolio
// value against a flat account limit.
var (
	marginRate  = decimal.RequireFromString("0.1")
	marginLimit = decimal.NewFromInt(100000)
)

type PortfolioService struct {
	log          slog.Logger
	holdings     HoldingManager
	positions    PositionManager
	pricer       Pricer
	orders       OrderPlacer
	holdingsTTL  time.Duration
	positionsTTL time.Duration
}

type HoldingManager interface {
	ListHoldings(ctx context.Context, userId int64) ([]models.Holding, error)
	GetHoldingById(ctx context.Context, userId int64, id uuid.UUID) (models.Holding, error)
	CreateHolding(ctx context.Context, h models.Holding) (models.Holding, error)
	UpdateHolding(ctx context.Context, h models.Holding) (models.Holding, error)
	DeleteHolding(ctx context.Context, userId int64, id uuid.UUID) error
}

type PositionManager interface {
	ListPositions(ctx context.Context, userId int64) ([]models.Position, error)
	GetPosition(ctx context.Context, userId int64, symbol string) (models.Position, error)
	SavePositionLive(ctx context.Context, p models.Position) error
}

type Pricer interface {
	Quote(ctx context.Context, symbol string, fallback decimal.Decimal, ttl time.Duration) models.Quote
}

type OrderPlacer interface {
	CreateOrder(ctx context.Context, userId int64, req order.Request) (models.Order, error)
}

func New(
	log slog.Logger,
	holdings HoldingManager,
	positions PositionManager,
	pricer Pricer,
	orders OrderPlacer,
	holdingsTTL, positionsTTL time.Duration,
) *PortfolioService {
	return &PortfolioService{
		log:          log,
		holdings:     holdings,
		positions:    positions,
		pricer:       pricer,
		orders:       orders,
		holdingsTTL:  holdingsTTL,
		positionsTTL: positionsTTL,
	}
}

// HoldingView is a holding enriched with its live quote and derived P&L.
type HoldingView struct {
	Holding   models.Holding
	Quote     models.Quote
	Valuation valuation.Valuation
}

// Holdings lists the user's holdings at live prices. Quote failures degrade
// to each holding's last traded price, so the list itself never fails on
// the provider.
func (s *PortfolioService) Holdings(ctx context.Context, userId int64) ([]HoldingView, valuation.Summary, error) {
	const op = "portfolio.Holdings"

	holdings, err := s.holdings.ListHoldings(ctx, userId)
	if err != nil {
		s.log.Error("failed to list holdings", "user_id", userId, "err", err)
		return nil, valuation.Summary{}, fmt.Errorf("%s: %w", op, err)
	}

	views := make([]HoldingView, 0, len(holdings))
	valuations := make([]valuation.Valuation, 0, len(holdings))
	for _, h := range holdings {
		quote := s.pricer.Quote(ctx, h.Symbol, h.LastPrice, s.holdingsTTL)
		v := valuation.Valuate(h.Qty, h.Avg, h.LastPrice, quote.Price, quote.Change)
		views = append(views, HoldingView{Holding: h, Quote: quote, Valuation: v})
		valuations = append(valuations, v)
	}

	return views, valuation.Summarize(valuations), nil
}

// AddHolding records a holding directly, bypassing the order flow. Used for
// importing positions held elsewhere.
func (s *PortfolioService) AddHolding(ctx context.Context, userId int64, h models.Holding) (models.Holding, error) {
	const op = "portfolio.AddHolding"

	if h.Symbol == "" || h.Qty <= 0 || h.Avg.LessThanOrEqual(decimal.Zero) {
		return models.Holding{}, ErrInvalidHolding
	}

	now := time.Now()
	h.Id = uuid.New()
	h.UserId = userId
	h.Symbol = strings.ToUpper(h.Symbol)
	if h.Name == "" {
		h.Name = h.Symbol
	}
	if h.LastPrice.IsZero() {
		h.LastPrice = h.Avg
	}
	if h.Exchange == "" {
		h.Exchange = models.NSE
	}
	if h.Instrument == "" {
		h.Instrument = models.Equity
	}
	h.CreatedAt = now
	h.UpdatedAt = now

	created, err := s.holdings.CreateHolding(ctx, h)
	if err != nil {
		s.log.Error("failed to add holding", "symbol", h.Symbol, "err", err)
		return models.Holding{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (s *PortfolioService) UpdateHolding(ctx context.Context, userId int64, id uuid.UUID, qty int64, avg, lastPrice decimal.Decimal) (models.Holding, error) {
	const op = "portfolio.UpdateHolding"

	holding, err := s.holdings.GetHoldingById(ctx, userId, id)
	if err != nil {
		if errors.Is(err, postgres.ErrHoldingNotExists) {
			return models.Holding{}, ErrHoldingNotFound
		}
		return models.Holding{}, fmt.Errorf("%s: %w", op, err)
	}

	if qty > 0 {
		holding.Qty = qty
	}
	if avg.IsPositive() {
		holding.Avg = avg
	}
	if lastPrice.IsPositive() {
		holding.LastPrice = lastPrice
	}

	updated, err := s.holdings.UpdateHolding(ctx, holding)
	if err != nil {
		if errors.Is(err, postgres.ErrHoldingNotExists) {
			return models.Holding{}, ErrHoldingNotFound
		}
		s.log.Error("failed to update holding", "id", id, "err", err)
		return models.Holding{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (s *PortfolioService) DeleteHolding(ctx context.Context, userId int64, id uuid.UUID) error {
	const op = "portfolio.DeleteHolding"

	if err := s.holdings.DeleteHolding(ctx, userId, id); err != nil {
		if errors.Is(err, postgres.ErrHoldingNotExists) {
			return ErrHoldingNotFound
		}
		s.log.Error("failed to delete holding", "id", id, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Positions lists open positions at live prices and persists the refreshed
// valuation fields. Persistence is best effort; a failed write does not
// fail the read.
func (s *PortfolioService) Positions(ctx context.Context, userId int64) ([]models.Position, valuation.Summary, error) {
	const op = "portfolio.Positions"

	positions, err := s.positions.ListPositions(ctx, userId)
	if err != nil {
		s.log.Error("failed to list positions", "user_id", userId, "err", err)
		return nil, valuation.Summary{}, fmt.Errorf("%s: %w", op, err)
	}

	valuations := make([]valuation.Valuation, 0, len(positions))
	for i := range positions {
		s.refresh(ctx, &positions[i])
		valuations = append(valuations, valuation.Valuation{
			Investment:       positions[i].Avg.Mul(decimal.NewFromInt(positions[i].Qty)),
			CurrentValue:     positions[i].LivePrice.Mul(decimal.NewFromInt(positions[i].Qty)),
			Pnl:              positions[i].Pnl,
			PnlPercentage:    positions[i].PnlPercentage,
			DayPnl:           positions[i].DayPnl,
			DayPnlPercentage: positions[i].DayPnlPercentage,
			IsLoss:           positions[i].IsLoss,
		})
	}

	return positions, valuation.Summarize(valuations), nil
}

func (s *PortfolioService) Position(ctx context.Context, userId int64, symbol string) (models.Position, error) {
	const op = "portfolio.Position"

	position, err := s.positions.GetPosition(ctx, userId, strings.ToUpper(symbol))
	if err != nil {
		if errors.Is(err, postgres.ErrPositionNotExists) {
			return models.Position{}, ErrPositionNotFound
		}
		s.log.Error("failed to get position", "symbol", symbol, "err", err)
		return models.Position{}, fmt.Errorf("%s: %w", op, err)
	}

	s.refresh(ctx, &position)
	return position, nil
}

// SquareOffResult reports the exit order plus the realized outcome of the
// closed position.
type SquareOffResult struct {
	Order         models.Order
	AvgPrice      decimal.Decimal
	Pnl           decimal.Decimal
	PnlPercentage decimal.Decimal
}

// SquareOff closes a position by selling its full quantity through the
// regular order flow, so holdings and the ledger stay consistent with the
// exit. A positive price overrides the live quote as the exit price.
func (s *PortfolioService) SquareOff(ctx context.Context, userId int64, symbol string, price decimal.Decimal) (SquareOffResult, error) {
	const op = "portfolio.SquareOff"

	position, err := s.positions.GetPosition(ctx, userId, strings.ToUpper(symbol))
	if err != nil {
		if errors.Is(err, postgres.ErrPositionNotExists) {
			return SquareOffResult{}, ErrPositionNotFound
		}
		return SquareOffResult{}, fmt.Errorf("%s: %w", op, err)
	}

	quote := s.pricer.Quote(ctx, position.Symbol, position.LastPrice, s.positionsTTL)
	exitPrice := price
	if !exitPrice.IsPositive() {
		exitPrice = quote.Price
	}

	placed, err := s.orders.CreateOrder(ctx, userId, order.Request{
		Name:      position.Name,
		Symbol:    position.Symbol,
		Qty:       position.Qty,
		Price:     exitPrice,
		Mode:      string(models.Sell),
		OrderType: string(models.Market),
		Product:   string(position.Product),
		Exchange:  string(position.Exchange),
	})
	if err != nil {
		s.log.Error("failed to square off position", "symbol", symbol, "err", err)
		return SquareOffResult{}, err
	}

	v := valuation.Valuate(position.Qty, position.Avg, position.LastPrice, exitPrice, quote.Change)
	return SquareOffResult{
		Order:         placed,
		AvgPrice:      position.Avg,
		Pnl:           v.Pnl,
		PnlPercentage: v.PnlPercentage,
	}, nil
}

// Dashboard aggregates holdings into the account summary shown on login.
func (s *PortfolioService) Dashboard(ctx context.Context, userId int64) (valuation.Summary, decimal.Decimal, decimal.Decimal, int, error) {
	const op = "portfolio.Dashboard"

	views, summary, err := s.Holdings(ctx, userId)
	if err != nil {
		return valuation.Summary{}, decimal.Zero, decimal.Zero, 0, fmt.Errorf("%s: %w", op, err)
	}

	marginUsed := summary.CurrentValue.Mul(marginRate)
	marginAvailable := marginLimit.Sub(marginUsed)
	if marginAvailable.IsNegative() {
		marginAvailable = decimal.Zero
	}

	return summary, marginUsed, marginAvailable, len(views), nil
}

// refresh recomputes the live valuation fields from the freshest quote and
// writes them back.
func (s *PortfolioService) refresh(ctx context.Context, p *models.Position) {
	fallback := p.LivePrice
	if fallback.IsZero() {
		fallback = p.LastPrice
	}
	quote := s.pricer.Quote(ctx, p.Symbol, fallback, s.positionsTTL)

	v := valuation.Valuate(p.Qty, p.Avg, p.LastPrice, quote.Price, quote.Change)
	p.LivePrice = quote.Price
	p.Change = quote.Change
	p.ChangePercentage = quote.PercentChange
	p.Pnl = v.Pnl
	p.PnlPercentage = v.PnlPercentage
	p.DayPnl = v.DayPnl
	p.DayPnlPercentage = v.DayPnlPercentage
	p.IsLoss = v.IsLoss
	p.LastUpdated = time.Now()

	if err := s.positions.SavePositionLive(ctx, *p); err != nil {
		s.log.Warn("failed to persist live position fields", "symbol", p.Symbol, "err", err)
	}
}
