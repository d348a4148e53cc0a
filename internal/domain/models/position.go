package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position is an open per-product position. Unlike a holding it carries
// live valuation fields that are recomputed and persisted on each read.
// Deleted when qty reaches zero.
type Position struct {
	Id               uuid.UUID
	UserId           int64
	Product          Product
	Name             string
	Symbol           string
	Qty              int64
	Avg              decimal.Decimal
	LastPrice        decimal.Decimal
	Exchange         StockExchange
	Instrument       Instrument
	LivePrice        decimal.Decimal
	Change           decimal.Decimal
	ChangePercentage decimal.Decimal
	Pnl              decimal.Decimal
	PnlPercentage    decimal.Decimal
	DayPnl           decimal.Decimal
	DayPnlPercentage decimal.Decimal
	IsLoss           bool
	LastUpdated      time.Time
	CreatedAt        time.Time
}
