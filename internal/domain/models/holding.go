package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Instrument string

const (
	Equity     Instrument = "EQUITY"
	Derivative Instrument = "DERIVATIVE"
	MutualFund Instrument = "MF"
)

// Holding is the delivery-settled aggregate long position per symbol.
// Avg is the volume-weighted average cost, recomputed on BUY only and
// kept at full precision; rounding happens at the response boundary.
// A holding whose qty reaches zero is deleted, never persisted.
type Holding struct {
	Id         uuid.UUID
	UserId     int64
	Name       string
	Symbol     string
	Qty        int64
	Avg        decimal.Decimal
	LastPrice  decimal.Decimal
	Exchange   StockExchange
	Instrument Instrument
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
