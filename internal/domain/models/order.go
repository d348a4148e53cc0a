package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderMode string

const (
	Buy  OrderMode = "BUY"
	Sell OrderMode = "SELL"
)

type OrderType string

const (
	Market         OrderType = "MARKET"
	Limit          OrderType = "LIMIT"
	StopLoss       OrderType = "SL"
	StopLossMarket OrderType = "SL-M"
)

type Product string

const (
	MIS  Product = "MIS"
	CNC  Product = "CNC"
	NRML Product = "NRML"
)

// Settlement is decided once at order validation time: CNC settles by
// delivery and touches holdings, everything else stays intraday.
type Settlement string

const (
	Delivery Settlement = "DELIVERY"
	Intraday Settlement = "INTRADAY"
)

type StockExchange string

const (
	NSE StockExchange = "NSE"
	BSE StockExchange = "BSE"
)

type OrderStatus string

const (
	Pending   OrderStatus = "PENDING"
	Completed OrderStatus = "COMPLETED"
	Cancelled OrderStatus = "CANCELLED"
	Failed    OrderStatus = "FAILED"
)

type Order struct {
	Id          uuid.UUID
	OrderRef    string
	UserId      int64
	Name        string
	Symbol      string
	Qty         int64
	Price       decimal.Decimal
	Mode        OrderMode
	OrderType   OrderType
	Product     Product
	Exchange    StockExchange
	TotalAmount decimal.Decimal
	Status      OrderStatus
	PaymentRef  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderFilter narrows order listings; zero values mean "no filter".
type OrderFilter struct {
	Symbol string
	Status OrderStatus
	Mode   OrderMode
	Page   int
	Limit  int
}

// OrderBooking is the complete set of writes produced by reconciling one
// order: the order row itself plus the holding, position and ledger
// mutations that must land atomically with it. Nil pointers mean the
// collection is untouched; the Remove flags turn the carried row into a
// delete instead of an upsert.
type OrderBooking struct {
	Order          Order
	Holding        *Holding
	RemoveHolding  bool
	Position       *Position
	RemovePosition bool
	Ledger         *LedgerEntry
}
