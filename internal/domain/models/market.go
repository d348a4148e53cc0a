package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is one live price point from the quote provider. Fallback marks a
// synthetic quote built from a stored price when the provider and cache
// both missed; it is never cached itself.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	PercentChange decimal.Decimal `json:"percent_change"`
	Fallback      bool            `json:"-"`
}

// SymbolMatch is one hit from the provider's symbol search.
type SymbolMatch struct {
	Symbol   string
	Name     string
	Region   string
	Currency string
}

type WatchlistItem struct {
	Id            uuid.UUID
	UserId        int64
	Name          string
	Symbol        string
	FallbackPrice decimal.Decimal
}
