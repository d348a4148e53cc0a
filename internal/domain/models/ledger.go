package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LedgerType string

const (
	LedgerAdd        LedgerType = "add"
	LedgerWithdraw   LedgerType = "withdraw"
	LedgerInvestment LedgerType = "investment"
)

type LedgerStatus string

const (
	LedgerPending   LedgerStatus = "pending"
	LedgerCompleted LedgerStatus = "completed"
	LedgerFailed    LedgerStatus = "failed"
)

// LedgerEntry is one append-only cash movement. Amounts are always
// non-negative; the type decides the sign in aggregation:
// net funds = Σadd − Σwithdraw, available = net − Σinvestment.
type LedgerEntry struct {
	Id          uuid.UUID
	UserId      int64
	Amount      decimal.Decimal
	Type        LedgerType
	PaymentRef  string
	Description string
	Status      LedgerStatus
	CreatedAt   time.Time
}
