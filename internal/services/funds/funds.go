package funds

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/storage/postgres"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const historyLimit = 50

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicatePayment  = errors.New("payment already recorded")
)

type FundsService struct {
	log    slog.Logger
	ledger LedgerManager
}

type LedgerManager interface {
	LedgerBreakdown(ctx context.Context, userId int64) (map[models.LedgerType]decimal.Decimal, error)
	ListLedger(ctx context.Context, userId int64, limit int) ([]models.LedgerEntry, error)
	AppendLedger(ctx context.Context, e models.LedgerEntry) error
	Withdraw(ctx context.Context, e models.LedgerEntry) error
}

func New(log slog.Logger, ledger LedgerManager) *FundsService {
	return &FundsService{
		log:    log,
		ledger: ledger,
	}
}

// Balance is the fully derived funds state of one account. Nothing here is
// stored: every field is an aggregate over the ledger.
type Balance struct {
	TotalAdded     decimal.Decimal
	TotalWithdrawn decimal.Decimal
	TotalInvested  decimal.Decimal
	NetFunds       decimal.Decimal
	Available      decimal.Decimal
}

func balanceFrom(breakdown map[models.LedgerType]decimal.Decimal) Balance {
	added := breakdown[models.LedgerAdd]
	withdrawn := breakdown[models.LedgerWithdraw]
	invested := breakdown[models.LedgerInvestment]

	net := added.Sub(withdrawn)
	return Balance{
		TotalAdded:     added,
		TotalWithdrawn: withdrawn,
		TotalInvested:  invested,
		NetFunds:       net,
		Available:      net.Sub(invested),
	}
}

// Summary returns the derived balance plus the most recent ledger entries.
func (s *FundsService) Summary(ctx context.Context, userId int64) (Balance, []models.LedgerEntry, error) {
	const op = "funds.Summary"

	breakdown, err := s.ledger.LedgerBreakdown(ctx, userId)
	if err != nil {
		s.log.Error("failed to aggregate ledger", "user_id", userId, "err", err)
		return Balance{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	history, err := s.ledger.ListLedger(ctx, userId, historyLimit)
	if err != nil {
		s.log.Error("failed to list ledger", "user_id", userId, "err", err)
		return Balance{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	return balanceFrom(breakdown), history, nil
}

// Add credits funds to the account. A non-empty payment reference makes the
// credit idempotent: replaying the same reference is a no-op.
func (s *FundsService) Add(ctx context.Context, userId int64, amount decimal.Decimal, paymentRef, description string) (Balance, error) {
	const op = "funds.Add"

	if amount.LessThanOrEqual(decimal.Zero) {
		return Balance{}, ErrInvalidAmount
	}
	if description == "" {
		description = "Funds added"
	}

	entry := models.LedgerEntry{
		Id:          uuid.New(),
		UserId:      userId,
		Amount:      amount,
		Type:        models.LedgerAdd,
		PaymentRef:  paymentRef,
		Description: description,
		Status:      models.LedgerCompleted,
		CreatedAt:   time.Now(),
	}

	if err := s.ledger.AppendLedger(ctx, entry); err != nil {
		if errors.Is(err, postgres.ErrDuplicatePayment) {
			s.log.Info("payment already credited", "payment_ref", paymentRef)
			return s.balance(ctx, userId, op)
		}
		s.log.Error("failed to add funds", "user_id", userId, "err", err)
		return Balance{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.balance(ctx, userId, op)
}

// Withdraw debits available funds. The balance check runs inside the
// storage transaction under a per-user lock, so concurrent withdrawals
// cannot jointly overdraw the account.
func (s *FundsService) Withdraw(ctx context.Context, userId int64, amount decimal.Decimal, description string) (Balance, error) {
	const op = "funds.Withdraw"

	if amount.LessThanOrEqual(decimal.Zero) {
		return Balance{}, ErrInvalidAmount
	}
	if description == "" {
		description = "Funds withdrawn"
	}

	entry := models.LedgerEntry{
		Id:          uuid.New(),
		UserId:      userId,
		Amount:      amount,
		Type:        models.LedgerWithdraw,
		Description: description,
		Status:      models.LedgerCompleted,
		CreatedAt:   time.Now(),
	}

	if err := s.ledger.Withdraw(ctx, entry); err != nil {
		if errors.Is(err, postgres.ErrInsufficientFunds) {
			return Balance{}, ErrInsufficientFunds
		}
		s.log.Error("failed to withdraw funds", "user_id", userId, "err", err)
		return Balance{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.balance(ctx, userId, op)
}

func (s *FundsService) balance(ctx context.Context, userId int64, op string) (Balance, error) {
	breakdown, err := s.ledger.LedgerBreakdown(ctx, userId)
	if err != nil {
		s.log.Error("failed to aggregate ledger", "user_id", userId, "err", err)
		return Balance{}, fmt.Errorf("%s: %w", op, err)
	}
	return balanceFrom(breakdown), nil
}
