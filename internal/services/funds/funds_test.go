package funds

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/storage/postgres"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	entries []models.LedgerEntry
}

func (f *fakeLedger) LedgerBreakdown(_ context.Context, userId int64) (map[models.LedgerType]decimal.Decimal, error) {
	out := map[models.LedgerType]decimal.Decimal{
		models.LedgerAdd:        decimal.Zero,
		models.LedgerWithdraw:   decimal.Zero,
		models.LedgerInvestment: decimal.Zero,
	}
	for _, e := range f.entries {
		if e.UserId == userId && e.Status == models.LedgerCompleted {
			out[e.Type] = out[e.Type].Add(e.Amount)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListLedger(_ context.Context, userId int64, limit int) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].UserId == userId {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeLedger) AppendLedger(_ context.Context, e models.LedgerEntry) error {
	if e.PaymentRef != "" {
		for _, existing := range f.entries {
			if existing.PaymentRef == e.PaymentRef {
				return postgres.ErrDuplicatePayment
			}
		}
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLedger) Withdraw(ctx context.Context, e models.LedgerEntry) error {
	breakdown, _ := f.LedgerBreakdown(ctx, e.UserId)
	available := breakdown[models.LedgerAdd].
		Sub(breakdown[models.LedgerWithdraw]).
		Sub(breakdown[models.LedgerInvestment])
	if e.Amount.GreaterThan(available) {
		return postgres.ErrInsufficientFunds
	}
	f.entries = append(f.entries, e)
	return nil
}

func newService(ledger *fakeLedger) *FundsService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(*log, ledger)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddAndSummary(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newService(ledger)
	ctx := context.Background()

	balance, err := svc.Add(ctx, 1, d("5000"), "", "")
	require.NoError(t, err)
	assert.True(t, balance.Available.Equal(d("5000")))

	summary, history, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.True(t, summary.TotalAdded.Equal(d("5000")))
	assert.True(t, summary.NetFunds.Equal(d("5000")))
	assert.Len(t, history, 1)
}

func TestBalanceIdentity(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newService(ledger)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, d("10000"), "", "")
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, 1, d("2500"), "")
	require.NoError(t, err)
	ledger.entries = append(ledger.entries, models.LedgerEntry{
		UserId: 1, Amount: d("3000"),
		Type: models.LedgerInvestment, Status: models.LedgerCompleted,
	})

	balance, _, err := svc.Summary(ctx, 1)
	require.NoError(t, err)

	// available = add − withdraw − investment
	assert.True(t, balance.NetFunds.Equal(d("7500")))
	assert.True(t, balance.Available.Equal(d("4500")))
}

func TestWithdraw_Overdraw(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newService(ledger)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, d("100"), "", "")
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, 1, d("100.01"), "")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Len(t, ledger.entries, 1)
}

func TestAdd_Validation(t *testing.T) {
	svc := newService(&fakeLedger{})
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, d("0"), "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Withdraw(ctx, 1, d("-5"), "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAdd_DuplicatePaymentIsIdempotent(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newService(ledger)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, d("500"), "pi_42", "Stripe deposit")
	require.NoError(t, err)
	balance, err := svc.Add(ctx, 1, d("500"), "pi_42", "Stripe deposit")
	require.NoError(t, err)

	assert.True(t, balance.Available.Equal(d("500")))
	assert.Len(t, ledger.entries, 1)
}

func TestPendingEntriesExcludedFromBalance(t *testing.T) {
	ledger := &fakeLedger{}
	ledger.entries = append(ledger.entries, models.LedgerEntry{
		UserId: 1, Amount: d("999"),
		Type: models.LedgerAdd, Status: models.LedgerPending,
	})
	svc := newService(ledger)

	balance, _, err := svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, balance.Available.IsZero())
}
