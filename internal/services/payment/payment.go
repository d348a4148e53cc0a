package payment

import (
	"Brokerage/internal/services/funds"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

var (
	ErrAmountTooSmall = errors.New("amount must be at least 1.00")
	ErrIntentNotFound = errors.New("payment intent not found")
)

var minorUnits = decimal.NewFromInt(100)

type PaymentService struct {
	log      slog.Logger
	intents  IntentClient
	funds    FundsCrediter
	currency string
}

// IntentClient is the slice of the Stripe payment-intent API we use.
type IntentClient interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type FundsCrediter interface {
	Add(ctx context.Context, userId int64, amount decimal.Decimal, paymentRef, description string) (funds.Balance, error)
}

func New(log slog.Logger, intents IntentClient, funds FundsCrediter, currency string) *PaymentService {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &PaymentService{
		log:      log,
		intents:  intents,
		funds:    funds,
		currency: currency,
	}
}

// Intent is the subset of a Stripe payment intent the client needs to
// drive the checkout flow.
type Intent struct {
	Id           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Status       string
}

// CreateIntent opens a Stripe payment intent for the given major-unit
// amount. Stripe bills in minor units, so the amount is scaled by 100 and
// must come to at least one whole unit.
func (s *PaymentService) CreateIntent(ctx context.Context, userId int64, amount decimal.Decimal) (Intent, error) {
	const op = "payment.CreateIntent"

	minor := amount.Mul(minorUnits).IntPart()
	if minor < 100 {
		return Intent{}, ErrAmountTooSmall
	}

	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("user_id", strconv.FormatInt(userId, 10))

	intent, err := s.intents.New(params)
	if err != nil {
		s.log.Error("failed to create payment intent", "user_id", userId, "err", err)
		return Intent{}, fmt.Errorf("%s: %w", op, err)
	}

	return fromStripe(intent), nil
}

// ConfirmIntent checks the intent's status with Stripe and, on success,
// credits the paid amount to the user's funds. The credit is keyed on the
// intent id, so confirming the same intent twice cannot double-credit.
func (s *PaymentService) ConfirmIntent(ctx context.Context, userId int64, intentId string) (Intent, error) {
	const op = "payment.ConfirmIntent"

	intent, err := s.intents.Get(intentId, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return Intent{}, ErrIntentNotFound
		}
		s.log.Error("failed to fetch payment intent", "intent_id", intentId, "err", err)
		return Intent{}, fmt.Errorf("%s: %w", op, err)
	}

	result := fromStripe(intent)
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		s.log.Info("payment intent not settled", "intent_id", intentId, "status", intent.Status)
		return result, nil
	}

	amount := decimal.NewFromInt(intent.Amount).Div(minorUnits)
	if _, err := s.funds.Add(ctx, userId, amount, intent.ID, "Funds added via Stripe"); err != nil {
		s.log.Error("failed to credit confirmed payment", "intent_id", intentId, "err", err)
		return Intent{}, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func fromStripe(intent *stripe.PaymentIntent) Intent {
	return Intent{
		Id:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       decimal.NewFromInt(intent.Amount).Div(minorUnits),
		Currency:     string(intent.Currency),
		Status:       string(intent.Status),
	}
}
