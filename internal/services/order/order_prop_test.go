package order

import (
	"Brokerage/internal/domain/models"
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

type trade struct {
	buy bool
	qty int64
	px  int64
}

func genTrade() gopter.Gen {
	return gopter.CombineGens(
		gen.Bool(),
		gen.Int64Range(1, 50),
		gen.Int64Range(1, 1000),
	).Map(func(vs []interface{}) trade {
		return trade{buy: vs[0].(bool), qty: vs[1].(int64), px: vs[2].(int64)}
	})
}

// Replaying any trade sequence must keep the holding quantity equal to
// accepted buys minus accepted sells, and the cost basis non-negative.
func TestProp_HoldingQtyMatchesAcceptedTrades(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200

	properties := gopter.NewProperties(params)

	properties.Property("qty = Σbuys − Σaccepted sells", prop.ForAll(
		func(trades []trade) bool {
			store := newFakeStore()
			svc := newService(store)
			ctx := context.Background()

			var expected int64
			for _, tr := range trades {
				mode := "SELL"
				if tr.buy {
					mode = "BUY"
				}
				_, err := svc.CreateOrder(ctx, 1, Request{
					Name: "Apple Inc", Symbol: "AAPL",
					Qty: tr.qty, Price: decimal.NewFromInt(tr.px),
					Mode: mode, Product: "CNC",
				})
				if err == nil {
					if tr.buy {
						expected += tr.qty
					} else {
						expected -= tr.qty
					}
				} else if tr.buy {
					return false // buys never fail
				}
			}

			h, ok := store.holdings["AAPL"]
			if expected == 0 {
				return !ok
			}
			return ok && h.Qty == expected && !h.Avg.IsNegative()
		},
		gen.SliceOf(genTrade()),
	))

	properties.Property("avg stays within traded price bounds", prop.ForAll(
		func(trades []trade) bool {
			store := newFakeStore()
			svc := newService(store)
			ctx := context.Background()

			lo, hi := int64(1<<62), int64(0)
			for _, tr := range trades {
				_, err := svc.CreateOrder(ctx, 1, Request{
					Name: "Apple Inc", Symbol: "AAPL",
					Qty: tr.qty, Price: decimal.NewFromInt(tr.px),
					Mode: "BUY", Product: "CNC",
				})
				if err != nil {
					return false
				}
				if tr.px < lo {
					lo = tr.px
				}
				if tr.px > hi {
					hi = tr.px
				}
			}
			if len(trades) == 0 {
				return true
			}

			h := store.holdings["AAPL"]
			return h.Avg.GreaterThanOrEqual(decimal.NewFromInt(lo)) &&
				h.Avg.LessThanOrEqual(decimal.NewFromInt(hi))
		},
		gen.SliceOf(genTrade()),
	))

	properties.TestingRun(t)
}

// Amounts in the ledger follow the trade notional exactly: every accepted
// order appends one completed entry worth qty*price rounded to cents.
func TestProp_LedgerMirrorsAcceptedOrders(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100

	properties := gopter.NewProperties(params)

	properties.Property("one completed ledger entry per accepted order", prop.ForAll(
		func(trades []trade) bool {
			store := newFakeStore()
			svc := newService(store)
			ctx := context.Background()

			accepted := 0
			want := decimal.Zero
			for _, tr := range trades {
				mode := "SELL"
				if tr.buy {
					mode = "BUY"
				}
				o, err := svc.CreateOrder(ctx, 1, Request{
					Name: "Apple Inc", Symbol: "AAPL",
					Qty: tr.qty, Price: decimal.NewFromInt(tr.px),
					Mode: mode, Product: "CNC",
				})
				if err != nil {
					continue
				}
				accepted++
				if tr.buy {
					want = want.Sub(o.TotalAmount)
				} else {
					want = want.Add(o.TotalAmount)
				}
			}

			if len(store.ledger) != accepted {
				return false
			}
			for _, e := range store.ledger {
				if e.Status != models.LedgerCompleted {
					return false
				}
			}
			return store.available().Equal(want)
		},
		gen.SliceOf(genTrade()),
	))

	properties.TestingRun(t)
}
