package application

import (
	"context"
	"time"

	"stockprices-service/internal/domain"

	"github.com/shopspring/decimal"
)

// ThrottlePolicy decides whether a new price is worth a history row: always
// for the first sighting, then only after a large enough move or interval.
type ThrottlePolicy struct {
	MinPriceDelta decimal.Decimal
	MinInterval   time.Duration
}

func (p ThrottlePolicy) ShouldRecord(lastPrice decimal.Decimal, lastAt time.Time, price decimal.Decimal, now time.Time) bool {
	if price.Sub(lastPrice).Abs().GreaterThanOrEqual(p.MinPriceDelta) {
		return true
	}
	return now.Sub(lastAt) >= p.MinInterval
}

// NoopHistoryGate never allows an append; it disables price history.
type NoopHistoryGate struct{}

func (NoopHistoryGate) Allow(context.Context, domain.Symbol, decimal.Decimal, time.Time) (bool, error) {
	return false, nil
}

func (NoopHistoryGate) Mark(context.Context, domain.Symbol, decimal.Decimal, time.Time) error {
	return nil
}
