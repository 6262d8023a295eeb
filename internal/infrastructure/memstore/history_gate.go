package memstore

import (
	"context"
	"sync"
	"time"

	"stockprices-service/internal/application"
	"stockprices-service/internal/domain"

	"github.com/shopspring/decimal"
)

var _ application.HistoryGate = (*HistoryGate)(nil)

type mark struct {
	price decimal.Decimal
	at    time.Time
}

// HistoryGate is the single-process history throttle.
type HistoryGate struct {
	policy application.ThrottlePolicy
	mu     sync.Mutex
	last   map[domain.Symbol]mark
}

func NewHistoryGate(policy application.ThrottlePolicy) *HistoryGate {
	return &HistoryGate{policy: policy, last: map[domain.Symbol]mark{}}
}

func (g *HistoryGate) Allow(_ context.Context, sym domain.Symbol, price decimal.Decimal, now time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.last[sym]
	if !ok {
		return true, nil
	}
	return g.policy.ShouldRecord(m.price, m.at, price, now), nil
}

func (g *HistoryGate) Mark(_ context.Context, sym domain.Symbol, price decimal.Decimal, now time.Time) error {
	g.mu.Lock()
	g.last[sym] = mark{price: price, at: now}
	g.mu.Unlock()
	return nil
}
