package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"stockprices-service/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrRepo = errors.New("repo error")
)

type fakePriceStore struct {
	mu    sync.Mutex
	store map[domain.Symbol]domain.PriceRecord
	err   error
}

func (f *fakePriceStore) Upsert(_ context.Context, r domain.PriceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.store == nil {
		f.store = map[domain.Symbol]domain.PriceRecord{}
	}
	f.store[r.Symbol] = r
	return nil
}

func (f *fakePriceStore) GetAll(context.Context) ([]domain.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.PriceRecord, 0, len(f.store))
	for _, r := range f.store {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakePriceStore) GetBySymbol(_ context.Context, s domain.Symbol) (domain.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.PriceRecord{}, f.err
	}
	r, ok := f.store[s]
	if !ok {
		return domain.PriceRecord{}, ErrNotFound
	}
	return r, nil
}

type fakeHistory struct {
	mu   sync.Mutex
	rows []domain.PriceHistory
	err  error
}

func (f *fakeHistory) AppendHistory(_ context.Context, h domain.PriceHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, h)
	return nil
}

func (f *fakeHistory) ListHistory(_ context.Context, s domain.Symbol, limit int) ([]domain.PriceHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PriceHistory
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].Symbol == s {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

type fakeGate struct {
	allow   bool
	err     error
	marked  []domain.Symbol
	lastNow time.Time
}

func (g *fakeGate) Allow(context.Context, domain.Symbol, decimal.Decimal, time.Time) (bool, error) {
	return g.allow, g.err
}

func (g *fakeGate) Mark(_ context.Context, s domain.Symbol, _ decimal.Decimal, now time.Time) error {
	g.marked = append(g.marked, s)
	g.lastNow = now
	return nil
}

type fakeSource struct {
	body []byte
	err  error
	ctx  context.Context
}

func (f *fakeSource) Fetch(ctx context.Context) ([]byte, error) {
	f.ctx = ctx
	return f.body, f.err
}

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

type recordingUoW struct{ calls int }

func (u *recordingUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	u.calls++
	return fn(ctx)
}
