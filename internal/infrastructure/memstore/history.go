package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"stockprices-service/internal/application"
	"stockprices-service/internal/domain"
)

var _ application.PriceHistoryRepo = (*HistoryRepo)(nil)

type historyKey struct {
	symbol domain.Symbol
	at     int64
}

// HistoryRepo keeps appended history rows in memory, one per (symbol, observed_at).
// Rows per symbol stay sorted by ObservedAt, so late arrivals list in feed
// time order like the postgres repo.
type HistoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[domain.Symbol][]domain.PriceHistory
	seen   map[historyKey]struct{}
}

func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{
		rows: map[domain.Symbol][]domain.PriceHistory{},
		seen: map[historyKey]struct{}{},
	}
}

func (r *HistoryRepo) AppendHistory(_ context.Context, h domain.PriceHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := historyKey{symbol: h.Symbol, at: h.ObservedAt.UnixNano()}
	if _, dup := r.seen[k]; dup {
		return nil
	}
	r.seen[k] = struct{}{}
	r.nextID++
	h.ID = r.nextID
	h.InsertedAt = time.Now().UTC()
	rows := r.rows[h.Symbol]
	i := sort.Search(len(rows), func(j int) bool { return rows[j].ObservedAt.After(h.ObservedAt) })
	r.rows[h.Symbol] = slices.Insert(rows, i, h)
	return nil
}

func (r *HistoryRepo) ListHistory(_ context.Context, sym domain.Symbol, limit int) ([]domain.PriceHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.rows[sym]
	if limit <= 0 {
		return []domain.PriceHistory{}, nil
	}
	out := make([]domain.PriceHistory, 0, min(limit, len(rows)))
	for i := len(rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}
