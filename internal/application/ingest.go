package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockprices-service/internal/domain"

	"go.uber.org/zap"
)

// Ingestor turns one feed payload into a store upsert plus an optional
// history row. It is safe to call concurrently and safe to call again with
// the same payload: the upsert replaces by symbol and history rows are unique
// per (symbol, observed_at).
type Ingestor struct {
	store   PriceStore
	history PriceHistoryRepo
	gate    HistoryGate
	uow     UnitOfWork
	clock   Clock
	log     *zap.Logger
}

type IngestOption func(*Ingestor)

func WithIngestClock(c Clock) IngestOption        { return func(i *Ingestor) { i.clock = c } }
func WithIngestLogger(l *zap.Logger) IngestOption { return func(i *Ingestor) { i.log = l } }

func NewIngestor(store PriceStore, history PriceHistoryRepo, gate HistoryGate, uow UnitOfWork, opts ...IngestOption) *Ingestor {
	i := &Ingestor{store: store, history: history, gate: gate, uow: uow}
	for _, opt := range opts {
		opt(i)
	}
	if i.gate == nil {
		i.gate = NoopHistoryGate{}
	}
	if i.uow == nil {
		i.uow = NoopUoW{}
	}
	if i.clock == nil {
		i.clock = realClock{}
	}
	if i.log == nil {
		i.log = zap.NewNop()
	}
	return i
}

// Handle decodes payload and applies it. Errors wrap ErrMalformedMessage,
// ErrRecordRejected or ErrStorage; the decoded record is returned whenever
// decoding succeeded.
func (i *Ingestor) Handle(ctx context.Context, payload []byte) (domain.PriceRecord, error) {
	rec, err := DecodeFeedMessage(payload)
	if err != nil {
		return domain.PriceRecord{}, err
	}

	now := i.clock.Now()
	record := i.shouldRecord(ctx, rec, now)

	err = i.uow.Do(ctx, func(ctx context.Context) error {
		if err := i.store.Upsert(ctx, rec); err != nil {
			return err
		}
		if record {
			return i.history.AppendHistory(ctx, domain.HistoryFromRecord(rec))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStorage) || errors.Is(err, ErrRecordRejected) {
			return rec, err
		}
		return rec, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if record {
		if err := i.gate.Mark(ctx, rec.Symbol, rec.Price, now); err != nil {
			i.log.Warn("history_gate.mark_failed", zap.String("symbol", string(rec.Symbol)), zap.Error(err))
		}
	}
	return rec, nil
}

func (i *Ingestor) shouldRecord(ctx context.Context, rec domain.PriceRecord, now time.Time) bool {
	if i.history == nil {
		return false
	}
	ok, err := i.gate.Allow(ctx, rec.Symbol, rec.Price, now)
	if err != nil {
		// an unreachable gate counts as allow
		i.log.Warn("history_gate.allow_failed", zap.String("symbol", string(rec.Symbol)), zap.Error(err))
		return true
	}
	return ok
}
