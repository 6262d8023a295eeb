package application

import (
	"context"
	"time"

	"stockprices-service/internal/domain"

	"github.com/shopspring/decimal"
)

// PriceStore keeps the latest record per symbol. Upsert replaces the whole
// record atomically; readers never observe a partially written record.
type PriceStore interface {
	Upsert(ctx context.Context, r domain.PriceRecord) error
	GetAll(ctx context.Context) ([]domain.PriceRecord, error)
	GetBySymbol(ctx context.Context, symbol domain.Symbol) (domain.PriceRecord, error)
}

type PriceHistoryRepo interface {
	AppendHistory(ctx context.Context, h domain.PriceHistory) error
	// ListHistory returns at most limit entries, newest first.
	ListHistory(ctx context.Context, symbol domain.Symbol, limit int) ([]domain.PriceHistory, error)
}

// HistoryGate throttles history appends per symbol.
type HistoryGate interface {
	Allow(ctx context.Context, symbol domain.Symbol, price decimal.Decimal, now time.Time) (bool, error)
	Mark(ctx context.Context, symbol domain.Symbol, price decimal.Decimal, now time.Time) error
}

// ExternalPriceSource reads the current price set from a third-party API.
// The returned body is passed to clients unmodified.
type ExternalPriceSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}
