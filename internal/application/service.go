package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockprices-service/internal/domain"
	infraconfig "stockprices-service/internal/infrastructure/config"

	"go.uber.org/zap"
)

// EmptyExternalBody is served when the external API cannot be read.
var EmptyExternalBody = json.RawMessage("[]")

// ExternalPrices is the result of the proxy read path. Degraded is set when
// Body is the empty fallback rather than an upstream response.
type ExternalPrices struct {
	Body     json.RawMessage
	Degraded bool
}

type StockService struct {
	store           PriceStore
	history         PriceHistoryRepo
	external        ExternalPriceSource
	upstreamTimeout time.Duration
	log             *zap.Logger
}

type Option func(*StockService)

func WithUpstreamTimeout(d time.Duration) Option { return func(s *StockService) { s.upstreamTimeout = d } }
func WithLogger(l *zap.Logger) Option            { return func(s *StockService) { s.log = l } }

func NewStockService(store PriceStore, history PriceHistoryRepo, external ExternalPriceSource, opts ...Option) *StockService {
	s := &StockService{
		store:    store,
		history:  history,
		external: external,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.upstreamTimeout <= 0 {
		s.upstreamTimeout = infraconfig.DefaultUpstreamTimeout
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// ListCurrentPrices returns the full current record set in no particular order.
func (s *StockService) ListCurrentPrices(ctx context.Context) ([]domain.PriceRecord, error) {
	return s.store.GetAll(ctx)
}

func (s *StockService) GetCurrentPrice(ctx context.Context, symbol string) (domain.PriceRecord, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return domain.PriceRecord{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.store.GetBySymbol(ctx, sym)
}

func (s *StockService) ListPriceHistory(ctx context.Context, symbol string, limit int) ([]domain.PriceHistory, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if s.history == nil {
		return []domain.PriceHistory{}, nil
	}
	switch {
	case limit <= 0:
		limit = infraconfig.DefaultHistoryLimit
	case limit > infraconfig.MaxHistoryLimit:
		limit = infraconfig.MaxHistoryLimit
	}
	return s.history.ListHistory(ctx, sym, limit)
}

// FetchExternalPrices proxies the external price API. It never fails: any
// transport, upstream or timeout error yields the empty fallback body.
func (s *StockService) FetchExternalPrices(ctx context.Context) ExternalPrices {
	if s.external == nil {
		s.log.Warn("upstream.not_configured")
		return ExternalPrices{Body: EmptyExternalBody, Degraded: true}
	}
	ctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	body, err := s.external.Fetch(ctx)
	if err != nil {
		s.log.Warn("upstream.degraded", zap.Error(fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)))
		return ExternalPrices{Body: EmptyExternalBody, Degraded: true}
	}
	return ExternalPrices{Body: body}
}
