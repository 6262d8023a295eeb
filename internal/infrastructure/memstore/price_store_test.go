package memstore_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"stockprices-service/internal/application"
	"stockprices-service/internal/domain"
	"stockprices-service/internal/infrastructure/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func rec(sym string, price int64) domain.PriceRecord {
	return domain.PriceRecord{Symbol: domain.Symbol(sym), Price: decimal.NewFromInt(price), ObservedAt: at}
}

func TestUpsert_Idempotent(t *testing.T) {
	s := memstore.NewPriceStore(4)
	ctx := context.Background()
	r := rec("AAPL", 150)
	r.Change = decimal.NewNullDecimal(decimal.NewFromInt(2))

	require.NoError(t, s.Upsert(ctx, r))
	once, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, r))
	twice, err := s.GetAll(ctx)
	require.NoError(t, err)

	require.Len(t, twice, 1)
	require.True(t, once[0].Equal(twice[0]))
}

func TestUpsert_ReplaceNotMerge(t *testing.T) {
	s := memstore.NewPriceStore(4)
	ctx := context.Background()
	first := rec("AAPL", 150)
	first.ChangePercent = decimal.NewNullDecimal(decimal.NewFromInt(3))
	second := rec("AAPL", 151)
	second.Change = decimal.NewNullDecimal(decimal.NewFromInt(1))

	require.NoError(t, s.Upsert(ctx, first))
	require.NoError(t, s.Upsert(ctx, second))

	got, err := s.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.True(t, got.Equal(second))
	require.False(t, got.ChangePercent.Valid)
}

func TestGetBySymbol_NotFound(t *testing.T) {
	s := memstore.NewPriceStore(0)
	_, err := s.GetBySymbol(context.Background(), "NOPE")
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestUpsert_ConcurrentDistinctKeys(t *testing.T) {
	s := memstore.NewPriceStore(8)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Upsert(ctx, rec(fmt.Sprintf("S%03d", i), int64(i))))
		}(i)
	}
	wg.Wait()

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 64)
	for i := 0; i < 64; i++ {
		got, err := s.GetBySymbol(ctx, domain.Symbol(fmt.Sprintf("S%03d", i)))
		require.NoError(t, err)
		require.True(t, got.Price.Equal(decimal.NewFromInt(int64(i))))
	}
}

func TestUpsert_ConcurrentSameKeyNeverTorn(t *testing.T) {
	s := memstore.NewPriceStore(8)
	ctx := context.Background()
	a := domain.PriceRecord{
		Symbol:        "AAA",
		Price:         decimal.NewFromInt(1),
		Change:        decimal.NewNullDecimal(decimal.NewFromInt(10)),
		ChangePercent: decimal.NewNullDecimal(decimal.NewFromInt(100)),
		ObservedAt:    at,
	}
	b := domain.PriceRecord{
		Symbol:        "AAA",
		Price:         decimal.NewFromInt(2),
		Change:        decimal.NewNullDecimal(decimal.NewFromInt(20)),
		ChangePercent: decimal.NewNullDecimal(decimal.NewFromInt(200)),
		ObservedAt:    at.Add(time.Second),
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	torn := make(chan domain.PriceRecord, 1)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			all, _ := s.GetAll(ctx)
			for _, r := range all {
				if !r.Equal(a) && !r.Equal(b) {
					select {
					case torn <- r:
					default:
					}
				}
			}
		}
	}()
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _ = s.Upsert(ctx, a) }()
		go func() { defer wg.Done(); _ = s.Upsert(ctx, b) }()
	}
	wg.Wait()
	close(stop)

	select {
	case r := <-torn:
		t.Fatalf("observed mixed record: %+v", r)
	default:
	}
	got, err := s.GetBySymbol(ctx, "AAA")
	require.NoError(t, err)
	require.True(t, got.Equal(a) || got.Equal(b))
}
