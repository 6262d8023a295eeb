package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceHistory struct {
	ID            int64
	Symbol        Symbol
	Price         decimal.Decimal
	Change        decimal.NullDecimal
	ChangePercent decimal.NullDecimal
	ObservedAt    time.Time
	InsertedAt    time.Time
}

func HistoryFromRecord(r PriceRecord) PriceHistory {
	return PriceHistory{
		Symbol:        r.Symbol,
		Price:         r.Price,
		Change:        r.Change,
		ChangePercent: r.ChangePercent,
		ObservedAt:    r.ObservedAt,
	}
}
