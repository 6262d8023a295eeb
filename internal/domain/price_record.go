package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Symbol string

// PriceRecord is the latest known quote for a symbol. Change and ChangePercent
// are populated by the publisher and are NULL when a message omits them.
type PriceRecord struct {
	Symbol        Symbol
	Price         decimal.Decimal
	Change        decimal.NullDecimal
	ChangePercent decimal.NullDecimal
	ObservedAt    time.Time
}

// Equal reports whether both records carry the same values field by field.
func (r PriceRecord) Equal(o PriceRecord) bool {
	return r.Symbol == o.Symbol &&
		r.Price.Equal(o.Price) &&
		nullEqual(r.Change, o.Change) &&
		nullEqual(r.ChangePercent, o.ChangePercent) &&
		r.ObservedAt.Equal(o.ObservedAt)
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
