package domain

import "errors"

var (
	ErrEmptySymbol   = errors.New("empty symbol")
	ErrInvalidSymbol = errors.New("symbol contains control characters")
	ErrMissingPrice  = errors.New("missing price")
	ErrMissingTime   = errors.New("missing timestamp")
	ErrTimeRange     = errors.New("timestamp outside years 1..9999")
	ErrDecimalRange  = errors.New("decimal outside storable range")
)
