package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"stockprices-service/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	// epochMillisThreshold separates epoch seconds from epoch milliseconds.
	epochMillisThreshold = 1e12
	// maxEpochMillis is 9999-12-31T23:59:59.999Z.
	maxEpochMillis = 253402300799999

	maxIntegerDigits  = 1000
	maxFractionDigits = 1000
)

type feedMessage struct {
	Symbol        string              `json:"symbol"`
	Price         *decimal.Decimal    `json:"price"`
	Change        decimal.NullDecimal `json:"change"`
	ChangePercent decimal.NullDecimal `json:"changePercent"`
	Timestamp     json.RawMessage     `json:"timestamp"`
}

// DecodeFeedMessage maps a feed payload to a PriceRecord. Decimals may be JSON
// strings or numbers; the timestamp may be an ISO-8601 string or epoch
// seconds/milliseconds. Every failure wraps ErrMalformedMessage.
func DecodeFeedMessage(payload []byte) (domain.PriceRecord, error) {
	var m feedMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return domain.PriceRecord{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	sym, err := domain.NormalizeSymbol(m.Symbol)
	if err != nil {
		return domain.PriceRecord{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if m.Price == nil {
		return domain.PriceRecord{}, fmt.Errorf("%w: %s: %w", ErrMalformedMessage, sym, domain.ErrMissingPrice)
	}
	for _, d := range []decimal.NullDecimal{{Decimal: *m.Price, Valid: true}, m.Change, m.ChangePercent} {
		if d.Valid && !decimalInRange(d.Decimal) {
			return domain.PriceRecord{}, fmt.Errorf("%w: %s: %w", ErrMalformedMessage, sym, domain.ErrDecimalRange)
		}
	}
	at, err := parseTimestamp(m.Timestamp)
	if err != nil {
		return domain.PriceRecord{}, fmt.Errorf("%w: %s: %w", ErrMalformedMessage, sym, err)
	}
	if y := at.Year(); y < 1 || y > 9999 {
		return domain.PriceRecord{}, fmt.Errorf("%w: %s: %w", ErrMalformedMessage, sym, domain.ErrTimeRange)
	}
	return domain.PriceRecord{
		Symbol:        sym,
		Price:         *m.Price,
		Change:        m.Change,
		ChangePercent: m.ChangePercent,
		ObservedAt:    at,
	}, nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, domain.ErrMissingTime
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("timestamp: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, domain.ErrMissingTime
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC(), nil
		}
		return parseEpoch(s)
	}
	return parseEpoch(string(raw))
}

func parseEpoch(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return time.Time{}, fmt.Errorf("timestamp: unsupported value %q", s)
	}
	if f > maxEpochMillis {
		return time.Time{}, domain.ErrTimeRange
	}
	if f >= epochMillisThreshold {
		return time.UnixMilli(int64(f)).UTC(), nil
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}

// decimalInRange bounds the digits on both sides of the decimal point, so a
// value like 1e200000 never reaches a NUMERIC column.
func decimalInRange(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp < 0 {
		return -exp <= maxFractionDigits && d.NumDigits()+exp <= maxIntegerDigits
	}
	return d.NumDigits()+exp <= maxIntegerDigits
}
