package provider

import (
	"context"

	"stockprices-service/internal/application"
)

var _ application.ExternalPriceSource = (*Fake)(nil)

// Fake serves a fixed body; used for local runs without Supabase credentials.
type Fake struct {
	body []byte
}

const fakeBody = `[{"symbol":"AAPL","price":"189.20","change":"1.10","changePercent":"0.58","timestamp":"2025-01-01T10:00:00Z"}]`

func NewFake(body string) *Fake {
	if body == "" {
		body = fakeBody
	}
	return &Fake{body: []byte(body)}
}

func (f *Fake) Fetch(context.Context) ([]byte, error) {
	return append([]byte(nil), f.body...), nil
}
