package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockprices-service/internal/application"
	"stockprices-service/internal/infrastructure/httpx"
	"stockprices-service/internal/infrastructure/logx"
	"stockprices-service/internal/infrastructure/metrics"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var _ application.ExternalPriceSource = (*SupabaseSource)(nil)

// ErrNotArray is returned when the upstream body is not a JSON array.
var ErrNotArray = errors.New("supabase: response is not a JSON array")

type SupabaseConfig struct {
	BaseURL    string
	APIKey     string
	Table      string
	RatePerSec float64
	Burst      int
	HTTP       *http.Client
}

// SupabaseSource reads the price table through the Supabase REST API. Calls
// are rate limited and pass through a circuit breaker so a dead upstream
// fails fast instead of holding request goroutines.
type SupabaseSource struct {
	endpoint string
	apiKey   string
	client   *httpx.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
}

func NewSupabaseSource(cfg SupabaseConfig) (*SupabaseSource, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, errors.New("supabase: missing configuration")
	}
	if cfg.Table == "" {
		cfg.Table = "stock_market"
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("supabase: invalid base url: %w", err)
	}
	u.Path += "/rest/v1/" + cfg.Table
	u.RawQuery = url.Values{"select": {"*"}}.Encode()

	limit := rate.Limit(cfg.RatePerSec)
	if cfg.RatePerSec <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &SupabaseSource{
		endpoint: u.String(),
		apiKey:   cfg.APIKey,
		client:   &httpx.Client{HTTP: cfg.HTTP, Token: cfg.APIKey},
		limiter:  rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "supabase",
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				// a caller walking away says nothing about upstream health; a
				// deadline does, since a hanging upstream surfaces as one
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.BreakerState(name, int(to))
				logx.L().Warn("upstream.breaker_state",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}, nil
}

// Fetch returns the raw table rows as a JSON array.
func (s *SupabaseSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		metrics.UpstreamResult("rate_limited")
		return nil, fmt.Errorf("supabase: rate limit: %w", err)
	}
	out, err := s.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Accept", "application/json")
		body, err := s.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
			return nil, ErrNotArray
		}
		return body, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.UpstreamResult("breaker_open")
		default:
			metrics.UpstreamResult("error")
		}
		return nil, fmt.Errorf("supabase: %w", err)
	}
	metrics.UpstreamResult("ok")
	return out.([]byte), nil
}
