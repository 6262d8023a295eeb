package httpx

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func httpClientRT(rt http.RoundTripper) *http.Client {
	return &http.Client{Transport: rt, Timeout: 2 * time.Second}
}

func respond(r *http.Request, code int, body string) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(body)), Header: make(http.Header), Request: r}
}

func TestDo_Retry500Then200(t *testing.T) {
	var calls int
	c := &Client{HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return respond(r, 500, "err"), nil
		}
		return respond(r, 200, `[{"symbol":"AAPL"}]`), nil
	}))}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	body, err := c.Do(ctx, req)
	require.NoError(t, err)
	require.JSONEq(t, `[{"symbol":"AAPL"}]`, string(body))
	require.GreaterOrEqual(t, calls, 2)
}

type tempTimeoutErr struct{}

func (tempTimeoutErr) Error() string   { return "timeout" }
func (tempTimeoutErr) Timeout() bool   { return true }
func (tempTimeoutErr) Temporary() bool { return true }

func TestDo_RetryNetTimeoutThen200(t *testing.T) {
	var calls int
	c := &Client{HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			var ne net.Error = tempTimeoutErr{}
			return nil, ne
		}
		return respond(r, 200, `[]`), nil
	}))}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Do(ctx, req)
	require.NoError(t, err)
}

func TestDo_NoRetryOn401(t *testing.T) {
	var calls int
	c := &Client{HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return respond(r, 401, "bad key"), nil
	}))}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	_, err := c.Do(context.Background(), req)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, 401, se.Code)
	require.Equal(t, 1, calls)
}

func TestDo_BodyLimit(t *testing.T) {
	c := &Client{MaxBody: 4, HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		return respond(r, 200, `[1,2,3]`), nil
	}))}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	_, err := c.Do(context.Background(), req)
	require.ErrorContains(t, err, "exceeds 4 bytes")
}

func TestDo_BearerToken(t *testing.T) {
	var auth string
	c := &Client{Token: "secret", HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		auth = r.Header.Get("Authorization")
		return respond(r, 200, `[]`), nil
	}))}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	_, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "Bearer secret", auth)
}

func TestDo_ContextDeadlineStopsRetries(t *testing.T) {
	c := &Client{HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		return respond(r, 503, "down"), nil
	}))}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Do(ctx, req)
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}
