package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	infraconfig "stockprices-service/internal/infrastructure/config"

	"github.com/cenkalti/backoff/v4"
)

// StatusError reports a non-200 upstream response.
type StatusError struct{ Code int }

func (e *StatusError) Error() string { return fmt.Sprintf("upstream status %d", e.Code) }

type Client struct {
	HTTP    *http.Client
	Token   string
	MaxBody int64
}

// Do sends req and returns the response body. Transport errors and 5xx are
// retried with backoff until ctx expires; other non-200 statuses fail at once.
func (c *Client) Do(ctx context.Context, req *http.Request) ([]byte, error) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.HTTP == nil {
		c.HTTP = http.DefaultClient
	}
	limit := c.MaxBody
	if limit <= 0 {
		limit = infraconfig.MaxUpstreamBodyBytes
	}
	req = req.WithContext(ctx)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 1 * time.Second
	exp.MaxElapsedTime = 3 * time.Second

	var body []byte
	op := func() error {
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, limit))
			return &StatusError{Code: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(&StatusError{Code: resp.StatusCode})
		}
		b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
		if err != nil {
			return err
		}
		if int64(len(b)) > limit {
			return backoff.Permanent(fmt.Errorf("upstream body exceeds %d bytes", limit))
		}
		body = b
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(exp, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
