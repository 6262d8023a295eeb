package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"stockprices-service/internal/application"
	"stockprices-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var _ application.HistoryGate = (*HistoryGate)(nil)

const keyPrefix = "history:last:"

// HistoryGate keeps the last recorded price per symbol in Redis so every
// member of the consumer group throttles against the same marks. A mark
// expires after the policy interval, which by itself re-opens the gate.
type HistoryGate struct {
	Client *redis.Client
	Policy application.ThrottlePolicy
}

func NewHistoryGate(client *redis.Client, policy application.ThrottlePolicy) *HistoryGate {
	return &HistoryGate{Client: client, Policy: policy}
}

func key(sym domain.Symbol) string { return keyPrefix + string(sym) }

func (g *HistoryGate) Allow(ctx context.Context, sym domain.Symbol, price decimal.Decimal, now time.Time) (bool, error) {
	vals, err := g.Client.HGetAll(ctx, key(sym)).Result()
	if err != nil {
		return false, err
	}
	if len(vals) == 0 {
		return true, nil
	}
	lastPrice, err := decimal.NewFromString(vals["price"])
	if err != nil {
		return true, fmt.Errorf("history gate: bad price mark for %s: %w", sym, err)
	}
	atNanos, err := strconv.ParseInt(vals["at"], 10, 64)
	if err != nil {
		return true, fmt.Errorf("history gate: bad time mark for %s: %w", sym, err)
	}
	return g.Policy.ShouldRecord(lastPrice, time.Unix(0, atNanos), price, now), nil
}

func (g *HistoryGate) Mark(ctx context.Context, sym domain.Symbol, price decimal.Decimal, now time.Time) error {
	if g.Policy.MinInterval <= 0 {
		return errors.New("history gate: non-positive interval")
	}
	k := key(sym)
	_, err := g.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, "price", price.String(), "at", strconv.FormatInt(now.UnixNano(), 10))
		pipe.Expire(ctx, k, g.Policy.MinInterval)
		return nil
	})
	return err
}
