package worker

import (
	"context"
	"errors"
	"io"
	"time"

	"stockprices-service/internal/application"
	"stockprices-service/internal/domain"
	infraconfig "stockprices-service/internal/infrastructure/config"
	"stockprices-service/internal/infrastructure/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var _ application.Worker = (*KafkaConsumer)(nil)

// StoragePolicy decides what happens to a message whose write failed.
type StoragePolicy string

const (
	// PolicyRedeliver retries the write. When the retry window runs out the
	// offset stays uncommitted and the member rejoins after a pause, so the
	// message comes back from the group's committed offset.
	PolicyRedeliver StoragePolicy = "redeliver"
	// PolicyDrop logs the failure and commits past the message.
	PolicyDrop StoragePolicy = "drop"
)

// ParseStoragePolicy maps a config value to a policy; unknown values
// fall back to PolicyRedeliver.
func ParseStoragePolicy(s string) StoragePolicy {
	if StoragePolicy(s) == PolicyDrop {
		return PolicyDrop
	}
	return PolicyRedeliver
}

// FeedReader is the subset of *kafka.Reader the consumer needs.
type FeedReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageHandler applies one feed payload. *application.Ingestor satisfies it.
type MessageHandler interface {
	Handle(ctx context.Context, payload []byte) (domain.PriceRecord, error)
}

// KafkaConsumer is one member of the stock-group consumer group. Offsets are
// committed only after a message reached a terminal outcome. Start returns
// only once ctx is done.
type KafkaConsumer struct {
	Reader FeedReader
	// NewReader replaces Reader after a redelivery give-up. Without it the
	// member keeps retrying the same message on the current reader.
	NewReader func() FeedReader
	Handler   MessageHandler
	Policy    StoragePolicy
	RetryMax  time.Duration
	Log       *zap.Logger

	// retryInitial is the first storage retry delay.
	retryInitial time.Duration
	rejoinPause  time.Duration
}

// WithRetryMax bounds each storage retry window under PolicyRedeliver.
func WithRetryMax(d time.Duration) func(*KafkaConsumer) {
	return func(c *KafkaConsumer) { c.RetryMax = d }
}

type step int

const (
	stepNext step = iota
	stepRedeliver
	stepStop
)

// NewKafkaReader builds a group member reader. CommitInterval stays zero, so
// CommitMessages commits synchronously.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    infraconfig.DefaultKafkaMinBytes,
		MaxBytes:    infraconfig.DefaultKafkaMaxBytes,
		MaxWait:     infraconfig.DefaultKafkaMaxWait,
		StartOffset: kafka.FirstOffset,
	})
}

func (c *KafkaConsumer) Start(ctx context.Context) {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	if c.RetryMax <= 0 {
		c.RetryMax = infraconfig.DefaultStorageRetryMax
	}
	if c.retryInitial <= 0 {
		c.retryInitial = 100 * time.Millisecond
	}
	if c.rejoinPause <= 0 {
		c.rejoinPause = infraconfig.DefaultRejoinPause
	}
	defer func() {
		if err := c.Reader.Close(); err != nil {
			log.Warn("consumer.close_failed", zap.Error(err))
		}
	}()

	log.Info("consumer.started", zap.String("policy", string(c.Policy)))
	for {
		m, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				log.Info("consumer.stopped")
				return
			}
			log.Warn("consumer.fetch_failed", zap.Error(err))
			select {
			case <-ctx.Done():
				log.Info("consumer.stopped")
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if !c.apply(ctx, log, m) {
			log.Info("consumer.stopped")
			return
		}
	}
}

// apply drives m to a terminal outcome or to a rejoin, and reports whether
// the member should keep consuming.
func (c *KafkaConsumer) apply(ctx context.Context, log *zap.Logger, m kafka.Message) bool {
	for {
		switch c.process(ctx, log, m) {
		case stepNext:
			return true
		case stepStop:
			return false
		}
		if !c.rejoin(ctx, log) {
			return false
		}
		if c.NewReader != nil {
			// the fresh reader fetches m again from the committed offset
			return true
		}
	}
}

// rejoin waits out the pause and swaps in a fresh reader when one can be
// built. It reports false when ctx ended first.
func (c *KafkaConsumer) rejoin(ctx context.Context, log *zap.Logger) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.rejoinPause):
	}
	if c.NewReader == nil {
		return true
	}
	if err := c.Reader.Close(); err != nil {
		log.Warn("consumer.close_failed", zap.Error(err))
	}
	c.Reader = c.NewReader()
	log.Info("consumer.rejoined")
	return true
}

// process handles one message. Only stepNext commits its offset.
func (c *KafkaConsumer) process(ctx context.Context, log *zap.Logger, m kafka.Message) step {
	log = log.With(zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset))

	rec, err := c.Handler.Handle(ctx, m.Value)
	switch {
	case err == nil:
		metrics.IngestOutcome(metrics.OutcomeOK)
		log.Info("ingest.upserted",
			zap.String("symbol", string(rec.Symbol)),
			zap.String("price", rec.Price.String()),
			zap.Time("observed_at", rec.ObservedAt),
		)
	case errors.Is(err, application.ErrMalformedMessage):
		metrics.IngestOutcome(metrics.OutcomeMalformed)
		log.Warn("ingest.malformed_dropped", zap.Error(err))
	case errors.Is(err, application.ErrRecordRejected):
		metrics.IngestOutcome(metrics.OutcomeRejected)
		log.Error("ingest.rejected_dropped", zap.String("symbol", string(rec.Symbol)), zap.Error(err))
	case c.Policy == PolicyDrop:
		metrics.IngestOutcome(metrics.OutcomeStorageDropped)
		log.Error("ingest.storage_failed_dropped", zap.String("symbol", string(rec.Symbol)), zap.Error(err))
	default:
		err := c.retry(ctx, log, m)
		switch {
		case err == nil:
			metrics.IngestOutcome(metrics.OutcomeOK)
			log.Info("ingest.upserted_after_retry", zap.String("symbol", string(rec.Symbol)))
		case ctx.Err() != nil:
			return stepStop
		case errors.Is(err, application.ErrRecordRejected), errors.Is(err, application.ErrMalformedMessage):
			metrics.IngestOutcome(metrics.OutcomeRejected)
			log.Error("ingest.rejected_dropped", zap.String("symbol", string(rec.Symbol)), zap.Error(err))
		default:
			metrics.IngestOutcome(metrics.OutcomeStorageRedeliver)
			log.Error("ingest.storage_failed_redeliver",
				zap.String("symbol", string(rec.Symbol)),
				zap.Duration("rejoin_in", c.rejoinPause),
				zap.Error(err),
			)
			return stepRedeliver
		}
	}

	if err := c.Reader.CommitMessages(ctx, m); err != nil {
		if ctx.Err() != nil {
			return stepStop
		}
		// uncommitted messages come back after a rebalance and apply idempotently
		log.Warn("consumer.commit_failed", zap.Error(err))
	}
	return stepNext
}

func (c *KafkaConsumer) retry(ctx context.Context, log *zap.Logger, m kafka.Message) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryInitial
	exp.MaxInterval = 5 * time.Second
	exp.MaxElapsedTime = c.RetryMax

	op := func() error {
		_, err := c.Handler.Handle(ctx, m.Value)
		if err != nil && !errors.Is(err, application.ErrStorage) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		metrics.IngestOutcome(metrics.OutcomeStorageRetry)
		log.Warn("ingest.storage_retry", zap.Error(err), zap.Duration("next", next))
	}
	return backoff.RetryNotify(op, backoff.WithContext(exp, ctx), notify)
}
