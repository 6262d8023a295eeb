package worker

import (
	"context"
	"sync"

	"stockprices-service/internal/application"

	"go.uber.org/zap"
)

var _ application.Worker = (*ConsumerPool)(nil)

// ConsumerPool runs several group members in one process. Each member owns
// its reader, so Kafka spreads partitions across them.
type ConsumerPool struct {
	Members []*KafkaConsumer
	Log     *zap.Logger
}

// NewConsumerPool builds n members. newReader is called once per member and
// again whenever a member rejoins after a redelivery give-up.
func NewConsumerPool(n int, newReader func() FeedReader, handler MessageHandler, policy StoragePolicy, opts ...func(*KafkaConsumer)) *ConsumerPool {
	if n <= 0 {
		n = 1
	}
	p := &ConsumerPool{Log: zap.NewNop()}
	for i := 0; i < n; i++ {
		c := &KafkaConsumer{Reader: newReader(), NewReader: newReader, Handler: handler, Policy: policy}
		for _, o := range opts {
			o(c)
		}
		p.Members = append(p.Members, c)
	}
	return p
}

// Start blocks until ctx is done and every member has returned.
func (p *ConsumerPool) Start(ctx context.Context) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	var wg sync.WaitGroup
	for i, c := range p.Members {
		if c.Log == nil {
			c.Log = log.With(zap.Int("member", i))
		}
		wg.Add(1)
		go func(c *KafkaConsumer) {
			defer wg.Done()
			c.Start(ctx)
		}(c)
	}
	wg.Wait()
	log.Info("consumer_pool.stopped", zap.Int("members", len(p.Members)))
}
