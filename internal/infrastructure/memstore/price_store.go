package memstore

import (
	"context"
	"hash/fnv"
	"sync"

	"stockprices-service/internal/application"
	"stockprices-service/internal/domain"
	infraconfig "stockprices-service/internal/infrastructure/config"
)

var _ application.PriceStore = (*PriceStore)(nil)

type shard struct {
	mu      sync.RWMutex
	records map[domain.Symbol]domain.PriceRecord
}

// PriceStore is an in-memory record store. Symbols hash onto shards so writes
// to unrelated symbols do not contend; a record is replaced as one value under
// its shard lock, so readers see either the old or the new record.
type PriceStore struct {
	shards []*shard
}

func NewPriceStore(shards int) *PriceStore {
	if shards <= 0 {
		shards = infraconfig.DefaultStoreShards
	}
	s := &PriceStore{shards: make([]*shard, shards)}
	for i := range s.shards {
		s.shards[i] = &shard{records: map[domain.Symbol]domain.PriceRecord{}}
	}
	return s
}

func (s *PriceStore) shardFor(sym domain.Symbol) *shard {
	h := fnv.New32a()
	h.Write([]byte(sym))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *PriceStore) Upsert(ctx context.Context, r domain.PriceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sh := s.shardFor(r.Symbol)
	sh.mu.Lock()
	sh.records[r.Symbol] = r
	sh.mu.Unlock()
	return nil
}

func (s *PriceStore) GetAll(ctx context.Context) ([]domain.PriceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.PriceRecord, 0)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, r := range sh.records {
			out = append(out, r)
		}
		sh.mu.RUnlock()
	}
	return out, nil
}

func (s *PriceStore) GetBySymbol(ctx context.Context, sym domain.Symbol) (domain.PriceRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.PriceRecord{}, err
	}
	sh := s.shardFor(sym)
	sh.mu.RLock()
	r, ok := sh.records[sym]
	sh.mu.RUnlock()
	if !ok {
		return domain.PriceRecord{}, application.ErrNotFound
	}
	return r, nil
}

func (s *PriceStore) Ping(context.Context) error { return nil }
