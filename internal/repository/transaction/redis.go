package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/finrag/internal/db"
	"github.com/kailas-cloud/finrag/internal/domain"
)

// kvStore is the consumer interface for the Redis-backed store (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// RedisStore keeps the full transaction set as one JSON array under a
// single key. The data set is small (personal finance scale), so a blob
// read is cheaper than per-record keys.
type RedisStore struct {
	kv  kvStore
	key string
}

// NewRedisStore creates a Redis-backed transaction store.
func NewRedisStore(kv kvStore, key string) *RedisStore {
	return &RedisStore{kv: kv, key: key}
}

// All returns every stored transaction. A missing key means no data yet.
func (s *RedisStore) All(ctx context.Context) ([]domain.Transaction, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("transactions GET %s: %w: %v", s.key, domain.ErrSourceUnavailable, err)
	}

	var records []domain.Transaction
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("transactions unmarshal: %w", err)
	}
	return records, nil
}

// Replace overwrites the stored transaction set.
func (s *RedisStore) Replace(ctx context.Context, records []domain.Transaction) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("transactions marshal: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("transactions SET %s: %w", s.key, err)
	}
	return nil
}

// Append loads the current set, appends the new records and writes back.
func (s *RedisStore) Append(ctx context.Context, records []domain.Transaction) error {
	current, err := s.All(ctx)
	if err != nil {
		return err
	}
	return s.Replace(ctx, append(current, records...))
}
