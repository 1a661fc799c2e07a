package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/finrag/internal/db"
	"github.com/kailas-cloud/finrag/internal/domain"
)

type mockKV struct {
	data map[string][]byte
	err  error
}

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) Set(_ context.Context, key string, value []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}

func TestRedisStoreRoundTrip(t *testing.T) {
	kv := &mockKV{}
	s := NewRedisStore(kv, "finrag:transactions")
	ctx := context.Background()

	records := []domain.Transaction{
		{Date: "2025-01-05", Name: "Whole Foods", Amount: -82.40, Category: "Groceries"},
		{Date: "2025-01-07", Name: "Netflix", Amount: -15.49, Category: "Entertainment"},
	}
	if err := s.Replace(ctx, records); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Whole Foods" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestRedisStoreMissingKey(t *testing.T) {
	s := NewRedisStore(&mockKV{}, "finrag:transactions")

	got, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("missing key should not be an error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing key, got %+v", got)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	s := NewRedisStore(&mockKV{err: errors.New("connection refused")}, "finrag:transactions")

	_, err := s.All(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestRedisStoreAppend(t *testing.T) {
	kv := &mockKV{}
	s := NewRedisStore(kv, "k")
	ctx := context.Background()

	if err := s.Append(ctx, []domain.Transaction{{Date: "2025-01-01", Name: "A", Amount: -1}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, []domain.Transaction{{Date: "2025-01-02", Name: "B", Amount: -2}}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var stored []domain.Transaction
	if err := json.Unmarshal(kv.data["k"], &stored); err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored records, got %d", len(stored))
	}
}
