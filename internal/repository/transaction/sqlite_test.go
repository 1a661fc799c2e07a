package transaction

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/finrag/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteReplaceAndAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	records := []domain.Transaction{
		{Date: "2025-01-05", Name: "Whole Foods", Amount: -82.40, Category: "Groceries", NecessityScore: 0.9},
		{Date: "2025-01-09", Name: "Shell", Amount: -40.00, Category: "Gas"},
		{Date: "2025-01-07", Name: "Netflix", Amount: -15.49, Category: "Entertainment"},
	}
	if err := s.Replace(ctx, records); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}

	// Newest first.
	wantOrder := []string{"Shell", "Netflix", "Whole Foods"}
	for i, want := range wantOrder {
		if got[i].Name != want {
			t.Errorf("record %d: name = %q, want %q", i, got[i].Name, want)
		}
	}
	if got[2].NecessityScore != 0.9 {
		t.Errorf("necessity score not round-tripped: %v", got[2].NecessityScore)
	}
}

func TestSQLiteReplaceOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Replace(ctx, []domain.Transaction{
		{Date: "2025-01-01", Name: "Old", Amount: -1, Category: "Other"},
	}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := s.Replace(ctx, []domain.Transaction{
		{Date: "2025-02-01", Name: "New", Amount: -2, Category: "Other"},
	}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 1 || got[0].Name != "New" {
		t.Fatalf("expected only the new record, got %+v", got)
	}
}

func TestSQLiteAppend(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, []domain.Transaction{
		{Date: "2025-01-01", Name: "A", Amount: -1, Category: "Other"},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, []domain.Transaction{
		{Date: "2025-01-02", Name: "B", Amount: -2, Category: "Other"},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
}

func TestSQLiteEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty store, got %d records", len(got))
	}
}
