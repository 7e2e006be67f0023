package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"cheltuieli/internal/core"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	s, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Monthly.Entries) == 0 {
		t.Fatal("first Load did not seed defaults")
	}

	s.Utilities.Payments.Add("2025-01", 100, core.RON)
	if err := m.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	back, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(back.Utilities.Payments.Payments) != 1 {
		t.Errorf("payments = %d, want 1", len(back.Utilities.Payments.Payments))
	}
}

func TestMemoryStoreCorruptDocResets(t *testing.T) {
	m := NewMemoryStore()
	m.doc = []byte(`{not json`)

	s, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Monthly.Entries) == 0 {
		t.Error("corrupt doc did not reset to seeded state")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cheltuieli.db")

	st, err := NewSQLiteStore(path, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	s, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Daily.AddSupermarket("2025-01", "Lidl", 120, core.RON)
	s.Administration.CostPerM3 = 12.5
	s.Language = "en"
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	back, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(back.Daily.Transactions) != 1 {
		t.Errorf("transactions = %d, want 1", len(back.Daily.Transactions))
	}
	if back.Administration.CostPerM3 != 12.5 {
		t.Errorf("CostPerM3 = %v, want 12.5", back.Administration.CostPerM3)
	}
	if back.Language != "en" {
		t.Errorf("language = %q, want en", back.Language)
	}
}

func TestSQLiteStoreEmptyDatabaseSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cheltuieli.db")
	st, err := NewSQLiteStore(path, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	s, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Monthly.Entries) == 0 || len(s.Annual.Entries) == 0 {
		t.Error("empty database did not seed defaults")
	}
}

func TestSQLiteStoreCorruptDocResets(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cheltuieli.db")
	st, err := NewSQLiteStore(path, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	s, _ := st.Load(ctx)
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := st.db.ExecContext(ctx,
		`UPDATE snapshots SET doc = '{broken' WHERE name = 'monthly'`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	back, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load after corruption: %v", err)
	}
	if len(back.Monthly.Entries) == 0 {
		t.Error("corrupt document did not reset to seeded state")
	}

	var n int
	if err := st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("snapshots rows = %d, want 0 after wipe", n)
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cheltuieli.db")

	st, err := NewSQLiteStore(path, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	s, _ := st.Load(ctx)
	s.Utilities.Electricity.Upsert("2025-01", 100)
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st.Close()

	st2, err := NewSQLiteStore(path, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	back, err := st2.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if len(back.Utilities.Electricity.Readings) != 1 {
		t.Errorf("readings = %d, want 1", len(back.Utilities.Electricity.Readings))
	}
}
