package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"cheltuieli/internal/core"
	"cheltuieli/internal/store"
)

type fixedRates struct{ r core.Rates }

func (f fixedRates) Rates() core.Rates { return f.r }

type recordingPublisher struct {
	mu    sync.Mutex
	calls int
	last  []float64
}

func (p *recordingPublisher) PublishSnapshotSaved(_ context.Context, _ time.Time, monthly, annual, obligation float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.last = []float64{monthly, annual, obligation}
	return nil
}

type failingStore struct {
	store.StateStore
	failSave bool
}

func (f *failingStore) Save(ctx context.Context, s *core.State) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.StateStore.Save(ctx, s)
}

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := New(context.Background(), store.NewMemoryStore(),
		fixedRates{core.DefaultRates()}, nil, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestNewRunsInitialRefresh(t *testing.T) {
	tr := newTestTracker(t)
	snap := tr.Snapshot()
	if snap.Monthly.TotalRON == 0 {
		t.Error("initial snapshot empty; seed ledger should contribute")
	}

	state, err := tr.StateView()
	if err != nil {
		t.Fatal(err)
	}
	autos := 0
	for _, e := range state.Monthly.Entries {
		if e.IsAuto() {
			autos++
		}
	}
	if autos != 4 {
		t.Errorf("auto rows = %d, want 4 after initial refresh", autos)
	}
}

func TestObligationEndToEnd(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s, _ := st.Load(ctx)
	s.Monthly = core.ServiceLedger{Entries: []core.ServiceEntry{
		{Kind: core.KindService, Name: "Rent", Cost: 1000, Currency: core.RON, Active: true},
	}}
	s.Annual = core.ServiceLedger{Entries: []core.ServiceEntry{
		{Kind: core.KindService, Name: "Insurance", Cost: 1200, Currency: core.RON, Active: true},
	}}
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	tr, err := New(ctx, st, fixedRates{core.DefaultRates()}, nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.Snapshot().Obligation; got != 1100 {
		t.Errorf("obligation = %v, want 1100", got)
	}
}

func TestLatestAdministrationWinsEndToEnd(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	if err := tr.AddAdministrationPayment(ctx, "2025-03", 500, core.RON); err != nil {
		t.Fatal(err)
	}
	if err := tr.AddAdministrationPayment(ctx, "2025-06", 350, core.RON); err != nil {
		t.Fatal(err)
	}
	if got := tr.Snapshot().Administration; got != 350 {
		t.Errorf("administration = %v, want 350 (latest period wins)", got)
	}
}

func TestProtectedRowMutationsRejected(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	state, _ := tr.StateView()
	autoIdx := -1
	for i, e := range state.Monthly.Entries {
		if e.IsAuto() {
			autoIdx = i
			break
		}
	}
	if autoIdx < 0 {
		t.Fatal("no auto row after refresh")
	}

	if err := tr.ToggleService(ctx, ScopeMonthly, autoIdx); !errors.Is(err, core.ErrProtectedRow) {
		t.Errorf("Toggle(auto) = %v, want ErrProtectedRow", err)
	}
	if err := tr.SetServiceCost(ctx, ScopeMonthly, autoIdx, 5); !errors.Is(err, core.ErrProtectedRow) {
		t.Errorf("SetCost(auto) = %v, want ErrProtectedRow", err)
	}
	if err := tr.DeleteEntry(ctx, ScopeMonthly, autoIdx); !errors.Is(err, core.ErrProtectedRow) {
		t.Errorf("Delete(auto) = %v, want ErrProtectedRow", err)
	}
}

func TestFailedSaveKeepsEdits(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	fs := &failingStore{StateStore: mem}
	tr, err := New(ctx, fs, fixedRates{core.DefaultRates()}, nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	fs.failSave = true
	if err := tr.AddUtilityPayment(ctx, "2025-01", 100, core.RON); err != nil {
		t.Fatalf("mutation must not fail on save error: %v", err)
	}
	state, _ := tr.StateView()
	if len(state.Utilities.Payments.Payments) != 1 {
		t.Fatal("edit lost after failed save")
	}

	// Next successful save carries the earlier edit.
	fs.failSave = false
	if err := tr.AddUtilityPayment(ctx, "2025-02", 200, core.RON); err != nil {
		t.Fatal(err)
	}
	persisted, _ := mem.Load(ctx)
	if len(persisted.Utilities.Payments.Payments) != 2 {
		t.Errorf("persisted payments = %d, want 2", len(persisted.Utilities.Payments.Payments))
	}
}

func TestPublisherReceivesTotals(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	tr, err := New(ctx, store.NewMemoryStore(), fixedRates{core.DefaultRates()}, pub, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.AddSupermarketPurchase(ctx, "2025-01", "Lidl", 100, core.RON); err != nil {
		t.Fatal(err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.calls < 2 {
		t.Errorf("publish calls = %d, want at least 2 (initial + mutation)", pub.calls)
	}
	snap := tr.Snapshot()
	if pub.last[2] != snap.Obligation {
		t.Errorf("published obligation = %v, want %v", pub.last[2], snap.Obligation)
	}
}

func TestLanguageSwitchRelabelsAutoRows(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)
	if err := tr.SetLanguage(ctx, "en"); err != nil {
		t.Fatal(err)
	}

	state, _ := tr.StateView()
	for _, e := range state.Monthly.Entries {
		if e.Auto == core.AutoUtilitiesAverage && e.Name != "Utilities Average" {
			t.Errorf("auto row label = %q, want English after switch", e.Name)
		}
	}
}

func TestAmendFuelAmountRejected(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)
	if err := tr.AddCarFuel(ctx, "2025-01-10", 100000, 40, 7.5, "diesel"); err != nil {
		t.Fatal(err)
	}
	state, _ := tr.StateView()
	id := state.Car.Transactions[0].ID

	if err := tr.AmendTransactionAmount(ctx, id, 999); !errors.Is(err, ErrDerivedAmount) {
		t.Errorf("amend fuel = %v, want ErrDerivedAmount", err)
	}
}

func TestDeleteTransactionSearchesBothLedgers(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)
	if err := tr.AddCarExpense(ctx, "2025-01-10", "Vignette", 28); err != nil {
		t.Fatal(err)
	}
	state, _ := tr.StateView()
	id := state.Car.Transactions[0].ID

	if err := tr.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := tr.DeleteTransaction(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestAddServiceValidation(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)
	if err := tr.AddService(ctx, ScopeMonthly, "", 10, core.RON); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name = %v, want ErrEmptyName", err)
	}
	if err := tr.AddService(ctx, Scope("weekly"), "X", 10, core.RON); !errors.Is(err, ErrUnknownScope) {
		t.Errorf("bad scope = %v, want ErrUnknownScope", err)
	}
}
