package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"cheltuieli/internal/core"
	"cheltuieli/internal/rates"
	"cheltuieli/internal/store"
	"cheltuieli/internal/tracker"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tr, err := tracker.New(context.Background(), store.NewMemoryStore(),
		rates.NewProvider(""), nil, slog.Default())
	if err != nil {
		t.Fatalf("tracker.New: %v", err)
	}
	return NewServer(":0", tr, rates.NewProvider(""), slog.Default())
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSummaryHasObligation(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Monthly.TotalRON == 0 {
		t.Error("summary monthly total is 0; seed data missing")
	}
}

func TestAddPaymentUpdatesSummary(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/utilities/payments",
		map[string]any{"period": "2025-01", "amount": 120, "currency": "RON"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.UtilitiesAverage != 120 {
		t.Errorf("utilities average = %v, want 120", snap.UtilitiesAverage)
	}
}

func TestLenientNumericInput(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/utilities/payments",
		map[string]any{"period": "2025-01", "amount": "not a number", "currency": "RON"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (bad numbers coerce to 0)", rec.Code)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.UtilitiesAverage != 0 {
		t.Errorf("utilities average = %v, want 0", snap.UtilitiesAverage)
	}
}

func TestProtectedRowReturnsConflict(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/state", nil)
	var state core.State
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	autoIdx := -1
	for i, e := range state.Monthly.Entries {
		if e.IsAuto() {
			autoIdx = i
			break
		}
	}
	if autoIdx < 0 {
		t.Fatal("no auto row in state")
	}

	rec = doJSON(t, s, http.MethodPost,
		fmt.Sprintf("/api/ledgers/monthly/entries/%d/toggle", autoIdx), nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestUnknownEntryReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodDelete, "/api/ledgers/monthly/entries/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUnknownScopeReturnsBadRequest(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/ledgers/weekly/services",
		map[string]any{"name": "X", "cost": 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCarFuelFlow(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []map[string]any{
		{"date": "2025-01-10", "odometer": 100000, "liters": 40, "price_per_liter": 7.5, "fuel_type": "diesel"},
		{"date": "2025-02-10", "odometer": 100600, "liters": 40, "price_per_liter": 7.5, "fuel_type": "diesel"},
	} {
		rec := doJSON(t, s, http.MethodPost, "/api/car/fuel", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/api/summary", nil)
	var snap core.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.FuelEconomy) != 2 {
		t.Fatalf("fuel economy points = %d, want 2", len(snap.FuelEconomy))
	}
	if !snap.FuelEconomy[1].Valid || snap.FuelEconomy[1].PricePerKm != 0.5 {
		t.Errorf("point 1 = %+v, want valid 0.5", snap.FuelEconomy[1])
	}
}

func TestAmendFuelAmountConflicts(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/car/fuel",
		map[string]any{"date": "2025-01-10", "odometer": 1, "liters": 40, "price_per_liter": 7.5})
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}
	var snap core.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	id := snap.FuelEconomy[0].TransactionID

	rec = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/transactions/%d", id),
		map[string]any{"amount": 999})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestSetManualRates(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPut, "/api/rates", map[string]any{"eur": 6, "usd": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/rates", nil)
	var resp struct {
		Rates core.Rates `json:"rates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Rates.EUR != 6 || resp.Rates.USD != 5 {
		t.Errorf("rates = %+v, want EUR 6 USD 5", resp.Rates)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t)
	var last int
	for i := 0; i < requestsPerMinute+5; i++ {
		rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, want 429", last)
	}
}

func TestMalformedBodyReturnsBadRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/utilities/payments",
		bytes.NewBufferString(`{broken`))
	req.RemoteAddr = "10.0.0.2:1"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
