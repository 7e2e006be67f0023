package core

import "testing"

func TestAverageRON(t *testing.T) {
	var l PaymentLedger
	if got := l.AverageRON(DefaultRates()); got != 0 {
		t.Errorf("empty ledger average = %v, want 0", got)
	}

	l.Add("2025-01", 100, RON)
	l.Add("2025-02", 10, EUR)
	got := l.AverageRON(Rates{EUR: 5, USD: 4})
	if got != 75 {
		t.Errorf("average = %v, want 75", got)
	}
}

func TestLatestRONPicksMaxPeriod(t *testing.T) {
	var l PaymentLedger
	l.Add("2025-06", 350, RON)
	l.Add("2025-03", 500, RON) // recorded later, but older period

	if got := l.LatestRON(DefaultRates()); got != 350 {
		t.Errorf("latest = %v, want 350", got)
	}
}

func TestLatestRONTieGoesToLaterRecord(t *testing.T) {
	var l PaymentLedger
	l.Add("2025-06", 350, RON)
	l.Add("2025-06", 420, RON)

	if got := l.LatestRON(DefaultRates()); got != 420 {
		t.Errorf("latest = %v, want 420 (later record wins the tie)", got)
	}
}

func TestLatestRONEmpty(t *testing.T) {
	var l PaymentLedger
	if got := l.LatestRON(DefaultRates()); got != 0 {
		t.Errorf("empty ledger latest = %v, want 0", got)
	}
}

func TestPaymentDelete(t *testing.T) {
	var l PaymentLedger
	p := l.Add("2025-01", 100, RON)
	if !l.Delete(p.ID) {
		t.Fatal("Delete returned false for existing payment")
	}
	if l.Delete(p.ID) {
		t.Error("Delete returned true twice for the same ID")
	}
}
