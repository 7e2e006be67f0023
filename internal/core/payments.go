package core

import "github.com/google/uuid"

// Payment is one recorded bill payment (utilities or administration).
type Payment struct {
	ID       string   `json:"id"`
	Period   string   `json:"period"`
	Amount   float64  `json:"amount"`
	Currency Currency `json:"currency"`
}

// PaymentLedger is an append-ordered list of payments. Multiple payments
// per period are allowed.
type PaymentLedger struct {
	Payments []Payment `json:"payments"`
}

// Add appends a payment and returns it.
func (l *PaymentLedger) Add(period string, amount float64, c Currency) Payment {
	p := Payment{ID: uuid.NewString(), Period: period, Amount: sanitizeAmount(amount), Currency: c}
	l.Payments = append(l.Payments, p)
	return p
}

// Delete removes the payment with the given ID.
func (l *PaymentLedger) Delete(id string) bool {
	for i := range l.Payments {
		if l.Payments[i].ID == id {
			l.Payments = append(l.Payments[:i], l.Payments[i+1:]...)
			return true
		}
	}
	return false
}

// AverageRON is the mean of all payments converted to RON, 0 when the
// ledger is empty.
func (l *PaymentLedger) AverageRON(rates Rates) float64 {
	if len(l.Payments) == 0 {
		return 0
	}
	var sum float64
	for _, p := range l.Payments {
		sum += ToReference(p.Amount, p.Currency, rates)
	}
	return sum / float64(len(l.Payments))
}

// LatestRON is the most recent payment converted to RON, picked by
// lexicographic-max period. Among equal periods the later-recorded
// payment wins. Returns 0 when the ledger is empty.
func (l *PaymentLedger) LatestRON(rates Rates) float64 {
	best := -1
	for i, p := range l.Payments {
		if best < 0 || p.Period >= l.Payments[best].Period {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	p := l.Payments[best]
	return ToReference(p.Amount, p.Currency, rates)
}
