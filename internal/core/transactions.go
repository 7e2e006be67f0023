package core

import (
	"sort"
	"time"
)

// TransactionKind separates the two spend ledgers that share this model.
type TransactionKind string

const (
	KindSupermarket TransactionKind = "supermarket"
	KindCar         TransactionKind = "car"
)

// CarSubKind splits car transactions into fuel fill-ups and everything
// else (service, parts, taxes).
type CarSubKind string

const (
	CarFuel  CarSubKind = "fuel"
	CarOther CarSubKind = "other"
)

// Transaction is one spend record. Supermarket rows use Period, Vendor,
// Amount, Currency; car rows use Date and the fuel fields, with Period
// derived from the date when absent.
type Transaction struct {
	ID            int64           `json:"id"`
	Kind          TransactionKind `json:"kind"`
	Sub           CarSubKind      `json:"sub,omitempty"`
	Period        string          `json:"period,omitempty"`
	Date          string          `json:"date,omitempty"`
	Vendor        string          `json:"vendor,omitempty"`
	Label         string          `json:"label,omitempty"`
	Amount        float64         `json:"amount"`
	Currency      Currency        `json:"currency"`
	Odometer      float64         `json:"odometer,omitempty"`
	Liters        float64         `json:"liters,omitempty"`
	PricePerLiter float64         `json:"price_per_liter,omitempty"`
	FuelType      string          `json:"fuel_type,omitempty"`
}

// period returns the aggregation period, falling back to the date's
// YYYY-MM prefix.
func (t Transaction) period() string {
	if t.Period != "" {
		return t.Period
	}
	if len(t.Date) >= 7 {
		return t.Date[:7]
	}
	return ""
}

// TransactionLedger is an append-ordered transaction list with monotonic
// millisecond-timestamp IDs.
type TransactionLedger struct {
	Transactions []Transaction `json:"transactions"`

	lastID int64
}

// nextID hands out UnixMilli-based IDs, bumped past the previous one
// when two inserts land in the same millisecond.
func (l *TransactionLedger) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

// syncLastID re-seeds the ID counter after loading persisted data, so
// new IDs stay above every existing one.
func (l *TransactionLedger) syncLastID() {
	for _, t := range l.Transactions {
		if t.ID > l.lastID {
			l.lastID = t.ID
		}
	}
}

// AddSupermarket records a supermarket purchase.
func (l *TransactionLedger) AddSupermarket(period, vendor string, amount float64, c Currency) Transaction {
	t := Transaction{
		ID:       l.nextID(),
		Kind:     KindSupermarket,
		Period:   period,
		Vendor:   vendor,
		Amount:   sanitizeAmount(amount),
		Currency: c,
	}
	l.Transactions = append(l.Transactions, t)
	return t
}

// AddCarFuel records a fill-up. The amount is always liters times price
// per liter; a user-entered total is never accepted.
func (l *TransactionLedger) AddCarFuel(date string, odometer, liters, pricePerLiter float64, fuelType string) Transaction {
	liters = sanitizeAmount(liters)
	pricePerLiter = sanitizeAmount(pricePerLiter)
	t := Transaction{
		ID:            l.nextID(),
		Kind:          KindCar,
		Sub:           CarFuel,
		Date:          date,
		Odometer:      sanitizeAmount(odometer),
		Liters:        liters,
		PricePerLiter: pricePerLiter,
		FuelType:      fuelType,
		Amount:        liters * pricePerLiter,
		Currency:      RON,
	}
	l.Transactions = append(l.Transactions, t)
	return t
}

// AddCarOther records a non-fuel car expense.
func (l *TransactionLedger) AddCarOther(date, label string, amount float64) Transaction {
	t := Transaction{
		ID:       l.nextID(),
		Kind:     KindCar,
		Sub:      CarOther,
		Date:     date,
		Label:    label,
		Amount:   sanitizeAmount(amount),
		Currency: RON,
	}
	l.Transactions = append(l.Transactions, t)
	return t
}

// SetAmount updates the amount of the transaction with the given ID.
// Fuel amounts stay derived: liters and price are untouched, so the
// caller should not use this on fuel rows.
func (l *TransactionLedger) SetAmount(id int64, amount float64) bool {
	for i := range l.Transactions {
		if l.Transactions[i].ID == id {
			l.Transactions[i].Amount = sanitizeAmount(amount)
			return true
		}
	}
	return false
}

// Delete removes the transaction with the given ID.
func (l *TransactionLedger) Delete(id int64) bool {
	for i := range l.Transactions {
		if l.Transactions[i].ID == id {
			l.Transactions = append(l.Transactions[:i], l.Transactions[i+1:]...)
			return true
		}
	}
	return false
}

// MonthlyTotals sums transactions per period in RON. Rows with no
// resolvable period are skipped.
func (l *TransactionLedger) MonthlyTotals(rates Rates) map[string]float64 {
	totals := map[string]float64{}
	for _, t := range l.Transactions {
		p := t.period()
		if p == "" {
			continue
		}
		totals[p] += ToReference(t.Amount, t.Currency, rates)
	}
	return totals
}

// AverageOfMonthlyTotals is the mean of the per-period sums, not the
// mean of individual transactions. Returns 0 when no period has data.
func (l *TransactionLedger) AverageOfMonthlyTotals(rates Rates) float64 {
	totals := l.MonthlyTotals(rates)
	if len(totals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range totals {
		sum += v
	}
	return sum / float64(len(totals))
}

// FuelPoint is the cost-per-kilometer figure between two consecutive
// fill-ups. Valid is false when the odometer delta is not positive.
type FuelPoint struct {
	TransactionID int64   `json:"transaction_id"`
	Date          string  `json:"date"`
	PricePerKm    float64 `json:"price_per_km"`
	Valid         bool    `json:"valid"`
}

// FuelEconomy derives price-per-km over date-sorted fuel fill-ups. The
// first fill-up and any with a non-positive odometer delta carry no
// figure.
func (l *TransactionLedger) FuelEconomy() []FuelPoint {
	var fuel []Transaction
	for _, t := range l.Transactions {
		if t.Kind == KindCar && t.Sub == CarFuel {
			fuel = append(fuel, t)
		}
	}
	sort.SliceStable(fuel, func(i, j int) bool { return fuel[i].Date < fuel[j].Date })

	points := make([]FuelPoint, 0, len(fuel))
	for i, t := range fuel {
		p := FuelPoint{TransactionID: t.ID, Date: t.Date}
		if i > 0 {
			if delta := t.Odometer - fuel[i-1].Odometer; delta > 0 {
				p.PricePerKm = t.Amount / delta
				p.Valid = true
			}
		}
		points = append(points, p)
	}
	return points
}
