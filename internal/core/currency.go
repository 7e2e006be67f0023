// Package core holds the domain model of the tracker: currencies and
// exchange rates, service ledgers, meter readings, transactions, and the
// synchronization logic that derives the automatic monthly rows.
//
// Everything in this package is pure in-memory computation. Exchange
// rates are always passed in as parameters; persistence and rate
// retrieval live behind collaborators in other packages.
package core

import "math"

// Currency is an ISO-style currency code. RON is the reference currency:
// every cross-category total is expressed in it.
type Currency string

const (
	RON Currency = "RON"
	EUR Currency = "EUR"
	USD Currency = "USD"
)

// Rates is an exchange-rate table against RON. The RON rate is implicitly 1.
type Rates struct {
	EUR float64 `json:"eur"`
	USD float64 `json:"usd"`
}

// DefaultRates returns the hardcoded fallback table used when no feed
// data is available.
func DefaultRates() Rates {
	return Rates{EUR: 5.08, USD: 4.40}
}

// Rate returns the RON multiplier for a currency. Unrecognized codes
// convert 1:1, same as RON; a missing rate is never an error.
func (r Rates) Rate(c Currency) float64 {
	switch c {
	case EUR:
		return r.EUR
	case USD:
		return r.USD
	default:
		return 1
	}
}

// ToReference converts an amount in the given currency to RON.
func ToReference(amount float64, c Currency, r Rates) float64 {
	return sanitizeAmount(amount) * r.Rate(c)
}

// sanitizeAmount coerces non-finite values to 0. Bad numeric input is
// tolerated everywhere in this package rather than propagated as errors;
// rejecting it is a concern of the input layer.
func sanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// round2 rounds to two decimals, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
