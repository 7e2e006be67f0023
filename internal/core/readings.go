package core

import (
	"sort"

	"github.com/google/uuid"
)

// Reading is one meter reading for a month. Periods use the "YYYY-MM"
// form, so lexicographic order is date order.
type Reading struct {
	ID     string  `json:"id"`
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// ReadingLedger holds at most one reading per period.
type ReadingLedger struct {
	Readings []Reading `json:"readings"`
}

// Upsert records a reading for period. An existing reading for the same
// period is replaced in place and keeps its ID.
func (l *ReadingLedger) Upsert(period string, value float64) Reading {
	value = sanitizeAmount(value)
	for i := range l.Readings {
		if l.Readings[i].Period == period {
			l.Readings[i].Value = value
			return l.Readings[i]
		}
	}
	r := Reading{ID: uuid.NewString(), Period: period, Value: value}
	l.Readings = append(l.Readings, r)
	return r
}

// Delete removes the reading with the given ID. Returns false when no
// reading matches.
func (l *ReadingLedger) Delete(id string) bool {
	for i := range l.Readings {
		if l.Readings[i].ID == id {
			l.Readings = append(l.Readings[:i], l.Readings[i+1:]...)
			return true
		}
	}
	return false
}

// ConsumptionPoint is the derived consumption for one period.
type ConsumptionPoint struct {
	Period      string  `json:"period"`
	Value       float64 `json:"value"`
	Consumption float64 `json:"consumption"`
}

// ConsumptionSeries returns period-ascending consumption deltas. The
// first period has no predecessor and reports 0; meter resets (negative
// deltas) clamp to 0 rather than going negative.
func (l *ReadingLedger) ConsumptionSeries() []ConsumptionPoint {
	sorted := make([]Reading, len(l.Readings))
	copy(sorted, l.Readings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })

	points := make([]ConsumptionPoint, 0, len(sorted))
	for i, r := range sorted {
		c := 0.0
		if i > 0 {
			if d := r.Value - sorted[i-1].Value; d > 0 {
				c = d
			}
		}
		points = append(points, ConsumptionPoint{Period: r.Period, Value: r.Value, Consumption: c})
	}
	return points
}

// WaterReading is a two-meter reading plus the cost the provider actually
// invoiced for that month. InvoiceCost is user data, never derived.
type WaterReading struct {
	ID          string  `json:"id"`
	Period      string  `json:"period"`
	Meter1      float64 `json:"meter1"`
	Meter2      float64 `json:"meter2"`
	InvoiceCost float64 `json:"invoice_cost"`
}

// WaterLedger holds at most one water reading per period.
type WaterLedger struct {
	Readings []WaterReading `json:"readings"`
}

// Upsert records meter values for period. An existing entry keeps its ID
// and its invoice cost.
func (l *WaterLedger) Upsert(period string, m1, m2 float64) WaterReading {
	m1, m2 = sanitizeAmount(m1), sanitizeAmount(m2)
	for i := range l.Readings {
		if l.Readings[i].Period == period {
			l.Readings[i].Meter1 = m1
			l.Readings[i].Meter2 = m2
			return l.Readings[i]
		}
	}
	r := WaterReading{ID: uuid.NewString(), Period: period, Meter1: m1, Meter2: m2}
	l.Readings = append(l.Readings, r)
	return r
}

// SetInvoiceCost records the invoiced amount on the reading with the
// given ID.
func (l *WaterLedger) SetInvoiceCost(id string, cost float64) bool {
	for i := range l.Readings {
		if l.Readings[i].ID == id {
			l.Readings[i].InvoiceCost = sanitizeAmount(cost)
			return true
		}
	}
	return false
}

// Delete removes the water reading with the given ID.
func (l *WaterLedger) Delete(id string) bool {
	for i := range l.Readings {
		if l.Readings[i].ID == id {
			l.Readings = append(l.Readings[:i], l.Readings[i+1:]...)
			return true
		}
	}
	return false
}

// WaterPoint is the derived water consumption for one period.
type WaterPoint struct {
	Period       string  `json:"period"`
	Meter1       float64 `json:"meter1"`
	Meter2       float64 `json:"meter2"`
	Delta1       float64 `json:"delta1"`
	Delta2       float64 `json:"delta2"`
	Total        float64 `json:"total"`
	ComputedCost float64 `json:"computed_cost"`
	InvoiceCost  float64 `json:"invoice_cost"`
}

// ConsumptionSeries derives per-meter clamped deltas and the computed
// cost at the given price per cubic meter.
func (l *WaterLedger) ConsumptionSeries(costPerM3 float64) []WaterPoint {
	sorted := make([]WaterReading, len(l.Readings))
	copy(sorted, l.Readings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })

	points := make([]WaterPoint, 0, len(sorted))
	for i, r := range sorted {
		var d1, d2 float64
		if i > 0 {
			if d := r.Meter1 - sorted[i-1].Meter1; d > 0 {
				d1 = d
			}
			if d := r.Meter2 - sorted[i-1].Meter2; d > 0 {
				d2 = d
			}
		}
		total := d1 + d2
		points = append(points, WaterPoint{
			Period:       r.Period,
			Meter1:       r.Meter1,
			Meter2:       r.Meter2,
			Delta1:       d1,
			Delta2:       d2,
			Total:        total,
			ComputedCost: round2(total * costPerM3),
			InvoiceCost:  r.InvoiceCost,
		})
	}
	return points
}
