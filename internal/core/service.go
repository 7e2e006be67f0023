package core

import (
	"errors"
	"strings"
)

var (
	// ErrNoSuchEntry is returned by index-based ledger mutations when the
	// index is out of range.
	ErrNoSuchEntry = errors.New("no such ledger entry")
	// ErrProtectedRow is returned when a mutation targets a system-owned
	// auto row.
	ErrProtectedRow = errors.New("row is managed automatically")
)

// EntryKind discriminates ledger rows: category markers group the rows
// that follow them, service rows carry amounts.
type EntryKind string

const (
	KindCategory EntryKind = "category"
	KindService  EntryKind = "service"
)

// AutoFlag marks a service row as owned by the synchronizer. At most one
// row per non-empty flag exists in a ledger.
type AutoFlag string

const (
	AutoNone               AutoFlag = ""
	AutoUtilitiesAverage   AutoFlag = "utilities_average"
	AutoAdministration     AutoFlag = "administration"
	AutoSupermarketAverage AutoFlag = "supermarket_average"
	AutoCarAverage         AutoFlag = "car_average"
)

// CategoryKeyword returns the substring used to find the category a new
// auto row is inserted under. Matching is lexical against category names,
// so renaming a category changes where future auto rows land.
func (f AutoFlag) CategoryKeyword() string {
	switch f {
	case AutoUtilitiesAverage, AutoAdministration:
		return "utilit"
	case AutoSupermarketAverage:
		return "supermarket"
	case AutoCarAverage:
		return "auto"
	default:
		return ""
	}
}

// ServiceEntry is one ledger row. Category rows only use Name; service
// rows carry the full set of fields.
type ServiceEntry struct {
	Kind     EntryKind `json:"kind"`
	Name     string    `json:"name"`
	Cost     float64   `json:"cost,omitempty"`
	Currency Currency  `json:"currency,omitempty"`
	Active   bool      `json:"active,omitempty"`
	Note     string    `json:"note,omitempty"`
	Auto     AutoFlag  `json:"auto,omitempty"`
}

// IsAuto reports whether the entry is a synchronizer-owned row.
func (e ServiceEntry) IsAuto() bool { return e.Auto != AutoNone }

// ServiceLedger is an ordered list of categories and service rows. Order
// is presentation order and is preserved by every mutation.
type ServiceLedger struct {
	Entries []ServiceEntry `json:"entries"`
}

// Totals sums active service rows. Category markers and inactive rows do
// not contribute.
type Totals struct {
	PerCurrency map[Currency]float64 `json:"per_currency"`
	TotalRON    float64              `json:"total_ron"`
}

// Totals computes per-currency buckets and the RON-normalized total for
// the ledger under the given rate table.
func (l *ServiceLedger) Totals(rates Rates) Totals {
	t := Totals{PerCurrency: map[Currency]float64{}}
	for _, e := range l.Entries {
		if e.Kind != KindService || !e.Active {
			continue
		}
		cost := sanitizeAmount(e.Cost)
		t.PerCurrency[e.Currency] += cost
		t.TotalRON += ToReference(cost, e.Currency, rates)
	}
	return t
}

// UpsertAutoRow writes the synchronizer-owned row for the given flag. An
// existing row keeps its position and is overwritten (currency forced to
// RON, active forced on). A new row is inserted right after the first
// category whose name contains the flag's keyword, or appended when no
// category matches.
func (l *ServiceLedger) UpsertAutoRow(flag AutoFlag, name string, cost float64) {
	if flag == AutoNone {
		return
	}
	cost = round2(sanitizeAmount(cost))
	for i := range l.Entries {
		if l.Entries[i].Auto != flag {
			continue
		}
		l.Entries[i].Name = name
		l.Entries[i].Cost = cost
		l.Entries[i].Currency = RON
		l.Entries[i].Active = true
		return
	}
	row := ServiceEntry{
		Kind:     KindService,
		Name:     name,
		Cost:     cost,
		Currency: RON,
		Active:   true,
		Auto:     flag,
	}
	pos := l.categoryIndex(flag.CategoryKeyword())
	if pos < 0 {
		l.Entries = append(l.Entries, row)
		return
	}
	l.Entries = append(l.Entries, ServiceEntry{})
	copy(l.Entries[pos+2:], l.Entries[pos+1:])
	l.Entries[pos+1] = row
}

// categoryIndex finds the first category whose name contains keyword,
// case-insensitively. Returns -1 when none matches.
func (l *ServiceLedger) categoryIndex(keyword string) int {
	if keyword == "" {
		return -1
	}
	for i, e := range l.Entries {
		if e.Kind == KindCategory && strings.Contains(strings.ToLower(e.Name), keyword) {
			return i
		}
	}
	return -1
}

// AddService appends a user service row.
func (l *ServiceLedger) AddService(name string, cost float64, currency Currency) {
	l.Entries = append(l.Entries, ServiceEntry{
		Kind:     KindService,
		Name:     name,
		Cost:     sanitizeAmount(cost),
		Currency: currency,
		Active:   true,
	})
}

// AddCategory appends a category marker.
func (l *ServiceLedger) AddCategory(name string) {
	l.Entries = append(l.Entries, ServiceEntry{Kind: KindCategory, Name: name})
}

// mutate runs fn on the entry at index i after bounds checking.
func (l *ServiceLedger) mutate(i int, fn func(*ServiceEntry)) error {
	if i < 0 || i >= len(l.Entries) {
		return ErrNoSuchEntry
	}
	fn(&l.Entries[i])
	return nil
}

// Toggle flips the active flag of the service row at index i.
func (l *ServiceLedger) Toggle(i int) error {
	return l.mutate(i, func(e *ServiceEntry) { e.Active = !e.Active })
}

// SetCost updates the cost of the row at index i.
func (l *ServiceLedger) SetCost(i int, cost float64) error {
	return l.mutate(i, func(e *ServiceEntry) { e.Cost = sanitizeAmount(cost) })
}

// SetCurrency updates the currency of the row at index i.
func (l *ServiceLedger) SetCurrency(i int, c Currency) error {
	return l.mutate(i, func(e *ServiceEntry) { e.Currency = c })
}

// SetNote updates the note of the row at index i.
func (l *ServiceLedger) SetNote(i int, note string) error {
	return l.mutate(i, func(e *ServiceEntry) { e.Note = note })
}

// Remove deletes the entry at index i. Auto rows are not removable here;
// callers surface ErrProtectedRow to the user.
func (l *ServiceLedger) Remove(i int) error {
	if i < 0 || i >= len(l.Entries) {
		return ErrNoSuchEntry
	}
	if l.Entries[i].IsAuto() {
		return ErrProtectedRow
	}
	l.Entries = append(l.Entries[:i], l.Entries[i+1:]...)
	return nil
}

// Entry returns a copy of the entry at index i.
func (l *ServiceLedger) Entry(i int) (ServiceEntry, error) {
	if i < 0 || i >= len(l.Entries) {
		return ServiceEntry{}, ErrNoSuchEntry
	}
	return l.Entries[i], nil
}
