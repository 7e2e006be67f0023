// Package tracker owns the live application state and runs the refresh
// cycle after every mutation: sync the auto rows, rebuild the snapshot,
// persist, and announce the save.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cheltuieli/internal/core"
	"cheltuieli/internal/i18n"
	"cheltuieli/internal/store"
)

// ErrEmptyName rejects service and category rows with no name.
var ErrEmptyName = errors.New("name must not be empty")

// Scope selects which service ledger an operation targets.
type Scope string

const (
	ScopeMonthly Scope = "monthly"
	ScopeAnnual  Scope = "annual"
)

// ErrUnknownScope rejects ledger scopes other than monthly/annual.
var ErrUnknownScope = errors.New("unknown ledger scope")

// RatesSource supplies the rate table for a refresh cycle. It must not
// block on the network.
type RatesSource interface {
	Rates() core.Rates
}

// EventPublisher announces a persisted snapshot. Publishing is
// fire-and-forget; failures never affect tracker state.
type EventPublisher interface {
	PublishSnapshotSaved(ctx context.Context, savedAt time.Time, monthlyRON, annualRON, obligationRON float64) error
}

// Tracker serializes all state access behind one mutex and refreshes
// derived data after every mutation.
type Tracker struct {
	mu       sync.Mutex
	state    *core.State
	snapshot core.Snapshot

	store  store.StateStore
	rates  RatesSource
	events EventPublisher
	logger *slog.Logger
}

// New loads the persisted state and runs an initial refresh so the
// snapshot is ready before the first request. events may be nil.
func New(ctx context.Context, st store.StateStore, rates RatesSource, events EventPublisher, logger *slog.Logger) (*Tracker, error) {
	state, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	t := &Tracker{
		state:  state,
		store:  st,
		rates:  rates,
		events: events,
		logger: logger,
	}
	t.mu.Lock()
	t.refresh(ctx)
	t.mu.Unlock()
	return t, nil
}

// refresh runs the full cycle. Callers hold the mutex. A failed save is
// logged and tolerated: the in-memory state keeps the edits and the
// next save carries them.
func (t *Tracker) refresh(ctx context.Context) {
	rates := t.rates.Rates()
	lang := i18n.Parse(t.state.Language)
	t.state.SyncAutoRows(rates, i18n.Labels(lang))
	t.snapshot = t.state.Snapshot(rates)

	if err := t.store.Save(ctx, t.state); err != nil {
		t.logger.Error("save state failed, keeping in-memory edits", "error", err)
		return
	}
	if t.events != nil {
		snap := t.snapshot
		if err := t.events.PublishSnapshotSaved(ctx, time.Now(),
			snap.Monthly.TotalRON, snap.Annual.TotalRON, snap.Obligation); err != nil {
			t.logger.Warn("publish snapshot-saved event failed", "error", err)
		}
	}
}

// Refresh recomputes and persists without a mutation, used after a rate
// feed update.
func (t *Tracker) Refresh(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refresh(ctx)
}

// Snapshot returns the read model from the last refresh cycle.
func (t *Tracker) Snapshot() core.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot
}

// StateView returns a deep copy of the current state for read-only
// rendering.
func (t *Tracker) StateView() (*core.State, error) {
	t.mu.Lock()
	raw, err := json.Marshal(t.state)
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	var view core.State
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("decode state copy: %w", err)
	}
	return &view, nil
}

// ledger resolves a scope to its ledger. Callers hold the mutex.
func (t *Tracker) ledger(scope Scope) (*core.ServiceLedger, error) {
	switch scope {
	case ScopeMonthly:
		return &t.state.Monthly, nil
	case ScopeAnnual:
		return &t.state.Annual, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
}

// mutate locks, applies fn, and refreshes when fn succeeds.
func (t *Tracker) mutate(ctx context.Context, fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	t.refresh(ctx)
	return nil
}

// guardAuto returns ErrProtectedRow when the indexed entry is
// system-owned. User mutations on auto rows are rejected here, before
// the ledger is touched.
func guardAuto(l *core.ServiceLedger, index int) error {
	e, err := l.Entry(index)
	if err != nil {
		return err
	}
	if e.IsAuto() {
		return core.ErrProtectedRow
	}
	return nil
}

// AddService appends a service row to the scoped ledger.
func (t *Tracker) AddService(ctx context.Context, scope Scope, name string, cost float64, currency core.Currency) error {
	if name == "" {
		return ErrEmptyName
	}
	return t.mutate(ctx, func() error {
		l, err := t.ledger(scope)
		if err != nil {
			return err
		}
		l.AddService(name, cost, currency)
		return nil
	})
}

// AddCategory appends a category marker to the scoped ledger.
func (t *Tracker) AddCategory(ctx context.Context, scope Scope, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	return t.mutate(ctx, func() error {
		l, err := t.ledger(scope)
		if err != nil {
			return err
		}
		l.AddCategory(name)
		return nil
	})
}

// ToggleService flips the active flag of a user row.
func (t *Tracker) ToggleService(ctx context.Context, scope Scope, index int) error {
	return t.mutate(ctx, func() error {
		l, err := t.ledger(scope)
		if err != nil {
			return err
		}
		if err := guardAuto(l, index); err != nil {
			return err
		}
		return l.Toggle(index)
	})
}

// SetServiceCost updates a user row's cost.
func (t *Tracker) SetServiceCost(ctx context.Context, scope Scope, index int, cost float64) error {
	return t.mutate(ctx, func() error {
		l, err := t.ledger(scope)
		if err != nil {
			return err
		}
		if err := guardAuto(l, index); err != nil {
			return err
		}
		return l.SetCost(index, cost)
	})
}

// SetServiceCurrency updates a user row's currency.
func (t *Tracker) SetServiceCurrency(ctx context.Context, scope Scope, index int, c core.Currency) error {
	return t.mutate(ctx, func() error {
		l, err := t.ledger(scope)
		if err != nil {
			return err
		}
		if err := guardAuto(l, index); err != nil {
			return err
		}
		return l.SetCurrency(index, c)
	})
}

// SetServiceNote updates a row's note. Notes are user data even on auto
// rows, so no guard here.
func (t *Tracker) SetServiceNote(ctx context.Context, scope Scope, index int, note string) error {
	return t.mutate(ctx, func() error {
		l, err := t.ledger(scope)
		if err != nil {
			return err
		}
		return l.SetNote(index, note)
	})
}

// DeleteEntry removes a user row or category.
func (t *Tracker) DeleteEntry(ctx context.Context, scope Scope, index int) error {
	return t.mutate(ctx, func() error {
		l, err := t.ledger(scope)
		if err != nil {
			return err
		}
		return l.Remove(index)
	})
}

// AddUtilityPayment records a utility bill payment.
func (t *Tracker) AddUtilityPayment(ctx context.Context, period string, amount float64, c core.Currency) error {
	return t.mutate(ctx, func() error {
		t.state.Utilities.Payments.Add(period, amount, c)
		return nil
	})
}

// DeleteUtilityPayment removes a utility payment by ID.
func (t *Tracker) DeleteUtilityPayment(ctx context.Context, id string) error {
	return t.mutate(ctx, func() error {
		if !t.state.Utilities.Payments.Delete(id) {
			return ErrNotFound
		}
		return nil
	})
}

// UpsertElectricityReading records an electricity meter reading.
func (t *Tracker) UpsertElectricityReading(ctx context.Context, period string, value float64) error {
	return t.mutate(ctx, func() error {
		t.state.Utilities.Electricity.Upsert(period, value)
		return nil
	})
}

// DeleteElectricityReading removes an electricity reading by ID.
func (t *Tracker) DeleteElectricityReading(ctx context.Context, id string) error {
	return t.mutate(ctx, func() error {
		if !t.state.Utilities.Electricity.Delete(id) {
			return ErrNotFound
		}
		return nil
	})
}

// UpsertGasReading records a gas meter reading.
func (t *Tracker) UpsertGasReading(ctx context.Context, period string, value float64) error {
	return t.mutate(ctx, func() error {
		t.state.Utilities.Gas.Upsert(period, value)
		return nil
	})
}

// DeleteGasReading removes a gas reading by ID.
func (t *Tracker) DeleteGasReading(ctx context.Context, id string) error {
	return t.mutate(ctx, func() error {
		if !t.state.Utilities.Gas.Delete(id) {
			return ErrNotFound
		}
		return nil
	})
}

// AddAdministrationPayment records an HOA payment.
func (t *Tracker) AddAdministrationPayment(ctx context.Context, period string, amount float64, c core.Currency) error {
	return t.mutate(ctx, func() error {
		t.state.Administration.Payments.Add(period, amount, c)
		return nil
	})
}

// DeleteAdministrationPayment removes an HOA payment by ID.
func (t *Tracker) DeleteAdministrationPayment(ctx context.Context, id string) error {
	return t.mutate(ctx, func() error {
		if !t.state.Administration.Payments.Delete(id) {
			return ErrNotFound
		}
		return nil
	})
}

// UpsertWaterReading records the two water meter values for a period.
func (t *Tracker) UpsertWaterReading(ctx context.Context, period string, m1, m2 float64) error {
	return t.mutate(ctx, func() error {
		t.state.Administration.Water.Upsert(period, m1, m2)
		return nil
	})
}

// SetWaterInvoiceCost records the invoiced amount on a water reading.
func (t *Tracker) SetWaterInvoiceCost(ctx context.Context, id string, cost float64) error {
	return t.mutate(ctx, func() error {
		if !t.state.Administration.Water.SetInvoiceCost(id, cost) {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteWaterReading removes a water reading by ID.
func (t *Tracker) DeleteWaterReading(ctx context.Context, id string) error {
	return t.mutate(ctx, func() error {
		if !t.state.Administration.Water.Delete(id) {
			return ErrNotFound
		}
		return nil
	})
}

// SetCostPerM3 updates the water unit price. Non-positive values reset
// to the default.
func (t *Tracker) SetCostPerM3(ctx context.Context, cost float64) error {
	return t.mutate(ctx, func() error {
		t.state.Administration.CostPerM3 = cost
		if t.state.Administration.CostPerM3 <= 0 {
			t.state.Administration.CostPerM3 = 10
		}
		return nil
	})
}

// AddSupermarketPurchase records a supermarket transaction.
func (t *Tracker) AddSupermarketPurchase(ctx context.Context, period, vendor string, amount float64, c core.Currency) error {
	return t.mutate(ctx, func() error {
		t.state.Daily.AddSupermarket(period, vendor, amount, c)
		return nil
	})
}

// AmendTransactionAmount updates a supermarket or non-fuel car amount.
// Fuel amounts stay derived from liters and price.
func (t *Tracker) AmendTransactionAmount(ctx context.Context, id int64, amount float64) error {
	return t.mutate(ctx, func() error {
		for _, l := range []*core.TransactionLedger{&t.state.Daily, &t.state.Car} {
			for i := range l.Transactions {
				if l.Transactions[i].ID != id {
					continue
				}
				if l.Transactions[i].Sub == core.CarFuel {
					return ErrDerivedAmount
				}
				l.SetAmount(id, amount)
				return nil
			}
		}
		return ErrNotFound
	})
}

// AddCarFuel records a fill-up; the cost is derived, never entered.
func (t *Tracker) AddCarFuel(ctx context.Context, date string, odometer, liters, pricePerLiter float64, fuelType string) error {
	return t.mutate(ctx, func() error {
		t.state.Car.AddCarFuel(date, odometer, liters, pricePerLiter, fuelType)
		return nil
	})
}

// AddCarExpense records a non-fuel car expense.
func (t *Tracker) AddCarExpense(ctx context.Context, date, label string, amount float64) error {
	return t.mutate(ctx, func() error {
		t.state.Car.AddCarOther(date, label, amount)
		return nil
	})
}

// DeleteTransaction removes a transaction by ID from whichever ledger
// holds it.
func (t *Tracker) DeleteTransaction(ctx context.Context, id int64) error {
	return t.mutate(ctx, func() error {
		if t.state.Daily.Delete(id) || t.state.Car.Delete(id) {
			return nil
		}
		return ErrNotFound
	})
}

// SetLanguage switches the display language and relabels the auto rows
// on the refresh that follows.
func (t *Tracker) SetLanguage(ctx context.Context, code string) error {
	return t.mutate(ctx, func() error {
		t.state.Language = string(i18n.Parse(code))
		return nil
	})
}

// ErrNotFound reports a missing ID on keyed deletes and updates.
var ErrNotFound = errors.New("not found")

// ErrDerivedAmount rejects direct edits of fuel transaction amounts.
var ErrDerivedAmount = errors.New("fuel amounts are derived from liters and price")
