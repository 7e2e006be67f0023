package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cheltuieli/internal/core"
	"cheltuieli/internal/tracker"
)

// amount is a float64 that decodes leniently: numbers pass through,
// numeric strings parse, anything else becomes 0. This mirrors the
// domain's coerce-to-zero policy for bad numeric input.
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*a = amount(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*a = amount(f)
			return nil
		}
	}
	*a = 0
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes the request body; a malformed body is a 400, the
// only shape error the API reports.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respond maps domain errors to statuses and returns the snapshot on
// success, so every mutation response carries fresh totals.
func (s *Server) respond(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.tracker.Snapshot())
	case errors.Is(err, core.ErrProtectedRow):
		writeError(w, http.StatusConflict, "this row is managed automatically")
	case errors.Is(err, tracker.ErrDerivedAmount):
		writeError(w, http.StatusConflict, "fuel amounts are derived from liters and price")
	case errors.Is(err, core.ErrNoSuchEntry), errors.Is(err, tracker.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, tracker.ErrUnknownScope), errors.Is(err, tracker.ErrEmptyName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func scopeFrom(r *http.Request) tracker.Scope {
	return tracker.Scope(r.PathValue("scope"))
}

func indexFrom(r *http.Request) (int, bool) {
	i, err := strconv.Atoi(r.PathValue("index"))
	return i, err == nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.tracker.StateView()
	if err != nil {
		s.respond(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rates":      s.rates.Rates(),
		"updated_at": s.rates.UpdatedAt(),
	})
}

func (s *Server) handleSetRates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EUR amount `json:"eur"`
		USD amount `json:"usd"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.rates.SetManual(float64(req.EUR), float64(req.USD))
	s.tracker.Refresh(r.Context())
	s.respond(w, nil)
}

func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	if err := s.rates.Refresh(r.Context()); err != nil {
		s.logger.Warn("rates refresh failed, keeping last known", "error", err)
	}
	s.tracker.Refresh(r.Context())
	s.respond(w, nil)
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.SetLanguage(r.Context(), req.Language))
}

func (s *Server) handleAddService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string        `json:"name"`
		Cost     amount        `json:"cost"`
		Currency core.Currency `json:"currency"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.Currency == "" {
		req.Currency = core.RON
	}
	s.respond(w, s.tracker.AddService(r.Context(), scopeFrom(r), req.Name, float64(req.Cost), req.Currency))
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.AddCategory(r.Context(), scopeFrom(r), req.Name))
}

func (s *Server) handleToggleEntry(w http.ResponseWriter, r *http.Request) {
	i, ok := indexFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid entry index")
		return
	}
	s.respond(w, s.tracker.ToggleService(r.Context(), scopeFrom(r), i))
}

func (s *Server) handlePatchEntry(w http.ResponseWriter, r *http.Request) {
	i, ok := indexFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid entry index")
		return
	}
	var req struct {
		Cost     *amount        `json:"cost"`
		Currency *core.Currency `json:"currency"`
		Note     *string        `json:"note"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	scope := scopeFrom(r)
	if req.Cost != nil {
		if err := s.tracker.SetServiceCost(ctx, scope, i, float64(*req.Cost)); err != nil {
			s.respond(w, err)
			return
		}
	}
	if req.Currency != nil {
		if err := s.tracker.SetServiceCurrency(ctx, scope, i, *req.Currency); err != nil {
			s.respond(w, err)
			return
		}
	}
	if req.Note != nil {
		if err := s.tracker.SetServiceNote(ctx, scope, i, *req.Note); err != nil {
			s.respond(w, err)
			return
		}
	}
	s.respond(w, nil)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	i, ok := indexFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid entry index")
		return
	}
	s.respond(w, s.tracker.DeleteEntry(r.Context(), scopeFrom(r), i))
}

type paymentRequest struct {
	Period   string        `json:"period"`
	Amount   amount        `json:"amount"`
	Currency core.Currency `json:"currency"`
}

func (p *paymentRequest) currency() core.Currency {
	if p.Currency == "" {
		return core.RON
	}
	return p.Currency
}

func (s *Server) handleAddUtilityPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.AddUtilityPayment(r.Context(), req.Period, float64(req.Amount), req.currency()))
}

func (s *Server) handleDeleteUtilityPayment(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.tracker.DeleteUtilityPayment(r.Context(), r.PathValue("id")))
}

type readingRequest struct {
	Period string `json:"period"`
	Value  amount `json:"value"`
}

func (s *Server) handleUpsertElectricity(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.UpsertElectricityReading(r.Context(), req.Period, float64(req.Value)))
}

func (s *Server) handleDeleteElectricity(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.tracker.DeleteElectricityReading(r.Context(), r.PathValue("id")))
}

func (s *Server) handleUpsertGas(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.UpsertGasReading(r.Context(), req.Period, float64(req.Value)))
}

func (s *Server) handleDeleteGas(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.tracker.DeleteGasReading(r.Context(), r.PathValue("id")))
}

func (s *Server) handleAddAdministrationPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.AddAdministrationPayment(r.Context(), req.Period, float64(req.Amount), req.currency()))
}

func (s *Server) handleDeleteAdministrationPayment(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.tracker.DeleteAdministrationPayment(r.Context(), r.PathValue("id")))
}

func (s *Server) handleUpsertWater(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string `json:"period"`
		Meter1 amount `json:"meter1"`
		Meter2 amount `json:"meter2"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.UpsertWaterReading(r.Context(), req.Period, float64(req.Meter1), float64(req.Meter2)))
}

func (s *Server) handleSetWaterInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cost amount `json:"cost"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.SetWaterInvoiceCost(r.Context(), r.PathValue("id"), float64(req.Cost)))
}

func (s *Server) handleDeleteWater(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.tracker.DeleteWaterReading(r.Context(), r.PathValue("id")))
}

func (s *Server) handleSetCostPerM3(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cost amount `json:"cost"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.SetCostPerM3(r.Context(), float64(req.Cost)))
}

func (s *Server) handleAddSupermarketPurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period   string        `json:"period"`
		Vendor   string        `json:"vendor"`
		Amount   amount        `json:"amount"`
		Currency core.Currency `json:"currency"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.Currency == "" {
		req.Currency = core.RON
	}
	s.respond(w, s.tracker.AddSupermarketPurchase(r.Context(), req.Period, req.Vendor, float64(req.Amount), req.Currency))
}

func (s *Server) handleAddCarFuel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date          string `json:"date"`
		Odometer      amount `json:"odometer"`
		Liters        amount `json:"liters"`
		PricePerLiter amount `json:"price_per_liter"`
		FuelType      string `json:"fuel_type"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.AddCarFuel(r.Context(), req.Date,
		float64(req.Odometer), float64(req.Liters), float64(req.PricePerLiter), req.FuelType))
}

func (s *Server) handleAddCarExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date   string `json:"date"`
		Label  string `json:"label"`
		Amount amount `json:"amount"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.AddCarExpense(r.Context(), req.Date, req.Label, float64(req.Amount)))
}

func transactionID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func (s *Server) handleAmendTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	var req struct {
		Amount amount `json:"amount"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.respond(w, s.tracker.AmendTransactionAmount(r.Context(), id, float64(req.Amount)))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	s.respond(w, s.tracker.DeleteTransaction(r.Context(), id))
}
