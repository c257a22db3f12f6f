/*
holidays.go - Holiday CRUD and external import endpoints

PURPOSE:
  Manual holiday management plus the Nager.Date import pathway:

    GET    /api/countries/{id}/holidays   List a country's holidays
    GET    /api/holidays                  List holidays, filterable by country
    POST   /api/holidays                  Create one holiday
    POST   /api/holidays/batch            Create several at once
    PUT    /api/holidays/{id}             Update a holiday
    DELETE /api/holidays/{id}             Delete a holiday
    GET    /api/holidays/import/preview   Dry-run an import year
    POST   /api/holidays/import           Import one or more years

OVERLAP RULE:
  Two holidays for the same country may not overlap in time. Create and
  update reject overlapping spans with 409. The import path dedupes on
  start date instead and never creates overlaps from a clean API feed.

SEE ALSO:
  - holidayapi: The Nager.Date client and importer behind the import
    endpoints
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/warp/capacity-engine/engine"
)

const overlapMessage = "A holiday already exists for this country during this period. Overlapping holidays are not allowed."

// ListCountryHolidays returns a country's holidays.
// GET /api/countries/{id}/holidays
func (h *Handler) ListCountryHolidays(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	holidays, err := h.Store.ListHolidays(r.Context(), &id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, holidays)
}

// ListHolidays returns all holidays, optionally filtered by country.
// GET /api/holidays?country_id=N
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	var countryID *int64
	if raw := r.URL.Query().Get("country_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid country_id", err)
			return
		}
		countryID = &id
	}
	holidays, err := h.Store.ListHolidays(r.Context(), countryID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, holidays)
}

// CreateHoliday records one holiday. EndDate defaults to StartDate;
// spans overlapping an existing holiday of the same country are
// rejected.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	holiday, ok := h.checkHoliday(w, r, req, 0)
	if !ok {
		return
	}
	if err := h.Store.CreateHoliday(r.Context(), &holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, holiday)
}

// BatchCreateHolidays records several holidays in one call. Every span
// is checked against the store and against the earlier entries of the
// same batch; one overlap rejects the whole request.
// POST /api/holidays/batch
func (h *Handler) BatchCreateHolidays(w http.ResponseWriter, r *http.Request) {
	var reqs []CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	for _, req := range reqs {
		if err := h.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation failed", err)
			return
		}
	}
	holidays := make([]engine.Holiday, 0, len(reqs))
	for _, req := range reqs {
		holiday, ok := h.checkHoliday(w, r, req, 0)
		if !ok {
			return
		}
		span, _ := engine.ParsePeriod(holiday.StartDate, holiday.EndDate)
		for _, prev := range holidays {
			if prev.CountryID != holiday.CountryID {
				continue
			}
			prevSpan, _ := engine.ParsePeriod(prev.StartDate, prev.EndDate)
			if !span.Start.After(prevSpan.End) && !span.End.Before(prevSpan.Start) {
				writeError(w, http.StatusConflict, overlapMessage, nil)
				return
			}
		}
		holidays = append(holidays, holiday)
	}
	if err := h.Store.CreateHolidaysBatch(r.Context(), holidays); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create holidays", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"count": len(holidays)})
}

// UpdateHoliday updates a holiday, excluding it from its own overlap
// check.
// PUT /api/holidays/{id}
func (h *Handler) UpdateHoliday(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req CreateHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	holiday, ok := h.checkHoliday(w, r, req, id)
	if !ok {
		return
	}
	holiday.ID = id
	if err := h.Store.UpdateHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, holiday)
}

// DeleteHoliday removes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// PreviewHolidayImport dry-runs an import for one country and year.
// GET /api/holidays/import/preview?country_code=FR&year=2026
func (h *Handler) PreviewHolidayImport(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("country_code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing country_code", nil)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing year", err)
		return
	}
	preview, err := h.Importer.Preview(r.Context(), code, year)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to preview import", err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// ImportHolidays imports holidays for one country over several years.
// Years whose fetch fails are skipped; results report per-year counts.
// POST /api/holidays/import
func (h *Handler) ImportHolidays(w http.ResponseWriter, r *http.Request) {
	var req ImportHolidaysRequest
	if !h.decode(w, r, &req) {
		return
	}
	results, err := h.Importer.Import(r.Context(), req.CountryCode, req.Years)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to import holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// checkHoliday normalizes a holiday request (single-day default) and
// enforces date validity and the overlap rule. excludeID skips one
// existing row, for updates.
func (h *Handler) checkHoliday(w http.ResponseWriter, r *http.Request, req CreateHolidayRequest, excludeID int64) (engine.Holiday, bool) {
	if req.EndDate == "" {
		req.EndDate = req.StartDate
	}
	span, err := engine.ParsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return engine.Holiday{}, false
	}
	if span.Start.After(span.End) {
		writeError(w, http.StatusBadRequest, "start date must not be after end date", nil)
		return engine.Holiday{}, false
	}
	exists, err := h.Store.HolidayOverlapExists(r.Context(), req.CountryID, span, excludeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check holiday overlap", err)
		return engine.Holiday{}, false
	}
	if exists {
		writeError(w, http.StatusConflict, overlapMessage, nil)
		return engine.Holiday{}, false
	}
	return engine.Holiday{
		CountryID: req.CountryID,
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}, true
}
