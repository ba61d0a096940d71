// Package api exposes the business date calculator over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/username/workdays-api/internal/businesstime"
	"github.com/username/workdays-api/internal/holiday"
	"github.com/username/workdays-api/pkg/dateutil"
	"go.uber.org/zap"
)

// Error codes carried in the "error" field of failure responses
const (
	CodeInvalidParameters = "InvalidParameters"
	CodeMethodNotAllowed  = "MethodNotAllowed"
	CodeInternal          = "InternalServerError"
)

// DateResponse is the success body of the calculation endpoint
type DateResponse struct {
	Date string `json:"date"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HolidaysResponse describes the holiday cache in use
type HolidaysResponse struct {
	Holidays     []string `json:"holidays"`
	LastFetch    string   `json:"last_fetch,omitempty"`
	Valid        bool     `json:"valid"`
	FromFallback bool     `json:"from_fallback"`
}

// SnapshotProvider is satisfied by *holiday.Source
type SnapshotProvider interface {
	Snapshot() holiday.Snapshot
}

// Handler serves the calculation, health and holiday endpoints
type Handler struct {
	calc     *businesstime.Calculator
	holidays SnapshotProvider
	logger   *zap.Logger
	mux      *http.ServeMux
	chain    http.Handler
}

// NewHandler creates a new Handler
func NewHandler(calc *businesstime.Calculator, holidays SnapshotProvider, logger *zap.Logger) *Handler {
	h := &Handler{
		calc:     calc,
		holidays: holidays,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("/health", h.handleHealth)
	h.mux.HandleFunc("/holidays", h.handleHolidays)
	h.mux.HandleFunc("/", h.handleCalculate)

	h.chain = requestID(corsMiddleware(loggingMiddleware(logger, h.mux)))

	return h
}

// ServeHTTP applies request ID, CORS and logging around the routes
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.chain.ServeHTTP(w, r)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "NotFound", "route not found")
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "only GET is allowed")
		return
	}

	req, perr := parseQuery(r)
	if perr != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidParameters, perr.Message)
		return
	}

	start := req.date
	if !req.hasDate {
		start = h.calc.Rules().Now()
	}

	res, err := h.calc.CalculateBusinessDate(r.Context(), start, req.days, req.hours)
	if err != nil {
		var paramErr *businesstime.ParameterError
		if errors.As(err, &paramErr) {
			writeError(w, http.StatusBadRequest, CodeInvalidParameters, paramErr.Message)
			return
		}

		h.logger.Error("Business date calculation failed",
			zap.String("request_id", RequestIDFrom(r)),
			zap.Time("start", start),
			zap.Int("days", req.days),
			zap.Int("hours", req.hours),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, DateResponse{Date: dateutil.FormatISOZ(res.ResultUTC())})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleHolidays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "only GET is allowed")
		return
	}

	snap := h.holidays.Snapshot()
	resp := HolidaysResponse{
		Holidays:     snap.Holidays.Dates(),
		Valid:        snap.Valid,
		FromFallback: snap.FromFallback,
	}
	if resp.Holidays == nil {
		resp.Holidays = []string{}
	}
	if !snap.LastFetch.IsZero() {
		resp.LastFetch = dateutil.FormatISOZ(snap.LastFetch)
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

type calcRequest struct {
	days  int
	hours int
	date  time.Time

	hasDate bool
}

// parseQuery reads days, hours and date. Absent counts are zero.
func parseQuery(r *http.Request) (calcRequest, *businesstime.ParameterError) {
	q := r.URL.Query()
	daysStr, hoursStr, dateStr := q.Get("days"), q.Get("hours"), q.Get("date")

	if daysStr == "" && hoursStr == "" {
		return calcRequest{}, &businesstime.ParameterError{
			Message: "at least one of 'days' or 'hours' must be present",
		}
	}

	var req calcRequest
	var err error

	if daysStr != "" {
		if req.days, err = strconv.Atoi(daysStr); err != nil || req.days < 0 {
			return calcRequest{}, &businesstime.ParameterError{
				Field:   "days",
				Message: "parameter 'days' must be a non-negative integer",
			}
		}
	}
	if hoursStr != "" {
		if req.hours, err = strconv.Atoi(hoursStr); err != nil || req.hours < 0 {
			return calcRequest{}, &businesstime.ParameterError{
				Field:   "hours",
				Message: "parameter 'hours' must be a non-negative integer",
			}
		}
	}

	if dateStr != "" {
		if req.date, err = dateutil.ParseISOZ(dateStr); err != nil {
			msg := "the provided date is invalid"
			if errors.Is(err, dateutil.ErrISOFormat) {
				msg = "parameter 'date' must be ISO 8601 with Z suffix (e.g. 2025-01-01T10:00:00Z)"
			}
			return calcRequest{}, &businesstime.ParameterError{Field: "date", Message: msg}
		}
		req.hasDate = true
	}

	return req, nil
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: msg})
}
