// Package api exposes HTTP handlers for the monitoring dashboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"example.com/kickaider/internal/auth"
	"example.com/kickaider/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", healthz)

	mux.HandleFunc("GET /v1/timeline", h.timeline)
	mux.HandleFunc("GET /v1/timeline/efficiency", h.efficiency)
	mux.HandleFunc("GET /v1/employees/{id}/day", h.dayDetails)
	mux.HandleFunc("GET /v1/rating", h.rating)

	mux.HandleFunc("GET /v1/categorization", h.listRules)
	mux.HandleFunc("PUT /v1/categorization/{id}", h.setCategory)
	mux.HandleFunc("POST /v1/categorization/{id}/reset", h.resetRule)
	mux.HandleFunc("POST /v1/categorization/reset", h.resetAllRules)

	mux.HandleFunc("GET /v1/calendar", h.listCalendar)
	mux.HandleFunc("PUT /v1/calendar", h.setCalendarStatus)
	mux.HandleFunc("POST /v1/calendar/range", h.setCalendarRange)
	mux.HandleFunc("DELETE /v1/calendar", h.removeCalendarStatus)

	mux.HandleFunc("GET /v1/settings/general", h.generalSettings)
	mux.HandleFunc("PUT /v1/settings/general", h.saveGeneralSettings)
	mux.HandleFunc("GET /v1/settings/accounts", h.listAccounts)
	mux.HandleFunc("POST /v1/settings/accounts", h.createAccount)
	mux.HandleFunc("DELETE /v1/settings/accounts/{id}", h.deleteAccount)
	mux.HandleFunc("GET /v1/settings/stop-passwords", h.listStopPasswords)
	mux.HandleFunc("POST /v1/settings/stop-passwords", h.generateStopPassword)

	mux.HandleFunc("GET /v1/audit", h.auditLog)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// authorize resolves the caller's claims and checks scope. It writes the
// error response itself and reports whether the handler may continue.
func authorize(w http.ResponseWriter, r *http.Request, scope string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(scope) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
		return nil, false
	}
	return claims, true
}

// writeDomainError maps service errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrProtectedAccount):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrEmployeeNotFound),
		errors.Is(err, domain.ErrRuleNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrDuplicateLogin):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", "request cancelled")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}

// parseSeed reads the optional seed parameter.
func parseSeed(raw string) (*uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	seed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, errors.New("seed must be an unsigned integer")
	}
	return &seed, nil
}

// parsePositive reads an optional positive integer parameter, returning
// fallback when it is absent.
func parsePositive(raw, name string, fallback int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return n, nil
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
