package api

import (
	"net/http"
	"strconv"

	"example.com/kickaider/internal/auth"
	"example.com/kickaider/internal/domain"
	"example.com/kickaider/internal/listing"
	"example.com/kickaider/internal/persistence"
)

// SetCategoryRequest is the payload for PUT /v1/categorization/{id}.
type SetCategoryRequest struct {
	Category domain.Category `json:"category"`
}

// CalendarStatusRequest is the payload for PUT /v1/calendar.
type CalendarStatusRequest struct {
	EmployeeID string                    `json:"employee_id"`
	Date       string                    `json:"date"`
	Status     domain.CalendarStatusType `json:"status"`
}

// CalendarRangeRequest is the payload for POST /v1/calendar/range.
type CalendarRangeRequest struct {
	EmployeeID string                    `json:"employee_id"`
	From       string                    `json:"from"`
	To         string                    `json:"to"`
	Status     domain.CalendarStatusType `json:"status"`
}

// CreateAccountRequest is the payload for POST /v1/settings/accounts.
type CreateAccountRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// StopPasswordRequest is the payload for POST /v1/settings/stop-passwords.
type StopPasswordRequest struct {
	EmployeeID string `json:"employee_id"`
}

// ListItemsResponse wraps unpaginated collections.
type ListItemsResponse[T any] struct {
	Items []T `json:"items"`
}

func itemsOf[T any](items []T) ListItemsResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListItemsResponse[T]{Items: items}
}

// AuditLogResponse packages one page of the audit log.
type AuditLogResponse struct {
	Items      []domain.AuditEntry `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsRead)
	if !ok {
		return
	}
	query := r.URL.Query()
	page, err := parsePositive(query.Get("page"), "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	pageSize, err := parsePositive(query.Get("page_size"), "page_size", listing.DefaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	rules, err := h.service.ListRules(r.Context(), domain.RuleQuery{
		TenantID: claims.TenantID,
		Search:   query.Get("search"),
		Filter:   domain.RuleFilter(query.Get("filter")),
		Type:     query.Get("type"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing.Paginate(rules, page, pageSize))
}

func (h *Handler) setCategory(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsWrite)
	if !ok {
		return
	}
	var req SetCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rule, err := h.service.SetCategory(r.Context(), claims.TenantID, r.PathValue("id"), req.Category)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) resetRule(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsWrite)
	if !ok {
		return
	}
	rule, err := h.service.ResetRule(r.Context(), claims.TenantID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) resetAllRules(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsWrite)
	if !ok {
		return
	}
	if err := h.service.ResetAllManual(r.Context(), claims.TenantID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCalendar(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsRead)
	if !ok {
		return
	}
	query := r.URL.Query()
	statuses, err := h.service.ListCalendar(r.Context(), claims.TenantID, query.Get("month"), query.Get("employee_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsOf(statuses))
}

func (h *Handler) setCalendarStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsWrite)
	if !ok {
		return
	}
	var req CalendarStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status, err := h.service.SetCalendarStatus(r.Context(), claims.TenantID, domain.CalendarStatus{
		EmployeeID: req.EmployeeID,
		Date:       req.Date,
		Status:     req.Status,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) setCalendarRange(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsWrite)
	if !ok {
		return
	}
	var req CalendarRangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.service.SetCalendarRange(r.Context(), domain.CalendarRange{
		TenantID:   claims.TenantID,
		EmployeeID: req.EmployeeID,
		From:       req.From,
		To:         req.To,
		Status:     req.Status,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeCalendarStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsWrite)
	if !ok {
		return
	}
	query := r.URL.Query()
	if err := h.service.RemoveCalendarStatus(r.Context(), claims.TenantID, query.Get("employee_id"), query.Get("date")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) generalSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsRead)
	if !ok {
		return
	}
	settings, err := h.service.GeneralSettings(r.Context(), claims.TenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) saveGeneralSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsWrite)
	if !ok {
		return
	}
	var req domain.GeneralSettings
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.service.SaveGeneralSettings(r.Context(), claims.TenantID, req); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsRead)
	if !ok {
		return
	}
	accounts, err := h.service.ListAccounts(r.Context(), claims.TenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsOf(accounts))
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsWrite)
	if !ok {
		return
	}
	var req CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account, err := h.service.CreateAccount(r.Context(), claims.TenantID, req.Login, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsWrite)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(r.Context(), claims.TenantID, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listStopPasswords(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsRead)
	if !ok {
		return
	}
	passwords, err := h.service.ListStopPasswords(r.Context(), claims.TenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsOf(passwords))
}

func (h *Handler) generateStopPassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsWrite)
	if !ok {
		return
	}
	var req StopPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.service.GenerateStopPassword(r.Context(), claims.TenantID, req.EmployeeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) auditLog(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeSettingsRead)
	if !ok {
		return
	}
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	cursor, err := persistence.DecodeCursor(query.Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	entries, next, err := h.service.AuditLog(r.Context(), claims.TenantID, cursor, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, AuditLogResponse{
		Items:      entries,
		NextCursor: persistence.EncodeCursor(next),
	})
}
