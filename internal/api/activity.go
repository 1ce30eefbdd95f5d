package api

import (
	"net/http"
	"time"

	"example.com/kickaider/internal/activity"
	"example.com/kickaider/internal/auth"
	"example.com/kickaider/internal/domain"
	"example.com/kickaider/internal/rating"
)

func (h *Handler) timelineQuery(w http.ResponseWriter, r *http.Request) (domain.TimelineQuery, bool) {
	claims, ok := authorize(w, r, auth.ScopeActivityRead)
	if !ok {
		return domain.TimelineQuery{}, false
	}
	query := r.URL.Query()
	seed, err := parseSeed(query.Get("seed"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return domain.TimelineQuery{}, false
	}
	return domain.TimelineQuery{
		TenantID:    claims.TenantID,
		Date:        query.Get("date"),
		Departments: query["department"],
		Search:      query.Get("q"),
		Seed:        seed,
	}, true
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	q, ok := h.timelineQuery(w, r)
	if !ok {
		return
	}
	view, err := h.service.Timeline(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) efficiency(w http.ResponseWriter, r *http.Request) {
	q, ok := h.timelineQuery(w, r)
	if !ok {
		return
	}
	view, err := h.service.Efficiency(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) dayDetails(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeActivityRead)
	if !ok {
		return
	}
	query := r.URL.Query()
	seed, err := parseSeed(query.Get("seed"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	scale, err := activity.ParseScale(query.Get("scale"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	view, err := h.service.DayDetails(r.Context(), domain.DayQuery{
		TenantID:   claims.TenantID,
		EmployeeID: r.PathValue("id"),
		Date:       query.Get("date"),
		Scale:      scale,
		Search:     query.Get("q"),
		Seed:       seed,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) rating(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, auth.ScopeActivityRead); !ok {
		return
	}
	query := r.URL.Query()

	var date time.Time
	if raw := query.Get("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}
	criterion, err := rating.ParseCriterion(query.Get("criterion"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	page, err := parsePositive(query.Get("page"), "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	pageSize, err := parsePositive(query.Get("page_size"), "page_size", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	result, err := h.service.Rating(r.Context(), rating.Query{
		Date:       date,
		Department: query.Get("department"),
		Criterion:  criterion,
		Search:     query.Get("q"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
