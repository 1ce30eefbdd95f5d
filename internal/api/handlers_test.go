package api

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"example.com/kickaider/internal/auth"
	"example.com/kickaider/internal/domain"
	"example.com/kickaider/internal/persistence/memory"
)

const testTenant = "tenant-1"

var fixedNow = time.Date(2025, time.October, 27, 9, 30, 0, 0, time.UTC)

type testServer struct {
	mux  *http.ServeMux
	repo *memory.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := memory.NewRepository()
	service := domain.NewService(repo,
		domain.WithClock(func() time.Time { return fixedNow }),
		domain.WithBcryptCost(bcrypt.MinCost),
		domain.WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	mux := http.NewServeMux()
	NewHandler(service).RegisterRoutes(mux)
	return &testServer{mux: mux, repo: repo}
}

func claimsWith(scopes ...string) *auth.Claims {
	set := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	return &auth.Claims{
		Subject:   "admin-1",
		TenantID:  testTenant,
		Scopes:    set,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func (s *testServer) do(t *testing.T, claims *auth.Claims, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if claims != nil {
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

var admin = claimsWith(auth.AllScopes...)

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rr := srv.do(t, nil, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestRoutesEnforceScopes(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, nil, http.MethodGet, "/v1/timeline", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.JSONEq(t, `{"type":"unauthorized","detail":"missing bearer token"}`, rr.Body.String())

	reader := claimsWith(auth.ScopeActivityRead, auth.ScopeSettingsRead)
	rr = srv.do(t, reader, http.MethodGet, "/v1/settings/general", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = srv.do(t, reader, http.MethodPost, "/v1/categorization/reset", "")
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.JSONEq(t, `{"type":"forbidden","detail":"scope settings:write required"}`, rr.Body.String())

	rr = srv.do(t, claimsWith(auth.ScopeSettingsRead), http.MethodGet, "/v1/rating", "")
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTimelineFiltersAndEchoesSeed(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, admin, http.MethodGet, "/v1/timeline?date=2025-01-15&department=IT&seed=11", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	view := decode[domain.TimelineView](t, rr)
	require.Equal(t, "2025-01-15", view.Date)
	require.Equal(t, uint64(11), view.Seed)
	require.Len(t, view.Employees, 2)
	for _, emp := range view.Employees {
		require.Equal(t, "IT", emp.Department)
	}

	again := srv.do(t, admin, http.MethodGet, "/v1/timeline?date=2025-01-15&department=IT&seed=11", "")
	require.JSONEq(t, rr.Body.String(), again.Body.String())

	rr = srv.do(t, admin, http.MethodGet, "/v1/timeline?seed=-3", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, admin, http.MethodGet, "/v1/timeline?date=15.01.2025", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEfficiencyGroupsByDepartment(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, admin, http.MethodGet, "/v1/timeline/efficiency?seed=5&department=IT&department=Sales", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	view := decode[domain.EfficiencyView](t, rr)
	require.Equal(t, "2025-10-27", view.Date)
	require.NotEmpty(t, view.Departments)
}

func TestDayDetailsValidatesInput(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, admin, http.MethodGet, "/v1/employees/emp-1/day?date=2025-01-15&scale=15min&seed=9", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	view := decode[domain.DayView](t, rr)
	require.Equal(t, uint64(9), view.Seed)
	require.Equal(t, "emp-1", view.Header.EmployeeID)
	require.NotEmpty(t, view.Buckets)

	rr = srv.do(t, admin, http.MethodGet, "/v1/employees/emp-404/day", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = srv.do(t, admin, http.MethodGet, "/v1/employees/emp-1/day?scale=2min", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRatingPaginates(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, admin, http.MethodGet, "/v1/rating?date=2025-01-15&criterion=idle&page=2&page_size=5", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body struct {
		Criterion string `json:"criterion"`
		Date      string `json:"date"`
		Rows      struct {
			Items      []json.RawMessage `json:"items"`
			Page       int               `json:"page"`
			Total      int               `json:"total"`
			TotalPages int               `json:"total_pages"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "idle", body.Criterion)
	require.Equal(t, "2025-01-15", body.Date)
	require.Equal(t, 2, body.Rows.Page)
	require.Equal(t, 12, body.Rows.Total)
	require.Equal(t, 3, body.Rows.TotalPages)
	require.Len(t, body.Rows.Items, 5)

	rr = srv.do(t, admin, http.MethodGet, "/v1/rating?criterion=speed", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	rr = srv.do(t, admin, http.MethodGet, "/v1/rating?page=0", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCategorizationOverrideAndReset(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, admin, http.MethodGet, "/v1/categorization?page_size=5", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var page struct {
		Items      []domain.CategorizationRule `json:"items"`
		Total      int                         `json:"total"`
		TotalPages int                         `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Equal(t, len(domain.DefaultRules()), page.Total)
	require.Equal(t, 5, page.TotalPages)
	require.Len(t, page.Items, 5)

	rr = srv.do(t, admin, http.MethodPut, "/v1/categorization/2", `{"category":"productive"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rule := decode[domain.CategorizationRule](t, rr)
	require.Equal(t, domain.SourceManual, rule.Source)
	require.Equal(t, domain.CategoryProductive, rule.Category)
	require.NotNil(t, rule.UpdatedAt)

	rr = srv.do(t, admin, http.MethodGet, "/v1/categorization?filter=manual", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Equal(t, 1, page.Total)

	rr = srv.do(t, admin, http.MethodPost, "/v1/categorization/2/reset", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, domain.CategoryNeutral, decode[domain.CategorizationRule](t, rr).Category)

	rr = srv.do(t, admin, http.MethodPut, "/v1/categorization/3", `{"category":"neutral"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = srv.do(t, admin, http.MethodPost, "/v1/categorization/reset", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = srv.do(t, admin, http.MethodGet, "/v1/categorization?filter=manual", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Zero(t, page.Total)

	rr = srv.do(t, admin, http.MethodPut, "/v1/categorization/999", `{"category":"neutral"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
	rr = srv.do(t, admin, http.MethodPut, "/v1/categorization/1", `{"category":"awesome"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "validation_failed", decode[map[string]string](t, rr)["type"])
	rr = srv.do(t, admin, http.MethodPut, "/v1/categorization/1", `{"category":"neutral","extra":1}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_request", decode[map[string]string](t, rr)["type"])
	rr = srv.do(t, admin, http.MethodGet, "/v1/categorization?filter=recent", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCalendarLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, admin, http.MethodPut, "/v1/calendar", `{"employee_id":"emp-1","date":"2025-03-10","status":"sick"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, domain.StatusSick, decode[domain.CalendarStatus](t, rr).Status)

	rr = srv.do(t, admin, http.MethodPost, "/v1/calendar/range", `{"employee_id":"emp-1","from":"2025-03-10","to":"2025-03-12","status":"vacation"}`)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = srv.do(t, admin, http.MethodGet, "/v1/calendar?month=2025-03&employee_id=all", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[ListItemsResponse[domain.CalendarStatus]](t, rr)
	require.Len(t, list.Items, 3)
	for _, s := range list.Items {
		require.Equal(t, domain.StatusVacation, s.Status)
	}

	rr = srv.do(t, admin, http.MethodDelete, "/v1/calendar?employee_id=emp-1&date=2025-03-11", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = srv.do(t, admin, http.MethodGet, "/v1/calendar?month=2025-03&employee_id=emp-1", "")
	require.Len(t, decode[ListItemsResponse[domain.CalendarStatus]](t, rr).Items, 2)

	rr = srv.do(t, admin, http.MethodGet, "/v1/calendar?month=2025-04", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"items":[]}`, rr.Body.String())

	rr = srv.do(t, admin, http.MethodPost, "/v1/calendar/range", `{"employee_id":"emp-1","from":"2025-03-12","to":"2025-03-10","status":"trip"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	rr = srv.do(t, admin, http.MethodGet, "/v1/calendar?month=March", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGeneralSettingsRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, admin, http.MethodGet, "/v1/settings/general", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, domain.DefaultGeneralSettings(), decode[domain.GeneralSettings](t, rr))

	body := `{"timezone":"Asia/Yekaterinburg","language":"en","idle_threshold":15,"late_tolerance":0}`
	rr = srv.do(t, admin, http.MethodPut, "/v1/settings/general", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = srv.do(t, admin, http.MethodGet, "/v1/settings/general", "")
	require.JSONEq(t, body, rr.Body.String())

	rr = srv.do(t, admin, http.MethodPut, "/v1/settings/general", `{"timezone":"UTC","language":"de"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAccountsProtectBootstrapAdmin(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, admin, http.MethodGet, "/v1/settings/accounts", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotContains(t, rr.Body.String(), "password")
	accounts := decode[ListItemsResponse[domain.AdminAccount]](t, rr).Items
	require.Len(t, accounts, 1)
	require.Equal(t, domain.BootstrapLogin, accounts[0].Login)

	rr = srv.do(t, admin, http.MethodPost, "/v1/settings/accounts", `{"login":"operator","password":"s3cret"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[domain.AdminAccount](t, rr)
	require.Equal(t, "operator", created.Login)

	rr = srv.do(t, admin, http.MethodPost, "/v1/settings/accounts", `{"login":"operator","password":"other"}`)
	require.Equal(t, http.StatusConflict, rr.Code)
	rr = srv.do(t, admin, http.MethodPost, "/v1/settings/accounts", `{"login":"","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, admin, http.MethodDelete, "/v1/settings/accounts/"+accounts[0].ID, "")
	require.Equal(t, http.StatusForbidden, rr.Code)
	rr = srv.do(t, admin, http.MethodDelete, "/v1/settings/accounts/admin-missing", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	rr = srv.do(t, admin, http.MethodDelete, "/v1/settings/accounts/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestStopPasswordsReplacePerEmployee(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, admin, http.MethodPost, "/v1/settings/stop-passwords", `{"employee_id":"emp-3"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	first := decode[domain.StopPassword](t, rr)
	require.Regexp(t, `^[A-Z0-9]{6,8}$`, first.Password)

	rr = srv.do(t, admin, http.MethodPost, "/v1/settings/stop-passwords", `{"employee_id":"emp-3"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = srv.do(t, admin, http.MethodGet, "/v1/settings/stop-passwords", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decode[ListItemsResponse[domain.StopPassword]](t, rr).Items, 1)

	rr = srv.do(t, admin, http.MethodPost, "/v1/settings/stop-passwords", `{"employee_id":" "}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuditLogCursorPagination(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	for i, id := range []string{"kickaider_settings-0-1", "kickaider_settings-0-2", "kickaider_calendar-0-1"} {
		require.NoError(t, srv.repo.AppendAudit(ctx, domain.AuditEntry{
			ID:         id,
			TenantID:   testTenant,
			EventType:  "settings.changed",
			Topic:      "kickaider_settings",
			Payload:    json.RawMessage(`{}`),
			ReceivedAt: fixedNow.Add(time.Duration(i) * time.Minute),
		}))
	}

	rr := srv.do(t, admin, http.MethodGet, "/v1/audit?limit=2", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	first := decode[AuditLogResponse](t, rr)
	require.Len(t, first.Items, 2)
	require.Equal(t, "kickaider_calendar-0-1", first.Items[0].ID)
	require.NotEmpty(t, first.NextCursor)

	rr = srv.do(t, admin, http.MethodGet, "/v1/audit?limit=2&cursor="+first.NextCursor, "")
	require.Equal(t, http.StatusOK, rr.Code)
	second := decode[AuditLogResponse](t, rr)
	require.Len(t, second.Items, 1)
	require.Equal(t, "kickaider_settings-0-1", second.Items[0].ID)
	require.Empty(t, second.NextCursor)

	rr = srv.do(t, admin, http.MethodGet, "/v1/audit?cursor=@@@", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTenantsAreIsolated(t *testing.T) {
	srv := newTestServer(t)
	other := claimsWith(auth.AllScopes...)
	other.TenantID = "tenant-2"

	rr := srv.do(t, admin, http.MethodPut, "/v1/categorization/2", `{"category":"productive"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var page struct {
		Total int `json:"total"`
	}
	rr = srv.do(t, other, http.MethodGet, "/v1/categorization?filter=manual", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Zero(t, page.Total)

	rr = srv.do(t, admin, http.MethodGet, "/v1/categorization?filter=manual", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Equal(t, 1, page.Total)
}
