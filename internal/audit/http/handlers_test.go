package audithttp

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-hr/odyssey-hr/internal/audit"
	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
)

type stubTimelineService struct {
	pages       []audit.Result
	err         error
	calls       int
	lastFilters audit.TimelineFilters
}

func (s *stubTimelineService) Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	s.calls++
	if s.err != nil {
		return audit.Result{}, s.err
	}
	if len(s.pages) == 0 {
		return audit.Result{Rows: []audit.TimelineRow{}}, nil
	}
	idx := filters.Page - 1
	if idx >= len(s.pages) {
		idx = len(s.pages) - 1
	}
	return s.pages[idx], nil
}

func newAuditRouter(service *stubTimelineService, role rbac.Role) http.Handler {
	h := NewHandler(nil, service, rbac.Middleware{Gate: rbac.NewGate(rbac.MustDefault())})
	h.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			claim := claims.SessionClaim{Subject: "b7c4", Email: "hr@example.com", Role: role}
			next.ServeHTTP(w, req.WithContext(claims.ContextWithClaim(req.Context(), claim)))
		})
	})
	r.Route("/audit", h.MountRoutes)
	return r
}

func TestTimelineRequiresPermission(t *testing.T) {
	service := &stubTimelineService{}
	rr := httptest.NewRecorder()
	newAuditRouter(service, rbac.RoleDepartmentEmployee).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Zero(t, service.calls)
}

func TestTimelineReturnsRows(t *testing.T) {
	rows := []audit.TimelineRow{{At: time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC), Actor: "hr@example.com", Action: "auth.login", Entity: "employee", EntityID: "1"}}
	service := &stubTimelineService{pages: []audit.Result{{Rows: rows, Paging: audit.PagingInfo{Page: 1, PageSize: 20}}}}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/audit/?from=2024-03-01&to=2024-03-15&action=auth.login", nil)
	newAuditRouter(service, rbac.RoleHRAdmin).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "hr@example.com")
	assert.Equal(t, "2024-03-01", service.lastFilters.From.Format("2006-01-02"))
	assert.Equal(t, "2024-03-16", service.lastFilters.To.Format("2006-01-02"))
	assert.Equal(t, "auth.login", service.lastFilters.Action)
}

func TestTimelineRejectsBadFilters(t *testing.T) {
	for _, query := range []string{"from=bogus", "from=2024-03-10&to=2024-03-01", "from=2023-01-01&to=2024-03-01", "page=0", "page_size=x"} {
		service := &stubTimelineService{}
		rr := httptest.NewRecorder()
		newAuditRouter(service, rbac.RoleSystemAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, query)
	}
}

func TestTimelineHidesInternalErrors(t *testing.T) {
	service := &stubTimelineService{err: errors.New("connection refused")}
	rr := httptest.NewRecorder()
	newAuditRouter(service, rbac.RoleHRAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestExportCSVWalksPages(t *testing.T) {
	service := &stubTimelineService{pages: []audit.Result{
		{Rows: []audit.TimelineRow{{Actor: "a@example.com", Action: "auth.login"}}, Paging: audit.PagingInfo{Page: 1, HasNext: true}},
		{Rows: []audit.TimelineRow{{Actor: "b@example.com", Action: "auth.logout"}}, Paging: audit.PagingInfo{Page: 2}},
	}}
	rr := httptest.NewRecorder()
	newAuditRouter(service, rbac.RoleHRAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, 2, service.calls)
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "at,actor,action,entity,entity_id", lines[0])
	assert.Contains(t, lines[2], "b@example.com")
}

func TestExportFailureBeforeFirstPageIsProblem(t *testing.T) {
	service := &stubTimelineService{err: errors.New("connection refused")}
	rr := httptest.NewRecorder()
	newAuditRouter(service, rbac.RoleHRAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestExportCSVNeutralisesFormulas(t *testing.T) {
	service := &stubTimelineService{pages: []audit.Result{{Rows: []audit.TimelineRow{
		{Actor: "@admin", Action: "auth.login_failure", Entity: "employee", EntityID: `=HYPERLINK("http://evil","x")`},
		{Actor: "+1", Action: "-2", Entity: "\tdept", EntityID: "plain-id"},
	}}}}
	rr := httptest.NewRecorder()
	newAuditRouter(service, rbac.RoleHRAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"'@admin", "auth.login_failure", "employee", `'=HYPERLINK("http://evil","x")`}, records[1][1:])
	assert.Equal(t, []string{"'+1", "'-2", "'\tdept", "plain-id"}, records[2][1:])
}
