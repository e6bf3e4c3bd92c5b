package employees

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
)

var profileCols = []string{"id", "email", "first_name", "last_name", "national_id", "employee_number",
	"date_of_hire", "role", "department_id", "department_code", "is_active", "created_at"}

func profileRow(rows *pgxmock.Rows, id uuid.UUID, dept *uuid.UUID, extra ...any) *pgxmock.Rows {
	var deptCol any
	code := ""
	if dept != nil {
		deptCol = uuid.NullUUID{UUID: *dept, Valid: true}
		code = "ENG"
	}
	values := []any{id, "a@x.com", "Ada", "Lovelace", "NID-1", "EMP-001",
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "HR Admin", deptCol, code, true, time.Now().UTC()}
	return rows.AddRow(append(values, extra...)...)
}

type harness struct {
	mock   pgxmock.PgxPoolIface
	router http.Handler
	claim  claims.SessionClaim
}

func newHarness(t *testing.T, claim claims.SessionClaim) *harness {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	h := NewHandler(nil, NewService(NewRepository(mock)), rbac.Middleware{Gate: rbac.NewGate(rbac.MustDefault())})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(claims.ContextWithClaim(req.Context(), claim)))
		})
	})
	r.Route("/employees", h.MountRoutes)
	return &harness{mock: mock, router: r, claim: claim}
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestListRequiresAllProfiles(t *testing.T) {
	h := newHarness(t, claims.SessionClaim{Subject: uuid.NewString(), Role: rbac.RoleDepartmentEmployee})
	assert.Equal(t, http.StatusForbidden, h.get("/employees/").Code)
}

func TestListPaginates(t *testing.T) {
	h := newHarness(t, claims.SessionClaim{Subject: uuid.NewString(), Role: rbac.RoleHREmployee})
	rows := pgxmock.NewRows(append(profileCols, "total"))
	profileRow(rows, uuid.New(), nil, 41)
	h.mock.ExpectQuery("COUNT\\(\\*\\) OVER").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 20, 20).
		WillReturnRows(rows)

	rr := h.get("/employees/?page=2&per_page=20&q=ada&department=eng")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"totalPages":3`)
	assert.NotContains(t, rr.Body.String(), "password")
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestMeReturnsOwnProfile(t *testing.T) {
	self := uuid.New()
	h := newHarness(t, claims.SessionClaim{Subject: self.String(), Role: rbac.RoleJobCandidate})
	h.mock.ExpectQuery("WHERE e.id = \\$1").WithArgs(self).WillReturnRows(profileRow(pgxmock.NewRows(profileCols), self, nil))

	rr := h.get("/employees/me")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), self.String())
}

func TestGetSelfWithoutPermission(t *testing.T) {
	self := uuid.New()
	h := newHarness(t, claims.SessionClaim{Subject: self.String(), Role: rbac.RoleJobCandidate})
	h.mock.ExpectQuery("WHERE e.id = \\$1").WithArgs(self).WillReturnRows(profileRow(pgxmock.NewRows(profileCols), self, nil))

	assert.Equal(t, http.StatusOK, h.get("/employees/"+self.String()).Code)
	assert.Equal(t, http.StatusForbidden, h.get("/employees/"+uuid.NewString()).Code)
}

func TestGetTeamMemberByDepartmentHead(t *testing.T) {
	dept := uuid.New()
	other := uuid.New()
	member := uuid.New()
	h := newHarness(t, claims.SessionClaim{Subject: uuid.NewString(), Role: rbac.RoleDepartmentHead, DepartmentID: dept.String()})
	h.mock.ExpectQuery("WHERE e.id = \\$1").WithArgs(member).WillReturnRows(profileRow(pgxmock.NewRows(profileCols), member, &dept))
	h.mock.ExpectQuery("WHERE e.id = \\$1").WithArgs(other).WillReturnRows(profileRow(pgxmock.NewRows(profileCols), other, nil))

	assert.Equal(t, http.StatusOK, h.get("/employees/"+member.String()).Code)
	assert.Equal(t, http.StatusForbidden, h.get("/employees/"+other.String()).Code)
}

func TestGetMissingAndMalformed(t *testing.T) {
	h := newHarness(t, claims.SessionClaim{Subject: uuid.NewString(), Role: rbac.RoleHRAdmin})
	missing := uuid.New()
	h.mock.ExpectQuery("WHERE e.id = \\$1").WithArgs(missing).WillReturnRows(pgxmock.NewRows(profileCols))

	assert.Equal(t, http.StatusNotFound, h.get("/employees/"+missing.String()).Code)
	assert.Equal(t, http.StatusNotFound, h.get("/employees/not-a-uuid").Code)
}

func TestServiceListEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectQuery("COUNT\\(\\*\\) OVER").WithArgs((*string)(nil), (*string)(nil), 20, 0).WillReturnRows(pgxmock.NewRows(append(profileCols, "total")))

	page, err := NewService(NewRepository(mock)).List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.Pagination.Total)
}

func TestListPastLastPageKeepsTotal(t *testing.T) {
	h := newHarness(t, claims.SessionClaim{Subject: uuid.NewString(), Role: rbac.RoleHRAdmin})
	h.mock.ExpectQuery("COUNT\\(\\*\\) OVER").
		WithArgs((*string)(nil), (*string)(nil), 20, 180).
		WillReturnRows(pgxmock.NewRows(append(profileCols, "total")))
	h.mock.ExpectQuery("^SELECT COUNT\\(\\*\\) FROM employees e").
		WithArgs((*string)(nil), (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(41))

	rr := h.get("/employees/?page=10&per_page=20")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"total":41`)
	assert.Contains(t, rr.Body.String(), `"totalPages":3`)
	assert.NoError(t, h.mock.ExpectationsWereMet())
}
