package departments

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/cache"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
	"github.com/odyssey-hr/odyssey-hr/internal/shared"
)

var deptColumns = []string{"id", "code", "name", "parent_id", "head_employee_id", "created_at"}

func newCache(t *testing.T) (*cache.JSONStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewJSONStore(client, "dept:", 10*time.Minute), mr
}

func TestResolveCodeReadsThroughCache(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("SELECT id, code, name").
		WithArgs("ENG").
		WillReturnRows(pgxmock.NewRows(deptColumns).AddRow(id, "ENG", "Engineering", nil, nil, created))

	store, mr := newCache(t)
	svc := NewService(NewRepository(mock), store, nil)

	dept, err := svc.ResolveCode(context.Background(), " eng ")
	require.NoError(t, err)
	assert.Equal(t, id, dept.ID)
	assert.True(t, mr.Exists("dept:ENG"))

	again, err := svc.ResolveCode(context.Background(), "ENG")
	require.NoError(t, err)
	assert.Equal(t, dept.ID, again.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveCodeNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectQuery("SELECT id, code, name").WithArgs("NOPE").WillReturnRows(pgxmock.NewRows(deptColumns))

	svc := NewService(NewRepository(mock), nil, nil)
	_, err = svc.ResolveCode(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = svc.ResolveCode(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateValidatesAndResolvesParent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	parentID := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, code, name").WithArgs("HQ").
		WillReturnRows(pgxmock.NewRows(deptColumns).AddRow(parentID, "HQ", "Head Office", nil, nil, now))
	mock.ExpectQuery("INSERT INTO departments").
		WithArgs(pgxmock.AnyArg(), "HR", "People", &parentID).
		WillReturnRows(pgxmock.NewRows(deptColumns).AddRow(uuid.New(), "HR", "People", uuid.NullUUID{UUID: parentID, Valid: true}, nil, now))

	store, mr := newCache(t)
	require.NoError(t, store.Set(context.Background(), "HR", Department{Code: "HR", Name: "stale"}))
	svc := NewService(NewRepository(mock), store, nil)

	dept, err := svc.Create(context.Background(), CreateInput{Code: "hr", Name: " People ", ParentCode: "hq"})
	require.NoError(t, err)
	require.NotNil(t, dept.ParentID)
	assert.Equal(t, parentID, *dept.ParentID)
	assert.False(t, mr.Exists("dept:HR"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	svc := NewService(NewRepository(mock), nil, nil)

	_, err = svc.Create(context.Background(), CreateInput{Code: "", Name: "x"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{Code: "a-b", Name: "x"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	mock.ExpectQuery("SELECT id, code, name").WithArgs("GHOST").WillReturnRows(pgxmock.NewRows(deptColumns))
	_, err = svc.Create(context.Background(), CreateInput{Code: "OPS", Name: "Ops", ParentCode: "ghost"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateCodeIsConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectQuery("INSERT INTO departments").
		WithArgs(pgxmock.AnyArg(), "ENG", "Engineering", (*uuid.UUID)(nil)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "departments_code_key"})

	svc := NewService(NewRepository(mock), nil, nil)
	_, err = svc.Create(context.Background(), CreateInput{Code: "ENG", Name: "Engineering"})
	assert.ErrorIs(t, err, ErrDuplicateCode)
	assert.Equal(t, http.StatusConflict, httpx.StatusFor(err))
}

func TestBuildTree(t *testing.T) {
	hq := uuid.New()
	eng := uuid.New()
	orphanParent := uuid.New()
	list := []Department{
		{ID: eng, Code: "ENG", ParentID: &hq},
		{ID: uuid.New(), Code: "API", ParentID: &eng},
		{ID: hq, Code: "HQ"},
		{ID: uuid.New(), Code: "ADM", ParentID: &hq},
		{ID: uuid.New(), Code: "LOST", ParentID: &orphanParent},
	}
	roots := BuildTree(list)
	require.Len(t, roots, 2)
	assert.Equal(t, "HQ", roots[0].Code)
	assert.Equal(t, "LOST", roots[1].Code)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "ADM", roots[0].Children[0].Code)
	assert.Equal(t, "API", roots[0].Children[1].Children[0].Code)
}

type recordingAuditor struct {
	logs []shared.AuditLog
}

func (r *recordingAuditor) Record(ctx context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func newRouter(h *Handler, role rbac.Role, subject string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			claim := claims.SessionClaim{Subject: subject, Email: "u@example.com", Role: role}
			next.ServeHTTP(w, req.WithContext(claims.ContextWithClaim(req.Context(), claim)))
		})
	})
	r.Route("/departments", h.MountRoutes)
	return r
}

func TestHandlerPermissions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mw := rbac.Middleware{Gate: rbac.NewGate(rbac.MustDefault())}
	auditor := &recordingAuditor{}
	h := NewHandler(nil, NewService(NewRepository(mock), nil, nil), mw, auditor)

	rr := httptest.NewRecorder()
	newRouter(h, rbac.RoleJobCandidate, uuid.NewString()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/departments/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	body := bytes.NewBufferString(`{"code":"ENG","name":"Engineering"}`)
	rr = httptest.NewRecorder()
	newRouter(h, rbac.RoleDepartmentEmployee, uuid.NewString()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/departments/", body))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	actor := uuid.New()
	mock.ExpectQuery("INSERT INTO departments").
		WithArgs(pgxmock.AnyArg(), "ENG", "Engineering", (*uuid.UUID)(nil)).
		WillReturnRows(pgxmock.NewRows(deptColumns).AddRow(uuid.New(), "ENG", "Engineering", nil, nil, time.Now()))
	rr = httptest.NewRecorder()
	body = bytes.NewBufferString(`{"code":"ENG","name":"Engineering"}`)
	newRouter(h, rbac.RoleHRAdmin, actor.String()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/departments/", body))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/departments/ENG", rr.Header().Get("Location"))
	require.Len(t, auditor.logs, 1)
	require.NotNil(t, auditor.logs[0].ActorID)
	assert.Equal(t, actor, *auditor.logs[0].ActorID)

	mock.ExpectQuery("SELECT id, code, name").
		WillReturnRows(pgxmock.NewRows(deptColumns).AddRow(uuid.New(), "ENG", "Engineering", nil, nil, time.Now()))
	rr = httptest.NewRecorder()
	newRouter(h, rbac.RoleDepartmentEmployee, uuid.NewString()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/departments/tree", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"tree"`)

	mock.ExpectQuery("SELECT id, code, name").
		WithArgs("ENG").
		WillReturnRows(pgxmock.NewRows(deptColumns).AddRow(uuid.New(), "ENG", "Engineering", nil, nil, time.Now()))
	rr = httptest.NewRecorder()
	newRouter(h, rbac.RoleDepartmentEmployee, uuid.NewString()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/departments/eng", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ENG"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
