package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
)

const routerSecret = "router-test-secret-router-test-secret"

func newTestRouter(t *testing.T, readiness map[string]ReadinessCheck) (http.Handler, *claims.Issuer) {
	t.Helper()
	tokenCfg := claims.Config{Secret: routerSecret, Issuer: "odyssey-hr", Audience: "odyssey-hr-web", TTL: time.Hour}
	issuer, err := claims.NewIssuer(tokenCfg)
	require.NoError(t, err)
	verifier, err := claims.NewVerifier(tokenCfg)
	require.NoError(t, err)

	gate := rbac.NewGate(rbac.MustDefault())
	router := NewRouter(RouterParams{
		Config:             &Config{AppEnv: "test", AppRequestTimeout: time.Second},
		Authenticate:       claims.Authenticator{Verifier: verifier}.Authenticate,
		PermissionsHandler: rbac.NewPermissionsHandler(gate),
		Readiness:          readiness,
	})
	return router, issuer
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestReadyzReportsFailingDependency(t *testing.T) {
	router, _ := newTestRouter(t, map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body readiness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "unavailable", body.Checks["redis"])
}

func TestPermissionsRequireBearer(t *testing.T) {
	router, issuer := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rbac/permissions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := issuer.Issue(claims.SessionClaim{
		Subject: "5b4c2a9e-1d7f-4f59-9c7e-0e8a1e7f1a10",
		Email:   "jane@odyssey.local",
		Role:    rbac.RoleRecruiter,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/rbac/permissions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view rbac.RegistryView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Roles, len(rbac.Roles()))
	assert.Len(t, view.Permissions, len(rbac.Permissions()))
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
