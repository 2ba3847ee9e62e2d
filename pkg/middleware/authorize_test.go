package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireRoleAllowsListedRole(t *testing.T) {
	token := signToken(t, verifiedClaims("Admin"), testSecret)

	called := false
	handler := Auth(testSecret, RequireRole("Admin")(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireRoleHaltsOnMismatch(t *testing.T) {
	token := signToken(t, verifiedClaims("Partisipan"), testSecret)

	called := false
	handler := Auth(testSecret, RequireRole("Admin", "Institusi Kesehatan")(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called, "handler must not run after a role rejection")
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	called := false
	handler := RequireRole("Admin")(func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}
