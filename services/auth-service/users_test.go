package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"blood-donation-backend/pkg/middleware"
	"blood-donation-backend/services/auth-service/models"
)

// No database is wired here. The handler must reject the request before
// reaching any collection, otherwise the nil client panics the test.
func TestProfileRejectsDonorFieldsForNonDonorBeforeAnyWrite(t *testing.T) {
	claims := &middleware.UserClaims{
		UserID:   "65f000000000000000000001",
		Role:     models.RoleAdmin,
		IsVerify: true,
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/profile", strings.NewReader(`{"rhesus":"A+"}`))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
	rec := httptest.NewRecorder()

	profileHandler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProfileRejectsMixedDonorAndUserFieldsForNonDonor(t *testing.T) {
	claims := &middleware.UserClaims{
		UserID:   "65f000000000000000000001",
		Role:     models.RoleInstitusi,
		IsVerify: true,
	}

	body := `{"name":"RS Harapan Baru","domicile":"Bandung"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/profile", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
	rec := httptest.NewRecorder()

	profileHandler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
