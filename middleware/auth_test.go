package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"assettrack/models"
)

func roleRequest(role string) *http.Request {
	r := httptest.NewRequest(http.MethodDelete, "/api/assets/abc", nil)
	if role == "" {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), CtxUserRole, role))
}

func TestRequireRole(t *testing.T) {
	called := false
	h := RequireRole(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}, models.RoleAdmin)

	rec := httptest.NewRecorder()
	h(rec, roleRequest(models.RoleAdmin))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, role := range []string{models.RoleManager, models.RoleViewer, ""} {
		called = false
		rec = httptest.NewRecorder()
		h(rec, roleRequest(role))
		assert.False(t, called, "role %q", role)
		assert.Equal(t, http.StatusForbidden, rec.Code, "role %q", role)
	}
}

func TestRequireRoleMultipleRoles(t *testing.T) {
	h := RequireRole(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, models.RoleAdmin, models.RoleManager)

	rec := httptest.NewRecorder()
	h(rec, roleRequest(models.RoleManager))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, roleRequest(models.RoleViewer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
