package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"assettrack/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func fixedLoader(on bool, msg string) ModeLoader {
	return func(ctx context.Context, orgID primitive.ObjectID) (*models.Settings, error) {
		return &models.Settings{OrganizationID: orgID, MaintenanceMode: on, MaintenanceMessage: msg}, nil
	}
}

func orgRequest(method, path string, orgID primitive.ObjectID) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	return r.WithContext(context.WithValue(r.Context(), CtxOrgID, orgID.Hex()))
}

func doRequest(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestGateBlocksWritesWhenOn(t *testing.T) {
	org := primitive.NewObjectID()
	gate := NewMaintenanceGate(fixedLoader(true, "back at noon"))
	h := gate.Middleware(okHandler())

	rec := doRequest(h, orgRequest(http.MethodPost, "/api/assets", org))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "back at noon"))

	rec = doRequest(h, orgRequest(http.MethodDelete, "/api/tags/abc", org))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGateAllowsReadsAndExemptRoutes(t *testing.T) {
	org := primitive.NewObjectID()
	gate := NewMaintenanceGate(fixedLoader(true, ""))
	h := gate.Middleware(okHandler())

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/assets"},
		{http.MethodOptions, "/api/assets"},
		{http.MethodPost, "/api/auth/login"},
		{http.MethodPut, "/api/settings"},
		{http.MethodGet, "/health"},
	} {
		rec := doRequest(h, orgRequest(tc.method, tc.path, org))
		assert.Equal(t, http.StatusOK, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestGateScopedToOrganization(t *testing.T) {
	closed := primitive.NewObjectID()
	open := primitive.NewObjectID()
	gate := NewMaintenanceGate(func(ctx context.Context, orgID primitive.ObjectID) (*models.Settings, error) {
		return &models.Settings{OrganizationID: orgID, MaintenanceMode: orgID == closed}, nil
	})
	h := gate.Middleware(okHandler())

	rec := doRequest(h, orgRequest(http.MethodPost, "/api/assets", closed))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// One tenant's maintenance window never gates another tenant.
	rec = doRequest(h, orgRequest(http.MethodPost, "/api/assets", open))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGatePassesRequestsWithoutOrganization(t *testing.T) {
	gate := NewMaintenanceGate(fixedLoader(true, ""))
	h := gate.Middleware(okHandler())

	// Public signup carries no organization in context; nothing to gate.
	rec := doRequest(h, httptest.NewRequest(http.MethodPost, "/api/organizations", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGatePassesWhenOff(t *testing.T) {
	gate := NewMaintenanceGate(fixedLoader(false, ""))
	h := gate.Middleware(okHandler())

	rec := doRequest(h, orgRequest(http.MethodPost, "/api/assets", primitive.NewObjectID()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGateCachesWithinTTL(t *testing.T) {
	org := primitive.NewObjectID()
	calls := 0
	gate := NewMaintenanceGate(func(ctx context.Context, orgID primitive.ObjectID) (*models.Settings, error) {
		calls++
		return &models.Settings{OrganizationID: orgID}, nil
	})

	clock := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return clock }

	h := gate.Middleware(okHandler())

	doRequest(h, orgRequest(http.MethodPost, "/api/assets", org))
	doRequest(h, orgRequest(http.MethodPost, "/api/assets", org))
	assert.Equal(t, 1, calls)

	// Past the TTL the flag is re-read.
	clock = clock.Add(11 * time.Second)
	doRequest(h, orgRequest(http.MethodPost, "/api/assets", org))
	assert.Equal(t, 2, calls)
}

func TestGateInvalidateForcesReload(t *testing.T) {
	org := primitive.NewObjectID()
	calls := 0
	gate := NewMaintenanceGate(func(ctx context.Context, orgID primitive.ObjectID) (*models.Settings, error) {
		calls++
		return &models.Settings{OrganizationID: orgID}, nil
	})
	h := gate.Middleware(okHandler())

	doRequest(h, orgRequest(http.MethodPost, "/api/assets", org))
	gate.Invalidate(org)
	doRequest(h, orgRequest(http.MethodPost, "/api/assets", org))
	assert.Equal(t, 2, calls)
}

func TestGateServesStaleOnLoadFailure(t *testing.T) {
	org := primitive.NewObjectID()
	healthy := true
	gate := NewMaintenanceGate(func(ctx context.Context, orgID primitive.ObjectID) (*models.Settings, error) {
		if !healthy {
			return nil, errors.New("mongo down")
		}
		return &models.Settings{OrganizationID: orgID, MaintenanceMode: true, MaintenanceMessage: "closed"}, nil
	})

	clock := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return clock }

	h := gate.Middleware(okHandler())

	rec := doRequest(h, orgRequest(http.MethodPost, "/api/assets", org))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	healthy = false
	clock = clock.Add(time.Minute)

	// Loader failing: last known snapshot still applies.
	rec = doRequest(h, orgRequest(http.MethodPost, "/api/assets", org))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
