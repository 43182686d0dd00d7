// middleware/maintenance.go
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"assettrack/config"
	"assettrack/database"
	"assettrack/models"
	"assettrack/utils"
)

// modeTTL bounds how stale the cached maintenance flag may be. Toggling the
// flag takes effect within this window without a settings read per request.
const modeTTL = 10 * time.Second

// ModeLoader fetches the settings document for one organization.
type ModeLoader func(ctx context.Context, orgID primitive.ObjectID) (*models.Settings, error)

// MaintenanceGate rejects mutating API requests while the caller's
// organization has maintenance mode on. Reads, auth, health and the settings
// routes themselves stay open so an admin can always turn the flag back off.
// Requests carrying no organization (public routes such as signup) pass
// through; there is no tenant to attribute them to.
type MaintenanceGate struct {
	load ModeLoader

	mu     sync.Mutex
	cached map[primitive.ObjectID]modeSnapshot
	now    func() time.Time
}

type modeSnapshot struct {
	settings  *models.Settings
	fetchedAt time.Time
}

// NewMaintenanceGate builds a gate around the given loader. A nil loader
// reads the organization's settings document from the database.
func NewMaintenanceGate(load ModeLoader) *MaintenanceGate {
	if load == nil {
		load = loadSettings
	}
	return &MaintenanceGate{
		load:   load,
		cached: make(map[primitive.ObjectID]modeSnapshot),
		now:    time.Now,
	}
}

func loadSettings(ctx context.Context, orgID primitive.ObjectID) (*models.Settings, error) {
	var s models.Settings
	err := database.Client.Database(config.MongoDB).Collection("settings").
		FindOne(ctx, bson.M{"organizationId": orgID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return &models.Settings{OrganizationID: orgID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Settings returns the cached settings for the organization, refreshing when
// the TTL has lapsed. On load failure the previous snapshot is served.
func (g *MaintenanceGate) Settings(ctx context.Context, orgID primitive.ObjectID) *models.Settings {
	g.mu.Lock()
	defer g.mu.Unlock()

	if snap, ok := g.cached[orgID]; ok && g.now().Sub(snap.fetchedAt) < modeTTL {
		return snap.settings
	}

	s, err := g.load(ctx, orgID)
	if err != nil {
		log.Printf("maintenance gate: settings load failed for org %s: %v", orgID.Hex(), err)
		if snap, ok := g.cached[orgID]; ok {
			return snap.settings
		}
		return &models.Settings{OrganizationID: orgID}
	}

	g.cached[orgID] = modeSnapshot{settings: s, fetchedAt: g.now()}
	return s
}

// Invalidate drops the organization's cached snapshot so the next request
// re-reads the flag. Called by the settings handler after an update.
func (g *MaintenanceGate) Invalidate(orgID primitive.ObjectID) {
	g.mu.Lock()
	delete(g.cached, orgID)
	g.mu.Unlock()
}

func (g *MaintenanceGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.blocks(r) {
			next.ServeHTTP(w, r)
			return
		}

		orgHex, _ := r.Context().Value(CtxOrgID).(string)
		orgID, err := primitive.ObjectIDFromHex(orgHex)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		s := g.Settings(r.Context(), orgID)
		if !s.MaintenanceMode {
			next.ServeHTTP(w, r)
			return
		}

		msg := s.MaintenanceMessage
		if msg == "" {
			msg = "The system is under maintenance. Changes are temporarily disabled."
		}
		utils.RespondWithError(w, http.StatusServiceUnavailable, msg)
	})
}

// blocks reports whether the request is subject to the maintenance gate.
func (g *MaintenanceGate) blocks(r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodOptions || r.Method == http.MethodHead {
		return false
	}
	p := r.URL.Path
	if strings.HasPrefix(p, "/api/auth/") || strings.HasPrefix(p, "/api/settings") || p == "/health" {
		return false
	}
	return true
}
