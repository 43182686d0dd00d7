package routes

import (
	"github.com/gorilla/mux"

	"assettrack/handlers"
	"assettrack/middleware"
	"assettrack/models"
)

// HTTP method constants for better maintainability
var (
	MethodsGetOnly    = []string{"GET", "OPTIONS"}
	MethodsPostOnly   = []string{"POST", "OPTIONS"}
	MethodsPutOnly    = []string{"PUT", "OPTIONS"}
	MethodsDeleteOnly = []string{"DELETE", "OPTIONS"}
)

// Route grouping constants
const (
	PathAPI    = "/api"
	PathHealth = "/health"
)

func RegisterRoutes(r *mux.Router, gate *middleware.MaintenanceGate) {
	// ====================
	// HEALTH CHECK (Public)
	// ====================
	r.HandleFunc(PathHealth, handlers.HealthCheck).Methods(MethodsGetOnly...)

	// ====================
	// AUTHENTICATION ROUTES (Public - No auth required)
	// ====================
	r.HandleFunc("/api/auth/login", handlers.Login).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/logout", handlers.Logout).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/forgot-password", handlers.ForgotPassword).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/reset-password", handlers.ResetPassword).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/validate", handlers.ValidateToken).Methods(MethodsGetOnly...)

	// Organization signup (public: creates the org plus its first admin).
	// Deliberately outside the maintenance gate: the request belongs to no
	// existing organization, so no tenant's maintenance window applies.
	r.HandleFunc("/api/organizations", handlers.RegisterOrganization).Methods(MethodsPostOnly...)

	// Activity stream (websocket; authenticates via query token)
	r.HandleFunc("/api/activities/stream", handlers.HandleActivityStream)

	// ====================
	// PROTECTED API ROUTES (Require authentication)
	// ====================
	apiRouter := r.PathPrefix(PathAPI).Subrouter()
	apiRouter.Use(middleware.AuthMiddleware)
	apiRouter.Use(gate.Middleware)

	// Authenticated auth endpoints
	apiRouter.HandleFunc("/auth/change-password", handlers.ChangePassword).Methods(MethodsPostOnly...)

	// ====================
	// ORGANIZATION
	// ====================
	apiRouter.HandleFunc("/organization", handlers.GetOrganization).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/organization", middleware.RequireRole(handlers.UpdateOrganization, models.RoleAdmin)).Methods(MethodsPutOnly...)

	// ====================
	// USER MANAGEMENT
	// ====================
	apiRouter.HandleFunc("/users", middleware.RequireRole(handlers.ListUsers, models.RoleAdmin)).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/users", middleware.RequireRole(handlers.CreateUser, models.RoleAdmin)).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/users/me", handlers.GetMe).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/users/me", handlers.UpdateMe).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/users/{id}", middleware.RequireRole(handlers.UpdateUser, models.RoleAdmin)).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/users/{id}", middleware.RequireRole(handlers.DeactivateUser, models.RoleAdmin)).Methods(MethodsDeleteOnly...)

	// ====================
	// ASSETS
	// ====================
	apiRouter.HandleFunc("/assets", handlers.ListAssets).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets", handlers.CreateAsset).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/{id}", handlers.GetAsset).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets/{id}", handlers.UpdateAsset).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/assets/{id}", middleware.RequireRole(handlers.DeleteAsset, models.RoleAdmin)).Methods(MethodsDeleteOnly...)
	apiRouter.HandleFunc("/assets/{id}/maintenance", handlers.GetAssetMaintenance).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets/{id}/activities", handlers.GetAssetActivities).Methods(MethodsGetOnly...)

	// ====================
	// MAINTENANCE
	// ====================
	apiRouter.HandleFunc("/maintenance", handlers.ListMaintenance).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/maintenance", handlers.CreateMaintenance).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/maintenance/upcoming", handlers.UpcomingMaintenance).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/maintenance/{id}", handlers.GetMaintenance).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/maintenance/{id}", handlers.UpdateMaintenance).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/maintenance/{id}", middleware.RequireRole(handlers.DeleteMaintenance, models.RoleAdmin)).Methods(MethodsDeleteOnly...)

	// ====================
	// TAGS
	// ====================
	apiRouter.HandleFunc("/tags", handlers.ListTags).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/tags", handlers.CreateTag).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/tags/{id}", handlers.UpdateTag).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/tags/{id}", handlers.DeleteTag).Methods(MethodsDeleteOnly...)

	// ====================
	// ACTIVITY / AUDIT TRAIL
	// ====================
	apiRouter.HandleFunc("/activities", handlers.ListActivities).Methods(MethodsGetOnly...)

	// ====================
	// NOTIFICATIONS
	// ====================
	apiRouter.HandleFunc("/notifications", handlers.ListNotifications).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/notifications/read-all", handlers.MarkAllNotificationsRead).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/notifications/scan", middleware.RequireRole(handlers.TriggerMaintenanceScan, models.RoleAdmin)).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/notifications/{id}", handlers.DeleteNotification).Methods(MethodsDeleteOnly...)

	// ====================
	// SETTINGS / MAINTENANCE MODE
	// ====================
	apiRouter.HandleFunc("/settings", handlers.GetSettings).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/settings", middleware.RequireRole(handlers.UpdateSettings, models.RoleAdmin)).Methods(MethodsPutOnly...)

	// ====================
	// DASHBOARD
	// ====================
	apiRouter.HandleFunc("/dashboard/summary", handlers.GetDashboardSummary).Methods(MethodsGetOnly...)
}
