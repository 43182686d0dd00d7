package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"assettrack/config"
	"assettrack/database"
	"assettrack/models"
	"assettrack/utils"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	CtxUserID   = "userID"
	CtxUserName = "userName"
	CtxUserRole = "userRole"
	CtxOrgID    = "orgID"
)

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for WebSocket upgrade requests; the stream
		// handler validates its own token from the query string.
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid user ID format: %s", claims.UserID))
			return
		}

		var user models.User
		err = database.Client.Database(config.MongoDB).Collection("users").
			FindOne(r.Context(), bson.M{"_id": userID}).Decode(&user)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "User not found")
			return
		}

		if !user.Active {
			utils.RespondWithError(w, http.StatusForbidden, "Account is deactivated")
			return
		}

		if user.OrganizationID.IsZero() {
			utils.RespondWithError(w, http.StatusBadRequest, "User has no organization")
			return
		}

		ctx := context.WithValue(r.Context(), CtxUserID, claims.UserID)
		ctx = context.WithValue(ctx, CtxUserName, claims.Name)
		ctx = context.WithValue(ctx, CtxUserRole, user.Role)
		ctx = context.WithValue(ctx, CtxOrgID, user.OrganizationID.Hex())

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole wraps a handler and rejects callers whose role is not listed.
func RequireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(CtxUserRole).(string)
		for _, allowed := range roles {
			if role == allowed {
				next(w, r)
				return
			}
		}
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
	}
}
