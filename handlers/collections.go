// handlers/collections.go
package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"assettrack/database"
	"assettrack/utils"
)

var (
	orgCollection          *mongo.Collection
	userCollection         *mongo.Collection
	assetCollection        *mongo.Collection
	maintenanceCollection  *mongo.Collection
	tagCollection          *mongo.Collection
	activityCollection     *mongo.Collection
	notificationCollection *mongo.Collection
	settingsCollection     *mongo.Collection
)

var validate = validator.New()

func InitCollections() {
	db := database.DB()
	orgCollection = db.Collection("organizations")
	userCollection = db.Collection("users")
	assetCollection = db.Collection("assets")
	maintenanceCollection = db.Collection("maintenance")
	tagCollection = db.Collection("tags")
	activityCollection = db.Collection("activities")
	notificationCollection = db.Collection("notifications")
	settingsCollection = db.Collection("settings")
}

// orgIDFromRequest pulls the caller's organization out of the request context
// set by the auth middleware. Writes the error response itself on failure.
func orgIDFromRequest(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	orgIDStr, ok := r.Context().Value("orgID").(string)
	if !ok || orgIDStr == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "organization id required")
		return primitive.NilObjectID, false
	}
	orgID, err := primitive.ObjectIDFromHex(orgIDStr)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid organization id format")
		return primitive.NilObjectID, false
	}
	return orgID, true
}

// userIDFromRequest pulls the caller's user id out of the request context.
func userIDFromRequest(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	userIDStr, ok := r.Context().Value("userID").(string)
	if !ok || userIDStr == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "user id required")
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id format")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func userNameFromRequest(r *http.Request) string {
	name, _ := r.Context().Value("userName").(string)
	return name
}

func roleFromRequest(r *http.Request) string {
	role, _ := r.Context().Value("userRole").(string)
	return role
}

// pathObjectID parses the {id} mux var. Writes the error response on failure.
func pathObjectID(w http.ResponseWriter, raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid id format")
		return primitive.NilObjectID, false
	}
	return id, true
}
