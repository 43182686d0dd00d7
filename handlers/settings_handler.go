// handlers/settings_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assettrack/config"
	"assettrack/middleware"
	"assettrack/models"
	"assettrack/utils"
)

// Gate is the maintenance-mode middleware instance; the settings handler
// invalidates its cache after updates so the new flag applies promptly.
var Gate *middleware.MaintenanceGate

// GetSettings returns the organization's settings document.
func GetSettings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var s models.Settings
	err := settingsCollection.FindOne(ctx, bson.M{"organizationId": orgID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		s = models.Settings{OrganizationID: orgID, DueSoonDays: config.DueSoonDays}
	} else if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch settings")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, s)
}

// UpdateSettings upserts the organization's settings document. This is also
// how maintenance mode is switched on and off. Admin only, enforced at the
// route.
func UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	var payload struct {
		MaintenanceMode    *bool   `json:"maintenanceMode"`
		MaintenanceMessage *string `json:"maintenanceMessage"`
		DueSoonDays        *int    `json:"dueSoonDays"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	set := bson.M{
		"updatedAt": time.Now().UTC(),
		"updatedBy": userID,
	}
	if payload.MaintenanceMode != nil {
		set["maintenanceMode"] = *payload.MaintenanceMode
	}
	if payload.MaintenanceMessage != nil {
		set["maintenanceMessage"] = *payload.MaintenanceMessage
	}
	if payload.DueSoonDays != nil {
		if *payload.DueSoonDays < 1 || *payload.DueSoonDays > 365 {
			utils.RespondWithError(w, http.StatusBadRequest, "dueSoonDays must be between 1 and 365")
			return
		}
		set["dueSoonDays"] = *payload.DueSoonDays
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var updated models.Settings
	err := settingsCollection.FindOneAndUpdate(ctx,
		bson.M{"organizationId": orgID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	if Gate != nil {
		Gate.Invalidate(orgID)
	}

	action := "update_settings"
	if payload.MaintenanceMode != nil {
		if *payload.MaintenanceMode {
			action = "enable_maintenance_mode"
		} else {
			action = "disable_maintenance_mode"
		}
	}
	recordActivity(orgID, userID, userNameFromRequest(r), action, "settings", primitive.NilObjectID, nil)

	utils.RespondWithJSON(w, http.StatusOK, updated)
}
