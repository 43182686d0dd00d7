// handlers/asset_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assettrack/config"
	"assettrack/maintenance"
	"assettrack/models"
	"assettrack/utils"
	"assettrack/websocket"
)

type assetPayload struct {
	AssetTag          string     `json:"assetTag" validate:"required,min=2,max=64"`
	Name              string     `json:"name" validate:"required,min=2,max=200"`
	Description       string     `json:"description" validate:"max=2000"`
	SerialNumber      string     `json:"serialNumber" validate:"max=128"`
	Location          string     `json:"location" validate:"max=128"`
	Department        string     `json:"department" validate:"max=128"`
	Type              string     `json:"type" validate:"max=128"`
	Status            string     `json:"status" validate:"max=64"`
	AssignedUserID    string     `json:"assignedUserId"`
	PurchaseDate      *time.Time `json:"purchaseDate"`
	PurchaseCost      float64    `json:"purchaseCost" validate:"gte=0"`
	MaintenancePeriod string     `json:"maintenancePeriod" validate:"max=32"`
	LastMaintenance   *time.Time `json:"lastMaintenanceDate"`
}

// dueSoonWindow returns the organization's due-soon window, preferring its
// settings document over the env default.
func dueSoonWindow(ctx context.Context, orgID primitive.ObjectID) int {
	var s models.Settings
	err := settingsCollection.FindOne(ctx, bson.M{"organizationId": orgID}).Decode(&s)
	if err == nil && s.DueSoonDays > 0 {
		return s.DueSoonDays
	}
	return config.DueSoonDays
}

// attachHealth labels each asset with its derived maintenance health.
func attachHealth(assets []models.Asset, dueSoonDays int) {
	now := time.Now().UTC()
	for i := range assets {
		assets[i].MaintenanceHealth = maintenance.Classify(assets[i].NextMaintenanceDate, now, dueSoonDays)
	}
}

// nextMaintenanceFrom derives the next maintenance date from a period string
// and the last service date (falling back to now when the asset has never
// been serviced). Returns nil when no period is set.
func nextMaintenanceFrom(period string, last *time.Time, now time.Time) (*time.Time, error) {
	p, err := maintenance.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	if p.IsZero() {
		return nil, nil
	}
	from := now
	if last != nil && !last.IsZero() {
		from = *last
	}
	next := p.NextDate(from)
	return &next, nil
}

// ListAssets returns the organization's assets, newest first.
func ListAssets(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"organizationId": orgID, "deletedAt": nil}

	q := r.URL.Query()
	for _, f := range []struct{ param, field string }{
		{"status", "status"},
		{"location", "location"},
		{"department", "department"},
		{"type", "type"},
	} {
		if v := q.Get(f.param); v != "" && v != "all" {
			filter[f.field] = v
		}
	}

	if v := q.Get("assignedUserId"); v != "" && v != "all" {
		if uid, err := primitive.ObjectIDFromHex(v); err == nil {
			filter["assignedUserId"] = uid
		}
	}

	if search := strings.TrimSpace(q.Get("search")); search != "" {
		regex := bson.M{"$regex": search, "$options": "i"}
		filter["$or"] = []bson.M{
			{"name": regex},
			{"assetTag": regex},
			{"serialNumber": regex},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := assetCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("asset find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch assets")
		return
	}
	defer cursor.Close(ctx)

	var assets []models.Asset
	if err = cursor.All(ctx, &assets); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode assets")
		return
	}

	if assets == nil {
		assets = []models.Asset{}
	}

	window := dueSoonWindow(ctx, orgID)
	attachHealth(assets, window)

	// Optional post-filter on the derived label.
	if health := q.Get("health"); health != "" && health != "all" {
		filtered := assets[:0]
		for _, a := range assets {
			if a.MaintenanceHealth == health {
				filtered = append(filtered, a)
			}
		}
		assets = filtered
	}

	utils.RespondWithJSON(w, http.StatusOK, assets)
}

// CreateAsset registers a new asset.
func CreateAsset(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	if !models.CanWrite(roleFromRequest(r)) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var payload assetPayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	payload.AssetTag = strings.TrimSpace(payload.AssetTag)
	payload.Name = strings.TrimSpace(payload.Name)

	if err := validate.Struct(payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	now := time.Now().UTC()

	next, err := nextMaintenanceFrom(payload.MaintenancePeriod, payload.LastMaintenance, now)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Duplicate tag check within the organization (index backs this up).
	count, err := assetCollection.CountDocuments(ctx, bson.M{
		"organizationId": orgID,
		"assetTag":       payload.AssetTag,
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to check asset tag")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "An asset with this tag already exists")
		return
	}

	status := payload.Status
	if status == "" {
		status = models.AssetStatusActive
	}

	asset := models.Asset{
		ID:                  primitive.NewObjectID(),
		AssetTag:            payload.AssetTag,
		Name:                payload.Name,
		Description:         payload.Description,
		SerialNumber:        payload.SerialNumber,
		Location:            payload.Location,
		Department:          payload.Department,
		Type:                payload.Type,
		Status:              status,
		PurchaseDate:        payload.PurchaseDate,
		PurchaseCost:        payload.PurchaseCost,
		MaintenancePeriod:   payload.MaintenancePeriod,
		LastMaintenanceDate: payload.LastMaintenance,
		NextMaintenanceDate: next,
		OrganizationID:      orgID,
		CreatedBy:           userID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if payload.AssignedUserID != "" {
		assignee, err := primitive.ObjectIDFromHex(payload.AssignedUserID)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid assigned user id")
			return
		}
		asset.AssignedUserID = &assignee
	}

	if _, err := assetCollection.InsertOne(ctx, asset); err != nil {
		log.Printf("asset insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to create asset")
		return
	}

	recordActivity(orgID, userID, userNameFromRequest(r), "create_asset", "asset", asset.ID, bson.M{
		"assetTag": asset.AssetTag,
		"name":     asset.Name,
	})

	if asset.AssignedUserID != nil {
		notifyUser(orgID, *asset.AssignedUserID, models.NotifyAssetAssigned,
			"You have been assigned asset "+asset.AssetTag+" ("+asset.Name+")", &asset.ID)
	}

	websocket.GetHub().Broadcast(orgID.Hex(), map[string]interface{}{
		"type":  "ASSET_CREATED",
		"asset": asset,
	})

	utils.RespondWithJSON(w, http.StatusCreated, asset)
}

// GetAsset returns one asset by id.
func GetAsset(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	assetID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var asset models.Asset
	err := assetCollection.FindOne(ctx, bson.M{
		"_id":            assetID,
		"organizationId": orgID,
		"deletedAt":      nil,
	}).Decode(&asset)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "asset not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch asset")
		return
	}

	asset.MaintenanceHealth = maintenance.Classify(asset.NextMaintenanceDate, time.Now().UTC(), dueSoonWindow(ctx, orgID))

	utils.RespondWithJSON(w, http.StatusOK, asset)
}

// UpdateAsset applies a partial update.
func UpdateAsset(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	if !models.CanWrite(roleFromRequest(r)) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}
	assetID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var payload struct {
		AssetTag          *string    `json:"assetTag"`
		Name              *string    `json:"name"`
		Description       *string    `json:"description"`
		SerialNumber      *string    `json:"serialNumber"`
		Location          *string    `json:"location"`
		Department        *string    `json:"department"`
		Type              *string    `json:"type"`
		Status            *string    `json:"status"`
		AssignedUserID    *string    `json:"assignedUserId"`
		PurchaseDate      *time.Time `json:"purchaseDate"`
		PurchaseCost      *float64   `json:"purchaseCost"`
		MaintenancePeriod *string    `json:"maintenancePeriod"`
		LastMaintenance   *time.Time `json:"lastMaintenanceDate"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var existing models.Asset
	err := assetCollection.FindOne(ctx, bson.M{
		"_id":            assetID,
		"organizationId": orgID,
		"deletedAt":      nil,
	}).Decode(&existing)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "asset not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch asset")
		return
	}

	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}

	if payload.AssetTag != nil {
		tag := strings.TrimSpace(*payload.AssetTag)
		if tag == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "asset tag cannot be empty")
			return
		}
		if tag != existing.AssetTag {
			count, err := assetCollection.CountDocuments(ctx, bson.M{
				"organizationId": orgID,
				"assetTag":       tag,
				"_id":            bson.M{"$ne": assetID},
			})
			if err != nil || count > 0 {
				utils.RespondWithError(w, http.StatusConflict, "An asset with this tag already exists")
				return
			}
		}
		set["assetTag"] = tag
	}
	if payload.Name != nil {
		if strings.TrimSpace(*payload.Name) == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		set["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		set["description"] = *payload.Description
	}
	if payload.SerialNumber != nil {
		set["serialNumber"] = *payload.SerialNumber
	}
	if payload.Location != nil {
		set["location"] = *payload.Location
	}
	if payload.Department != nil {
		set["department"] = *payload.Department
	}
	if payload.Type != nil {
		set["type"] = *payload.Type
	}
	if payload.Status != nil {
		set["status"] = *payload.Status
	}
	if payload.PurchaseDate != nil {
		set["purchaseDate"] = *payload.PurchaseDate
	}
	if payload.PurchaseCost != nil {
		set["purchaseCost"] = *payload.PurchaseCost
	}

	var newAssignee *primitive.ObjectID
	if payload.AssignedUserID != nil {
		if *payload.AssignedUserID == "" {
			set["assignedUserId"] = nil
		} else {
			uid, err := primitive.ObjectIDFromHex(*payload.AssignedUserID)
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, "invalid assigned user id")
				return
			}
			set["assignedUserId"] = uid
			if existing.AssignedUserID == nil || *existing.AssignedUserID != uid {
				newAssignee = &uid
			}
		}
	}

	// Re-derive the next maintenance date when the schedule inputs change.
	period := existing.MaintenancePeriod
	last := existing.LastMaintenanceDate
	scheduleChanged := false
	if payload.MaintenancePeriod != nil {
		period = *payload.MaintenancePeriod
		set["maintenancePeriod"] = period
		scheduleChanged = true
	}
	if payload.LastMaintenance != nil {
		last = payload.LastMaintenance
		set["lastMaintenanceDate"] = *payload.LastMaintenance
		scheduleChanged = true
	}
	if scheduleChanged {
		next, err := nextMaintenanceFrom(period, last, now)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if next == nil {
			set["nextMaintenanceDate"] = nil
		} else {
			set["nextMaintenanceDate"] = *next
		}
	}

	var updated models.Asset
	err = assetCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": assetID, "organizationId": orgID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		log.Printf("asset update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update asset")
		return
	}

	recordActivity(orgID, userID, userNameFromRequest(r), "update_asset", "asset", assetID, bson.M{
		"assetTag": updated.AssetTag,
	})

	if newAssignee != nil {
		notifyUser(orgID, *newAssignee, models.NotifyAssetAssigned,
			"You have been assigned asset "+updated.AssetTag+" ("+updated.Name+")", &updated.ID)
	}

	websocket.GetHub().Broadcast(orgID.Hex(), map[string]interface{}{
		"type":  "ASSET_UPDATED",
		"asset": updated,
	})

	updated.MaintenanceHealth = maintenance.Classify(updated.NextMaintenanceDate, now, dueSoonWindow(ctx, orgID))

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// DeleteAsset soft-deletes: the asset is retired and hidden from listings,
// but its history stays intact. Admin only, enforced at the route.
func DeleteAsset(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	assetID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	res, err := assetCollection.UpdateOne(ctx,
		bson.M{"_id": assetID, "organizationId": orgID, "deletedAt": nil},
		bson.M{"$set": bson.M{
			"deletedAt": now,
			"status":    models.AssetStatusRetired,
			"updatedAt": now,
		}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to delete asset")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "asset not found")
		return
	}

	recordActivity(orgID, userID, userNameFromRequest(r), "delete_asset", "asset", assetID, nil)

	websocket.GetHub().Broadcast(orgID.Hex(), map[string]interface{}{
		"type":    "ASSET_DELETED",
		"assetId": assetID.Hex(),
	})

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "asset deleted"})
}

// GetAssetMaintenance lists maintenance records for one asset.
func GetAssetMaintenance(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	assetID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: -1}})
	cursor, err := maintenanceCollection.Find(ctx, bson.M{
		"organizationId": orgID,
		"assetId":        assetID,
	}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch maintenance records")
		return
	}
	defer cursor.Close(ctx)

	var records []models.MaintenanceRecord
	if err = cursor.All(ctx, &records); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode maintenance records")
		return
	}
	if records == nil {
		records = []models.MaintenanceRecord{}
	}

	utils.RespondWithJSON(w, http.StatusOK, records)
}

// GetAssetActivities lists the audit trail for one asset.
func GetAssetActivities(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	assetID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100)
	cursor, err := activityCollection.Find(ctx, bson.M{
		"organizationId": orgID,
		"entityType":     "asset",
		"entityId":       assetID,
	}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch activities")
		return
	}
	defer cursor.Close(ctx)

	var activities []models.Activity
	if err = cursor.All(ctx, &activities); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode activities")
		return
	}
	if activities == nil {
		activities = []models.Activity{}
	}

	utils.RespondWithJSON(w, http.StatusOK, activities)
}
