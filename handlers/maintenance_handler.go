// handlers/maintenance_handler.go
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

	"assettrack/maintenance"
	"assettrack/models"
	"assettrack/utils"
	"assettrack/websocket"
)

type maintenancePayload struct {
	AssetID       string    `json:"assetId" validate:"required"`
	Title         string    `json:"title" validate:"required,min=2,max=200"`
	Notes         string    `json:"notes" validate:"max=2000"`
	Status        string    `json:"status"`
	ScheduledDate time.Time `json:"scheduledDate" validate:"required"`
	Technician    string    `json:"technician" validate:"max=128"`
	Cost          float64   `json:"cost" validate:"gte=0"`
}

// ListMaintenance returns maintenance records for the organization.
func ListMaintenance(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"organizationId": orgID}
	q := r.URL.Query()

	if v := q.Get("assetId"); v != "" && v != "all" {
		if aid, err := primitive.ObjectIDFromHex(v); err == nil {
			filter["assetId"] = aid
		}
	}
	if v := q.Get("status"); v != "" && v != "all" {
		filter["status"] = v
	}

	dateFilter := bson.M{}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			dateFilter["$gte"] = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			dateFilter["$lte"] = t
		}
	}
	if len(dateFilter) > 0 {
		filter["scheduledDate"] = dateFilter
	}

	if q.Get("overdue") == "true" {
		filter["status"] = bson.M{"$ne": models.MaintenanceCompleted}
		filter["scheduledDate"] = bson.M{"$lt": time.Now().UTC()}
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: -1}})
	cursor, err := maintenanceCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("maintenance find error: %v", err)
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

// CreateMaintenance schedules a service event for an existing asset.
func CreateMaintenance(w http.ResponseWriter, r *http.Request) {
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

	var payload maintenancePayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	status := payload.Status
	if status == "" {
		status = models.MaintenanceScheduled
	}
	if !models.ValidMaintenanceStatus(status) {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid maintenance status")
		return
	}
	if status == models.MaintenanceCompleted {
		utils.RespondWithError(w, http.StatusBadRequest, "new records cannot start as Completed; create then complete")
		return
	}

	assetID, err := primitive.ObjectIDFromHex(payload.AssetID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var asset models.Asset
	err = assetCollection.FindOne(ctx, bson.M{
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

	now := time.Now().UTC()
	record := models.MaintenanceRecord{
		ID:             primitive.NewObjectID(),
		AssetID:        assetID,
		Title:          payload.Title,
		Notes:          payload.Notes,
		Status:         status,
		ScheduledDate:  payload.ScheduledDate,
		Technician:     payload.Technician,
		Cost:           payload.Cost,
		OrganizationID: orgID,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := maintenanceCollection.InsertOne(ctx, record); err != nil {
		log.Printf("maintenance insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to create maintenance record")
		return
	}

	recordActivity(orgID, userID, userNameFromRequest(r), "create_maintenance", "maintenance", record.ID, bson.M{
		"assetTag": asset.AssetTag,
		"title":    record.Title,
	})

	utils.RespondWithJSON(w, http.StatusCreated, record)
}

// GetMaintenance returns a single record.
func GetMaintenance(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	recordID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var record models.MaintenanceRecord
	err := maintenanceCollection.FindOne(ctx, bson.M{
		"_id":            recordID,
		"organizationId": orgID,
	}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "maintenance record not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch maintenance record")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, record)
}

// UpdateMaintenance applies a partial update. Moving a record to Completed
// stamps completion, rolls the asset's maintenance dates forward and, when
// the asset has a recurring period, schedules the follow-up record.
func UpdateMaintenance(w http.ResponseWriter, r *http.Request) {
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
	recordID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var payload struct {
		Title         *string    `json:"title"`
		Notes         *string    `json:"notes"`
		Status        *string    `json:"status"`
		ScheduledDate *time.Time `json:"scheduledDate"`
		Technician    *string    `json:"technician"`
		Cost          *float64   `json:"cost"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if payload.Title != nil && strings.TrimSpace(*payload.Title) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var existing models.MaintenanceRecord
	err := maintenanceCollection.FindOne(ctx, bson.M{
		"_id":            recordID,
		"organizationId": orgID,
	}).Decode(&existing)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "maintenance record not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch maintenance record")
		return
	}

	// Completed records are immutable history.
	if existing.Status == models.MaintenanceCompleted {
		utils.RespondWithError(w, http.StatusConflict, "completed maintenance records cannot be modified")
		return
	}

	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}
	completing := false

	if payload.Title != nil {
		set["title"] = strings.TrimSpace(*payload.Title)
	}
	if payload.Notes != nil {
		set["notes"] = *payload.Notes
	}
	if payload.ScheduledDate != nil {
		set["scheduledDate"] = *payload.ScheduledDate
	}
	if payload.Technician != nil {
		set["technician"] = *payload.Technician
	}
	if payload.Cost != nil {
		set["cost"] = *payload.Cost
	}
	if payload.Status != nil {
		if !models.ValidMaintenanceStatus(*payload.Status) {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid maintenance status")
			return
		}
		set["status"] = *payload.Status
		if *payload.Status == models.MaintenanceCompleted {
			completing = true
			set["completedAt"] = now
			set["completedBy"] = userID
		}
	}

	var updated models.MaintenanceRecord
	err = maintenanceCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": recordID, "organizationId": orgID, "status": bson.M{"$ne": models.MaintenanceCompleted}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Lost the race with another completion.
			utils.RespondWithError(w, http.StatusConflict, "completed maintenance records cannot be modified")
			return
		}
		log.Printf("maintenance update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update maintenance record")
		return
	}

	action := "update_maintenance"
	if completing {
		action = "complete_maintenance"
		completeAssetMaintenance(ctx, orgID, userID, userNameFromRequest(r), &updated, now)
	}

	recordActivity(orgID, userID, userNameFromRequest(r), action, "maintenance", recordID, bson.M{
		"title":  updated.Title,
		"status": updated.Status,
	})

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// completeAssetMaintenance rolls the asset's schedule forward after a
// completed service and creates the follow-up record for recurring periods.
func completeAssetMaintenance(ctx context.Context, orgID, userID primitive.ObjectID, userName string, record *models.MaintenanceRecord, now time.Time) {
	var asset models.Asset
	err := assetCollection.FindOne(ctx, bson.M{
		"_id":            record.AssetID,
		"organizationId": orgID,
	}).Decode(&asset)
	if err != nil {
		log.Printf("complete maintenance: asset %s not found: %v", record.AssetID.Hex(), err)
		return
	}

	set := bson.M{
		"lastMaintenanceDate": now,
		"updatedAt":           now,
	}

	period, err := maintenance.ParsePeriod(asset.MaintenancePeriod)
	if err != nil || period.IsZero() {
		set["nextMaintenanceDate"] = nil
		if _, err := assetCollection.UpdateOne(ctx, bson.M{"_id": asset.ID}, bson.M{"$set": set}); err != nil {
			log.Printf("complete maintenance: asset update failed: %v", err)
		}
		return
	}

	next := period.NextDate(now)
	set["nextMaintenanceDate"] = next
	if _, err := assetCollection.UpdateOne(ctx, bson.M{"_id": asset.ID}, bson.M{"$set": set}); err != nil {
		log.Printf("complete maintenance: asset update failed: %v", err)
		return
	}

	// At most one open follow-up per asset.
	count, err := maintenanceCollection.CountDocuments(ctx, bson.M{
		"organizationId": orgID,
		"assetId":        asset.ID,
		"status":         models.MaintenanceScheduled,
		"scheduledDate":  bson.M{"$gte": now},
	})
	if err != nil || count > 0 {
		return
	}

	followUp := models.MaintenanceRecord{
		ID:             primitive.NewObjectID(),
		AssetID:        asset.ID,
		Title:          "Scheduled maintenance: " + asset.Name,
		Notes:          "Auto-created after completion of \"" + record.Title + "\"",
		Status:         models.MaintenanceScheduled,
		ScheduledDate:  next,
		OrganizationID: orgID,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := maintenanceCollection.InsertOne(ctx, followUp); err != nil {
		log.Printf("follow-up maintenance insert failed: %v", err)
		return
	}

	recordActivity(orgID, userID, userName, "schedule_maintenance", "maintenance", followUp.ID, bson.M{
		"assetTag":      asset.AssetTag,
		"scheduledDate": next,
	})

	if asset.AssignedUserID != nil {
		notifyUser(orgID, *asset.AssignedUserID, models.NotifySystem,
			"Maintenance completed for "+asset.AssetTag+"; next service scheduled for "+next.Format("2006-01-02"), &asset.ID)
	}

	websocket.GetHub().Broadcast(orgID.Hex(), map[string]interface{}{
		"type":        "MAINTENANCE_COMPLETED",
		"assetId":     asset.ID.Hex(),
		"nextService": next,
	})
}

// DeleteMaintenance removes a record. Completed records are history and
// cannot be deleted. Admin only, enforced at the route.
func DeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	recordID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := maintenanceCollection.DeleteOne(ctx, bson.M{
		"_id":            recordID,
		"organizationId": orgID,
		"status":         bson.M{"$ne": models.MaintenanceCompleted},
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to delete maintenance record")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "maintenance record not found or already completed")
		return
	}

	recordActivity(orgID, userID, userNameFromRequest(r), "delete_maintenance", "maintenance", recordID, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "maintenance record deleted"})
}

// UpcomingMaintenance returns open records due within the due-soon window,
// plus anything overdue.
func UpcomingMaintenance(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	horizon := now.AddDate(0, 0, dueSoonWindow(ctx, orgID))

	opts := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}})
	cursor, err := maintenanceCollection.Find(ctx, bson.M{
		"organizationId": orgID,
		"status":         bson.M{"$ne": models.MaintenanceCompleted},
		"scheduledDate":  bson.M{"$lte": horizon},
	}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch upcoming maintenance")
		return
	}
	defer cursor.Close(ctx)

	var records []models.MaintenanceRecord
	if err = cursor.All(ctx, &records); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode upcoming maintenance")
		return
	}
	if records == nil {
		records = []models.MaintenanceRecord{}
	}

	overdue := []models.MaintenanceRecord{}
	dueSoon := []models.MaintenanceRecord{}
	for _, rec := range records {
		if rec.ScheduledDate.Before(now) {
			overdue = append(overdue, rec)
		} else {
			dueSoon = append(dueSoon, rec)
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"overdue": overdue,
		"dueSoon": dueSoon,
	})
}
