// handlers/notification_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assettrack/config"
	"assettrack/maintenance"
	"assettrack/models"
	"assettrack/utils"
	"assettrack/websocket"
)

// notifyUser inserts a notification and pushes it over the websocket.
// Detached like recordActivity; never fails the originating request.
func notifyUser(orgID, userID primitive.ObjectID, kind, message string, assetID *primitive.ObjectID) {
	n := models.Notification{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		UserID:         userID,
		Kind:           kind,
		Message:        message,
		AssetID:        assetID,
		CreatedAt:      time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := notificationCollection.InsertOne(ctx, n); err != nil {
			log.Printf("notification insert failed (%s): %v", kind, err)
			return
		}

		websocket.GetHub().Broadcast(orgID.Hex(), map[string]interface{}{
			"type":         "NOTIFICATION",
			"notification": n,
		})
	}()
}

// ListNotifications returns the caller's notifications plus org-wide ones,
// unread first, newest first within each group.
func ListNotifications(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	filter := bson.M{
		"organizationId": orgID,
		"$or": []bson.M{
			{"userId": userID},
			{"userId": primitive.NilObjectID},
			{"userId": bson.M{"$exists": false}},
		},
	}
	if r.URL.Query().Get("unreadOnly") == "true" {
		filter["read"] = false
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "read", Value: 1}, {Key: "createdAt", Value: -1}}).
		SetLimit(200)

	cursor, err := notificationCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch notifications")
		return
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode notifications")
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	utils.RespondWithJSON(w, http.StatusOK, notifications)
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	notifID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := notificationCollection.UpdateOne(ctx,
		bson.M{
			"_id":            notifID,
			"organizationId": orgID,
			"$or": []bson.M{
				{"userId": userID},
				{"userId": primitive.NilObjectID},
				{"userId": bson.M{"$exists": false}},
			},
		},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "notification not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "marked read"})
}

// MarkAllNotificationsRead marks everything visible to the caller as read.
func MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := notificationCollection.UpdateMany(ctx,
		bson.M{
			"organizationId": orgID,
			"read":           false,
			"$or": []bson.M{
				{"userId": userID},
				{"userId": primitive.NilObjectID},
				{"userId": bson.M{"$exists": false}},
			},
		},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update notifications")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"updated": res.ModifiedCount})
}

// DeleteNotification removes one of the caller's own notifications.
func DeleteNotification(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	notifID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := notificationCollection.DeleteOne(ctx, bson.M{
		"_id":            notifID,
		"organizationId": orgID,
		"userId":         userID,
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to delete notification")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "notification not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "notification deleted"})
}

// TriggerMaintenanceScan lets an admin run the daily scan on demand. The
// cron scheduler calls RunMaintenanceScan directly. Admin only, enforced at
// the route.
func TriggerMaintenanceScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	created, err := RunMaintenanceScan(ctx)
	if err != nil {
		log.Printf("maintenance scan failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "maintenance scan failed")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":              "scan complete",
		"notificationsCreated": created,
	})
}

// RunMaintenanceScan walks every active asset with a next-maintenance date
// and raises due-soon and overdue notifications. Dedup rule: no new
// notification while an unread one of the same kind exists for the asset.
func RunMaintenanceScan(ctx context.Context) (int, error) {
	// Each organization can set its own due-soon window; resolve once per org.
	windows := map[primitive.ObjectID]int{}
	orgWindow := func(orgID primitive.ObjectID) int {
		if w, ok := windows[orgID]; ok {
			return w
		}
		w := config.DueSoonDays
		var s models.Settings
		if err := settingsCollection.FindOne(ctx, bson.M{"organizationId": orgID}).Decode(&s); err == nil && s.DueSoonDays > 0 {
			w = s.DueSoonDays
		}
		windows[orgID] = w
		return w
	}

	cursor, err := assetCollection.Find(ctx, bson.M{
		"deletedAt":           nil,
		"nextMaintenanceDate": bson.M{"$ne": nil},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	now := time.Now().UTC()
	created := 0

	for cursor.Next(ctx) {
		var asset models.Asset
		if err := cursor.Decode(&asset); err != nil {
			log.Printf("maintenance scan: decode asset: %v", err)
			continue
		}

		health := maintenance.Classify(asset.NextMaintenanceDate, now, orgWindow(asset.OrganizationID))

		var kind, message string
		switch health {
		case maintenance.HealthOverdue:
			kind = models.NotifyMaintenanceOverdue
			message = "Maintenance for " + asset.AssetTag + " (" + asset.Name + ") is overdue"
		case maintenance.HealthDueSoon:
			kind = models.NotifyMaintenanceDue
			days := maintenance.DaysUntil(*asset.NextMaintenanceDate, now)
			message = "Maintenance for " + asset.AssetTag + " (" + asset.Name + ") is due " + dueInPhrase(days)
		default:
			continue
		}

		count, err := notificationCollection.CountDocuments(ctx, bson.M{
			"organizationId": asset.OrganizationID,
			"assetId":        asset.ID,
			"kind":           kind,
			"read":           false,
		})
		if err != nil {
			log.Printf("maintenance scan: dedup check: %v", err)
			continue
		}
		if count > 0 {
			continue
		}

		// Notify the assignee when there is one, the whole org otherwise.
		recipient := primitive.NilObjectID
		if asset.AssignedUserID != nil {
			recipient = *asset.AssignedUserID
		}

		n := models.Notification{
			ID:             primitive.NewObjectID(),
			OrganizationID: asset.OrganizationID,
			UserID:         recipient,
			Kind:           kind,
			Message:        message,
			AssetID:        &asset.ID,
			CreatedAt:      now,
		}
		if _, err := notificationCollection.InsertOne(ctx, n); err != nil {
			log.Printf("maintenance scan: insert notification: %v", err)
			continue
		}
		created++

		websocket.GetHub().Broadcast(asset.OrganizationID.Hex(), map[string]interface{}{
			"type":         "NOTIFICATION",
			"notification": n,
		})
	}

	if err := cursor.Err(); err != nil {
		return created, err
	}

	log.Printf("maintenance scan complete: %d notifications created", created)
	return created, nil
}

// dueInPhrase renders a days-until count for notification text.
func dueInPhrase(days int) string {
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "tomorrow"
	default:
		return "in " + strconv.Itoa(days) + " days"
	}
}
