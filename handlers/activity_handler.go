// handlers/activity_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assettrack/models"
	"assettrack/utils"
	"assettrack/websocket"
)

// InitActivityHandlers starts the websocket hub.
func InitActivityHandlers() {
	go websocket.GetHub().Run()
}

// recordActivity appends an audit-trail entry and broadcasts it to the
// organization's connected clients. Runs detached with its own timeout so a
// slow insert never fails the originating request.
func recordActivity(orgID, userID primitive.ObjectID, userName, action, entityType string, entityID primitive.ObjectID, details bson.M) {
	activity := models.Activity{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		UserID:         userID,
		UserName:       userName,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
		Details:        details,
		CreatedAt:      time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := activityCollection.InsertOne(ctx, activity); err != nil {
			log.Printf("activity insert failed (%s %s): %v", action, entityType, err)
			return
		}

		websocket.GetHub().Broadcast(orgID.Hex(), map[string]interface{}{
			"type":     "ACTIVITY",
			"activity": activity,
		})
	}()
}

// ListActivities returns the organization's audit trail, newest first.
func ListActivities(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			n = 50
		}
		limit = n
	}

	skip := 0
	if v := r.URL.Query().Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			skip = n
		}
	}

	filter := bson.M{"organizationId": orgID}

	if entityType := r.URL.Query().Get("entityType"); entityType != "" && entityType != "all" {
		filter["entityType"] = entityType
	}

	if action := r.URL.Query().Get("action"); action != "" && action != "all" {
		filter["action"] = bson.M{"$regex": action, "$options": "i"}
	}

	if userID := r.URL.Query().Get("userId"); userID != "" && userID != "all" {
		if uid, err := primitive.ObjectIDFromHex(userID); err == nil {
			filter["userId"] = uid
		}
	}

	if timeRange := r.URL.Query().Get("timeRange"); timeRange != "" {
		start := calculateStartDate(timeRange)
		if !start.IsZero() {
			filter["createdAt"] = bson.M{"$gte": start}
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))

	cursor, err := activityCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("activity find error: %v", err)
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

// calculateStartDate maps a timeRange query value to an absolute start.
func calculateStartDate(timeRange string) time.Time {
	now := time.Now().UTC()
	switch timeRange {
	case "24h", "day":
		return now.Add(-24 * time.Hour)
	case "7d", "week":
		return now.AddDate(0, 0, -7)
	case "30d", "month":
		return now.AddDate(0, -1, 0)
	case "90d", "quarter":
		return now.AddDate(0, -3, 0)
	default:
		return time.Time{}
	}
}

// HandleActivityStream upgrades to a websocket and streams activity events
// for the caller's organization. Browsers cannot set headers on websocket
// connects, so the token arrives as a query parameter.
func HandleActivityStream(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")

	if tokenString == "" {
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenString == "" {
		http.Error(w, "Authentication token required", http.StatusUnauthorized)
		return
	}

	claims, err := utils.ValidateJWT(tokenString)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	if claims.OrganizationID == "" || claims.UserID == "" {
		http.Error(w, "Invalid token claims", http.StatusUnauthorized)
		return
	}

	upgrader := gws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	log.Printf("activity stream connected: user=%s org=%s", claims.UserID, claims.OrganizationID)

	client := websocket.GetHub().NewClient(claims.OrganizationID, conn)
	go client.WritePump()
	go client.ReadPump()
}
