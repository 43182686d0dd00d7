// handlers/dashboard_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assettrack/maintenance"
	"assettrack/models"
	"assettrack/utils"
)

type DashboardSummary struct {
	TotalAssets    int64 `json:"totalAssets"`
	AssignedAssets int64 `json:"assignedAssets"`
	TotalUsers     int64 `json:"totalUsers"`

	AssetsByStatus     map[string]int64 `json:"assetsByStatus"`
	AssetsByLocation   map[string]int64 `json:"assetsByLocation"`
	AssetsByType       map[string]int64 `json:"assetsByType"`
	AssetsByHealth     map[string]int64 `json:"assetsByHealth"`
	MaintenanceByState map[string]int64 `json:"maintenanceByState"`

	OverdueMaintenance  []models.MaintenanceRecord `json:"overdueMaintenance"`
	UpcomingMaintenance []models.MaintenanceRecord `json:"upcomingMaintenance"`
	RecentActivity      []models.Activity          `json:"recentActivity"`
}

// GetDashboardSummary aggregates the numbers behind the landing dashboard.
// Independent queries run in parallel and merge under one mutex.
func GetDashboardSummary(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	summary := DashboardSummary{
		AssetsByStatus:      map[string]int64{},
		AssetsByLocation:    map[string]int64{},
		AssetsByType:        map[string]int64{},
		AssetsByHealth:      map[string]int64{},
		MaintenanceByState:  map[string]int64{},
		OverdueMaintenance:  []models.MaintenanceRecord{},
		UpcomingMaintenance: []models.MaintenanceRecord{},
		RecentActivity:      []models.Activity{},
	}

	assetFilter := bson.M{"organizationId": orgID, "deletedAt": nil}
	now := time.Now().UTC()
	window := dueSoonWindow(ctx, orgID)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := assetCollection.CountDocuments(ctx, assetFilter)
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		summary.TotalAssets = n
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := assetCollection.CountDocuments(ctx, bson.M{
			"organizationId": orgID,
			"deletedAt":      nil,
			"assignedUserId": bson.M{"$ne": nil},
		})
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		summary.AssignedAssets = n
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := userCollection.CountDocuments(ctx, bson.M{"organizationId": orgID, "active": true})
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		summary.TotalUsers = n
		mu.Unlock()
	}()

	// Grouped asset counts by field.
	groupCount := func(field string, dest map[string]int64) {
		defer wg.Done()
		pipeline := []bson.M{
			{"$match": assetFilter},
			{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
		}
		cursor, err := assetCollection.Aggregate(ctx, pipeline)
		if err != nil {
			fail(err)
			return
		}
		defer cursor.Close(ctx)
		for cursor.Next(ctx) {
			var row struct {
				ID    string `bson:"_id"`
				Count int64  `bson:"count"`
			}
			if err := cursor.Decode(&row); err != nil {
				continue
			}
			key := row.ID
			if key == "" {
				key = "Unspecified"
			}
			mu.Lock()
			dest[key] += row.Count
			mu.Unlock()
		}
	}
	wg.Add(3)
	go groupCount("status", summary.AssetsByStatus)
	go groupCount("location", summary.AssetsByLocation)
	go groupCount("type", summary.AssetsByType)

	wg.Add(1)
	go func() {
		defer wg.Done()
		pipeline := []bson.M{
			{"$match": bson.M{"organizationId": orgID}},
			{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
		}
		cursor, err := maintenanceCollection.Aggregate(ctx, pipeline)
		if err != nil {
			fail(err)
			return
		}
		defer cursor.Close(ctx)
		for cursor.Next(ctx) {
			var row struct {
				ID    string `bson:"_id"`
				Count int64  `bson:"count"`
			}
			if err := cursor.Decode(&row); err != nil {
				continue
			}
			mu.Lock()
			summary.MaintenanceByState[row.ID] += row.Count
			mu.Unlock()
		}
	}()

	// Health buckets are derived, so counted in process.
	wg.Add(1)
	go func() {
		defer wg.Done()
		cursor, err := assetCollection.Find(ctx, assetFilter,
			options.Find().SetProjection(bson.M{"nextMaintenanceDate": 1}))
		if err != nil {
			fail(err)
			return
		}
		defer cursor.Close(ctx)
		for cursor.Next(ctx) {
			var row struct {
				NextMaintenanceDate *time.Time `bson:"nextMaintenanceDate"`
			}
			if err := cursor.Decode(&row); err != nil {
				continue
			}
			label := maintenance.Classify(row.NextMaintenanceDate, now, window)
			mu.Lock()
			summary.AssetsByHealth[label]++
			mu.Unlock()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		horizon := now.AddDate(0, 0, window)
		opts := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}}).SetLimit(20)
		cursor, err := maintenanceCollection.Find(ctx, bson.M{
			"organizationId": orgID,
			"status":         bson.M{"$ne": models.MaintenanceCompleted},
			"scheduledDate":  bson.M{"$lte": horizon},
		}, opts)
		if err != nil {
			fail(err)
			return
		}
		defer cursor.Close(ctx)
		var records []models.MaintenanceRecord
		if err := cursor.All(ctx, &records); err != nil {
			fail(err)
			return
		}
		mu.Lock()
		for _, rec := range records {
			if rec.ScheduledDate.Before(now) {
				summary.OverdueMaintenance = append(summary.OverdueMaintenance, rec)
			} else {
				summary.UpcomingMaintenance = append(summary.UpcomingMaintenance, rec)
			}
		}
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(10)
		cursor, err := activityCollection.Find(ctx, bson.M{"organizationId": orgID}, opts)
		if err != nil {
			fail(err)
			return
		}
		defer cursor.Close(ctx)
		var activities []models.Activity
		if err := cursor.All(ctx, &activities); err != nil {
			fail(err)
			return
		}
		mu.Lock()
		summary.RecentActivity = activities
		mu.Unlock()
	}()

	wg.Wait()

	if firstErr != nil {
		log.Printf("dashboard summary error: %v", firstErr)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to build dashboard summary")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, summary)
}
