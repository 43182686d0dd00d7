package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"assettrack/models"
)

func authedRequest(method, path, body string, orgID, userID primitive.ObjectID, role string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), "userID", userID.Hex())
	ctx = context.WithValue(ctx, "userName", "Test Admin")
	ctx = context.WithValue(ctx, "userRole", role)
	ctx = context.WithValue(ctx, "orgID", orgID.Hex())
	return r.WithContext(ctx)
}

func serveMaintenanceUpdate(r *http.Request) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.HandleFunc("/api/maintenance/{id}", UpdateMaintenance).Methods(http.MethodPut)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}

func maintenanceDoc(id, orgID, assetID primitive.ObjectID, status string) bson.D {
	now := time.Now().UTC()
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "assetId", Value: assetID},
		{Key: "title", Value: "Quarterly service"},
		{Key: "status", Value: status},
		{Key: "scheduledDate", Value: now},
		{Key: "organizationId", Value: orgID},
		{Key: "createdBy", Value: primitive.NewObjectID()},
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	}
}

func TestUpdateMaintenanceRejectsCompletedRecord(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("completed records are immutable", func(mt *mtest.T) {
		maintenanceCollection = mt.Coll
		assetCollection = mt.DB.Collection("assets")

		orgID := primitive.NewObjectID()
		recordID := primitive.NewObjectID()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".maintenance", mtest.FirstBatch,
			maintenanceDoc(recordID, orgID, primitive.NewObjectID(), models.MaintenanceCompleted)))

		r := authedRequest(http.MethodPut, "/api/maintenance/"+recordID.Hex(),
			`{"status":"Completed"}`, orgID, primitive.NewObjectID(), models.RoleAdmin)
		rec := serveMaintenanceUpdate(r)

		assert.Equal(mt, http.StatusConflict, rec.Code)
	})
}

func TestUpdateMaintenanceCompletionRace(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("concurrent completion loses with conflict", func(mt *mtest.T) {
		maintenanceCollection = mt.Coll
		assetCollection = mt.DB.Collection("assets")

		orgID := primitive.NewObjectID()
		recordID := primitive.NewObjectID()

		// The initial read sees an open record, but the guarded update matches
		// nothing because another request completed it in between.
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".maintenance", mtest.FirstBatch,
				maintenanceDoc(recordID, orgID, primitive.NewObjectID(), models.MaintenanceScheduled)),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
		)

		r := authedRequest(http.MethodPut, "/api/maintenance/"+recordID.Hex(),
			`{"status":"Completed"}`, orgID, primitive.NewObjectID(), models.RoleAdmin)
		rec := serveMaintenanceUpdate(r)

		assert.Equal(mt, http.StatusConflict, rec.Code)
	})
}

func TestCompleteMaintenanceSkipsDuplicateFollowUp(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("open follow-up suppresses a second one", func(mt *mtest.T) {
		maintenanceCollection = mt.Coll
		assetCollection = mt.DB.Collection("assets")

		orgID := primitive.NewObjectID()
		assetID := primitive.NewObjectID()
		now := time.Now().UTC()

		record := models.MaintenanceRecord{
			ID:             primitive.NewObjectID(),
			AssetID:        assetID,
			Title:          "Quarterly service",
			Status:         models.MaintenanceCompleted,
			OrganizationID: orgID,
		}

		mt.AddMockResponses(
			// Asset lookup.
			mtest.CreateCursorResponse(0, mt.DB.Name()+".assets", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: assetID},
				{Key: "assetTag", Value: "GEN-001"},
				{Key: "name", Value: "Generator"},
				{Key: "maintenancePeriod", Value: "1 month"},
				{Key: "organizationId", Value: orgID},
			}),
			// Asset schedule roll-forward.
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			// One open follow-up already exists.
			mtest.CreateCursorResponse(0, mt.DB.Name()+".maintenance", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: int32(1)},
				{Key: "n", Value: int32(1)},
			}),
		)

		completeAssetMaintenance(context.Background(), orgID, primitive.NewObjectID(), "Test Admin", &record, now)

		for _, evt := range mt.GetAllStartedEvents() {
			assert.NotEqual(mt, "insert", evt.CommandName, "no second follow-up may be inserted")
		}
	})
}

func TestUpdateMaintenanceRejectsBlankTitle(t *testing.T) {
	orgID := primitive.NewObjectID()
	recordID := primitive.NewObjectID()

	r := authedRequest(http.MethodPut, "/api/maintenance/"+recordID.Hex(),
		`{"title":"   "}`, orgID, primitive.NewObjectID(), models.RoleAdmin)
	rec := serveMaintenanceUpdate(r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "title")
}
