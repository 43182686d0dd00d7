// handlers/tag_handler.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assettrack/models"
	"assettrack/utils"
)

type tagPayload struct {
	Category    string `json:"category" validate:"required"`
	Value       string `json:"value" validate:"required,min=1,max=128"`
	Description string `json:"description" validate:"max=500"`
}

// ListTags returns tag values, optionally for one category.
func ListTags(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	filter := bson.M{"organizationId": orgID}
	if category := r.URL.Query().Get("category"); category != "" && category != "all" {
		if !models.ValidTagCategory(category) {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid tag category")
			return
		}
		filter["category"] = category
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "valueLower", Value: 1}})
	cursor, err := tagCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch tags")
		return
	}
	defer cursor.Close(ctx)

	var tags []models.Tag
	if err = cursor.All(ctx, &tags); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode tags")
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}

	utils.RespondWithJSON(w, http.StatusOK, tags)
}

// CreateTag adds a value to a category.
func CreateTag(w http.ResponseWriter, r *http.Request) {
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

	var payload tagPayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	payload.Value = strings.TrimSpace(payload.Value)
	if err := validate.Struct(payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if !models.ValidTagCategory(payload.Category) {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid tag category")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Case-insensitive duplicate check within org+category.
	count, err := tagCollection.CountDocuments(ctx, bson.M{
		"organizationId": orgID,
		"category":       payload.Category,
		"valueLower":     strings.ToLower(payload.Value),
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to check tag")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "tag value already exists in this category")
		return
	}

	now := time.Now().UTC()
	tag := models.Tag{
		ID:             primitive.NewObjectID(),
		Category:       payload.Category,
		Value:          payload.Value,
		ValueLower:     strings.ToLower(payload.Value),
		Description:    payload.Description,
		OrganizationID: orgID,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := tagCollection.InsertOne(ctx, tag); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to create tag")
		return
	}

	recordActivity(orgID, userID, userNameFromRequest(r), "create_tag", "tag", tag.ID, bson.M{
		"category": tag.Category,
		"value":    tag.Value,
	})

	utils.RespondWithJSON(w, http.StatusCreated, tag)
}

// UpdateTag renames a tag value or edits its description. Renaming does not
// rewrite assets that reference the old value; the old value simply becomes
// untracked, matching how the tags have always behaved.
func UpdateTag(w http.ResponseWriter, r *http.Request) {
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
	tagID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var payload struct {
		Value       *string `json:"value"`
		Description *string `json:"description"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var existing models.Tag
	err := tagCollection.FindOne(ctx, bson.M{"_id": tagID, "organizationId": orgID}).Decode(&existing)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "tag not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch tag")
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if payload.Value != nil {
		value := strings.TrimSpace(*payload.Value)
		if value == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "tag value cannot be empty")
			return
		}
		if !strings.EqualFold(value, existing.Value) {
			count, err := tagCollection.CountDocuments(ctx, bson.M{
				"organizationId": orgID,
				"category":       existing.Category,
				"valueLower":     strings.ToLower(value),
				"_id":            bson.M{"$ne": tagID},
			})
			if err != nil || count > 0 {
				utils.RespondWithError(w, http.StatusConflict, "tag value already exists in this category")
				return
			}
		}
		set["value"] = value
		set["valueLower"] = strings.ToLower(value)
	}
	if payload.Description != nil {
		set["description"] = *payload.Description
	}

	var updated models.Tag
	err = tagCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": tagID, "organizationId": orgID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update tag")
		return
	}

	recordActivity(orgID, userID, userNameFromRequest(r), "update_tag", "tag", tagID, bson.M{
		"category": updated.Category,
		"value":    updated.Value,
	})

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// DeleteTag removes a tag value. Refused while assets still use it.
func DeleteTag(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	if roleFromRequest(r) != models.RoleAdmin {
		utils.RespondWithError(w, http.StatusForbidden, "Only admins can delete tags")
		return
	}
	tagID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var tag models.Tag
	err := tagCollection.FindOne(ctx, bson.M{"_id": tagID, "organizationId": orgID}).Decode(&tag)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "tag not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch tag")
		return
	}

	field := models.AssetFieldForCategory(tag.Category)
	if field != "" {
		inUse, err := assetCollection.CountDocuments(ctx, bson.M{
			"organizationId": orgID,
			field:            tag.Value,
			"deletedAt":      nil,
		})
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "failed to check tag usage")
			return
		}
		if inUse > 0 {
			utils.RespondWithError(w, http.StatusConflict, "tag is still referenced by assets")
			return
		}
	}

	if _, err := tagCollection.DeleteOne(ctx, bson.M{"_id": tagID, "organizationId": orgID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to delete tag")
		return
	}

	recordActivity(orgID, userID, userNameFromRequest(r), "delete_tag", "tag", tagID, bson.M{
		"category": tag.Category,
		"value":    tag.Value,
	})

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "tag deleted"})
}
