// handlers/organization_handler.go
package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"assettrack/models"
	"assettrack/utils"
)

type registerOrgPayload struct {
	Name           string `json:"name" validate:"required,min=2,max=200"`
	Industry       string `json:"industry" validate:"max=128"`
	AdminFirstName string `json:"adminFirstName" validate:"required,min=1,max=100"`
	AdminLastName  string `json:"adminLastName" validate:"required,min=1,max=100"`
	AdminEmail     string `json:"adminEmail" validate:"required,email"`
	AdminPassword  string `json:"adminPassword" validate:"required,min=6"`
}

// RegisterOrganization creates an organization together with its first
// admin account and logs them straight in. Public endpoint.
func RegisterOrganization(w http.ResponseWriter, r *http.Request) {
	var payload registerOrgPayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload format")
		return
	}
	payload.AdminEmail = strings.ToLower(strings.TrimSpace(payload.AdminEmail))
	if err := validate.Struct(payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()

	count, err := orgCollection.CountDocuments(ctx, bson.M{"name": payload.Name})
	if err != nil {
		log.Printf("org unique check error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "organization name already exists")
		return
	}

	count, err = userCollection.CountDocuments(ctx, bson.M{"email": payload.AdminEmail})
	if err != nil {
		log.Printf("user unique check error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "admin email already exists")
		return
	}

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      payload.Name,
		Industry:  payload.Industry,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err = orgCollection.InsertOne(ctx, org); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create organization")
		return
	}

	hash, err := utils.HashPassword(payload.AdminPassword)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	admin := models.User{
		ID:             primitive.NewObjectID(),
		FirstName:      payload.AdminFirstName,
		LastName:       payload.AdminLastName,
		Email:          payload.AdminEmail,
		PasswordHash:   hash,
		Role:           models.RoleAdmin,
		Active:         true,
		OrganizationID: org.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err = userCollection.InsertOne(ctx, admin); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create admin user")
		return
	}

	token, err := utils.GenerateJWT(
		admin.ID.Hex(),
		admin.FullName(),
		admin.Role,
		org.ID.Hex(),
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Organization and admin created successfully",
		"token":   token,
		"user": map[string]string{
			"id":    admin.ID.Hex(),
			"name":  admin.FullName(),
			"email": admin.Email,
			"role":  admin.Role,
		},
		"organization": map[string]string{
			"id":   org.ID.Hex(),
			"name": org.Name,
		},
	})
}

// GetOrganization returns the caller's organization.
func GetOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	var org models.Organization
	err := orgCollection.FindOne(r.Context(), bson.M{"_id": orgID}).Decode(&org)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "organization not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch organization")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, org)
}

// UpdateOrganization edits the organization profile. Admin only, enforced
// at the route.
func UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var payload struct {
		Name     *string `json:"name"`
		Industry *string `json:"industry"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if payload.Name != nil {
		if strings.TrimSpace(*payload.Name) == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		set["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Industry != nil {
		set["industry"] = *payload.Industry
	}

	res, err := orgCollection.UpdateOne(r.Context(), bson.M{"_id": orgID}, bson.M{"$set": set})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update organization")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "organization not found")
		return
	}

	recordActivity(orgID, userID, userNameFromRequest(r), "update_organization", "organization", orgID, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "organization updated"})
}
