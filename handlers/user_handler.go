// handlers/user_handler.go
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

	"assettrack/models"
	"assettrack/utils"
)

type userPayload struct {
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
	JobTitle  string `json:"jobTitle" validate:"max=128"`
	Phone     string `json:"phone" validate:"max=32"`
	Password  string `json:"password"`
	Role      string `json:"role" validate:"required"`
}

// ListUsers returns the organization's users. Admin only, enforced at the
// route.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := userCollection.Find(ctx, bson.M{"organizationId": orgID}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode users")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	utils.RespondWithJSON(w, http.StatusOK, users)
}

// CreateUser adds an account to the organization. Admin only, enforced at
// the route.
func CreateUser(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	callerID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var payload userPayload
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if err := validate.Struct(payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if !models.ValidRole(payload.Role) {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid role")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	count, err := userCollection.CountDocuments(ctx, bson.M{"email": payload.Email})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to check email")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "a user with this email already exists")
		return
	}

	password := payload.Password
	if password == "" {
		password = utils.GenerateRandomPassword(12)
		// Placeholder: send invite email
		log.Printf("Invite for %s with temporary password: %s", payload.Email, password)
	}
	if len(password) < 6 {
		utils.RespondWithError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Password processing failed")
		return
	}

	now := time.Now().UTC()
	user := models.User{
		ID:             primitive.NewObjectID(),
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Email:          payload.Email,
		JobTitle:       payload.JobTitle,
		Phone:          payload.Phone,
		PasswordHash:   hash,
		Role:           payload.Role,
		Active:         true,
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := userCollection.InsertOne(ctx, user); err != nil {
		log.Printf("user insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	recordActivity(orgID, callerID, userNameFromRequest(r), "create_user", "user", user.ID, bson.M{
		"email": user.Email,
		"role":  user.Role,
	})

	utils.RespondWithJSON(w, http.StatusCreated, user)
}

// UpdateUser edits profile fields, role, and active flag. Admin only,
// enforced at the route.
func UpdateUser(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	callerID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	targetID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var payload struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		JobTitle  *string `json:"jobTitle"`
		Phone     *string `json:"phone"`
		Role      *string `json:"role"`
		Active    *bool   `json:"active"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if payload.FirstName != nil {
		set["firstName"] = *payload.FirstName
	}
	if payload.LastName != nil {
		set["lastName"] = *payload.LastName
	}
	if payload.JobTitle != nil {
		set["jobTitle"] = *payload.JobTitle
	}
	if payload.Phone != nil {
		set["phone"] = *payload.Phone
	}
	if payload.Role != nil {
		if !models.ValidRole(*payload.Role) {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid role")
			return
		}
		set["role"] = *payload.Role
	}
	if payload.Active != nil {
		// An admin cannot deactivate their own account.
		if targetID == callerID && !*payload.Active {
			utils.RespondWithError(w, http.StatusBadRequest, "cannot deactivate your own account")
			return
		}
		set["active"] = *payload.Active
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var updated models.User
	err := userCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": targetID, "organizationId": orgID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "user not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	recordActivity(orgID, callerID, userNameFromRequest(r), "update_user", "user", targetID, bson.M{
		"email": updated.Email,
	})

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// DeactivateUser disables an account. Accounts are never hard-deleted; the
// audit trail references them. Admin only, enforced at the route.
func DeactivateUser(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}
	callerID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	targetID, ok := pathObjectID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if targetID == callerID {
		utils.RespondWithError(w, http.StatusBadRequest, "cannot deactivate your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := userCollection.UpdateOne(ctx,
		bson.M{"_id": targetID, "organizationId": orgID},
		bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to deactivate user")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "user not found")
		return
	}

	recordActivity(orgID, callerID, userNameFromRequest(r), "deactivate_user", "user", targetID, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "user deactivated"})
}

// GetMe returns the caller's profile.
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "user not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateMe lets the caller edit their own profile fields.
func UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	orgID, ok := orgIDFromRequest(w, r)
	if !ok {
		return
	}

	var payload struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		JobTitle  *string `json:"jobTitle"`
		Phone     *string `json:"phone"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if payload.FirstName != nil {
		set["firstName"] = *payload.FirstName
	}
	if payload.LastName != nil {
		set["lastName"] = *payload.LastName
	}
	if payload.JobTitle != nil {
		set["jobTitle"] = *payload.JobTitle
	}
	if payload.Phone != nil {
		set["phone"] = *payload.Phone
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var updated models.User
	err := userCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	recordActivity(orgID, userID, userNameFromRequest(r), "update_profile", "user", userID, nil)

	utils.RespondWithJSON(w, http.StatusOK, updated)
}
