// handlers/auth_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"assettrack/models"
	"assettrack/utils"
)

// normalizeRole ensures consistent role naming for frontend mapping
func normalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))

	switch role {
	case models.RoleAdmin:
		return models.RoleAdmin
	case models.RoleManager:
		return models.RoleManager
	case models.RoleViewer:
		return models.RoleViewer
	default:
		return models.RoleViewer // Default fallback
	}
}

// Login handles user authentication
func Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.ParseJSON(r, &creds); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if creds.Email == "" || !strings.Contains(creds.Email, "@") {
		utils.RespondWithError(w, http.StatusBadRequest, "Valid email required")
		return
	}
	if len(creds.Password) < 6 {
		utils.RespondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	var user models.User
	err := userCollection.FindOne(r.Context(), bson.M{"email": creds.Email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Burn a comparison so unknown emails take as long as bad passwords.
			_ = utils.CheckPasswordHash("dummy_password", "$2a$10$dummyhashfordummycomparison")
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("Database error during login: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Authentication service unavailable")
		return
	}

	if !utils.CheckPasswordHash(creds.Password, user.PasswordHash) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !user.Active {
		utils.RespondWithError(w, http.StatusForbidden, "Account is deactivated")
		return
	}

	role := normalizeRole(user.Role)

	token, err := utils.GenerateJWT(
		user.ID.Hex(),
		user.FullName(),
		role,
		user.OrganizationID.Hex(),
	)
	if err != nil {
		log.Printf("JWT generation error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":             user.ID.Hex(),
			"firstName":      user.FirstName,
			"lastName":       user.LastName,
			"email":          user.Email,
			"role":           role,
			"organizationId": user.OrganizationID.Hex(),
		},
	})
}

// Logout acknowledges logout. Tokens are stateless; the client discards it.
func Logout(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ValidateToken parses the Bearer token and returns its claims.
func ValidateToken(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
		return
	}

	claims, err := utils.ValidateJWT(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"valid":          true,
		"userID":         claims.UserID,
		"name":           claims.Name,
		"role":           claims.Role,
		"organizationId": claims.OrganizationID,
	})
}

// ForgotPassword issues a reset token. The token itself is logged rather
// than emailed; email delivery is out of scope.
func ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err := userCollection.FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err != nil {
		// Same response whether or not the account exists.
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{
			"message": "If the account exists, a reset link has been sent",
		})
		return
	}

	token, hash, err := utils.GenerateResetToken()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create reset token")
		return
	}

	expiry := time.Now().UTC().Add(time.Hour)
	_, err = userCollection.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"resetTokenHash": hash, "resetTokenExpiry": expiry}},
	)
	if err != nil {
		log.Printf("reset token store failed for %s: %v", req.Email, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create reset token")
		return
	}

	log.Printf("Password reset requested for %s, token: %s", user.Email, token)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "If the account exists, a reset link has been sent",
	})
}

// ResetPassword consumes a reset token and sets a new password.
func ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	if req.Token == "" || len(req.Password) < 6 {
		utils.RespondWithError(w, http.StatusBadRequest, "Token and a password of at least 6 characters are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err := userCollection.FindOne(ctx, bson.M{
		"resetTokenHash":   utils.HashToken(req.Token),
		"resetTokenExpiry": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&user)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Password processing failed")
		return
	}

	_, err = userCollection.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{
			"$set":   bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()},
			"$unset": bson.M{"resetTokenHash": "", "resetTokenExpiry": ""},
		},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}

	recordActivity(user.OrganizationID, user.ID, user.FullName(), "reset_password", "user", user.ID, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// ChangePassword lets an authenticated user change their own password.
func ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	if len(req.NewPassword) < 6 {
		utils.RespondWithError(w, http.StatusBadRequest, "New password must be at least 6 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "User not found")
		return
	}

	if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Password processing failed")
		return
	}

	_, err = userCollection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}

	recordActivity(user.OrganizationID, user.ID, user.FullName(), "change_password", "user", user.ID, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
