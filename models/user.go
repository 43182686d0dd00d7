// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName      string             `bson:"firstName" json:"firstName"`
	LastName       string             `bson:"lastName" json:"lastName"`
	Email          string             `bson:"email" json:"email"`
	JobTitle       string             `bson:"jobTitle,omitempty" json:"jobTitle,omitempty"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash   string             `bson:"passwordHash" json:"-"`
	Role           string             `bson:"role" json:"role"`
	Active         bool               `bson:"active" json:"active"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Password reset, set by forgot-password and cleared on use.
	ResetTokenHash   string     `bson:"resetTokenHash,omitempty" json:"-"`
	ResetTokenExpiry *time.Time `bson:"resetTokenExpiry,omitempty" json:"-"`
}

// FullName joins first and last name for display and audit entries.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ValidRole reports whether r is one of the three roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}

// CanWrite reports whether the role may create or modify records.
func CanWrite(role string) bool {
	return role == RoleAdmin || role == RoleManager
}
