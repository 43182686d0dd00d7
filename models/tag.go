// models/tag.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tag categories. Fixed set; values within a category are user-defined.
const (
	TagCategoryLocation   = "Location"
	TagCategoryDepartment = "Department"
	TagCategoryAssetType  = "Asset Type"
	TagCategoryStatus     = "Status"
)

type Tag struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Category       string             `bson:"category" json:"category"`
	Value          string             `bson:"value" json:"value"`
	ValueLower     string             `bson:"valueLower" json:"-"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	CreatedBy      primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ValidTagCategory reports whether c is one of the four categories.
func ValidTagCategory(c string) bool {
	switch c {
	case TagCategoryLocation, TagCategoryDepartment, TagCategoryAssetType, TagCategoryStatus:
		return true
	}
	return false
}

// AssetFieldForCategory maps a tag category to the asset field it classifies.
func AssetFieldForCategory(c string) string {
	switch c {
	case TagCategoryLocation:
		return "location"
	case TagCategoryDepartment:
		return "department"
	case TagCategoryAssetType:
		return "type"
	case TagCategoryStatus:
		return "status"
	}
	return ""
}
