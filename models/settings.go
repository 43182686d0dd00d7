// models/settings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Settings is a per-organization singleton document; maintenance mode gates
// that organization's writes only.
type Settings struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OrganizationID     primitive.ObjectID `bson:"organizationId" json:"-"`
	MaintenanceMode    bool               `bson:"maintenanceMode" json:"maintenanceMode"`
	MaintenanceMessage string             `bson:"maintenanceMessage,omitempty" json:"maintenanceMessage,omitempty"`
	DueSoonDays        int                `bson:"dueSoonDays" json:"dueSoonDays"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy          primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}
