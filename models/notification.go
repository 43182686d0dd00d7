// models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds.
const (
	NotifyMaintenanceDue     = "maintenance_due"
	NotifyMaintenanceOverdue = "maintenance_overdue"
	NotifyAssetAssigned      = "asset_assigned"
	NotifySystem             = "system"
)

// Notification targets one user; a zero UserID means the whole organization.
type Notification struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID  `bson:"organizationId" json:"organizationId"`
	UserID         primitive.ObjectID  `bson:"userId,omitempty" json:"userId,omitempty"`
	Kind           string              `bson:"kind" json:"kind"`
	Message        string              `bson:"message" json:"message"`
	AssetID        *primitive.ObjectID `bson:"assetId,omitempty" json:"assetId,omitempty"`
	Read           bool                `bson:"read" json:"read"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
}
