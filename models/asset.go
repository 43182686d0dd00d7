// models/asset.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Asset statuses the system itself assigns. The Status tag category lets
// organizations define additional values.
const (
	AssetStatusActive      = "Active"
	AssetStatusInRepair    = "In Repair"
	AssetStatusRetired     = "Retired"
	AssetStatusUnavailable = "Unavailable"
)

type Asset struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AssetTag            string              `bson:"assetTag" json:"assetTag"`
	Name                string              `bson:"name" json:"name"`
	Description         string              `bson:"description,omitempty" json:"description,omitempty"`
	SerialNumber        string              `bson:"serialNumber,omitempty" json:"serialNumber,omitempty"`
	Location            string              `bson:"location,omitempty" json:"location,omitempty"`
	Department          string              `bson:"department,omitempty" json:"department,omitempty"`
	Type                string              `bson:"type,omitempty" json:"type,omitempty"`
	Status              string              `bson:"status" json:"status"`
	AssignedUserID      *primitive.ObjectID `bson:"assignedUserId,omitempty" json:"assignedUserId,omitempty"`
	PurchaseDate        *time.Time          `bson:"purchaseDate,omitempty" json:"purchaseDate,omitempty"`
	PurchaseCost        float64             `bson:"purchaseCost,omitempty" json:"purchaseCost,omitempty"`
	MaintenancePeriod   string              `bson:"maintenancePeriod,omitempty" json:"maintenancePeriod,omitempty"`
	LastMaintenanceDate *time.Time          `bson:"lastMaintenanceDate,omitempty" json:"lastMaintenanceDate,omitempty"`
	NextMaintenanceDate *time.Time          `bson:"nextMaintenanceDate,omitempty" json:"nextMaintenanceDate,omitempty"`
	OrganizationID      primitive.ObjectID  `bson:"organizationId" json:"organizationId"`
	CreatedBy           primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt" json:"updatedAt"`
	DeletedAt           *time.Time          `bson:"deletedAt,omitempty" json:"-"`

	// Derived at read time from NextMaintenanceDate, never stored.
	MaintenanceHealth string `bson:"-" json:"maintenanceHealth,omitempty"`
}
