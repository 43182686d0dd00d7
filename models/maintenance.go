// models/maintenance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Maintenance record statuses.
const (
	MaintenanceNotStarted = "Not Started"
	MaintenanceScheduled  = "Scheduled"
	MaintenanceInProgress = "In Progress"
	MaintenanceCompleted  = "Completed"
)

type MaintenanceRecord struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AssetID        primitive.ObjectID  `bson:"assetId" json:"assetId"`
	Title          string              `bson:"title" json:"title"`
	Notes          string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Status         string              `bson:"status" json:"status"`
	ScheduledDate  time.Time           `bson:"scheduledDate" json:"scheduledDate"`
	CompletedAt    *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CompletedBy    *primitive.ObjectID `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	Technician     string              `bson:"technician,omitempty" json:"technician,omitempty"`
	Cost           float64             `bson:"cost,omitempty" json:"cost,omitempty"`
	OrganizationID primitive.ObjectID  `bson:"organizationId" json:"organizationId"`
	CreatedBy      primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ValidMaintenanceStatus reports whether s is one of the four record statuses.
func ValidMaintenanceStatus(s string) bool {
	switch s {
	case MaintenanceNotStarted, MaintenanceScheduled, MaintenanceInProgress, MaintenanceCompleted:
		return true
	}
	return false
}
