// models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is an append-only audit-log entry describing an action taken on
// an entity (asset, maintenance record, tag, user, settings).
type Activity struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	UserName       string             `bson:"userName,omitempty" json:"userName,omitempty"`
	Action         string             `bson:"action" json:"action"` // e.g. "create_asset", "complete_maintenance"
	EntityType     string             `bson:"entityType" json:"entityType"`
	EntityID       primitive.ObjectID `bson:"entityId,omitempty" json:"entityId,omitempty"`
	Details        bson.M             `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
