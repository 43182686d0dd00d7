package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullName(t *testing.T) {
	u := User{FirstName: "Maya", LastName: "Okafor"}
	assert.Equal(t, "Maya Okafor", u.FullName())

	assert.Equal(t, "Maya", (&User{FirstName: "Maya"}).FullName())
	assert.Equal(t, "Okafor", (&User{LastName: "Okafor"}).FullName())
}

func TestRoles(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleManager))
	assert.True(t, ValidRole(RoleViewer))
	assert.False(t, ValidRole("root"))

	assert.True(t, CanWrite(RoleAdmin))
	assert.True(t, CanWrite(RoleManager))
	assert.False(t, CanWrite(RoleViewer))
}

func TestTagCategories(t *testing.T) {
	for _, c := range []string{TagCategoryLocation, TagCategoryDepartment, TagCategoryAssetType, TagCategoryStatus} {
		assert.True(t, ValidTagCategory(c))
		assert.NotEmpty(t, AssetFieldForCategory(c))
	}
	assert.False(t, ValidTagCategory("Condition"))
	assert.Empty(t, AssetFieldForCategory("Condition"))
}

func TestMaintenanceStatuses(t *testing.T) {
	for _, s := range []string{MaintenanceNotStarted, MaintenanceScheduled, MaintenanceInProgress, MaintenanceCompleted} {
		assert.True(t, ValidMaintenanceStatus(s))
	}
	assert.False(t, ValidMaintenanceStatus("Cancelled"))
}
