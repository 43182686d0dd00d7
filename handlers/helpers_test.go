package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assettrack/maintenance"
	"assettrack/models"
)

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, models.RoleAdmin, normalizeRole("admin"))
	assert.Equal(t, models.RoleAdmin, normalizeRole("  Admin "))
	assert.Equal(t, models.RoleManager, normalizeRole("MANAGER"))
	assert.Equal(t, models.RoleViewer, normalizeRole("viewer"))
	assert.Equal(t, models.RoleViewer, normalizeRole("superuser"))
	assert.Equal(t, models.RoleViewer, normalizeRole(""))
}

func TestNextMaintenanceFrom(t *testing.T) {
	now := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)

	// No period: no schedule.
	next, err := nextMaintenanceFrom("", nil, now)
	require.NoError(t, err)
	assert.Nil(t, next)

	// Period with no service history counts from now.
	next, err = nextMaintenanceFrom("3 months", nil, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), *next)

	// Period counts from the last service date when present.
	last := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	next, err = nextMaintenanceFrom("2 weeks", &last, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2026, time.January, 24, 0, 0, 0, 0, time.UTC), *next)

	_, err = nextMaintenanceFrom("every so often", nil, now)
	assert.Error(t, err)
}

func TestAttachHealth(t *testing.T) {
	now := time.Now().UTC()
	overdue := now.AddDate(0, 0, -3)
	soon := now.AddDate(0, 0, 5)
	later := now.AddDate(0, 2, 0)

	assets := []models.Asset{
		{NextMaintenanceDate: &overdue},
		{NextMaintenanceDate: &soon},
		{NextMaintenanceDate: &later},
		{},
	}
	attachHealth(assets, 14)

	assert.Equal(t, maintenance.HealthOverdue, assets[0].MaintenanceHealth)
	assert.Equal(t, maintenance.HealthDueSoon, assets[1].MaintenanceHealth)
	assert.Equal(t, maintenance.HealthUpToDate, assets[2].MaintenanceHealth)
	assert.Equal(t, maintenance.HealthNotScheduled, assets[3].MaintenanceHealth)
}

func TestDueInPhrase(t *testing.T) {
	assert.Equal(t, "today", dueInPhrase(0))
	assert.Equal(t, "tomorrow", dueInPhrase(1))
	assert.Equal(t, "in 7 days", dueInPhrase(7))
}

func TestCalculateStartDate(t *testing.T) {
	assert.False(t, calculateStartDate("7d").IsZero())
	assert.False(t, calculateStartDate("month").IsZero())
	assert.True(t, calculateStartDate("").IsZero())
	assert.True(t, calculateStartDate("whenever").IsZero())
}
