package entitlement

import (
	"context"
	"testing"
	"time"

	"smartcrm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetUserFeatureUpsertsSingleRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	contacts := createFeature(t, db, "contacts", models.CategoryCoreCRM, true)
	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))
	admin := createUser(t, db, "admin@example.com", tierPtr(models.TierSuperAdmin))

	overrides := NewOverrides(db)

	first, err := overrides.SetUserFeature(ctx, user.ID, contacts.ID, true, admin.ID, nil)
	require.NoError(t, err)

	expiry := time.Now().Add(48 * time.Hour).UTC()
	second, err := overrides.SetUserFeature(ctx, user.ID, contacts.ID, false, admin.ID, timePtr(expiry))
	require.NoError(t, err)

	// Exactly one row for the pair, carrying the second call's values.
	var count int64
	require.NoError(t, db.Model(&models.UserFeature{}).
		Where("user_id = ? AND feature_id = ?", user.ID, contacts.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.Enabled)
	require.NotNil(t, second.ExpiresAt)
	assert.WithinDuration(t, expiry, *second.ExpiresAt, time.Second)
}

func TestSetUserFeatureUnknownFeature(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))

	_, err := NewOverrides(db).SetUserFeature(context.Background(), user.ID, 9999, true, 1, nil)
	assert.ErrorIs(t, err, ErrFeatureNotFound)
}

func TestRemoveUserFeatureIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	contacts := createFeature(t, db, "contacts", models.CategoryCoreCRM, true)
	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))
	admin := createUser(t, db, "admin@example.com", tierPtr(models.TierSuperAdmin))

	overrides := NewOverrides(db)

	// Removing an absent override succeeds with no effect.
	require.NoError(t, overrides.RemoveUserFeature(ctx, user.ID, contacts.ID))

	_, err := overrides.SetUserFeature(ctx, user.ID, contacts.ID, false, admin.ID, nil)
	require.NoError(t, err)
	require.NoError(t, overrides.RemoveUserFeature(ctx, user.ID, contacts.ID))
	require.NoError(t, overrides.RemoveUserFeature(ctx, user.ID, contacts.ID))

	rows, err := overrides.GetUserOverrides(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetUserOverridesReturnsExpiredRows(t *testing.T) {
	// Expiry filtering belongs to the resolver; the raw accessor reports
	// lapsed rows so admin tooling can see them.
	db := newTestDB(t)
	ctx := context.Background()

	contacts := createFeature(t, db, "contacts", models.CategoryCoreCRM, true)
	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))
	admin := createUser(t, db, "admin@example.com", tierPtr(models.TierSuperAdmin))

	overrides := NewOverrides(db)
	_, err := overrides.SetUserFeature(ctx, user.ID, contacts.ID, true, admin.ID, timePtr(time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	rows, err := overrides.GetUserOverrides(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Expired(time.Now()))
	assert.Equal(t, "contacts", rows[0].Feature.Key)
}

func TestDeleteExpiredBeforeHonorsCutoff(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	old := createFeature(t, db, "old_grant", models.CategoryAdvanced, true)
	recent := createFeature(t, db, "recent_grant", models.CategoryAdvanced, true)
	active := createFeature(t, db, "active_grant", models.CategoryAdvanced, true)
	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))
	admin := createUser(t, db, "admin@example.com", tierPtr(models.TierSuperAdmin))

	overrides := NewOverrides(db)
	_, err := overrides.SetUserFeature(ctx, user.ID, old.ID, true, admin.ID, timePtr(time.Now().Add(-60*24*time.Hour)))
	require.NoError(t, err)
	_, err = overrides.SetUserFeature(ctx, user.ID, recent.ID, true, admin.ID, timePtr(time.Now().Add(-time.Hour)))
	require.NoError(t, err)
	_, err = overrides.SetUserFeature(ctx, user.ID, active.ID, true, admin.ID, nil)
	require.NoError(t, err)

	removed, err := overrides.DeleteExpiredBefore(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	rows, err := overrides.GetUserOverrides(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotEqual(t, old.ID, row.FeatureID)
	}
}
