package entitlement

import (
	"context"
	"testing"
	"time"

	"smartcrm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findEffective(features []EffectiveFeature, key string) *EffectiveFeature {
	for i := range features {
		if features[i].Key == key {
			return &features[i]
		}
	}
	return nil
}

func TestResolveTierOnlyDeterminism(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	dashboard := createFeature(t, db, "dashboard", models.CategoryCoreCRM, true)
	contacts := createFeature(t, db, "contacts", models.CategoryCoreCRM, true)
	// Mapped to a different tier; must not leak into smartcrm users.
	aiTools := createFeature(t, db, "ai_tools", models.CategoryAIFeatures, true)

	mapTierFeature(t, db, models.TierSmartCRM, dashboard.ID, true)
	mapTierFeature(t, db, models.TierSmartCRM, contacts.ID, true)
	mapTierFeature(t, db, models.TierSalesMaximizer, aiTools.ID, true)

	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))

	features, err := NewResolver(db).GetEffectiveFeatures(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, features, 2)

	for _, ef := range features {
		assert.True(t, ef.Enabled)
		assert.Equal(t, SourceTier, ef.Source)
		assert.Nil(t, ef.OverrideID)
	}
	assert.Nil(t, findEffective(features, "ai_tools"))
}

func TestResolveOverridePrecedence(t *testing.T) {
	// Spec scenario: smartcrm tier with dashboard+contacts, active
	// override disabling contacts.
	db := newTestDB(t)
	ctx := context.Background()

	dashboard := createFeature(t, db, "dashboard", models.CategoryCoreCRM, true)
	contacts := createFeature(t, db, "contacts", models.CategoryCoreCRM, true)
	mapTierFeature(t, db, models.TierSmartCRM, dashboard.ID, true)
	mapTierFeature(t, db, models.TierSmartCRM, contacts.ID, true)

	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))
	admin := createUser(t, db, "admin@example.com", tierPtr(models.TierSuperAdmin))

	_, err := NewOverrides(db).SetUserFeature(ctx, user.ID, contacts.ID, false, admin.ID, nil)
	require.NoError(t, err)

	features, err := NewResolver(db).GetEffectiveFeatures(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, features, 2)

	d := findEffective(features, "dashboard")
	require.NotNil(t, d)
	assert.True(t, d.Enabled)
	assert.Equal(t, SourceTier, d.Source)

	c := findEffective(features, "contacts")
	require.NotNil(t, c)
	assert.False(t, c.Enabled)
	assert.Equal(t, SourceOverride, c.Source)
	require.NotNil(t, c.GrantedBy)
	assert.Equal(t, admin.ID, *c.GrantedBy)
	require.NotNil(t, c.OverrideID)
	assert.NotNil(t, c.GrantedAt)
}

func TestResolveExpiredOverrideLapsesToTierDefault(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	contacts := createFeature(t, db, "contacts", models.CategoryCoreCRM, true)
	mapTierFeature(t, db, models.TierSmartCRM, contacts.ID, true)

	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))
	admin := createUser(t, db, "admin@example.com", tierPtr(models.TierSuperAdmin))

	yesterday := time.Now().Add(-24 * time.Hour)
	_, err := NewOverrides(db).SetUserFeature(ctx, user.ID, contacts.ID, false, admin.ID, timePtr(yesterday))
	require.NoError(t, err)

	features, err := NewResolver(db).GetEffectiveFeatures(ctx, user.ID)
	require.NoError(t, err)

	c := findEffective(features, "contacts")
	require.NotNil(t, c)
	assert.True(t, c.Enabled, "expired override must not apply")
	assert.Equal(t, SourceTier, c.Source)
}

func TestResolveExpiredGrantOnNonTierFeature(t *testing.T) {
	// Override on a feature outside the tier set: active grants it,
	// expired leaves it enabled=false from the tier map's absence... the
	// feature simply disappears from the effective set.
	db := newTestDB(t)
	ctx := context.Background()

	aiTools := createFeature(t, db, "ai_tools", models.CategoryAIFeatures, true)
	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))
	admin := createUser(t, db, "admin@example.com", tierPtr(models.TierSuperAdmin))

	overrides := NewOverrides(db)
	resolver := NewResolver(db)

	_, err := overrides.SetUserFeature(ctx, user.ID, aiTools.ID, true, admin.ID, nil)
	require.NoError(t, err)

	features, err := resolver.GetEffectiveFeatures(ctx, user.ID)
	require.NoError(t, err)
	granted := findEffective(features, "ai_tools")
	require.NotNil(t, granted)
	assert.True(t, granted.Enabled)
	assert.Equal(t, SourceOverride, granted.Source)

	_, err = overrides.SetUserFeature(ctx, user.ID, aiTools.ID, true, admin.ID, timePtr(time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	features, err = resolver.GetEffectiveFeatures(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, findEffective(features, "ai_tools"))
}

func TestResolveGlobalKillSwitchTierPath(t *testing.T) {
	// Spec scenario: ai_tools globally disabled but included by the
	// sales_maximizer tier. Global disable wins over tier default.
	db := newTestDB(t)
	ctx := context.Background()

	aiTools := createFeature(t, db, "ai_tools", models.CategoryAIFeatures, false)
	mapTierFeature(t, db, models.TierSalesMaximizer, aiTools.ID, true)

	user := createUser(t, db, "u@example.com", tierPtr(models.TierSalesMaximizer))

	features, err := NewResolver(db).GetEffectiveFeatures(ctx, user.ID)
	require.NoError(t, err)

	ef := findEffective(features, "ai_tools")
	require.NotNil(t, ef)
	assert.False(t, ef.Enabled)
	assert.Equal(t, SourceTier, ef.Source)
}

func TestResolveGlobalKillSwitchOverridePath(t *testing.T) {
	// The kill switch is absolute: an active enabled=true override on a
	// globally disabled feature still resolves disabled, while the
	// override itself stays visible as the source.
	db := newTestDB(t)
	ctx := context.Background()

	aiTools := createFeature(t, db, "ai_tools", models.CategoryAIFeatures, false)
	mapTierFeature(t, db, models.TierSalesMaximizer, aiTools.ID, true)

	user := createUser(t, db, "u@example.com", tierPtr(models.TierSalesMaximizer))
	admin := createUser(t, db, "admin@example.com", tierPtr(models.TierSuperAdmin))

	_, err := NewOverrides(db).SetUserFeature(ctx, user.ID, aiTools.ID, true, admin.ID, nil)
	require.NoError(t, err)

	features, err := NewResolver(db).GetEffectiveFeatures(ctx, user.ID)
	require.NoError(t, err)

	ef := findEffective(features, "ai_tools")
	require.NotNil(t, ef)
	assert.False(t, ef.Enabled)
	assert.Equal(t, SourceOverride, ef.Source)
}

func TestResolveNotIncludedByDefaultStaysDisabled(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	invoicing := createFeature(t, db, "invoicing", models.CategoryBusinessTools, true)
	mapTierFeature(t, db, models.TierSmartCRM, invoicing.ID, false)

	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))

	features, err := NewResolver(db).GetEffectiveFeatures(ctx, user.ID)
	require.NoError(t, err)

	ef := findEffective(features, "invoicing")
	require.NotNil(t, ef)
	assert.False(t, ef.Enabled)
	assert.Equal(t, SourceTier, ef.Source)
}

func TestResolveNilTierFallsBackToDefaultTier(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	dashboard := createFeature(t, db, "dashboard", models.CategoryCoreCRM, true)
	mapTierFeature(t, db, models.DefaultTier, dashboard.ID, true)

	user := createUser(t, db, "u@example.com", nil)

	features, err := NewResolver(db).GetEffectiveFeatures(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "dashboard", features[0].Key)
	assert.True(t, features[0].Enabled)
}

func TestResolveUserNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := NewResolver(db).GetEffectiveFeatures(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Insert out of order; output is sorted by category then name.
	proposals := createFeature(t, db, "proposals", models.CategoryBusinessTools, true)
	contacts := createFeature(t, db, "contacts", models.CategoryCoreCRM, true)
	aiTools := createFeature(t, db, "ai_tools", models.CategoryAIFeatures, true)

	for _, id := range []uint{proposals.ID, contacts.ID, aiTools.ID} {
		mapTierFeature(t, db, models.TierSmartCRM, id, true)
	}
	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))

	features, err := NewResolver(db).GetEffectiveFeatures(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, features, 3)

	assert.Equal(t, "ai_tools", features[0].Key)
	assert.Equal(t, "proposals", features[1].Key)
	assert.Equal(t, "contacts", features[2].Key)
}

func TestHasFeatureDistinguishesUnknown(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	invoicing := createFeature(t, db, "invoicing", models.CategoryBusinessTools, true)
	mapTierFeature(t, db, models.TierSmartCRM, invoicing.ID, false)
	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))

	resolver := NewResolver(db)

	enabled, known, err := resolver.HasFeature(ctx, user.ID, "invoicing")
	require.NoError(t, err)
	assert.True(t, known)
	assert.False(t, enabled)

	enabled, known, err = resolver.HasFeature(ctx, user.ID, "no_such_feature")
	require.NoError(t, err)
	assert.False(t, known)
	assert.False(t, enabled)
}
