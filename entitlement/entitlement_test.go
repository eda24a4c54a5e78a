package entitlement

import (
	"testing"
	"time"

	"smartcrm/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Feature{},
		&models.TierFeature{},
		&models.UserFeature{},
		&models.FeatureUsage{},
	))
	return db
}

func createFeature(t *testing.T, db *gorm.DB, key string, category models.FeatureCategory, enabled bool) *models.Feature {
	t.Helper()
	feature := models.Feature{
		Key:       key,
		Name:      key,
		Category:  category,
		IsEnabled: enabled,
	}
	require.NoError(t, db.Create(&feature).Error)
	return &feature
}

func createUser(t *testing.T, db *gorm.DB, email string, tier *models.ProductTier) *models.User {
	t.Helper()
	user := models.User{
		Email:       email,
		IsActive:    true,
		Role:        models.RoleUser,
		ProductTier: tier,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func mapTierFeature(t *testing.T, db *gorm.DB, tier models.ProductTier, featureID uint, included bool) {
	t.Helper()
	require.NoError(t, db.Create(&models.TierFeature{
		Tier:              tier,
		FeatureID:         featureID,
		IncludedByDefault: included,
	}).Error)
}

func tierPtr(tier models.ProductTier) *models.ProductTier {
	return &tier
}

func timePtr(tm time.Time) *time.Time {
	return &tm
}
