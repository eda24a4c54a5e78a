package entitlement

import (
	"context"
	"time"

	"smartcrm/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Overrides is the per-user feature override store. Rows are keyed
// uniquely by (user, feature); expiry filtering is the resolver's job, so
// the raw accessor returns lapsed rows too.
type Overrides struct {
	DB *gorm.DB
}

func NewOverrides(db *gorm.DB) *Overrides {
	return &Overrides{DB: db}
}

// GetUserOverrides returns every override row for the user joined with
// catalog data, expired rows included.
func (o *Overrides) GetUserOverrides(ctx context.Context, userID uint) ([]models.UserFeature, error) {
	var overrides []models.UserFeature
	err := o.DB.WithContext(ctx).
		Preload("Feature").
		Joins("JOIN features ON features.id = user_features.feature_id").
		Where("user_features.user_id = ?", userID).
		Order("features.category ASC, features.name ASC").
		Find(&overrides).Error
	if err != nil {
		return nil, storeErr(err, ErrTransientStore)
	}
	return overrides, nil
}

// SetUserFeature upserts the override for (userID, featureID). The unique
// constraint on the pair makes concurrent writes converge on a single row
// with the last writer's values; no application-level locking.
func (o *Overrides) SetUserFeature(ctx context.Context, userID, featureID uint, enabled bool, grantedBy uint, expiresAt *time.Time) (*models.UserFeature, error) {
	var exists int64
	if err := o.DB.WithContext(ctx).Model(&models.Feature{}).Where("id = ?", featureID).Count(&exists).Error; err != nil {
		return nil, storeErr(err, ErrTransientStore)
	}
	if exists == 0 {
		return nil, ErrFeatureNotFound
	}

	override := models.UserFeature{
		UserID:    userID,
		FeatureID: featureID,
		Enabled:   enabled,
		ExpiresAt: expiresAt,
		GrantedBy: grantedBy,
		GrantedAt: time.Now().UTC(),
	}
	err := o.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "feature_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "expires_at", "granted_by", "granted_at", "updated_at"}),
	}).Create(&override).Error
	if err != nil {
		return nil, storeErr(err, ErrTransientStore)
	}

	// Re-read so the caller sees the surviving row regardless of which
	// branch of the upsert ran.
	var row models.UserFeature
	err = o.DB.WithContext(ctx).Preload("Feature").
		Where("user_id = ? AND feature_id = ?", userID, featureID).
		First(&row).Error
	if err != nil {
		return nil, storeErr(err, ErrTransientStore)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"feature_id": featureID,
		"enabled":    enabled,
		"granted_by": grantedBy,
	}).Info("user feature override set")
	return &row, nil
}

// RemoveUserFeature deletes the override row if present, reverting the
// user to the tier default. Removing an absent override is a no-op.
func (o *Overrides) RemoveUserFeature(ctx context.Context, userID, featureID uint) error {
	err := o.DB.WithContext(ctx).Unscoped().
		Where("user_id = ? AND feature_id = ?", userID, featureID).
		Delete(&models.UserFeature{}).Error
	if err != nil {
		return storeErr(err, ErrTransientStore)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"feature_id": featureID,
	}).Info("user feature override removed")
	return nil
}

// DeleteExpiredBefore hard-deletes overrides whose expiry passed before
// the cutoff. Used by the retention sweeper, never by resolution.
func (o *Overrides) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := o.DB.WithContext(ctx).Unscoped().
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Delete(&models.UserFeature{})
	if res.Error != nil {
		return 0, storeErr(res.Error, ErrTransientStore)
	}
	return res.RowsAffected, nil
}
