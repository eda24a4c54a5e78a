package entitlement

import (
	"context"
	"time"

	"smartcrm/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageTracker records feature access counts for analytics. Observational
// only; access decisions never consult it.
type UsageTracker struct {
	DB *gorm.DB
}

func NewUsageTracker(db *gorm.DB) *UsageTracker {
	return &UsageTracker{DB: db}
}

// Track upserts the usage row for (userID, featureID), bumping the access
// count and the last-accessed timestamp.
func (ut *UsageTracker) Track(ctx context.Context, userID, featureID uint) error {
	row := models.FeatureUsage{
		UserID:         userID,
		FeatureID:      featureID,
		LastAccessedAt: time.Now().UTC(),
		AccessCount:    1,
	}
	err := ut.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "feature_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"access_count":     gorm.Expr("feature_usages.access_count + 1"),
			"last_accessed_at": row.LastAccessedAt,
			"updated_at":       row.LastAccessedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return storeErr(err, ErrTransientStore)
	}
	return nil
}

// ListUserUsage returns the user's usage rows joined with catalog data,
// most recently accessed first.
func (ut *UsageTracker) ListUserUsage(ctx context.Context, userID uint) ([]models.FeatureUsage, error) {
	var rows []models.FeatureUsage
	err := ut.DB.WithContext(ctx).
		Preload("Feature").
		Where("user_id = ?", userID).
		Order("last_accessed_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr(err, ErrTransientStore)
	}
	return rows, nil
}
