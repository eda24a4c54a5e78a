package entitlement

import (
	"context"

	"smartcrm/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TierMatrix maps each product tier to its included feature set.
type TierMatrix struct {
	DB *gorm.DB
}

func NewTierMatrix(db *gorm.DB) *TierMatrix {
	return &TierMatrix{DB: db}
}

// GetTierFeatures returns the tier's mappings joined with catalog data,
// ordered by category then feature name.
func (tm *TierMatrix) GetTierFeatures(ctx context.Context, tier models.ProductTier) ([]models.TierFeature, error) {
	if !models.IsValidTier(tier) {
		return nil, ErrInvalidTier
	}

	var mappings []models.TierFeature
	err := tm.DB.WithContext(ctx).
		Preload("Feature").
		Joins("JOIN features ON features.id = tier_features.feature_id").
		Where("tier_features.tier = ?", tier).
		Order("features.category ASC, features.name ASC").
		Find(&mappings).Error
	if err != nil {
		return nil, storeErr(err, ErrTransientStore)
	}
	return mappings, nil
}

// SetTierFeatures replaces the tier's entire feature set: existing
// mappings are removed and the supplied ids inserted with
// IncludedByDefault=true. Runs in one transaction so an interrupted write
// never leaves the tier partially updated. Unknown feature ids abort the
// whole replacement.
func (tm *TierMatrix) SetTierFeatures(ctx context.Context, tier models.ProductTier, featureIDs []uint) ([]models.TierFeature, error) {
	if !models.IsValidTier(tier) {
		return nil, ErrInvalidTier
	}

	err := tm.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var known int64
		if err := tx.Model(&models.Feature{}).Where("id IN ?", featureIDs).Count(&known).Error; err != nil {
			return err
		}
		if known != int64(len(dedupe(featureIDs))) {
			return ErrFeatureNotFound
		}

		if err := tx.Unscoped().Where("tier = ?", tier).Delete(&models.TierFeature{}).Error; err != nil {
			return err
		}
		for _, id := range dedupe(featureIDs) {
			mapping := models.TierFeature{
				Tier:              tier,
				FeatureID:         id,
				IncludedByDefault: true,
			}
			if err := tx.Create(&mapping).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == ErrFeatureNotFound {
			return nil, err
		}
		return nil, storeErr(err, ErrTransientStore)
	}

	logrus.WithFields(logrus.Fields{
		"tier":          tier,
		"feature_count": len(dedupe(featureIDs)),
	}).Info("tier feature set replaced")

	return tm.GetTierFeatures(ctx, tier)
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
