package entitlement

import (
	"context"
	"errors"
	"strconv"

	"smartcrm/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Catalog is the source of truth for what features exist and their static
// metadata. Feature keys are immutable once referenced by a tier mapping
// or override.
type Catalog struct {
	DB *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{DB: db}
}

// CatalogFilter narrows ListFeatures results. Nil fields match everything.
type CatalogFilter struct {
	Category *models.FeatureCategory
	Enabled  *bool
}

// ListFeatures returns the catalog ordered by category then name.
func (cat *Catalog) ListFeatures(ctx context.Context, filter CatalogFilter) ([]models.Feature, error) {
	q := cat.DB.WithContext(ctx).Model(&models.Feature{})
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.Enabled != nil {
		q = q.Where("is_enabled = ?", *filter.Enabled)
	}

	var features []models.Feature
	if err := q.Order("category ASC, name ASC").Find(&features).Error; err != nil {
		return nil, storeErr(err, ErrTransientStore)
	}
	return features, nil
}

// GetFeature looks a feature up by numeric id or by key.
func (cat *Catalog) GetFeature(ctx context.Context, idOrKey string) (*models.Feature, error) {
	var feature models.Feature
	var err error
	if id, convErr := strconv.ParseUint(idOrKey, 10, 32); convErr == nil {
		err = cat.DB.WithContext(ctx).First(&feature, uint(id)).Error
	} else {
		err = cat.DB.WithContext(ctx).First(&feature, "key = ?", idOrKey).Error
	}
	if err != nil {
		return nil, storeErr(err, ErrFeatureNotFound)
	}
	return &feature, nil
}

// GetFeatureByKey looks a feature up by key only.
func (cat *Catalog) GetFeatureByKey(ctx context.Context, key string) (*models.Feature, error) {
	var feature models.Feature
	if err := cat.DB.WithContext(ctx).First(&feature, "key = ?", key).Error; err != nil {
		return nil, storeErr(err, ErrFeatureNotFound)
	}
	return &feature, nil
}

// CreateFeature inserts a new catalog entry. The unique index on key is
// the authority on duplicates, not an application-level pre-check.
func (cat *Catalog) CreateFeature(ctx context.Context, feature *models.Feature) error {
	if err := cat.DB.WithContext(ctx).Create(feature).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return storeErr(err, ErrTransientStore)
	}
	logrus.WithFields(logrus.Fields{
		"feature_id":  feature.ID,
		"feature_key": feature.Key,
	}).Info("feature created")
	return nil
}

// FeaturePatch carries the mutable fields of a feature. Nil fields are
// left unchanged; the key itself is immutable.
type FeaturePatch struct {
	Name        *string
	Description *string
	Category    *models.FeatureCategory
	IsEnabled   *bool
	DependsOn   []string
	Metadata    map[string]string
}

// UpdateFeature applies a patch to an existing feature.
func (cat *Catalog) UpdateFeature(ctx context.Context, id uint, patch FeaturePatch) (*models.Feature, error) {
	var feature models.Feature
	if err := cat.DB.WithContext(ctx).First(&feature, id).Error; err != nil {
		return nil, storeErr(err, ErrFeatureNotFound)
	}

	if patch.Name != nil {
		feature.Name = *patch.Name
	}
	if patch.Description != nil {
		feature.Description = *patch.Description
	}
	if patch.Category != nil {
		feature.Category = *patch.Category
	}
	if patch.IsEnabled != nil {
		feature.IsEnabled = *patch.IsEnabled
	}
	if patch.DependsOn != nil {
		feature.DependsOn = patch.DependsOn
	}
	if patch.Metadata != nil {
		feature.Metadata = patch.Metadata
	}

	if err := cat.DB.WithContext(ctx).Save(&feature).Error; err != nil {
		return nil, storeErr(err, ErrTransientStore)
	}
	logrus.WithFields(logrus.Fields{
		"feature_id":  feature.ID,
		"feature_key": feature.Key,
		"is_enabled":  feature.IsEnabled,
	}).Info("feature updated")
	return &feature, nil
}

// DeleteFeature hard-deletes a feature and cascades to its tier mappings,
// user overrides, and usage rows inside one transaction. Deleting an
// absent id is a no-op.
func (cat *Catalog) DeleteFeature(ctx context.Context, id uint) error {
	err := cat.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&models.TierFeature{},
			&models.UserFeature{},
			&models.FeatureUsage{},
		} {
			if err := tx.Unscoped().Where("feature_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&models.Feature{}, id).Error
	})
	if err != nil {
		return storeErr(err, ErrTransientStore)
	}
	logrus.WithField("feature_id", id).Info("feature deleted with cascade")
	return nil
}
