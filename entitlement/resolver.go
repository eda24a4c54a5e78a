package entitlement

import (
	"context"
	"sort"
	"time"

	"smartcrm/models"

	"gorm.io/gorm"
)

// EffectiveSource names where a resolved entry's state came from.
type EffectiveSource string

const (
	SourceTier     EffectiveSource = "tier"
	SourceOverride EffectiveSource = "override"
)

// EffectiveFeature is the resolved enabled/disabled state of one feature
// for one user. Derived, never stored.
type EffectiveFeature struct {
	FeatureID   uint                   `json:"feature_id"`
	Key         string                 `json:"key"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Category    models.FeatureCategory `json:"category"`
	Enabled     bool                   `json:"enabled"`
	Source      EffectiveSource        `json:"source"`

	// Populated only when Source == SourceOverride.
	OverrideID *uint      `json:"override_id,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	GrantedBy  *uint      `json:"granted_by,omitempty"`
	GrantedAt  *time.Time `json:"granted_at,omitempty"`
}

// Resolver computes the effective feature set for a user by merging tier
// defaults with per-user overrides. A pure read over the three stores: it
// never mutates state and assumes no caching, so callers re-resolve after
// any tier or override write.
type Resolver struct {
	DB        *gorm.DB
	tiers     *TierMatrix
	overrides *Overrides

	// now is swappable in tests.
	now func() time.Time
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{
		DB:        db,
		tiers:     NewTierMatrix(db),
		overrides: NewOverrides(db),
		now:       time.Now,
	}
}

// GetEffectiveFeatures resolves the user's effective feature set.
//
// Tier defaults produce enabled = IncludedByDefault && Feature.IsEnabled.
// An active (non-expired) override then replaces the tier entry outright;
// that is the single precedence rule of the system. The catalog kill
// switch is absolute on both paths: an override with enabled=true on a
// globally disabled feature still resolves to enabled=false, with
// source=override so the grant stays visible to admin tooling.
//
// Any read failure aborts resolution with its specific error kind; a
// partial or empty set is never returned on error, since callers could
// mistake it for a legitimate denial.
func (r *Resolver) GetEffectiveFeatures(ctx context.Context, userID uint) ([]EffectiveFeature, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}
	tier := user.Tier()

	mappings, err := r.tiers.GetTierFeatures(ctx, tier)
	if err != nil {
		return nil, err
	}

	effective := make(map[string]EffectiveFeature, len(mappings))
	for _, m := range mappings {
		effective[m.Feature.Key] = EffectiveFeature{
			FeatureID:   m.FeatureID,
			Key:         m.Feature.Key,
			Name:        m.Feature.Name,
			Description: m.Feature.Description,
			Category:    m.Feature.Category,
			Enabled:     m.IncludedByDefault && m.Feature.IsEnabled,
			Source:      SourceTier,
		}
	}

	overrides, err := r.overrides.GetUserOverrides(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := r.now()
	for _, ov := range overrides {
		if ov.Expired(now) {
			// Lapsed override contributes nothing; the feature keeps
			// whatever the tier map already produced.
			continue
		}
		ov := ov
		grantedAt := ov.GrantedAt
		effective[ov.Feature.Key] = EffectiveFeature{
			FeatureID:   ov.FeatureID,
			Key:         ov.Feature.Key,
			Name:        ov.Feature.Name,
			Description: ov.Feature.Description,
			Category:    ov.Feature.Category,
			Enabled:     ov.Enabled && ov.Feature.IsEnabled,
			Source:      SourceOverride,
			OverrideID:  &ov.ID,
			ExpiresAt:   ov.ExpiresAt,
			GrantedBy:   &ov.GrantedBy,
			GrantedAt:   &grantedAt,
		}
	}

	result := make([]EffectiveFeature, 0, len(effective))
	for _, ef := range effective {
		result = append(result, ef)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// HasFeature resolves the user and reports the state of a single feature
// key. The second return distinguishes "present but disabled" from
// "unknown to this user's effective set"; unknown keys are never granted.
func (r *Resolver) HasFeature(ctx context.Context, userID uint, key string) (enabled bool, known bool, err error) {
	features, err := r.GetEffectiveFeatures(ctx, userID)
	if err != nil {
		return false, false, err
	}
	for _, ef := range features {
		if ef.Key == key {
			return ef.Enabled, true, nil
		}
	}
	return false, false, nil
}
