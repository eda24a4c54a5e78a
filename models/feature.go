package models

import (
	"time"

	"gorm.io/gorm"
)

// Feature represents an independently toggleable capability of the
// application. IsEnabled is the global kill switch: a feature disabled
// here cannot be turned on for anyone through tier membership or a user
// override.
type Feature struct {
	gorm.Model
	Key         string          `gorm:"uniqueIndex;not null" json:"key"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Category    FeatureCategory `gorm:"not null;index" json:"category"`
	// No column default: false is a meaningful value and gorm would drop
	// it from inserts if the column carried one.
	IsEnabled bool `gorm:"not null" json:"is_enabled"`

	// Feature keys this feature depends on, informational for admin UIs.
	DependsOn []string          `gorm:"serializer:json" json:"depends_on,omitempty"`
	Metadata  map[string]string `gorm:"serializer:json" json:"metadata,omitempty"`
}

// TierFeature maps a product tier to a feature included by default. At
// most one row exists per (tier, feature) pair; a tier's set is replaced
// wholesale when edited, never patched incrementally.
type TierFeature struct {
	gorm.Model
	Tier              ProductTier `gorm:"not null;uniqueIndex:idx_tier_feature,priority:1" json:"tier"`
	FeatureID         uint        `gorm:"not null;uniqueIndex:idx_tier_feature,priority:2" json:"feature_id"`
	IncludedByDefault bool        `gorm:"not null" json:"included_by_default"`

	// Relations
	Feature Feature `json:"feature"`
}

// UserFeature is a per-user exception to the tier default for a specific
// feature, optionally time-bounded. At most one row exists per
// (user, feature) pair; writes upsert. A row whose ExpiresAt has passed is
// treated as absent by the resolver but kept in storage.
type UserFeature struct {
	gorm.Model
	UserID    uint       `gorm:"not null;uniqueIndex:idx_user_feature,priority:1" json:"user_id"`
	FeatureID uint       `gorm:"not null;uniqueIndex:idx_user_feature,priority:2" json:"feature_id"`
	Enabled   bool       `gorm:"not null" json:"enabled"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Audit metadata
	GrantedBy uint      `gorm:"not null" json:"granted_by"`
	GrantedAt time.Time `gorm:"not null" json:"granted_at"`

	// Relations
	User    User    `json:"-"`
	Feature Feature `json:"feature"`
}

// Expired reports whether the override has lapsed at the given instant.
// An override with no expiry never lapses.
func (uf *UserFeature) Expired(now time.Time) bool {
	return uf.ExpiresAt != nil && uf.ExpiresAt.Before(now)
}

// FeatureUsage records access counts per user and feature. Purely
// observational; never consulted for access decisions.
type FeatureUsage struct {
	gorm.Model
	UserID         uint      `gorm:"not null;uniqueIndex:idx_usage_user_feature,priority:1" json:"user_id"`
	FeatureID      uint      `gorm:"not null;uniqueIndex:idx_usage_user_feature,priority:2" json:"feature_id"`
	LastAccessedAt time.Time `gorm:"not null" json:"last_accessed_at"`
	AccessCount    int64     `gorm:"default:0" json:"access_count"`

	// Relations
	Feature Feature `json:"feature"`
}
