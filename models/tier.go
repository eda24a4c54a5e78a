package models

// ProductTier is a named subscription level that determines a default
// feature set. The list is a versioned constant ordered by increasing
// access breadth; tier precedence logic must go through TierLevel rather
// than comparing strings.
type ProductTier string

const (
	TierAICommunication  ProductTier = "ai_communication"
	TierAIBoostUnlimited ProductTier = "ai_boost_unlimited"
	TierSalesMaximizer   ProductTier = "sales_maximizer"
	TierSmartCRM         ProductTier = "smartcrm"
	TierSmartCRMBundle   ProductTier = "smartcrm_bundle"
	TierWhitelabel       ProductTier = "whitelabel"
	TierSuperAdmin       ProductTier = "super_admin"
)

// DefaultTier is the tier applied to profiles with no product tier set.
// This is an explicit design choice, not an accidental fallback; tests
// assert on it directly.
const DefaultTier = TierSmartCRM

// AllTiers lists every tier in precedence order.
var AllTiers = []ProductTier{
	TierAICommunication,
	TierAIBoostUnlimited,
	TierSalesMaximizer,
	TierSmartCRM,
	TierSmartCRMBundle,
	TierWhitelabel,
	TierSuperAdmin,
}

// TierLevel returns the numeric precedence of a tier, 1-based in order of
// increasing access breadth. Unknown tiers return 0.
func TierLevel(t ProductTier) int {
	for i, tier := range AllTiers {
		if tier == t {
			return i + 1
		}
	}
	return 0
}

// IsValidTier reports whether t names a known product tier.
func IsValidTier(t ProductTier) bool {
	return TierLevel(t) > 0
}

// FeatureCategory groups features for organization and display ordering.
type FeatureCategory string

const (
	CategoryCoreCRM       FeatureCategory = "core_crm"
	CategoryCommunication FeatureCategory = "communication"
	CategoryAIFeatures    FeatureCategory = "ai_features"
	CategoryBusinessTools FeatureCategory = "business_tools"
	CategoryAdvanced      FeatureCategory = "advanced"
	CategoryAdmin         FeatureCategory = "admin"
)

// AllCategories lists categories in presentation order.
var AllCategories = []FeatureCategory{
	CategoryCoreCRM,
	CategoryCommunication,
	CategoryAIFeatures,
	CategoryBusinessTools,
	CategoryAdvanced,
	CategoryAdmin,
}

// IsValidCategory reports whether c names a known feature category.
func IsValidCategory(c FeatureCategory) bool {
	for _, cat := range AllCategories {
		if cat == c {
			return true
		}
	}
	return false
}

// Role is the authorization axis for administrative endpoints. It is
// distinct from feature entitlement: a super_admin can be denied a feature
// while still being authorized to administer features.
type Role string

const (
	RoleUser            Role = "user"
	RoleWhitelabelAdmin Role = "whitelabel_admin"
	RoleSuperAdmin      Role = "super_admin"
)
