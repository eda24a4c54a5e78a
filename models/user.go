package models

import (
	"gorm.io/gorm"
)

// User represents a user profile in the system. Authentication is handled
// by an external identity provider; this row carries what the entitlement
// core needs: the product tier, the admin role, and the whitelabel
// reseller scope.
type User struct {
	gorm.Model

	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`
	Role     Role `gorm:"default:'user'" json:"role"`

	// Whitelabel admins may only administer users within their reseller
	// scope. Nil means the user does not belong to a reseller.
	ResellerID *uint `gorm:"index" json:"reseller_id,omitempty"`

	// Subscription tier. Nil is resolved as DefaultTier.
	ProductTier *ProductTier `gorm:"index" json:"product_tier,omitempty"`

	// Stripe integration
	StripeCustomerID *string `gorm:"index" json:"stripe_customer_id,omitempty"`

	// Relations
	UserFeatures []UserFeature `gorm:"foreignKey:UserID" json:"features,omitempty"`
}

// Tier returns the user's product tier, falling back to DefaultTier when
// no tier is set on the profile.
func (u *User) Tier() ProductTier {
	if u.ProductTier == nil {
		return DefaultTier
	}
	return *u.ProductTier
}

// IsAdmin reports whether the user holds any administrative role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleSuperAdmin || u.Role == RoleWhitelabelAdmin
}

// CanAdminister reports whether the user may perform administrative
// mutations on the target user. Super admins act globally; whitelabel
// admins only within their own reseller scope.
func (u *User) CanAdminister(target *User) bool {
	switch u.Role {
	case RoleSuperAdmin:
		return true
	case RoleWhitelabelAdmin:
		return target.ResellerID != nil && *target.ResellerID == u.ID
	default:
		return false
	}
}
