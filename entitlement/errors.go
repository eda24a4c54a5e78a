package entitlement

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds surfaced by the entitlement core. Callers branch on these
// with errors.Is; HTTP mapping happens in the controllers.
var (
	// ErrUserNotFound means the profile lookup failed for the given user id.
	ErrUserNotFound = errors.New("user not found")

	// ErrFeatureNotFound means an operation referenced an unknown feature
	// id or key. Never silently ignored.
	ErrFeatureNotFound = errors.New("feature not found")

	// ErrDuplicateKey means a feature create collided with an existing
	// feature key.
	ErrDuplicateKey = errors.New("feature key already exists")

	// ErrInvalidTier means an operation referenced an unknown product tier.
	ErrInvalidTier = errors.New("unknown product tier")

	// ErrTransientStore wraps backing-store failures. The access gate must
	// fail closed on this, never treat it as a legitimate denial.
	ErrTransientStore = errors.New("entitlement store unavailable")
)

// storeErr classifies a gorm error. Record-not-found is passed through as
// the supplied sentinel; anything else is a transient store failure.
func storeErr(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("%w: %v", ErrTransientStore, err)
}
