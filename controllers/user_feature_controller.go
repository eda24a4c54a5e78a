package controller

import (
	"errors"
	"time"

	"smartcrm/entitlement"
	"smartcrm/models"
	"smartcrm/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserFeatureController struct {
	DB        *gorm.DB
	Catalog   *entitlement.Catalog
	Overrides *entitlement.Overrides
	Resolver  *entitlement.Resolver
	Usage     *entitlement.UsageTracker
}

func NewUserFeatureController(db *gorm.DB) *UserFeatureController {
	return &UserFeatureController{
		DB:        db,
		Catalog:   entitlement.NewCatalog(db),
		Overrides: entitlement.NewOverrides(db),
		Resolver:  entitlement.NewResolver(db),
		Usage:     entitlement.NewUsageTracker(db),
	}
}

type SetUserFeatureRequest struct {
	Enabled   *bool      `json:"enabled" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// errHandled signals the helper already wrote the error response. It is
// never surfaced to the client; callers see it and stop.
var errHandled = errors.New("response already written")

// loadTargetUser resolves the :id path parameter and enforces the
// whitelabel reseller scope for the acting admin. On failure the response
// is written here and errHandled returned, so callers must not touch the
// context again.
func (ufc *UserFeatureController) loadTargetUser(c *fiber.Ctx) (*models.User, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", nil)
		return nil, errHandled
	}
	var target models.User
	if err := ufc.DB.First(&target, id).Error; err != nil {
		utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", nil)
		return nil, errHandled
	}
	actor := c.Locals("user").(*models.User)
	if !actor.CanAdminister(&target) {
		utils.ErrorResponse(c, fiber.StatusForbidden, "Access denied", nil)
		return nil, errHandled
	}
	return &target, nil
}

// GetEffectiveFeatures resolves and returns the target user's effective
// feature set. Route-level auth allows self or admin.
func (ufc *UserFeatureController) GetEffectiveFeatures(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", nil)
	}

	features, err := ufc.Resolver.GetEffectiveFeatures(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, entitlement.ErrUserNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve features", err)
	}
	return c.JSON(utils.SuccessResponse(features))
}

// GetMyEffectiveFeatures resolves the caller's own effective feature set.
func (ufc *UserFeatureController) GetMyEffectiveFeatures(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	features, err := ufc.Resolver.GetEffectiveFeatures(c.Context(), user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve features", err)
	}
	return c.JSON(utils.SuccessResponse(features))
}

// ListOverrides returns the target user's raw override rows, expired
// included, for admin inspection.
func (ufc *UserFeatureController) ListOverrides(c *fiber.Ctx) error {
	target, err := ufc.loadTargetUser(c)
	if err != nil {
		return nil
	}
	overrides, oerr := ufc.Overrides.GetUserOverrides(c.Context(), target.ID)
	if oerr != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list overrides", oerr)
	}
	return c.JSON(utils.SuccessResponse(overrides))
}

// SetUserFeature grants or revokes a feature for the target user via an
// upserted override.
func (ufc *UserFeatureController) SetUserFeature(c *fiber.Ctx) error {
	target, err := ufc.loadTargetUser(c)
	if err != nil {
		return nil
	}

	feature, ferr := ufc.Catalog.GetFeatureByKey(c.Context(), c.Params("featureKey"))
	if ferr != nil {
		if errors.Is(ferr, entitlement.ErrFeatureNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown feature key", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up feature", ferr)
	}

	var req SetUserFeatureRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	actor := c.Locals("user").(*models.User)
	row, serr := ufc.Overrides.SetUserFeature(c.Context(), target.ID, feature.ID, *req.Enabled, actor.ID, req.ExpiresAt)
	if serr != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to set user feature", serr)
	}
	return c.JSON(utils.SuccessResponse(row))
}

// RemoveUserFeature deletes the target user's override for the feature,
// reverting them to the tier default. Idempotent.
func (ufc *UserFeatureController) RemoveUserFeature(c *fiber.Ctx) error {
	target, err := ufc.loadTargetUser(c)
	if err != nil {
		return nil
	}

	feature, ferr := ufc.Catalog.GetFeatureByKey(c.Context(), c.Params("featureKey"))
	if ferr != nil {
		if errors.Is(ferr, entitlement.ErrFeatureNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown feature key", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up feature", ferr)
	}

	if rerr := ufc.Overrides.RemoveUserFeature(c.Context(), target.ID, feature.ID); rerr != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to remove user feature", rerr)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// TrackFeatureUsage records an access to the named feature by the caller.
// Observational only; it does not gate anything.
func (ufc *UserFeatureController) TrackFeatureUsage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	feature, ferr := ufc.Catalog.GetFeatureByKey(c.Context(), c.Params("key"))
	if ferr != nil {
		if errors.Is(ferr, entitlement.ErrFeatureNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown feature key", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up feature", ferr)
	}

	if err := ufc.Usage.Track(c.Context(), user.ID, feature.ID); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to track usage", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUserUsage returns the target user's feature usage rows. Route-level
// auth allows self or admin.
func (ufc *UserFeatureController) GetUserUsage(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", nil)
	}
	rows, uerr := ufc.Usage.ListUserUsage(c.Context(), uint(id))
	if uerr != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list usage", uerr)
	}
	return c.JSON(utils.SuccessResponse(rows))
}
