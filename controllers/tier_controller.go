package controller

import (
	"errors"

	"smartcrm/entitlement"
	"smartcrm/models"
	"smartcrm/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TierController struct {
	DB     *gorm.DB
	Matrix *entitlement.TierMatrix
}

func NewTierController(db *gorm.DB) *TierController {
	return &TierController{
		DB:     db,
		Matrix: entitlement.NewTierMatrix(db),
	}
}

// FeatureIDs is a pointer so an explicit empty list (clear the tier) is
// distinguishable from an absent field.
type SetTierFeaturesRequest struct {
	FeatureIDs *[]uint `json:"feature_ids" validate:"required"`
}

// ListTiers returns the tier enumeration in precedence order.
func (tc *TierController) ListTiers(c *fiber.Ctx) error {
	return c.JSON(utils.SuccessResponse(models.AllTiers))
}

// GetTierFeatures returns the tier's default feature set.
func (tc *TierController) GetTierFeatures(c *fiber.Ctx) error {
	tier := models.ProductTier(c.Params("tier"))
	mappings, err := tc.Matrix.GetTierFeatures(c.Context(), tier)
	if err != nil {
		if errors.Is(err, entitlement.ErrInvalidTier) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown tier", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get tier features", err)
	}
	return c.JSON(utils.SuccessResponse(mappings))
}

// SetTierFeatures replaces the tier's entire feature set atomically.
func (tc *TierController) SetTierFeatures(c *fiber.Ctx) error {
	tier := models.ProductTier(c.Params("tier"))

	var req SetTierFeaturesRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	mappings, err := tc.Matrix.SetTierFeatures(c.Context(), tier, *req.FeatureIDs)
	if err != nil {
		switch {
		case errors.Is(err, entitlement.ErrInvalidTier):
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown tier", nil)
		case errors.Is(err, entitlement.ErrFeatureNotFound):
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown feature id in set", nil)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to set tier features", err)
		}
	}
	return c.JSON(utils.SuccessResponse(mappings))
}
