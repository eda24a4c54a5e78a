package controller

import (
	"errors"

	"smartcrm/entitlement"
	"smartcrm/models"
	"smartcrm/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type FeatureController struct {
	DB      *gorm.DB
	Catalog *entitlement.Catalog
}

func NewFeatureController(db *gorm.DB) *FeatureController {
	return &FeatureController{
		DB:      db,
		Catalog: entitlement.NewCatalog(db),
	}
}

type CreateFeatureRequest struct {
	Key         string            `json:"key" validate:"required,min=2,max=64"`
	Name        string            `json:"name" validate:"required,min=2,max=128"`
	Description string            `json:"description"`
	Category    string            `json:"category" validate:"required"`
	IsEnabled   *bool             `json:"is_enabled"`
	DependsOn   []string          `json:"depends_on"`
	Metadata    map[string]string `json:"metadata"`
}

type UpdateFeatureRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	IsEnabled   *bool             `json:"is_enabled"`
	DependsOn   []string          `json:"depends_on"`
	Metadata    map[string]string `json:"metadata"`
}

// ListFeatures returns the feature catalog, optionally filtered by
// ?category= and ?enabled=.
func (fc *FeatureController) ListFeatures(c *fiber.Ctx) error {
	var filter entitlement.CatalogFilter
	if raw := c.Query("category"); raw != "" {
		category := models.FeatureCategory(raw)
		if !models.IsValidCategory(category) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown category", nil)
		}
		filter.Category = &category
	}
	if raw := c.Query("enabled"); raw != "" {
		filter.Enabled = utils.Pointer(raw == "true")
	}

	features, err := fc.Catalog.ListFeatures(c.Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list features", err)
	}
	return c.JSON(utils.SuccessResponse(features))
}

// GetFeature returns a single feature by id or key.
func (fc *FeatureController) GetFeature(c *fiber.Ctx) error {
	feature, err := fc.Catalog.GetFeature(c.Context(), c.Params("idOrKey"))
	if err != nil {
		if errors.Is(err, entitlement.ErrFeatureNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Feature not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get feature", err)
	}
	return c.JSON(utils.SuccessResponse(feature))
}

// CreateFeature adds a new feature to the catalog.
func (fc *FeatureController) CreateFeature(c *fiber.Ctx) error {
	var req CreateFeatureRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	category := models.FeatureCategory(req.Category)
	if !models.IsValidCategory(category) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown category", nil)
	}

	feature := models.Feature{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		Category:    category,
		IsEnabled:   true,
		DependsOn:   req.DependsOn,
		Metadata:    req.Metadata,
	}
	if req.IsEnabled != nil {
		feature.IsEnabled = *req.IsEnabled
	}

	if err := fc.Catalog.CreateFeature(c.Context(), &feature); err != nil {
		if errors.Is(err, entitlement.ErrDuplicateKey) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Feature key already exists", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create feature", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(feature))
}

// UpdateFeature patches a feature looked up by key. The key itself is
// immutable once referenced.
func (fc *FeatureController) UpdateFeature(c *fiber.Ctx) error {
	feature, err := fc.Catalog.GetFeatureByKey(c.Context(), c.Params("key"))
	if err != nil {
		if errors.Is(err, entitlement.ErrFeatureNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Feature not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get feature", err)
	}

	var req UpdateFeatureRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	patch := entitlement.FeaturePatch{
		Name:        req.Name,
		Description: req.Description,
		IsEnabled:   req.IsEnabled,
		DependsOn:   req.DependsOn,
		Metadata:    req.Metadata,
	}
	if req.Category != nil {
		category := models.FeatureCategory(*req.Category)
		if !models.IsValidCategory(category) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown category", nil)
		}
		patch.Category = &category
	}

	updated, err := fc.Catalog.UpdateFeature(c.Context(), feature.ID, patch)
	if err != nil {
		if errors.Is(err, entitlement.ErrFeatureNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Feature not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update feature", err)
	}
	return c.JSON(utils.SuccessResponse(updated))
}

// DeleteFeature removes a feature and cascades its tier mappings,
// overrides, and usage rows. Idempotent.
func (fc *FeatureController) DeleteFeature(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid feature id", nil)
	}
	if err := fc.Catalog.DeleteFeature(c.Context(), uint(id)); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete feature", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
