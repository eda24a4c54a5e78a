package controller

import (
	"encoding/json"
	"time"

	"smartcrm/config"
	"smartcrm/entitlement"
	"smartcrm/models"
	"smartcrm/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
)

func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
}

// HandleBillingWebhook consumes verified Stripe events and applies their
// entitlement side effects. Payment processing itself is external; this
// handler is only the boundary where a completed purchase assigns a
// product tier or grants a time-bounded feature override.
//
// Expected checkout metadata: user_id (required), and either product_tier
// for a tier purchase or feature_key [+ grant_days] for an add-on grant.
func HandleBillingWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			logrus.WithError(err).Error("failed to parse checkout session")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing checkout session",
			})
		}
		return handleCheckoutCompleted(c, &session)

	default:
		// Events without entitlement side effects are acknowledged so
		// Stripe stops retrying them.
		logrus.WithField("event_type", event.Type).Debug("ignoring billing event")
		return c.JSON(fiber.Map{"received": true})
	}
}

func handleCheckoutCompleted(c *fiber.Ctx, session *stripe.CheckoutSession) error {
	userID := utils.ParseUint(session.Metadata["user_id"])
	if userID == 0 {
		logrus.WithField("session_id", session.ID).Error("checkout session missing user_id metadata")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user_id metadata",
		})
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		logrus.WithField("user_id", userID).Error("checkout for unknown user")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	// Persist the customer link up front; it must survive no matter which
	// metadata branch runs below.
	if session.Customer != nil && user.StripeCustomerID == nil {
		user.StripeCustomerID = &session.Customer.ID
		if err := config.DB.Save(&user).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to link customer", err)
		}
	}

	if raw, ok := session.Metadata["product_tier"]; ok {
		tier := models.ProductTier(raw)
		if !models.IsValidTier(tier) {
			logrus.WithField("product_tier", raw).Error("checkout names unknown tier")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown product tier",
			})
		}
		user.ProductTier = &tier
		if err := config.DB.Save(&user).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to assign tier", err)
		}
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,
			"tier":    tier,
		}).Info("product tier assigned from checkout")
		return c.JSON(fiber.Map{"received": true})
	}

	if key, ok := session.Metadata["feature_key"]; ok {
		catalog := entitlement.NewCatalog(config.DB)
		feature, ferr := catalog.GetFeatureByKey(c.Context(), key)
		if ferr != nil {
			logrus.WithField("feature_key", key).Error("checkout names unknown feature")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown feature key",
			})
		}

		var expiresAt *time.Time
		if days := utils.ParseUint(session.Metadata["grant_days"]); days > 0 {
			expiresAt = utils.Pointer(time.Now().UTC().AddDate(0, 0, int(days)))
		}

		// GrantedBy 0 marks a system grant rather than an admin action.
		overrides := entitlement.NewOverrides(config.DB)
		if _, serr := overrides.SetUserFeature(c.Context(), user.ID, feature.ID, true, 0, expiresAt); serr != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to grant feature", serr)
		}
		logrus.WithFields(logrus.Fields{
			"user_id":     user.ID,
			"feature_key": key,
		}).Info("feature granted from checkout")
		return c.JSON(fiber.Map{"received": true})
	}

	logrus.WithField("session_id", session.ID).Warn("checkout session carries no entitlement metadata")
	return c.JSON(fiber.Map{"received": true})
}
