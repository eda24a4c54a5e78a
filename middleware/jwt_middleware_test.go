package middleware

import (
	"net/http/httptest"
	"testing"

	"smartcrm/config"
	"smartcrm/models"
	"smartcrm/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/private", Protected(), func(c *fiber.Ctx) error {
		user := c.Locals("user").(*models.User)
		return c.JSON(fiber.Map{"email": user.Email})
	})
	return app
}

func TestProtectedAcceptsBearerToken(t *testing.T) {
	setupGateDB(t)
	config.AppConfig.JWTSecret = "test-secret"

	user := models.User{Email: "jwt@example.com", IsActive: true}
	require.NoError(t, config.DB.Create(&user).Error)

	token, err := utils.GenerateJWTToken(&user)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newProtectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProtectedRejectsMissingAndMalformedAuth(t *testing.T) {
	setupGateDB(t)
	config.AppConfig.JWTSecret = "test-secret"
	app := newProtectedApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRejectsInactiveUser(t *testing.T) {
	setupGateDB(t)
	config.AppConfig.JWTSecret = "test-secret"

	user := models.User{Email: "inactive@example.com", IsActive: true}
	require.NoError(t, config.DB.Create(&user).Error)
	require.NoError(t, config.DB.Model(&user).Update("is_active", false).Error)

	token, err := utils.GenerateJWTToken(&user)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newProtectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
