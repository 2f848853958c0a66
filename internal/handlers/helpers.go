package handlers

import (
	"github.com/feathr-social/backend/internal/middleware"
	"github.com/feathr-social/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// getAccountIDFromContext returns the authenticated account ID, or 0 for
// an anonymous request.
func getAccountIDFromContext(c echo.Context) uint {
	claims, ok := c.Get(middleware.ContextKeyClaims).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.AccountID
}
