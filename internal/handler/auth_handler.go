package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/phamvuhoang/miskre/internal/seller"
	"github.com/phamvuhoang/miskre/pkg/jwtutil"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"go.uber.org/zap"
)

// AuthHandler issues seller-scoped dashboard tokens.
type AuthHandler struct {
	sellers  seller.Repository
	jwt      *jwtutil.JWTUtil
	adminKey string
}

// NewAuthHandler creates the handler.
func NewAuthHandler(sellers seller.Repository, jwt *jwtutil.JWTUtil, adminKey string) *AuthHandler {
	return &AuthHandler{sellers: sellers, jwt: jwt, adminKey: adminKey}
}

// DashboardToken handles POST /api/auth/dashboard: exchanges the admin key
// for a JWT scoped to one seller's dashboard.
func (h *AuthHandler) DashboardToken(c echo.Context) error {
	log := logger.FromEcho(c)

	if h.adminKey == "" || c.Request().Header.Get("X-Admin-Key") != h.adminKey {
		log.Warn("Rejected dashboard token request with invalid admin key")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid admin key"})
	}

	var req struct {
		Subdomain string `json:"subdomain"`
	}
	if err := c.Bind(&req); err != nil || req.Subdomain == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subdomain is required"})
	}

	s, err := h.sellers.GetBySubdomain(requestContext(c), req.Subdomain)
	if err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	token, err := h.jwt.GenerateToken(s.ID, s.Subdomain, "owner")
	if err != nil {
		log.Error("Failed to generate dashboard token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate token"})
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}
