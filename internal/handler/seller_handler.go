package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/phamvuhoang/miskre/internal/catalog"
	"github.com/phamvuhoang/miskre/internal/email"
	"github.com/phamvuhoang/miskre/internal/model"
	"github.com/phamvuhoang/miskre/internal/seller"
	"github.com/phamvuhoang/miskre/internal/tenant"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"go.uber.org/zap"
)

// SellerHandler serves seller creation and lookup.
type SellerHandler struct {
	sellers  seller.Repository
	seeder   *catalog.Seeder
	email    email.Provider
	resolver *tenant.Resolver
	adminKey string
}

// NewSellerHandler creates the handler.
func NewSellerHandler(sellers seller.Repository, seeder *catalog.Seeder, emailProvider email.Provider, resolver *tenant.Resolver, adminKey string) *SellerHandler {
	return &SellerHandler{
		sellers:  sellers,
		seeder:   seeder,
		email:    emailProvider,
		resolver: resolver,
		adminKey: adminKey,
	}
}

// SellerRequest is the admin seller-creation payload.
type SellerRequest struct {
	Name            string              `json:"name"`
	Subdomain       string              `json:"subdomain"`
	CustomDomain    string              `json:"custom_domain,omitempty"`
	LogoURL         string              `json:"logo_url,omitempty"`
	Colors          *model.SellerColors `json:"colors,omitempty"`
	Phrases         []string            `json:"phrases,omitempty"`
	PaymentProvider string              `json:"payment_provider,omitempty"`
	ContactEmail    string              `json:"contact_email,omitempty"`
}

// CreateSeller handles POST /api/sellers (admin flow)
func (h *SellerHandler) CreateSeller(c echo.Context) error {
	log := logger.FromEcho(c)

	if h.adminKey == "" || c.Request().Header.Get("X-Admin-Key") != h.adminKey {
		log.Warn("Rejected seller creation with invalid admin key")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid admin key"})
	}

	var req SellerRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse seller creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Subdomain == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and subdomain are required"})
	}

	s := &model.Seller{
		Name:            req.Name,
		Subdomain:       req.Subdomain,
		CustomDomain:    req.CustomDomain,
		LogoURL:         req.LogoURL,
		Phrases:         model.StringList(req.Phrases),
		PaymentProvider: req.PaymentProvider,
		ContactEmail:    req.ContactEmail,
	}
	if req.Colors != nil {
		s.Colors = *req.Colors
	}

	ctx := requestContext(c)
	if err := h.sellers.Create(ctx, s); err != nil {
		log.Error("Failed to create seller", zap.String("subdomain", req.Subdomain), zap.Error(err))
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	products := h.seeder.SeedDefaultProducts(ctx, s)

	// Welcome email (best effort)
	if req.ContactEmail != "" {
		msg := email.Message{
			To:      req.ContactEmail,
			Subject: fmt.Sprintf("Welcome %s - Your Store Setup", s.Name),
			HTML: fmt.Sprintf("<p>Your store %s is being set up. We'll notify you when live.</p>",
				h.resolver.StoreURL(s.Subdomain)),
		}
		if err := h.email.Send(ctx, msg); err != nil {
			log.Error("Failed to send welcome email", zap.Error(err))
		}
	}

	log.Info("Seller created",
		zap.Uint("id", s.ID),
		zap.String("subdomain", s.Subdomain),
		zap.Int("seeded_products", len(products)))

	return c.JSON(http.StatusCreated, echo.Map{
		"seller":    s,
		"store_url": h.resolver.StoreURL(s.Subdomain),
		"products":  products,
	})
}

// GetSeller handles GET /api/sellers?subdomain=...
// An unknown subdomain returns 200 with a null seller: not-found is a valid
// response here, not an error.
func (h *SellerHandler) GetSeller(c echo.Context) error {
	log := logger.FromEcho(c)

	subdomain := c.QueryParam("subdomain")
	if subdomain == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subdomain query parameter is required"})
	}

	s, err := h.sellers.GetBySubdomain(requestContext(c), subdomain)
	if errors.Is(err, seller.ErrSellerNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"seller": nil})
	}
	if err != nil {
		log.Error("Failed to look up seller", zap.String("subdomain", subdomain), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to look up seller"})
	}

	return c.JSON(http.StatusOK, echo.Map{"seller": s})
}
