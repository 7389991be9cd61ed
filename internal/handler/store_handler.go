package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/phamvuhoang/miskre/internal/model"
	"github.com/phamvuhoang/miskre/internal/seller"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StoreHandler serves tenant-scoped storefront data. Requests arrive here
// after the tenant resolver rewrites subdomain hosts under /store/:subdomain.
type StoreHandler struct {
	sellers seller.Repository
	db      *gorm.DB
}

// NewStoreHandler creates the handler.
func NewStoreHandler(sellers seller.Repository, db *gorm.DB) *StoreHandler {
	return &StoreHandler{sellers: sellers, db: db}
}

// GetStorefront handles GET /store/:subdomain. A subdomain without a seller
// row is a distinct not-found condition, resolved here rather than at the
// routing layer.
func (h *StoreHandler) GetStorefront(c echo.Context) error {
	log := logger.FromEcho(c)
	subdomain := c.Param("subdomain")

	s, err := h.sellers.GetBySubdomain(requestContext(c), subdomain)
	if errors.Is(err, seller.ErrSellerNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
	}
	if err != nil {
		log.Error("Failed to load storefront", zap.String("subdomain", subdomain), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load store"})
	}

	var products []model.Product
	if result := h.db.Where("seller_id = ?", s.ID).Order("created_at desc").Find(&products); result.Error != nil {
		log.Error("Failed to load store products", zap.Uint("seller_id", s.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load store"})
	}

	return c.JSON(http.StatusOK, echo.Map{"seller": s, "products": products})
}

// GetStoreProduct handles GET /store/:subdomain/product/:id
func (h *StoreHandler) GetStoreProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	subdomain := c.Param("subdomain")

	s, err := h.sellers.GetBySubdomain(requestContext(c), subdomain)
	if errors.Is(err, seller.ErrSellerNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
	}
	if err != nil {
		log.Error("Failed to load store", zap.String("subdomain", subdomain), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load store"})
	}

	var product model.Product
	result := h.db.Where("id = ? AND seller_id = ?", c.Param("id"), s.ID).First(&product)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	if result.Error != nil {
		log.Error("Failed to load store product", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
	}

	return c.JSON(http.StatusOK, echo.Map{"product": product})
}
