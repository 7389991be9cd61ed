package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/phamvuhoang/miskre/internal/model"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductHandler serves catalog CRUD.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler creates the handler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ProductRequest is the creation payload.
type ProductRequest struct {
	SellerID    uint     `json:"seller_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Sizes       []string `json:"sizes,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	IsLimited   bool     `json:"is_limited"`
}

// ProductUpdateRequest supports partial updates: only present fields change.
type ProductUpdateRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Sizes       *[]string `json:"sizes,omitempty"`
	ImageURLs   *[]string `json:"image_urls,omitempty"`
	IsLimited   *bool     `json:"is_limited,omitempty"`
}

// ListProducts handles GET /api/products with optional seller filtering
func (h *ProductHandler) ListProducts(c echo.Context) error {
	log := logger.FromEcho(c)

	query := h.db.Order("created_at desc")
	if sellerID := c.QueryParam("seller_id"); sellerID != "" {
		query = query.Where("seller_id = ?", sellerID)
	}

	var products []model.Product
	if result := query.Find(&products); result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve products"})
	}

	return c.JSON(http.StatusOK, echo.Map{"products": products})
}

// GetProduct handles GET /api/products/:id
func (h *ProductHandler) GetProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var product model.Product
	result := h.db.First(&product, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	if result.Error != nil {
		log.Error("Failed to get product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve product"})
	}

	return c.JSON(http.StatusOK, echo.Map{"product": product})
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	log := logger.FromEcho(c)

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse product request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.SellerID == 0 || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seller_id and name are required"})
	}
	if req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be non-negative"})
	}

	product := model.Product{
		SellerID:    req.SellerID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Sizes:       model.StringList(req.Sizes),
		ImageURLs:   model.StringList(req.ImageURLs),
		IsLimited:   req.IsLimited,
	}

	if result := h.db.Create(&product); result.Error != nil {
		log.Error("Failed to create product", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "product creation failed"})
	}

	log.Info("Product created",
		zap.Uint("id", product.ID),
		zap.Uint("seller_id", product.SellerID),
		zap.String("name", product.Name))

	return c.JSON(http.StatusCreated, echo.Map{"product": product})
}

// UpdateProduct handles PUT /api/products/:id with partial field replacement
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var product model.Product
	result := h.db.First(&product, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	if result.Error != nil {
		log.Error("Failed to load product for update", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve product"})
	}

	var req ProductUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse product update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be non-negative"})
		}
		product.Price = *req.Price
	}
	if req.Sizes != nil {
		product.Sizes = model.StringList(*req.Sizes)
	}
	if req.ImageURLs != nil {
		product.ImageURLs = model.StringList(*req.ImageURLs)
	}
	if req.IsLimited != nil {
		product.IsLimited = *req.IsLimited
	}

	if result := h.db.Save(&product); result.Error != nil {
		log.Error("Failed to update product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "product update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"product": product})
}

// DeleteProduct handles DELETE /api/products/:id. Orders keep their
// denormalized item snapshots, so deletion never cascades.
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	if result := h.db.Delete(&model.Product{}, "id = ?", id); result.Error != nil {
		log.Error("Failed to delete product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "product deletion failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
