package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/phamvuhoang/miskre/internal/checkout"
	"github.com/phamvuhoang/miskre/internal/order"
	"github.com/phamvuhoang/miskre/pkg/jwtutil"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"go.uber.org/zap"
)

// OrderHandler serves the seller dashboard order API.
type OrderHandler struct {
	orders   order.Repository
	checkout checkout.Service
}

// NewOrderHandler creates the handler.
func NewOrderHandler(orders order.Repository, service checkout.Service) *OrderHandler {
	return &OrderHandler{orders: orders, checkout: service}
}

func dashboardClaims(c echo.Context) (*jwtutil.DashboardClaims, bool) {
	claims, ok := c.Get("dashboard").(*jwtutil.DashboardClaims)
	return claims, ok
}

// ListOrders handles GET /api/orders for the authenticated seller
func (h *OrderHandler) ListOrders(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := dashboardClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	orders, err := h.orders.ListBySeller(requestContext(c), claims.SellerID)
	if err != nil {
		log.Error("Failed to list orders", zap.Uint("seller_id", claims.SellerID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// GetOrder handles GET /api/orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := dashboardClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order ID"})
	}

	o, err := h.orders.GetByID(requestContext(c), uint(id))
	if err != nil {
		log.Error("Failed to get order", zap.Uint64("order_id", id), zap.Error(err))
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	if o.SellerID != claims.SellerID {
		log.Warn("Cross-tenant order access attempt",
			zap.Uint("requesting_seller_id", claims.SellerID),
			zap.Uint("order_seller_id", o.SellerID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	return c.JSON(http.StatusOK, echo.Map{"order": o})
}

// UpdateOrderStatus handles PATCH /api/orders/:id
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := dashboardClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	ctx := requestContext(c)

	existing, err := h.orders.GetByID(ctx, uint(id))
	if err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}
	if existing.SellerID != claims.SellerID {
		log.Warn("Cross-tenant order status update attempt",
			zap.Uint("requesting_seller_id", claims.SellerID),
			zap.Uint("order_seller_id", existing.SellerID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	updated, err := h.checkout.UpdateStatus(ctx, uint(id), req.Status)
	if err != nil {
		log.Error("Failed to update order status",
			zap.Uint64("order_id", id),
			zap.String("status", req.Status),
			zap.Error(err))
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	log.Info("Order status updated",
		zap.String("order_number", updated.OrderNumber),
		zap.String("status", updated.Status.String()))

	return c.JSON(http.StatusOK, echo.Map{"order": updated})
}
