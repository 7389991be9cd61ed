package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/phamvuhoang/miskre/internal/checkout"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"go.uber.org/zap"
)

// CheckoutHandler serves checkout initiation for both payment paths.
type CheckoutHandler struct {
	checkout checkout.Service
}

// NewCheckoutHandler creates the handler.
func NewCheckoutHandler(service checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: service}
}

// CreateSession handles POST /api/checkout (hosted path)
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	log := logger.FromEcho(c)

	var req checkout.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse checkout request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	result, err := h.checkout.CreateSession(requestContext(c), req)
	if err != nil {
		log.Error("Failed to create checkout session",
			zap.Uint("seller_id", req.SellerID),
			zap.Error(err))
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			// Provider failures surface a generic message
			return c.JSON(status, echo.Map{"error": "failed to create checkout session"})
		}
		return c.JSON(status, echo.Map{"error": err.Error()})
	}

	if result.RedirectToCOD {
		return c.JSON(http.StatusOK, echo.Map{"redirect": "cod", "message": result.Message})
	}

	return c.JSON(http.StatusOK, echo.Map{"sessionId": result.SessionID, "url": result.URL})
}

// CreateCODOrder handles POST /api/checkout/cod (synchronous path)
func (h *CheckoutHandler) CreateCODOrder(c echo.Context) error {
	log := logger.FromEcho(c)

	var req checkout.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse COD checkout request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	order, err := h.checkout.PlaceCODOrder(requestContext(c), req)
	if err != nil {
		log.Error("COD checkout failed",
			zap.Uint("seller_id", req.SellerID),
			zap.Error(err))
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, echo.Map{"order": order})
}
