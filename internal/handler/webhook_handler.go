package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/phamvuhoang/miskre/internal/checkout"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"github.com/phamvuhoang/miskre/pkg/metrics"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// WebhookHandler receives asynchronous payment-completion events.
type WebhookHandler struct {
	checkout      checkout.Service
	metrics       *metrics.HTTPMetrics
	webhookSecret string
}

// NewWebhookHandler creates the handler.
func NewWebhookHandler(service checkout.Service, m *metrics.HTTPMetrics, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{checkout: service, metrics: m, webhookSecret: webhookSecret}
}

// HandleStripeWebhook handles POST /api/stripe/webhook. The signature is
// verified against the shared secret before any payload field is trusted;
// an unverifiable event is rejected with no side effects and left to the
// provider's own redelivery policy.
func (h *WebhookHandler) HandleStripeWebhook(c echo.Context) error {
	log := logger.FromEcho(c)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Error("Failed to read webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable payload"})
	}

	event, err := webhook.ConstructEvent(payload, c.Request().Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Error("Webhook signature verification failed", zap.Error(err))
		if h.metrics != nil {
			h.metrics.WebhookEvent("unverified")
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "webhook signature verification failed"})
	}

	if event.Type == "checkout.session.completed" {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			log.Error("Failed to decode checkout session event", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event payload"})
		}

		order, duplicate, err := h.checkout.HandleSessionCompleted(requestContext(c), &session)
		if errors.Is(err, checkout.ErrMissingMetadata) {
			log.Error("Webhook event has invalid metadata",
				zap.String("session_id", session.ID),
				zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required metadata"})
		}
		if err != nil {
			log.Error("Failed to create order from webhook",
				zap.String("session_id", session.ID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
		}

		log.Info("Webhook processed",
			zap.String("session_id", session.ID),
			zap.String("order_number", order.OrderNumber),
			zap.Bool("duplicate_delivery", duplicate))
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
