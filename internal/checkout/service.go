// Package checkout drives the order state machine. It reconciles the two
// payment paths — synchronous cash-on-delivery and asynchronous
// webhook-confirmed card payment — into a single consistent order record.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/phamvuhoang/miskre/internal/email"
	"github.com/phamvuhoang/miskre/internal/model"
	"github.com/phamvuhoang/miskre/internal/order"
	"github.com/phamvuhoang/miskre/internal/payment"
	"github.com/phamvuhoang/miskre/internal/seller"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"github.com/phamvuhoang/miskre/pkg/metrics"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart       = errors.New("cart must contain at least one item")
	ErrCODDisabled     = errors.New("cash on delivery is not enabled for this store")
	ErrMissingMetadata = errors.New("checkout session is missing required metadata")
	ErrTotalMismatch   = errors.New("order total does not match its components")
)

// ItemRequest is one prospective order line submitted by the buyer.
type ItemRequest struct {
	ProductID          uint    `json:"product_id"`
	ProductName        string  `json:"product_name"`
	ProductDescription string  `json:"product_description,omitempty"`
	ProductImageURL    string  `json:"product_image_url,omitempty"`
	Size               string  `json:"size,omitempty"`
	Quantity           int     `json:"quantity"`
	UnitPrice          float64 `json:"unit_price"`
	TotalPrice         float64 `json:"total_price"`
}

// CreateOrderRequest is the checkout initiation payload. On the hosted path
// the same structure rides in the session metadata and comes back through
// the webhook.
type CreateOrderRequest struct {
	SellerID        uint          `json:"seller_id"`
	CustomerEmail   string        `json:"customer_email,omitempty"`
	CustomerName    string        `json:"customer_name,omitempty"`
	CustomerPhone   string        `json:"customer_phone,omitempty"`
	ShippingAddress string        `json:"shipping_address,omitempty"`
	Items           []ItemRequest `json:"items"`
	Subtotal        float64       `json:"subtotal"`
	ShippingCost    float64       `json:"shipping_cost,omitempty"`
	TaxAmount       float64       `json:"tax_amount,omitempty"`
	DiscountAmount  float64       `json:"discount_amount,omitempty"`
	Total           float64       `json:"total"`
	Notes           string        `json:"notes,omitempty"`
}

// SessionResult is the outcome of hosted checkout initiation.
type SessionResult struct {
	SessionID string `json:"sessionId,omitempty"`
	URL       string `json:"url,omitempty"`
	// RedirectToCOD is set when the seller is configured for manual payment;
	// the buyer flow should fall back to the COD endpoint.
	RedirectToCOD bool   `json:"-"`
	Message       string `json:"message,omitempty"`
}

// Service is the checkout orchestrator.
type Service interface {
	PlaceCODOrder(ctx context.Context, req CreateOrderRequest) (*model.Order, error)
	CreateSession(ctx context.Context, req CreateOrderRequest) (*SessionResult, error)
	// HandleSessionCompleted reconciles a verified payment-completion event.
	// The returned bool reports whether the event was a redelivery that
	// matched an existing order.
	HandleSessionCompleted(ctx context.Context, session *stripe.CheckoutSession) (*model.Order, bool, error)
	UpdateStatus(ctx context.Context, orderID uint, status string) (*model.Order, error)
}

type service struct {
	orders   order.Repository
	sellers  seller.Repository
	payments payment.ProviderSelector
	email    email.Provider
	metrics  *metrics.HTTPMetrics
	baseURL  string
}

// NewService creates the checkout orchestrator.
func NewService(orders order.Repository, sellers seller.Repository, payments payment.ProviderSelector, emailProvider email.Provider, m *metrics.HTTPMetrics, baseURL string) Service {
	return &service{
		orders:   orders,
		sellers:  sellers,
		payments: payments,
		email:    emailProvider,
		metrics:  m,
		baseURL:  baseURL,
	}
}

// PlaceCODOrder runs the synchronous path: the order is persisted
// immediately with payment pending.
func (s *service) PlaceCODOrder(ctx context.Context, req CreateOrderRequest) (*model.Order, error) {
	log := logger.FromContext(ctx)

	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	sel, err := s.sellers.GetByID(ctx, req.SellerID)
	if err != nil {
		return nil, err
	}
	if sel.PaymentProvider != model.PaymentProviderCOD {
		return nil, ErrCODDisabled
	}

	if err := validateTotals(req); err != nil {
		return nil, err
	}

	o := &model.Order{
		SellerID:       sel.ID,
		Status:         model.StatusPending,
		PaymentMethod:  model.PaymentMethodCOD,
		PaymentStatus:  model.PaymentPending,
		Subtotal:       req.Subtotal,
		ShippingCost:   req.ShippingCost,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		Total:          req.Total,
		Notes:          req.Notes,
	}

	created, err := s.orders.CreateWithItems(ctx, o, customerInfo(req), orderItems(req))
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrderCreated(model.PaymentMethodCOD)
	}

	s.sendConfirmation(ctx, req.CustomerEmail, created,
		"Thank you for your order! We've received your Cash on Delivery order.",
		"We'll contact you soon to confirm delivery details.")

	log.Info("COD order created",
		zap.String("order_number", created.OrderNumber),
		zap.Uint("seller_id", created.SellerID),
		zap.Float64("total", created.Total))

	return created, nil
}

// CreateSession runs hosted checkout initiation. No order row is created:
// the entire prospective order travels in the session metadata so an
// abandoned checkout leaves no state behind.
func (s *service) CreateSession(ctx context.Context, req CreateOrderRequest) (*SessionResult, error) {
	log := logger.FromContext(ctx)

	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	sel, err := s.sellers.GetByID(ctx, req.SellerID)
	if err != nil {
		return nil, err
	}

	// Tenant configuration is authoritative over the buyer's button choice
	if sel.PaymentProvider == model.PaymentProviderCOD {
		return &SessionResult{
			RedirectToCOD: true,
			Message:       "This store accepts cash on delivery; use the COD checkout.",
		}, nil
	}

	if err := validateTotals(req); err != nil {
		return nil, err
	}

	orderData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order payload: %w", err)
	}

	provider := s.payments.ForSeller(sel)
	session, err := provider.CreateCheckoutSession(ctx, payment.CheckoutPayload{
		Amount:     req.Total,
		Currency:   "usd",
		SuccessURL: fmt.Sprintf("%s/%s/success", s.baseURL, sel.Subdomain),
		CancelURL:  fmt.Sprintf("%s/%s/cart", s.baseURL, sel.Subdomain),
		Metadata: map[string]string{
			"sellerId":  fmt.Sprintf("%d", sel.ID),
			"orderData": string(orderData),
		},
	})
	if err != nil {
		// Nothing was persisted; the buyer can simply retry
		return nil, err
	}

	log.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.Uint("seller_id", sel.ID),
		zap.Float64("total", req.Total))

	return &SessionResult{SessionID: session.ID, URL: session.URL}, nil
}

// HandleSessionCompleted is the asynchronous re-entry point. The caller has
// already verified the webhook signature; an unverified event never reaches
// this method.
func (s *service) HandleSessionCompleted(ctx context.Context, session *stripe.CheckoutSession) (*model.Order, bool, error) {
	log := logger.FromContext(ctx)

	sellerIDStr := session.Metadata["sellerId"]
	orderDataStr := session.Metadata["orderData"]
	if sellerIDStr == "" || orderDataStr == "" {
		// Likely a configuration bug, not a benign miss
		return nil, false, fmt.Errorf("%w: sellerId or orderData absent", ErrMissingMetadata)
	}

	var sellerID uint
	if _, err := fmt.Sscanf(sellerIDStr, "%d", &sellerID); err != nil {
		return nil, false, fmt.Errorf("%w: invalid sellerId %q", ErrMissingMetadata, sellerIDStr)
	}

	var req CreateOrderRequest
	if err := json.Unmarshal([]byte(orderDataStr), &req); err != nil {
		return nil, false, fmt.Errorf("%w: undecodable orderData: %v", ErrMissingMetadata, err)
	}
	if len(req.Items) == 0 {
		return nil, false, fmt.Errorf("%w: orderData has no items", ErrMissingMetadata)
	}

	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		req.CustomerEmail = session.CustomerDetails.Email
	}

	sessionID := session.ID
	o := &model.Order{
		SellerID:       sellerID,
		Status:         model.StatusConfirmed,
		PaymentMethod:  model.PaymentMethodStripe,
		PaymentStatus:  model.PaymentPaid,
		Subtotal:       req.Subtotal,
		ShippingCost:   req.ShippingCost,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		// The event's amount is authoritative, not the client-submitted total
		Total:           float64(session.AmountTotal) / 100,
		StripeSessionID: &sessionID,
		Notes:           req.Notes,
	}

	created, err := s.orders.CreateWithItems(ctx, o, customerInfo(req), orderItems(req))
	if errors.Is(err, order.ErrDuplicateSession) {
		// Redelivered event: the first delivery already created the order
		if s.metrics != nil {
			s.metrics.WebhookEvent("duplicate")
		}
		log.Info("Duplicate checkout session delivery ignored",
			zap.String("session_id", sessionID),
			zap.String("order_number", created.OrderNumber))
		return created, true, nil
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.WebhookEvent("failed")
		}
		return nil, false, err
	}

	if s.metrics != nil {
		s.metrics.OrderCreated(model.PaymentMethodStripe)
		s.metrics.WebhookEvent("processed")
	}

	s.sendConfirmation(ctx, req.CustomerEmail, created,
		"Your order has been confirmed and is being processed.",
		"You will receive a shipping confirmation once your order ships.")

	log.Info("Order created from checkout session",
		zap.String("session_id", sessionID),
		zap.String("order_number", created.OrderNumber),
		zap.Float64("total", created.Total))

	return created, false, nil
}

// UpdateStatus advances the dashboard-driven status sub-machine.
func (s *service) UpdateStatus(ctx context.Context, orderID uint, status string) (*model.Order, error) {
	next, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.orders.UpdateStatus(ctx, orderID, next)
}

// sendConfirmation dispatches the confirmation email. Failure is logged and
// swallowed: the order has already succeeded.
func (s *service) sendConfirmation(ctx context.Context, to string, o *model.Order, intro, outro string) {
	if to == "" {
		return
	}

	msg := email.Message{
		To:      to,
		Subject: fmt.Sprintf("Order Confirmation - %s", o.OrderNumber),
		HTML: fmt.Sprintf(
			"<h2>Order Confirmation</h2><p>%s</p><p><strong>Order Number:</strong> %s</p><p><strong>Total:</strong> $%.2f</p><p>%s</p>",
			intro, o.OrderNumber, o.Total, outro),
	}

	if err := s.email.Send(ctx, msg); err != nil {
		logger.FromContext(ctx).Error("Failed to send confirmation email",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
	}
}

func validateTotals(req CreateOrderRequest) error {
	expected := req.Subtotal + req.ShippingCost + req.TaxAmount - req.DiscountAmount
	if !centsEqual(req.Total, expected) {
		return fmt.Errorf("%w: total %.2f, components %.2f", ErrTotalMismatch, req.Total, expected)
	}

	itemSum := 0.0
	for _, it := range req.Items {
		itemSum += it.TotalPrice
	}
	if !centsEqual(itemSum, req.Subtotal) {
		return fmt.Errorf("%w: item sum %.2f, subtotal %.2f", ErrTotalMismatch, itemSum, req.Subtotal)
	}
	return nil
}

func customerInfo(req CreateOrderRequest) order.CustomerInfo {
	return order.CustomerInfo{
		Email:           req.CustomerEmail,
		Name:            req.CustomerName,
		Phone:           req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
	}
}

func orderItems(req CreateOrderRequest) []model.OrderItem {
	items := make([]model.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.OrderItem{
			ProductID:          it.ProductID,
			ProductName:        it.ProductName,
			ProductDescription: it.ProductDescription,
			ProductImageURL:    it.ProductImageURL,
			Size:               it.Size,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			TotalPrice:         it.TotalPrice,
		})
	}
	return items
}

func centsEqual(a, b float64) bool {
	return math.Round(a*100) == math.Round(b*100)
}
