// Package payment abstracts the two checkout strategies: Stripe hosted
// sessions (asynchronous, webhook-confirmed) and cash on delivery
// (synchronous, confirmed in-request).
package payment

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/phamvuhoang/miskre/internal/model"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Payout statuses
const (
	PayoutPending   = "pending"
	PayoutCompleted = "completed"
)

// CheckoutPayload describes a checkout session to create.
type CheckoutPayload struct {
	Amount     float64
	Currency   string
	SuccessURL string
	CancelURL  string
	// Metadata rides on the session and comes back verbatim in the
	// completion webhook. The hosted path stores the entire prospective
	// order here because no order row exists until payment confirms.
	Metadata map[string]string
}

// Session is the result of creating a checkout session.
type Session struct {
	ID  string
	URL string
}

// PayoutResult reports the outcome of a seller payout.
type PayoutResult struct {
	Status string
}

// Provider is the polymorphic payment capability set.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, payload CheckoutPayload) (*Session, error)
	ProcessPayout(ctx context.Context, sellerAccountID string, amount float64) (*PayoutResult, error)
}

// StripeProvider creates provider-hosted payment sessions. Completion
// arrives later through the signed webhook channel.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a provider bound to the given API key.
func NewStripeProvider(apiKey string) *StripeProvider {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, payload CheckoutPayload) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(payload.Currency),
					UnitAmount: stripe.Int64(int64(math.Round(payload.Amount * 100))),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Order"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(payload.SuccessURL),
		CancelURL:  stripe.String(payload.CancelURL),
	}
	params.Context = ctx
	for k, v := range payload.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("payment: failed to create stripe checkout session: %w", err)
	}

	return &Session{ID: session.ID, URL: session.URL}, nil
}

func (p *StripeProvider) ProcessPayout(ctx context.Context, sellerAccountID string, amount float64) (*PayoutResult, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(int64(math.Round(amount * 100))),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Destination: stripe.String(sellerAccountID),
	}
	params.Context = ctx

	if _, err := p.api.Transfers.New(params); err != nil {
		return nil, fmt.Errorf("payment: failed to create stripe transfer: %w", err)
	}

	return &PayoutResult{Status: PayoutCompleted}, nil
}

// CODProvider completes checkout synchronously inside the initiating
// request; there is no external session.
type CODProvider struct{}

// NewCODProvider creates a cash-on-delivery provider.
func NewCODProvider() *CODProvider {
	return &CODProvider{}
}

func (p *CODProvider) CreateCheckoutSession(ctx context.Context, payload CheckoutPayload) (*Session, error) {
	return &Session{ID: fmt.Sprintf("cod_%d", time.Now().UnixMilli())}, nil
}

func (p *CODProvider) ProcessPayout(ctx context.Context, sellerAccountID string, amount float64) (*PayoutResult, error) {
	// Cash settles offline; payouts stay pending until reconciled manually
	return &PayoutResult{Status: PayoutPending}, nil
}

// ProviderSelector chooses the payment provider for a seller.
type ProviderSelector interface {
	ForSeller(seller *model.Seller) Provider
}

// Factory selects the provider from the seller's stored configuration.
// Selection is never driven by the buyer's choice of UI button.
type Factory struct {
	stripeAPIKey string
}

// NewFactory creates a provider factory.
func NewFactory(stripeAPIKey string) *Factory {
	return &Factory{stripeAPIKey: stripeAPIKey}
}

// ForSeller returns the provider the seller is configured for.
func (f *Factory) ForSeller(seller *model.Seller) Provider {
	if seller.PaymentProvider == model.PaymentProviderCOD {
		return NewCODProvider()
	}
	return NewStripeProvider(f.stripeAPIKey)
}
