package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/phamvuhoang/miskre/internal/email"
	"github.com/phamvuhoang/miskre/internal/model"
	"github.com/phamvuhoang/miskre/internal/order"
	"github.com/phamvuhoang/miskre/internal/payment"
	"github.com/phamvuhoang/miskre/internal/seller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

type mockOrderRepo struct {
	createWithItemsFunc func(ctx context.Context, o *model.Order, customer order.CustomerInfo, items []model.OrderItem) (*model.Order, error)
	updateStatusFunc    func(ctx context.Context, id uint, next model.OrderStatus) (*model.Order, error)
}

func (m *mockOrderRepo) CreateWithItems(ctx context.Context, o *model.Order, customer order.CustomerInfo, items []model.OrderItem) (*model.Order, error) {
	return m.createWithItemsFunc(ctx, o, customer, items)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uint) (*model.Order, error) {
	return nil, order.ErrOrderNotFound
}

func (m *mockOrderRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	return nil, order.ErrOrderNotFound
}

func (m *mockOrderRepo) ListBySeller(ctx context.Context, sellerID uint) ([]model.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id uint, next model.OrderStatus) (*model.Order, error) {
	return m.updateStatusFunc(ctx, id, next)
}

func (m *mockOrderRepo) DecryptCustomer(o *model.Order) (*order.CustomerInfo, error) {
	return &order.CustomerInfo{}, nil
}

type mockSellerRepo struct {
	getByIDFunc func(ctx context.Context, id uint) (*model.Seller, error)
}

func (m *mockSellerRepo) Create(ctx context.Context, s *model.Seller) error { return nil }

func (m *mockSellerRepo) GetByID(ctx context.Context, id uint) (*model.Seller, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockSellerRepo) GetBySubdomain(ctx context.Context, subdomain string) (*model.Seller, error) {
	return nil, seller.ErrSellerNotFound
}

func (m *mockSellerRepo) GetByCustomDomain(ctx context.Context, domain string) (*model.Seller, error) {
	return nil, seller.ErrSellerNotFound
}

type mockProvider struct {
	createSessionFunc func(ctx context.Context, payload payment.CheckoutPayload) (*payment.Session, error)
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, payload payment.CheckoutPayload) (*payment.Session, error) {
	return m.createSessionFunc(ctx, payload)
}

func (m *mockProvider) ProcessPayout(ctx context.Context, sellerAccountID string, amount float64) (*payment.PayoutResult, error) {
	return &payment.PayoutResult{Status: payment.PayoutCompleted}, nil
}

type mockSelector struct {
	provider payment.Provider
}

func (m *mockSelector) ForSeller(s *model.Seller) payment.Provider { return m.provider }

type recordingEmail struct {
	sent []email.Message
	err  error
}

func (r *recordingEmail) Send(ctx context.Context, msg email.Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func codSeller() *model.Seller {
	return &model.Seller{ID: 7, Name: "Fighter One", Subdomain: "fighter1", PaymentProvider: model.PaymentProviderCOD}
}

func stripeSeller() *model.Seller {
	return &model.Seller{ID: 7, Name: "Fighter One", Subdomain: "fighter1", PaymentProvider: model.PaymentProviderStripe}
}

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		SellerID:        7,
		CustomerEmail:   "jane@example.com",
		CustomerName:    "Jane Doe",
		ShippingAddress: "12 Nguyen Hue, District 1",
		Items: []ItemRequest{
			{ProductID: 10, ProductName: "MISKRE Tee", Size: "M", Quantity: 2, UnitPrice: 29.99, TotalPrice: 59.98},
		},
		Subtotal:     59.98,
		ShippingCost: 10.00,
		Total:        69.98,
	}
}

func newTestService(orders order.Repository, sellers seller.Repository, provider payment.Provider, mail email.Provider) Service {
	if mail == nil {
		mail = email.NopProvider{}
	}
	return NewService(orders, sellers, &mockSelector{provider: provider}, mail, nil, "https://miskre.com")
}

func TestPlaceCODOrder(t *testing.T) {
	var gotOrder *model.Order
	var gotCustomer order.CustomerInfo
	orders := &mockOrderRepo{
		createWithItemsFunc: func(ctx context.Context, o *model.Order, customer order.CustomerInfo, items []model.OrderItem) (*model.Order, error) {
			gotOrder = o
			gotCustomer = customer
			o.ID = 1
			o.OrderNumber = "ORD-20260830-ABCDEF"
			o.OrderItems = items
			return o, nil
		},
	}
	sellers := &mockSellerRepo{getByIDFunc: func(ctx context.Context, id uint) (*model.Seller, error) {
		return codSeller(), nil
	}}
	mail := &recordingEmail{}

	svc := newTestService(orders, sellers, nil, mail)
	created, err := svc.PlaceCODOrder(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, gotOrder.Status)
	assert.Equal(t, model.PaymentMethodCOD, gotOrder.PaymentMethod)
	assert.Equal(t, model.PaymentPending, gotOrder.PaymentStatus)
	assert.InDelta(t, 69.98, gotOrder.Total, 0.001)
	assert.Nil(t, gotOrder.StripeSessionID)
	assert.Equal(t, "jane@example.com", gotCustomer.Email)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "jane@example.com", mail.sent[0].To)
	assert.Contains(t, mail.sent[0].Subject, created.OrderNumber)
}

func TestPlaceCODOrder_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateOrderRequest)
		seller  *model.Seller
		wantErr error
	}{
		{
			name:    "empty cart",
			mutate:  func(r *CreateOrderRequest) { r.Items = nil },
			seller:  codSeller(),
			wantErr: ErrEmptyCart,
		},
		{
			name:    "seller uses hosted checkout",
			mutate:  func(r *CreateOrderRequest) {},
			seller:  stripeSeller(),
			wantErr: ErrCODDisabled,
		},
		{
			name:    "total does not match components",
			mutate:  func(r *CreateOrderRequest) { r.Total = 99.99 },
			seller:  codSeller(),
			wantErr: ErrTotalMismatch,
		},
		{
			name:    "item sum does not match subtotal",
			mutate:  func(r *CreateOrderRequest) { r.Subtotal = 10.00; r.Total = 20.00 },
			seller:  codSeller(),
			wantErr: ErrTotalMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			orders := &mockOrderRepo{
				createWithItemsFunc: func(ctx context.Context, o *model.Order, customer order.CustomerInfo, items []model.OrderItem) (*model.Order, error) {
					created = true
					return o, nil
				},
			}
			sellers := &mockSellerRepo{getByIDFunc: func(ctx context.Context, id uint) (*model.Seller, error) {
				return tt.seller, nil
			}}

			svc := newTestService(orders, sellers, nil, nil)
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.PlaceCODOrder(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, created, "nothing may be persisted on a rejected request")
		})
	}
}

func TestPlaceCODOrder_EmailFailureDoesNotFailOrder(t *testing.T) {
	orders := &mockOrderRepo{
		createWithItemsFunc: func(ctx context.Context, o *model.Order, customer order.CustomerInfo, items []model.OrderItem) (*model.Order, error) {
			o.OrderNumber = "ORD-20260830-ABCDEF"
			return o, nil
		},
	}
	sellers := &mockSellerRepo{getByIDFunc: func(ctx context.Context, id uint) (*model.Seller, error) {
		return codSeller(), nil
	}}
	mail := &recordingEmail{err: errors.New("smtp unreachable")}

	svc := newTestService(orders, sellers, nil, mail)
	created, err := svc.PlaceCODOrder(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotNil(t, created)
}

func TestCreateSession(t *testing.T) {
	var gotPayload payment.CheckoutPayload
	provider := &mockProvider{
		createSessionFunc: func(ctx context.Context, payload payment.CheckoutPayload) (*payment.Session, error) {
			gotPayload = payload
			return &payment.Session{ID: "cs_test_123", URL: "https://checkout.stripe.com/pay/cs_test_123"}, nil
		},
	}
	orders := &mockOrderRepo{
		createWithItemsFunc: func(ctx context.Context, o *model.Order, customer order.CustomerInfo, items []model.OrderItem) (*model.Order, error) {
			t.Fatal("hosted checkout initiation must not create an order")
			return nil, nil
		},
	}
	sellers := &mockSellerRepo{getByIDFunc: func(ctx context.Context, id uint) (*model.Seller, error) {
		return stripeSeller(), nil
	}}

	svc := newTestService(orders, sellers, provider, nil)
	req := validRequest()
	result, err := svc.CreateSession(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "cs_test_123", result.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", result.URL)
	assert.False(t, result.RedirectToCOD)

	assert.InDelta(t, 69.98, gotPayload.Amount, 0.001)
	assert.Equal(t, "https://miskre.com/fighter1/success", gotPayload.SuccessURL)
	assert.Equal(t, "https://miskre.com/fighter1/cart", gotPayload.CancelURL)
	assert.Equal(t, "7", gotPayload.Metadata["sellerId"])

	var echoed CreateOrderRequest
	require.NoError(t, json.Unmarshal([]byte(gotPayload.Metadata["orderData"]), &echoed))
	assert.Equal(t, req.Items, echoed.Items)
	assert.InDelta(t, req.Total, echoed.Total, 0.001)
}

func TestCreateSession_CODSellerRedirects(t *testing.T) {
	providerCalled := false
	provider := &mockProvider{
		createSessionFunc: func(ctx context.Context, payload payment.CheckoutPayload) (*payment.Session, error) {
			providerCalled = true
			return nil, nil
		},
	}
	sellers := &mockSellerRepo{getByIDFunc: func(ctx context.Context, id uint) (*model.Seller, error) {
		return codSeller(), nil
	}}

	svc := newTestService(&mockOrderRepo{}, sellers, provider, nil)
	result, err := svc.CreateSession(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, result.RedirectToCOD)
	assert.NotEmpty(t, result.Message)
	assert.False(t, providerCalled)
}

func TestCreateSession_Failures(t *testing.T) {
	providerErr := errors.New("stripe unavailable")
	provider := &mockProvider{
		createSessionFunc: func(ctx context.Context, payload payment.CheckoutPayload) (*payment.Session, error) {
			return nil, providerErr
		},
	}
	sellers := &mockSellerRepo{getByIDFunc: func(ctx context.Context, id uint) (*model.Seller, error) {
		return stripeSeller(), nil
	}}
	svc := newTestService(&mockOrderRepo{}, sellers, provider, nil)

	t.Run("empty cart", func(t *testing.T) {
		req := validRequest()
		req.Items = nil
		_, err := svc.CreateSession(context.Background(), req)
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("provider error propagates", func(t *testing.T) {
		_, err := svc.CreateSession(context.Background(), validRequest())
		assert.ErrorIs(t, err, providerErr)
	})

	t.Run("unknown seller", func(t *testing.T) {
		missing := &mockSellerRepo{getByIDFunc: func(ctx context.Context, id uint) (*model.Seller, error) {
			return nil, seller.ErrSellerNotFound
		}}
		svc := newTestService(&mockOrderRepo{}, missing, provider, nil)
		_, err := svc.CreateSession(context.Background(), validRequest())
		assert.ErrorIs(t, err, seller.ErrSellerNotFound)
	})
}

func completedSession(t *testing.T, req CreateOrderRequest) *stripe.CheckoutSession {
	t.Helper()
	orderData, err := json.Marshal(req)
	require.NoError(t, err)
	return &stripe.CheckoutSession{
		ID:          "cs_test_abc123",
		AmountTotal: 6998,
		Metadata: map[string]string{
			"sellerId":  "7",
			"orderData": string(orderData),
		},
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "paid-with@stripe.com",
		},
	}
}

func TestHandleSessionCompleted(t *testing.T) {
	var gotOrder *model.Order
	var gotCustomer order.CustomerInfo
	orders := &mockOrderRepo{
		createWithItemsFunc: func(ctx context.Context, o *model.Order, customer order.CustomerInfo, items []model.OrderItem) (*model.Order, error) {
			gotOrder = o
			gotCustomer = customer
			o.ID = 1
			o.OrderNumber = "ORD-20260830-ABCDEF"
			return o, nil
		},
	}
	mail := &recordingEmail{}
	svc := newTestService(orders, &mockSellerRepo{}, nil, mail)

	created, duplicate, err := svc.HandleSessionCompleted(context.Background(), completedSession(t, validRequest()))
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.NotNil(t, created)

	assert.Equal(t, uint(7), gotOrder.SellerID)
	assert.Equal(t, model.StatusConfirmed, gotOrder.Status)
	assert.Equal(t, model.PaymentPaid, gotOrder.PaymentStatus)
	assert.Equal(t, model.PaymentMethodStripe, gotOrder.PaymentMethod)
	require.NotNil(t, gotOrder.StripeSessionID)
	assert.Equal(t, "cs_test_abc123", *gotOrder.StripeSessionID)

	// The charged amount wins over the client-submitted total
	assert.InDelta(t, 69.98, gotOrder.Total, 0.001)

	// Stripe-collected email wins over the metadata email
	assert.Equal(t, "paid-with@stripe.com", gotCustomer.Email)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "paid-with@stripe.com", mail.sent[0].To)
}

func TestHandleSessionCompleted_ChargedAmountOverridesClientTotal(t *testing.T) {
	var gotOrder *model.Order
	orders := &mockOrderRepo{
		createWithItemsFunc: func(ctx context.Context, o *model.Order, customer order.CustomerInfo, items []model.OrderItem) (*model.Order, error) {
			gotOrder = o
			return o, nil
		},
	}
	svc := newTestService(orders, &mockSellerRepo{}, nil, nil)

	// The session was charged 49.99 even though the metadata claims 69.98
	session := completedSession(t, validRequest())
	session.AmountTotal = 4999

	_, _, err := svc.HandleSessionCompleted(context.Background(), session)
	require.NoError(t, err)
	assert.InDelta(t, 49.99, gotOrder.Total, 0.001)
}

func TestHandleSessionCompleted_DuplicateDelivery(t *testing.T) {
	existing := &model.Order{ID: 42, OrderNumber: "ORD-20260830-ABCDEF"}
	orders := &mockOrderRepo{
		createWithItemsFunc: func(ctx context.Context, o *model.Order, customer order.CustomerInfo, items []model.OrderItem) (*model.Order, error) {
			return existing, order.ErrDuplicateSession
		},
	}
	mail := &recordingEmail{}
	svc := newTestService(orders, &mockSellerRepo{}, nil, mail)

	got, duplicate, err := svc.HandleSessionCompleted(context.Background(), completedSession(t, validRequest()))
	require.NoError(t, err)
	assert.True(t, duplicate)
	assert.Equal(t, existing, got)
	assert.Empty(t, mail.sent, "a redelivery must not send another confirmation")
}

func TestHandleSessionCompleted_BadMetadata(t *testing.T) {
	orderData, err := json.Marshal(validRequest())
	require.NoError(t, err)

	tests := []struct {
		name     string
		metadata map[string]string
	}{
		{name: "no metadata", metadata: nil},
		{name: "missing sellerId", metadata: map[string]string{"orderData": string(orderData)}},
		{name: "missing orderData", metadata: map[string]string{"sellerId": "7"}},
		{name: "non-numeric sellerId", metadata: map[string]string{"sellerId": "abc", "orderData": string(orderData)}},
		{name: "undecodable orderData", metadata: map[string]string{"sellerId": "7", "orderData": "{broken"}},
		{name: "orderData without items", metadata: map[string]string{"sellerId": "7", "orderData": `{"items":[]}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			orders := &mockOrderRepo{
				createWithItemsFunc: func(ctx context.Context, o *model.Order, customer order.CustomerInfo, items []model.OrderItem) (*model.Order, error) {
					created = true
					return o, nil
				},
			}
			svc := newTestService(orders, &mockSellerRepo{}, nil, nil)

			session := &stripe.CheckoutSession{ID: "cs_test_bad", Metadata: tt.metadata}
			_, _, err := svc.HandleSessionCompleted(context.Background(), session)
			assert.ErrorIs(t, err, ErrMissingMetadata)
			assert.False(t, created)
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	orders := &mockOrderRepo{
		updateStatusFunc: func(ctx context.Context, id uint, next model.OrderStatus) (*model.Order, error) {
			return &model.Order{ID: id, Status: next}, nil
		},
	}
	svc := newTestService(orders, &mockSellerRepo{}, nil, nil)

	updated, err := svc.UpdateStatus(context.Background(), 1, "shipped")
	require.NoError(t, err)
	assert.Equal(t, model.StatusShipped, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), 1, "teleported")
	assert.ErrorIs(t, err, order.ErrUnknownStatus)
}
