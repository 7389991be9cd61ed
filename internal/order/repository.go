// Package order owns the Order+OrderItem aggregate: order-number assignment,
// the PII encryption boundary, atomic creation, and status transitions.
package order

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/phamvuhoang/miskre/internal/model"
	"github.com/phamvuhoang/miskre/pkg/crypto"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrNoItems           = errors.New("order must contain at least one item")
	ErrItemTotal         = errors.New("order item total does not match unit price and quantity")
	ErrDuplicateSession  = errors.New("an order already exists for this checkout session")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Forward edges plus the cancelled/returned side branches. Delivered,
// cancelled and returned are terminal.
var allowedTransitions = map[model.OrderStatus]map[model.OrderStatus]bool{
	model.StatusPending: {
		model.StatusConfirmed: true,
		model.StatusCancelled: true,
		model.StatusReturned:  true,
	},
	model.StatusConfirmed: {
		model.StatusProcessing: true,
		model.StatusCancelled:  true,
		model.StatusReturned:   true,
	},
	model.StatusProcessing: {
		model.StatusShipped:   true,
		model.StatusCancelled: true,
		model.StatusReturned:  true,
	},
	model.StatusShipped: {
		model.StatusDelivered: true,
		model.StatusCancelled: true,
		model.StatusReturned:  true,
	},
	model.StatusDelivered: {},
	model.StatusCancelled: {},
	model.StatusReturned:  {},
}

// ParseStatus validates a client-supplied status value.
func ParseStatus(s string) (model.OrderStatus, error) {
	status := model.OrderStatus(s)
	if _, ok := allowedTransitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// ValidateTransition reports whether an operator may move an order from one
// status to another.
func ValidateTransition(from, to model.OrderStatus) error {
	transitions, ok := allowedTransitions[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !transitions[to] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// CustomerInfo carries plaintext customer PII. It exists only in memory;
// the repository encrypts it before any row is written.
type CustomerInfo struct {
	Email           string
	Name            string
	Phone           string
	ShippingAddress string
}

// Repository persists and reads the order aggregate.
type Repository interface {
	// CreateWithItems atomically creates the order and its items, assigning
	// the order number and encrypting customer PII. When the order carries a
	// stripe session id that already exists, the existing order is returned
	// together with ErrDuplicateSession and nothing is written.
	CreateWithItems(ctx context.Context, o *model.Order, customer CustomerInfo, items []model.OrderItem) (*model.Order, error)
	GetByID(ctx context.Context, id uint) (*model.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	ListBySeller(ctx context.Context, sellerID uint) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uint, next model.OrderStatus) (*model.Order, error)
	DecryptCustomer(o *model.Order) (*CustomerInfo, error)
}

type gormRepository struct {
	db     *gorm.DB
	cipher *crypto.FieldCipher
}

// NewRepository creates a gorm-backed order repository.
func NewRepository(db *gorm.DB, cipher *crypto.FieldCipher) Repository {
	return &gormRepository{db: db, cipher: cipher}
}

func (r *gormRepository) CreateWithItems(ctx context.Context, o *model.Order, customer CustomerInfo, items []model.OrderItem) (*model.Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for i := range items {
		if items[i].Quantity <= 0 {
			return nil, fmt.Errorf("order item quantity for product %d must be greater than zero", items[i].ProductID)
		}
		if !centsEqual(items[i].TotalPrice, items[i].UnitPrice*float64(items[i].Quantity)) {
			return nil, fmt.Errorf("%w: product %d", ErrItemTotal, items[i].ProductID)
		}
	}

	if err := r.encryptCustomer(o, customer); err != nil {
		return nil, err
	}

	var existing *model.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Insert-if-absent on the idempotency key: a redelivered payment
		// webhook must find the first delivery's order, never insert twice.
		if o.StripeSessionID != nil {
			var found model.Order
			res := tx.Where("stripe_session_id = ?", *o.StripeSessionID).First(&found)
			if res.Error == nil {
				existing = &found
				return ErrDuplicateSession
			}
			if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return res.Error
			}
		}

		number, err := r.nextOrderNumber(tx)
		if err != nil {
			return err
		}
		o.OrderNumber = number

		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range items {
			items[i].OrderID = o.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			// The transaction rolls the order row back with the items;
			// a dangling zero-item order is never committed.
			return fmt.Errorf("failed to create order items: %w", err)
		}

		o.OrderItems = items
		return nil
	})

	if errors.Is(err, ErrDuplicateSession) {
		return existing, ErrDuplicateSession
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	res := r.db.WithContext(ctx).Preload("OrderItems").First(&o, id)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &o, nil
}

func (r *gormRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	var o model.Order
	res := r.db.WithContext(ctx).Preload("OrderItems").Where("stripe_session_id = ?", sessionID).First(&o)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &o, nil
}

func (r *gormRepository) ListBySeller(ctx context.Context, sellerID uint) ([]model.Order, error) {
	var orders []model.Order
	res := r.db.WithContext(ctx).Preload("OrderItems").
		Where("seller_id = ?", sellerID).
		Order("created_at desc").
		Find(&orders)
	if res.Error != nil {
		return nil, res.Error
	}
	return orders, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uint, next model.OrderStatus) (*model.Order, error) {
	var updated *model.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o model.Order
		res := tx.First(&o, id)
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if res.Error != nil {
			return res.Error
		}

		if o.Status == next {
			updated = &o
			return nil
		}
		if err := ValidateTransition(o.Status, next); err != nil {
			return err
		}

		o.Status = next
		now := time.Now()
		switch next {
		case model.StatusShipped:
			o.ShippedAt = &now
		case model.StatusDelivered:
			o.DeliveredAt = &now
		}

		if err := tx.Save(&o).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		updated = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DecryptCustomer recovers plaintext PII for authorized read paths.
func (r *gormRepository) DecryptCustomer(o *model.Order) (*CustomerInfo, error) {
	info := &CustomerInfo{}
	fields := []struct {
		enc string
		dst *string
	}{
		{o.CustomerEmailEnc, &info.Email},
		{o.CustomerNameEnc, &info.Name},
		{o.CustomerPhoneEnc, &info.Phone},
		{o.ShippingAddressEnc, &info.ShippingAddress},
	}
	for _, f := range fields {
		if f.enc == "" {
			continue
		}
		plain, err := r.cipher.Decrypt(f.enc)
		if err != nil {
			return nil, err
		}
		*f.dst = plain
	}
	return info, nil
}

func (r *gormRepository) encryptCustomer(o *model.Order, customer CustomerInfo) error {
	fields := []struct {
		plain string
		dst   *string
	}{
		{customer.Email, &o.CustomerEmailEnc},
		{customer.Name, &o.CustomerNameEnc},
		{customer.Phone, &o.CustomerPhoneEnc},
		{customer.ShippingAddress, &o.ShippingAddressEnc},
	}
	for _, f := range fields {
		if f.plain == "" {
			continue
		}
		enc, err := r.cipher.Encrypt(f.plain)
		if err != nil {
			return fmt.Errorf("failed to encrypt customer field: %w", err)
		}
		*f.dst = enc
	}
	return nil
}

// Order numbers are date-prefixed for humans plus a crypto-random suffix so
// concurrent creators never need a central sequence. Ambiguous characters
// are excluded from the alphabet.
const orderNumberAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ23456789"

func (r *gormRepository) nextOrderNumber(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		number, err := generateOrderNumber(time.Now())
		if err != nil {
			return "", err
		}

		var count int64
		if err := tx.Model(&model.Order{}).Where("order_number = ?", number).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}
	return "", errors.New("failed to generate a unique order number")
}

func generateOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix), nil
}

func centsEqual(a, b float64) bool {
	return math.Round(a*100) == math.Round(b*100)
}
