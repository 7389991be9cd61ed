package model

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusReturned   OrderStatus = "returned"
)

func (s OrderStatus) String() string {
	return string(s)
}

// PaymentStatus tracks the payment side of an order
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Payment methods
const (
	PaymentMethodStripe = "stripe"
	PaymentMethodCOD    = "cod"
)

// Order is the aggregate root of checkout. Customer PII fields hold
// AES-256-GCM ciphertexts; plaintext never reaches the database.
type Order struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	OrderNumber string      `json:"order_number" gorm:"type:varchar(32);uniqueIndex;not null"`
	SellerID    uint        `json:"seller_id" gorm:"index;not null"`
	Status      OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`

	PaymentMethod string        `json:"payment_method" gorm:"type:varchar(20);not null"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`

	Subtotal       float64 `json:"subtotal" gorm:"not null"`
	ShippingCost   float64 `json:"shipping_cost" gorm:"not null;default:0"`
	TaxAmount      float64 `json:"tax_amount" gorm:"not null;default:0"`
	DiscountAmount float64 `json:"discount_amount" gorm:"not null;default:0"`
	Total          float64 `json:"total" gorm:"not null"`

	// Idempotency key correlating the asynchronous payment confirmation to
	// this order. Unique so a redelivered webhook can never insert twice.
	StripeSessionID *string `json:"stripe_session_id,omitempty" gorm:"type:varchar(255);uniqueIndex"`

	CustomerEmailEnc   string `json:"-" gorm:"type:text"`
	CustomerNameEnc    string `json:"-" gorm:"type:text"`
	CustomerPhoneEnc   string `json:"-" gorm:"type:text"`
	ShippingAddressEnc string `json:"-" gorm:"type:text"`

	TrackingNumber string     `json:"tracking_number,omitempty" gorm:"type:varchar(100)"`
	TrackingURL    string     `json:"tracking_url,omitempty" gorm:"type:text"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`

	Notes     string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	OrderItems []OrderItem `json:"order_items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem is an immutable snapshot of a product taken at order-creation
// time, deliberately denormalized so historical orders survive product edits
// and deletes.
type OrderItem struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	OrderID            uint      `json:"order_id" gorm:"index;not null"`
	ProductID          uint      `json:"product_id" gorm:"index;not null"`
	ProductName        string    `json:"product_name" gorm:"type:varchar(255);not null"`
	ProductDescription string    `json:"product_description,omitempty" gorm:"type:text"`
	ProductImageURL    string    `json:"product_image_url,omitempty" gorm:"type:text"`
	Size               string    `json:"size,omitempty" gorm:"type:varchar(50)"`
	Quantity           int       `json:"quantity" gorm:"not null"`
	UnitPrice          float64   `json:"unit_price" gorm:"not null"`
	TotalPrice         float64   `json:"total_price" gorm:"not null"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
