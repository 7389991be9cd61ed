package model

import (
	"time"

	"gorm.io/gorm"
)

// Payment provider selection per seller
const (
	PaymentProviderStripe = "stripe"
	PaymentProviderCOD    = "cod"
)

// Seller represents one tenant storefront, addressed by subdomain
type Seller struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Name            string         `json:"name" gorm:"type:varchar(100);not null"`
	Subdomain       string         `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"` // immutable after creation
	CustomDomain    string         `json:"custom_domain,omitempty" gorm:"type:varchar(255)"`
	LogoURL         string         `json:"logo_url,omitempty" gorm:"type:text"`
	Colors          SellerColors   `json:"colors" gorm:"type:jsonb"`
	Phrases         StringList     `json:"phrases,omitempty" gorm:"type:jsonb"`
	PaymentProvider string         `json:"payment_provider" gorm:"type:varchar(20);not null;default:'stripe'"`
	EmailProvider   string         `json:"email_provider" gorm:"type:varchar(20);not null;default:'resend'"`
	ContactEmail    string         `json:"contact_email,omitempty" gorm:"type:varchar(255)"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Products []Product `json:"products,omitempty" gorm:"foreignKey:SellerID"`
	Orders   []Order   `json:"orders,omitempty" gorm:"foreignKey:SellerID"`
}
