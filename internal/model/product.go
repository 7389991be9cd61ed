package model

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a catalog item owned by a seller
type Product struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SellerID    uint           `json:"seller_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"not null"`
	Sizes       StringList     `json:"sizes,omitempty" gorm:"type:jsonb"`
	ImageURLs   StringList     `json:"image_urls,omitempty" gorm:"type:jsonb"`
	IsLimited   bool           `json:"is_limited" gorm:"default:false"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
