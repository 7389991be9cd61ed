// Package catalog seeds a starter product line for newly created sellers.
package catalog

import (
	"context"
	"fmt"

	"github.com/phamvuhoang/miskre/internal/model"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Template describes one default product before branding is applied.
type template struct {
	name        string
	description string
	price       float64
	sizes       []string
	isLimited   bool
}

var defaultTemplates = []template{
	{
		name:        "%s Training Tee",
		description: "Premium cotton training t-shirt featuring the %s logo. Perfect for training sessions and everyday wear.",
		price:       29.99,
		sizes:       []string{"XS", "S", "M", "L", "XL", "XXL"},
	},
	{
		name:        "%s Performance Hoodie",
		description: "Heavyweight hoodie designed for fighters and athletes, with %s branding and a comfortable training fit.",
		price:       59.99,
		sizes:       []string{"S", "M", "L", "XL", "XXL"},
	},
	{
		name:        "%s Rashguard",
		description: "High-performance compression rashguard for grappling and MMA, in the %s signature design.",
		price:       49.99,
		sizes:       []string{"S", "M", "L", "XL", "XXL"},
	},
	{
		name:        "%s Fight Shorts",
		description: "Professional-grade fight shorts with 4-way stretch fabric, %s branding and reinforced stitching.",
		price:       44.99,
		sizes:       []string{"28", "30", "32", "34", "36", "38"},
	},
	{
		name:        "%s Signature Cap",
		description: "Adjustable snapback cap with the embroidered %s logo. One size fits most.",
		price:       24.99,
		sizes:       []string{"One Size"},
	},
	{
		name:        "%s Limited Edition Tee",
		description: "Exclusive limited edition t-shirt celebrating %s. Limited quantities available.",
		price:       39.99,
		sizes:       []string{"S", "M", "L", "XL", "XXL"},
		isLimited:   true,
	},
}

// Seeder creates the default catalog for a seller.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a catalog seeder.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedDefaultProducts inserts the starter products for a new seller. Each
// insert is independent; one failure does not abort the rest.
func (s *Seeder) SeedDefaultProducts(ctx context.Context, sel *model.Seller) []model.Product {
	log := logger.FromContext(ctx)
	created := make([]model.Product, 0, len(defaultTemplates))

	for _, t := range defaultTemplates {
		product := model.Product{
			SellerID:    sel.ID,
			Name:        fmt.Sprintf(t.name, sel.Name),
			Description: fmt.Sprintf(t.description, sel.Name),
			Price:       t.price,
			Sizes:       model.StringList(t.sizes),
			ImageURLs:   model.StringList{},
			IsLimited:   t.isLimited,
		}

		if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
			log.Error("Failed to seed default product",
				zap.String("product_name", product.Name),
				zap.Uint("seller_id", sel.ID),
				zap.Error(err))
			continue
		}
		created = append(created, product)
	}

	return created
}
