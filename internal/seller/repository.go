// Package seller persists tenant records.
package seller

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/phamvuhoang/miskre/internal/model"
	"github.com/phamvuhoang/miskre/internal/tenant"
	"gorm.io/gorm"
)

var (
	ErrSellerNotFound    = errors.New("seller not found")
	ErrInvalidSubdomain  = errors.New("subdomain must be lowercase letters, digits and hyphens")
	ErrReservedSubdomain = errors.New("subdomain is reserved")
	ErrSubdomainTaken    = errors.New("subdomain is already taken")
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Repository persists and reads seller records.
type Repository interface {
	// Create inserts a new seller. The subdomain is validated and checked
	// for uniqueness here; it is immutable afterwards.
	Create(ctx context.Context, s *model.Seller) error
	GetByID(ctx context.Context, id uint) (*model.Seller, error)
	// GetBySubdomain returns ErrSellerNotFound for unknown subdomains;
	// callers treat that as a valid "no tenant" response, not a failure.
	GetBySubdomain(ctx context.Context, subdomain string) (*model.Seller, error)
	// GetByCustomDomain supports seller-owned apex domains, which the edge
	// resolver defers to this per-request lookup.
	GetByCustomDomain(ctx context.Context, domain string) (*model.Seller, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed seller repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, s *model.Seller) error {
	if !subdomainPattern.MatchString(s.Subdomain) {
		return fmt.Errorf("%w: %q", ErrInvalidSubdomain, s.Subdomain)
	}
	if tenant.IsReservedSubdomain(s.Subdomain) {
		return fmt.Errorf("%w: %q", ErrReservedSubdomain, s.Subdomain)
	}

	if s.PaymentProvider == "" {
		s.PaymentProvider = model.PaymentProviderStripe
	}
	if s.EmailProvider == "" {
		s.EmailProvider = "resend"
	}
	if s.Colors == (model.SellerColors{}) {
		s.Colors = model.DefaultSellerColors()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Seller{}).Where("subdomain = ?", s.Subdomain).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %q", ErrSubdomainTaken, s.Subdomain)
		}
		if err := tx.Create(s).Error; err != nil {
			return fmt.Errorf("failed to create seller: %w", err)
		}
		return nil
	})
}

func (r *gormRepository) GetByID(ctx context.Context, id uint) (*model.Seller, error) {
	var s model.Seller
	res := r.db.WithContext(ctx).First(&s, id)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrSellerNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &s, nil
}

func (r *gormRepository) GetBySubdomain(ctx context.Context, subdomain string) (*model.Seller, error) {
	var s model.Seller
	res := r.db.WithContext(ctx).Where("subdomain = ?", subdomain).First(&s)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrSellerNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &s, nil
}

func (r *gormRepository) GetByCustomDomain(ctx context.Context, domain string) (*model.Seller, error) {
	var s model.Seller
	res := r.db.WithContext(ctx).Where("custom_domain = ?", domain).First(&s)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrSellerNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &s, nil
}
