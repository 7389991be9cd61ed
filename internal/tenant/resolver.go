// Package tenant maps inbound request hosts to seller storefronts.
package tenant

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"go.uber.org/zap"
)

// Subdomains that never resolve to a tenant
var reservedSubdomains = map[string]bool{
	"www":   true,
	"admin": true,
	"api":   true,
}

// Paths that bypass tenant resolution entirely
var bypassPrefixes = []string{"/admin", "/dashboard", "/api", "/metrics", "/health", "/store"}

// Resolver resolves an inbound host/path to a tenant subdomain.
type Resolver struct {
	// Domain is the platform root domain, e.g. "miskre.com".
	Domain string
	// BaseURL is the public base URL used when building absolute links.
	BaseURL string
}

// NewResolver creates a resolver for the given platform domain.
func NewResolver(domain, baseURL string) *Resolver {
	return &Resolver{Domain: domain, BaseURL: baseURL}
}

// Resolve returns the tenant subdomain for a request, or ok=false when the
// request should pass through to top-level app routes.
//
// Custom seller-owned domains are deliberately not resolved here; doing so
// would need a data-store round trip on every request. Downstream lookup by
// domain handles them.
func (r *Resolver) Resolve(host, path string, query url.Values) (subdomain string, ok bool) {
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return "", false
		}
	}

	hostname := stripPort(host)

	isLocalhost := hostname == "localhost" || hostname == "127.0.0.1"
	isPreview := strings.HasSuffix(hostname, ".vercel.app")

	if isLocalhost || isPreview {
		// Explicit override: ?subdomain=fighter1
		if hint := query.Get("subdomain"); hint != "" && !reservedSubdomains[hint] {
			return hint, true
		}

		// Preview hosts encode the subdomain as the first dash-delimited
		// segment of the leftmost label, e.g. fighter1-project-user.vercel.app
		if isPreview {
			parts := strings.Split(hostname, ".")
			if len(parts) >= 4 {
				hint := strings.Split(parts[0], "-")[0]
				if hint != "" && !reservedSubdomains[hint] {
					return hint, true
				}
			}
		}

		return "", false
	}

	// Production: name.domain.com resolves to tenant "name"
	parts := strings.Split(hostname, ".")
	if strings.HasSuffix(hostname, r.Domain) && len(parts) >= 3 {
		sub := parts[0]
		if reservedSubdomains[sub] {
			return "", false
		}
		return sub, true
	}

	return "", false
}

// Middleware returns an Echo pre-routing middleware that rewrites resolved
// requests under /store/:subdomain. The rewrite keeps the original path
// suffix and query string so downstream handlers see the request unchanged.
func (r *Resolver) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			sub, ok := r.Resolve(req.Host, req.URL.Path, req.URL.Query())
			if !ok {
				return next(c)
			}

			// The override hint is consumed by the rewrite
			query := req.URL.Query()
			if query.Get("subdomain") != "" {
				query.Del("subdomain")
				req.URL.RawQuery = query.Encode()
			}

			logger.FromEcho(c).Debug("Tenant resolved",
				zap.String("host", req.Host),
				zap.String("subdomain", sub))

			req.URL.Path = "/store/" + sub + req.URL.Path
			c.Set("tenant", sub)

			return next(c)
		}
	}
}

// StoreURL builds the public URL for a seller's storefront.
func (r *Resolver) StoreURL(subdomain string) string {
	if strings.Contains(r.BaseURL, "localhost") || strings.Contains(r.BaseURL, "127.0.0.1") {
		return fmt.Sprintf("%s/%s", r.BaseURL, subdomain)
	}
	return fmt.Sprintf("https://%s.%s", subdomain, r.Domain)
}

// DashboardURL builds the URL for a seller's order-management dashboard.
func (r *Resolver) DashboardURL(subdomain string) string {
	if strings.Contains(r.BaseURL, "localhost") || strings.Contains(r.BaseURL, "127.0.0.1") {
		return fmt.Sprintf("%s/dashboard/%s", r.BaseURL, subdomain)
	}
	return fmt.Sprintf("https://%s/dashboard/%s", r.Domain, subdomain)
}

// IsReservedSubdomain reports whether a subdomain can never belong to a seller.
func IsReservedSubdomain(sub string) bool {
	return reservedSubdomains[sub]
}

func stripPort(host string) string {
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i:], "]") {
		return host[:i]
	}
	return host
}
