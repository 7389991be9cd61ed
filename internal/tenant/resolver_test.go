package tenant

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver("miskre.com", "https://miskre.com")

	tests := []struct {
		name          string
		host          string
		path          string
		query         string
		wantSubdomain string
		wantOK        bool
	}{
		{
			name:          "production tenant host",
			host:          "fighter1.miskre.com",
			path:          "/",
			wantSubdomain: "fighter1",
			wantOK:        true,
		},
		{
			name:   "root domain passes through",
			host:   "miskre.com",
			path:   "/",
			wantOK: false,
		},
		{
			name:   "www is reserved",
			host:   "www.miskre.com",
			path:   "/",
			wantOK: false,
		},
		{
			name:   "admin is reserved",
			host:   "admin.miskre.com",
			path:   "/",
			wantOK: false,
		},
		{
			name:   "api is reserved",
			host:   "api.miskre.com",
			path:   "/",
			wantOK: false,
		},
		{
			name:          "nested path keeps tenant",
			host:          "fighter1.miskre.com",
			path:          "/product/42",
			wantSubdomain: "fighter1",
			wantOK:        true,
		},
		{
			name:   "admin path bypasses resolution",
			host:   "fighter1.miskre.com",
			path:   "/admin/sellers",
			wantOK: false,
		},
		{
			name:   "dashboard path bypasses resolution",
			host:   "fighter1.miskre.com",
			path:   "/dashboard/orders",
			wantOK: false,
		},
		{
			name:   "api path bypasses resolution",
			host:   "fighter1.miskre.com",
			path:   "/api/checkout",
			wantOK: false,
		},
		{
			name:   "unrelated domain passes through",
			host:   "example.org",
			path:   "/",
			wantOK: false,
		},
		{
			name:          "localhost with subdomain override",
			host:          "localhost:8080",
			path:          "/",
			query:         "subdomain=fighter1",
			wantSubdomain: "fighter1",
			wantOK:        true,
		},
		{
			name:   "localhost without override passes through",
			host:   "localhost:8080",
			path:   "/",
			wantOK: false,
		},
		{
			name:   "localhost reserved override is ignored",
			host:   "localhost:8080",
			path:   "/",
			query:  "subdomain=admin",
			wantOK: false,
		},
		{
			name:          "preview host dash pattern",
			host:          "fighter1-miskre-team.preview.vercel.app",
			path:          "/",
			wantSubdomain: "fighter1",
			wantOK:        true,
		},
		{
			name:          "preview host override wins over dash pattern",
			host:          "fighter2-miskre-team.preview.vercel.app",
			path:          "/",
			query:         "subdomain=fighter1",
			wantSubdomain: "fighter1",
			wantOK:        true,
		},
		{
			name:   "preview host with too few labels passes through",
			host:   "miskre.vercel.app",
			path:   "/",
			wantOK: false,
		},
		{
			name:          "host port is stripped",
			host:          "fighter1.miskre.com:443",
			path:          "/",
			wantSubdomain: "fighter1",
			wantOK:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			sub, ok := r.Resolve(tt.host, tt.path, query)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSubdomain, sub)
		})
	}
}

func TestResolver_Middleware(t *testing.T) {
	r := NewResolver("miskre.com", "https://miskre.com")

	tests := []struct {
		name       string
		host       string
		target     string
		wantPath   string
		wantTenant string
	}{
		{
			name:       "tenant host is rewritten under /store",
			host:       "fighter1.miskre.com",
			target:     "/",
			wantPath:   "/store/fighter1/",
			wantTenant: "fighter1",
		},
		{
			name:       "tenant host keeps path suffix",
			host:       "fighter1.miskre.com",
			target:     "/product/42",
			wantPath:   "/store/fighter1/product/42",
			wantTenant: "fighter1",
		},
		{
			name:     "root domain is untouched",
			host:     "miskre.com",
			target:   "/about",
			wantPath: "/about",
		},
		{
			name:       "override query param is consumed",
			host:       "localhost:8080",
			target:     "/?subdomain=fighter1",
			wantPath:   "/store/fighter1/",
			wantTenant: "fighter1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var gotPath string
			handler := r.Middleware()(func(c echo.Context) error {
				gotPath = c.Request().URL.Path
				return nil
			})

			assert.NoError(t, handler(c))
			assert.Equal(t, tt.wantPath, gotPath)
			if tt.wantTenant != "" {
				assert.Equal(t, tt.wantTenant, c.Get("tenant"))
				assert.Empty(t, c.Request().URL.Query().Get("subdomain"))
			} else {
				assert.Nil(t, c.Get("tenant"))
			}
		})
	}
}

func TestResolver_URLBuilders(t *testing.T) {
	prod := NewResolver("miskre.com", "https://miskre.com")
	assert.Equal(t, "https://fighter1.miskre.com", prod.StoreURL("fighter1"))
	assert.Equal(t, "https://miskre.com/dashboard/fighter1", prod.DashboardURL("fighter1"))

	local := NewResolver("miskre.com", "http://localhost:8080")
	assert.Equal(t, "http://localhost:8080/fighter1", local.StoreURL("fighter1"))
	assert.Equal(t, "http://localhost:8080/dashboard/fighter1", local.DashboardURL("fighter1"))
}

func TestIsReservedSubdomain(t *testing.T) {
	assert.True(t, IsReservedSubdomain("www"))
	assert.True(t, IsReservedSubdomain("admin"))
	assert.True(t, IsReservedSubdomain("api"))
	assert.False(t, IsReservedSubdomain("fighter1"))
}
