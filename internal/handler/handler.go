// Package handler exposes the HTTP API surface.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/phamvuhoang/miskre/internal/checkout"
	"github.com/phamvuhoang/miskre/internal/order"
	"github.com/phamvuhoang/miskre/internal/seller"
	"github.com/phamvuhoang/miskre/pkg/logger"
)

// requestContext returns a context carrying the request-scoped logger so
// services log with the request id.
func requestContext(c echo.Context) context.Context {
	return logger.WithContext(c.Request().Context(), logger.FromEcho(c))
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrCODDisabled),
		errors.Is(err, checkout.ErrTotalMismatch),
		errors.Is(err, checkout.ErrMissingMetadata),
		errors.Is(err, order.ErrNoItems),
		errors.Is(err, order.ErrItemTotal),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, seller.ErrInvalidSubdomain),
		errors.Is(err, seller.ErrReservedSubdomain),
		errors.Is(err, seller.ErrSubdomainTaken),
		errors.Is(err, seller.ErrSellerNotFound):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
