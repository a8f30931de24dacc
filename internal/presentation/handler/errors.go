package handler

import (
	"errors"
	"net/http"

	"github.com/dezh-tech/immortal/pkg/logger"

	"github.com/labstack/echo/v4"

	"cipherdrop/internal/domain/dto"
	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/presentation"
)

// statusClientClosedRequest is the non-standard status for a transfer its caller abandoned.
const statusClientClosedRequest = 499

func statusFor(err error) int {
	switch {
	case errors.Is(err, failure.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, failure.ErrValidation), errors.Is(err, failure.ErrKeyFormat):
		return http.StatusBadRequest
	case errors.Is(err, failure.ErrPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, failure.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, failure.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, failure.ErrCanceled):
		return statusClientClosedRequest
	case errors.Is(err, failure.ErrKeyUnwrap):
		return http.StatusForbidden
	case errors.Is(err, failure.ErrIntegrity), errors.Is(err, failure.ErrInvalidMetadata):
		return http.StatusUnprocessableEntity
	case errors.Is(err, failure.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the reason of a failed transfer. Internal error text is logged, not returned.
func respondError(c echo.Context, err error) error {
	status := statusFor(err)
	reason := failure.Reason(err)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", c.Path(), "err", err)
	}

	c.Response().Header().Set(presentation.ReasonTag, reason)

	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}

	return c.JSON(status, dto.ErrorDescriptor{Kind: failure.Kind(err), Reason: reason})
}
