package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cipherdrop/internal/presentation"
)

// AuthMiddleware admits requests carrying the agent token as a bearer credential.
// An empty token disables the check.
func AuthMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if token == "" {
				return next(ctx)
			}

			if err := validateAuthHeader(ctx.Request().Header.Get(presentation.AuthKey), token); err != nil {
				ctx.Response().Header().Set(presentation.ReasonTag, err.Error())

				return ctx.String(http.StatusUnauthorized, err.Error())
			}

			return next(ctx)
		}
	}
}

func validateAuthHeader(authHeader, token string) error {
	if authHeader == "" {
		return errors.New("missing Authorization header")
	}
	if !strings.HasPrefix(authHeader, presentation.BearerPrefix) {
		return errors.New("missing Bearer header prefix")
	}

	given := strings.TrimPrefix(authHeader, presentation.BearerPrefix)
	if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
		return errors.New("invalid agent token")
	}

	return nil
}
