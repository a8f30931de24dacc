package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"cipherdrop/internal/presentation"
)

const AgentToken = "s3cr3t-agent-token"

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		token           string
		header          string
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "Missing Authorization header",
			token:           AgentToken,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "missing Authorization header",
		},
		{
			name:            "Wrong prefix",
			token:           AgentToken,
			header:          "Nostr abc",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "missing Bearer header prefix",
		},
		{
			name:            "Wrong token",
			token:           AgentToken,
			header:          "Bearer nope",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "invalid agent token",
		},
		{
			name:            "Valid token",
			token:           AgentToken,
			header:          "Bearer " + AgentToken,
			expectedStatus:  http.StatusOK,
			expectedMessage: "ok",
		},
		{
			name:            "Check disabled",
			expectedStatus:  http.StatusOK,
			expectedMessage: "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.header != "" {
				req.Header.Set(presentation.AuthKey, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h := AuthMiddleware(tt.token)(func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})

			_ = h(c)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedMessage, rec.Body.String())
		})
	}
}
