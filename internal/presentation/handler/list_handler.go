package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cipherdrop/internal/application/usecase/abstraction"
	"cipherdrop/internal/domain/model"
	"cipherdrop/internal/presentation"
)

type ListHandler struct {
	lister abstraction.Lister
}

func NewListHandler(lister abstraction.Lister) *ListHandler {
	return &ListHandler{
		lister: lister,
	}
}

// HandleList handles GET /library requests, optionally filtered by ?conversation=.
func (h *ListHandler) HandleList(c echo.Context) error {
	records, err := h.lister.List(c.Request().Context(), c.QueryParam(presentation.ConversationQ))
	if err != nil {
		return respondError(c, err)
	}

	if records == nil {
		records = []model.EncryptedMediaMetadata{}
	}

	return c.JSON(http.StatusOK, records)
}
