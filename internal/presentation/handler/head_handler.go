package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cipherdrop/internal/application/usecase/abstraction"
	"cipherdrop/internal/presentation"
)

type HeadHandler struct {
	getter abstraction.Getter
}

func NewHeadHandler(getter abstraction.Getter) *HeadHandler {
	return &HeadHandler{
		getter: getter,
	}
}

// HandleHead handles HEAD /transfers/:id requests.
func (h *HeadHandler) HandleHead(c echo.Context) error {
	id := c.Param(presentation.IDParam)
	if id == "" {
		c.Response().Header().Set(presentation.ReasonTag, "missing record id")

		return c.NoContent(http.StatusBadRequest)
	}

	meta, err := h.getter.GetTransfer(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set(presentation.TypeKey, meta.MimeType)
	c.Response().Header().Set(presentation.FileSizeKey, strconv.FormatInt(meta.FileSize, 10))

	return c.NoContent(http.StatusOK)
}
