package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cipherdrop/internal/application/usecase/abstraction"
	"cipherdrop/internal/presentation"
)

type GetHandler struct {
	getter abstraction.Getter
}

func NewGetHandler(getter abstraction.Getter) *GetHandler {
	return &GetHandler{
		getter: getter,
	}
}

// HandleGet handles GET /transfers/:id requests.
func (h *GetHandler) HandleGet(c echo.Context) error {
	id := c.Param(presentation.IDParam)
	if id == "" {
		c.Response().Header().Set(presentation.ReasonTag, "missing record id")

		return c.NoContent(http.StatusBadRequest)
	}

	meta, err := h.getter.GetTransfer(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, meta)
}
