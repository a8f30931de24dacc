package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cipherdrop/internal/application/usecase/abstraction"
	"cipherdrop/internal/presentation"
)

type DeleteHandler struct {
	deleter abstraction.Deleter
}

func NewDeleteHandler(deleter abstraction.Deleter) *DeleteHandler {
	return &DeleteHandler{
		deleter: deleter,
	}
}

// HandleDelete handles DELETE /transfers/:id requests.
func (h *DeleteHandler) HandleDelete(c echo.Context) error {
	id := c.Param(presentation.IDParam)
	if id == "" {
		c.Response().Header().Set(presentation.ReasonTag, "missing record id")

		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.deleter.DeleteTransfer(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
