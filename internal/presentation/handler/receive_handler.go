package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cipherdrop/internal/application/usecase/abstraction"
	"cipherdrop/internal/presentation"
)

type ReceiveHandler struct {
	receiver abstraction.Receiver
}

func NewReceiveHandler(receiver abstraction.Receiver) *ReceiveHandler {
	return &ReceiveHandler{
		receiver: receiver,
	}
}

// HandleReceive handles POST /transfers/:id/receive requests by downloading
// the record into the local inbox.
func (h *ReceiveHandler) HandleReceive(c echo.Context) error {
	id := c.Param(presentation.IDParam)
	if id == "" {
		c.Response().Header().Set(presentation.ReasonTag, "missing record id")

		return c.NoContent(http.StatusBadRequest)
	}

	path, err := h.receiver.Receive(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"record_id": id, "path": path})
}
