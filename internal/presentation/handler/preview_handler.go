package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cipherdrop/internal/presentation"
)

// PreviewStore serves and releases the bytes behind a preview URL or bare id.
type PreviewStore interface {
	Open(url string) ([]byte, string, bool)
	Revoke(url string)
}

type PreviewHandler struct {
	previews PreviewStore
}

func NewPreviewHandler(previews PreviewStore) *PreviewHandler {
	return &PreviewHandler{
		previews: previews,
	}
}

// HandlePreview handles GET /previews/:id requests.
func (h *PreviewHandler) HandlePreview(c echo.Context) error {
	data, mimeType, ok := h.previews.Open(c.Param(presentation.IDParam))
	if !ok {
		c.Response().Header().Set(presentation.ReasonTag, "preview not found")

		return c.NoContent(http.StatusNotFound)
	}

	c.Response().Header().Set("Cache-Control", "no-store")

	return c.Blob(http.StatusOK, mimeType, data)
}

// HandleRevoke handles DELETE /previews/:id requests. Unknown ids are not an error.
func (h *PreviewHandler) HandleRevoke(c echo.Context) error {
	h.previews.Revoke(c.Param(presentation.IDParam))

	return c.NoContent(http.StatusNoContent)
}
