package handler

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"cipherdrop/internal/application/usecase"
	"cipherdrop/internal/application/usecase/abstraction"
	"cipherdrop/internal/domain/dto"
	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/presentation"
)

// RecipientKeys resolves a contact name to the public key its content keys are wrapped for.
type RecipientKeys interface {
	RecipientKey(name string) (*rsa.PublicKey, error)
}

type UploadHandler struct {
	sender   abstraction.Sender
	contacts RecipientKeys
}

func NewUploadHandler(sender abstraction.Sender, contacts RecipientKeys) *UploadHandler {
	return &UploadHandler{
		sender:   sender,
		contacts: contacts,
	}
}

// HandleUpload handles POST /transfers requests. The body is the raw file.
func (h *UploadHandler) HandleUpload(c echo.Context) error {
	req := c.Request()
	recipient := req.Header.Get(presentation.RecipientKey)
	if recipient == "" {
		return respondError(c, fmt.Errorf("missing %s header: %w", presentation.RecipientKey, failure.ErrValidation))
	}

	key, err := h.contacts.RecipientKey(recipient)
	if err != nil {
		if errors.Is(err, failure.ErrNotFound) {
			err = fmt.Errorf("unknown recipient %q: %w", recipient, failure.ErrValidation)
		}

		return respondError(c, err)
	}

	result, err := h.sender.Upload(req.Context(), usecase.UploadRequest{
		Conversation: req.Header.Get(presentation.ConversationKey),
		Recipient:    recipient,
		RecipientKey: key,
		FileName:     req.Header.Get(presentation.FileNameKey),
		MimeType:     req.Header.Get(presentation.TypeKey),
		Size:         req.ContentLength,
		Body:         req.Body,
	})
	if err != nil {
		return respondError(c, err)
	}

	meta := result.Metadata

	return c.JSON(http.StatusCreated, dto.TransferDescriptor{
		RecordID:     result.RecordID,
		StoragePath:  meta.StoragePath,
		MimeType:     meta.MimeType,
		FileName:     meta.FileName,
		Size:         meta.FileSize,
		ExpiresAt:    meta.ExpiresAt.Unix(),
		PreviewURL:   result.PreviewURL,
		PaymentToken: result.PaymentToken,
		Trace:        traceStrings(result.Trace),
	})
}

func traceStrings(trace []usecase.State) []string {
	out := make([]string, len(trace))
	for i, s := range trace {
		out[i] = string(s)
	}

	return out
}
