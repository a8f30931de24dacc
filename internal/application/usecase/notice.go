package usecase

import (
	"encoding/json"
	"fmt"

	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/model"
)

func encodeNotice(meta model.EncryptedMediaMetadata) ([]byte, error) {
	return json.Marshal(model.TransferNotice{
		RecordID:     meta.ID,
		Conversation: meta.Conversation,
		Recipient:    meta.Recipient,
		ExpiresAt:    meta.ExpiresAt,
	})
}

func decodeNotice(body []byte) (model.TransferNotice, error) {
	var n model.TransferNotice
	if err := json.Unmarshal(body, &n); err != nil {
		return n, fmt.Errorf("decode notice: %v: %w", err, failure.ErrValidation)
	}

	if n.RecordID == "" {
		return n, fmt.Errorf("notice without record id: %w", failure.ErrValidation)
	}

	return n, nil
}
