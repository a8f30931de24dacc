// Package failure defines the error taxonomy shared by both transfer pipelines.
// Callers wrap one of the sentinels with context and match with errors.Is.
package failure

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrKeyGeneration    = errors.New("key generation failed")
	ErrKeyFormat        = errors.New("malformed key")
	ErrKeyUnwrap        = errors.New("key unwrap failed")
	ErrIntegrity        = errors.New("integrity check failed")
	ErrNetwork          = errors.New("network failure")
	ErrPayment          = errors.New("payment not authorized")
	ErrNotFound         = errors.New("not found")
	ErrInvalidMetadata  = errors.New("invalid metadata")
	ErrTimeout          = errors.New("transfer timed out")
	ErrCanceled         = errors.New("transfer canceled")
	ErrMetadataPersist  = errors.New("metadata persistence failed")
	ErrInsecureProvider = errors.New("insecure crypto provider")

	// ErrTooLarge is the validation failure for input above the hard size cap.
	ErrTooLarge = fmt.Errorf("file too large: %w", ErrValidation)
)

// Retryable reports whether err is transient. Integrity failures are only
// retryable on the download side and are checked there explicitly.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrCanceled) {
		return false
	}

	return errors.Is(err, ErrNetwork)
}

type class struct {
	err    error
	kind   string
	reason string
}

var classes = []class{
	{ErrTimeout, "timeout", "The transfer took too long and was stopped."},
	{ErrCanceled, "canceled", "The transfer was canceled."},
	{ErrValidation, "validation", "The file cannot be sent as selected."},
	{ErrPayment, "payment", "Sending this file requires a payment that was not authorized."},
	{ErrKeyGeneration, "key_generation", "A secure key could not be generated."},
	{ErrKeyFormat, "key_format", "A key could not be read. Check the identity configuration."},
	{ErrKeyUnwrap, "key_unwrap", "This file was not encrypted for this identity."},
	{ErrIntegrity, "integrity", "The file failed its integrity check and may have been tampered with."},
	{ErrNotFound, "not_found", "The file does not exist or has expired."},
	{ErrInvalidMetadata, "invalid_metadata", "The file record is incomplete."},
	{ErrMetadataPersist, "metadata_persist", "The file was uploaded but its record could not be saved."},
	{ErrNetwork, "network", "A network error interrupted the transfer."},
	{ErrInsecureProvider, "insecure_provider", "No secure randomness source is configured."},
}

// Kind returns a short, stable label for err, suitable for metrics.
func Kind(err error) string {
	if err == nil {
		return "none"
	}

	if c, ok := classify(err); ok {
		return c.kind
	}

	return "internal"
}

// Reason returns the human-readable message shown for a fatal state.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	if c, ok := classify(err); ok {
		return c.reason
	}

	return "The transfer failed unexpectedly."
}

func classify(err error) (class, bool) {
	for _, c := range classes {
		if errors.Is(err, c.err) {
			return c, true
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return classes[0], true
	case errors.Is(err, context.Canceled):
		return classes[1], true
	}

	return class{}, false
}
