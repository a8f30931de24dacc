package abstraction

import "context"

// Deleter defines the interface for retracting a transfer.
type Deleter interface {
	DeleteTransfer(ctx context.Context, recordID string) error
}
