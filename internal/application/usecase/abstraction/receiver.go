package abstraction

import "context"

// Receiver downloads a transfer for the local identity and returns where it was written.
type Receiver interface {
	Receive(ctx context.Context, recordID string) (string, error)
}
