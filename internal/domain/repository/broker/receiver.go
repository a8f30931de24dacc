package broker

import "context"

// Receiver delivers the messages routed to recipient until ctx is done.
type Receiver interface {
	Messages(ctx context.Context, recipient string) (<-chan Message, error)
}
