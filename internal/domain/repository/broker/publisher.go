package broker

import "context"

// Publisher routes payload to the stream of a single recipient.
type Publisher interface {
	Publish(ctx context.Context, recipient string, payload []byte) error
}
