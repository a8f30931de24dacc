package broker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"cipherdrop/internal/domain/failure"
)

type Publisher struct {
	client  *Client
	timeout time.Duration
}

func NewPublisher(client *Client, cfg PublisherConfig) *Publisher {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Publisher{client: client, timeout: timeout}
}

func (p *Publisher) Publish(ctx context.Context, recipient string, payload []byte) error {
	if recipient == "" {
		return errors.Join(failure.ErrValidation, errors.New("recipient is required"))
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.client.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.client.streamFor(recipient),
		Values: map[string]any{"body": string(payload)},
	}).Err()
	if err != nil {
		return errors.Join(failure.ErrNetwork, err)
	}

	return nil
}
