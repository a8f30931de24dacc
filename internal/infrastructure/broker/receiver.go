package broker

import (
	"context"
	"errors"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/repository/broker"
)

type Receiver struct {
	client   *Client
	consumer string
}

func NewReceiver(client *Client) *Receiver {
	return &Receiver{
		client:   client,
		consumer: "consumer-" + uuid.NewString(),
	}
}

func (r *Receiver) Messages(ctx context.Context, recipient string) (<-chan broker.Message, error) {
	if r.client == nil || r.client.redis == nil {
		logger.Error("redis client is nil in receiver")

		return nil, errors.New("redis not initialized")
	}
	if recipient == "" {
		return nil, errors.Join(failure.ErrValidation, errors.New("recipient is required"))
	}

	stream := r.client.streamFor(recipient)
	if err := r.client.ensureGroup(ctx, stream); err != nil {
		return nil, errors.Join(failure.ErrNetwork, err)
	}

	out := make(chan broker.Message)
	go r.consumeLoop(ctx, out, stream)

	return out, nil
}

func (r *Receiver) consumeLoop(ctx context.Context, out chan broker.Message, stream string) {
	defer close(out)

	lastClaim := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("message receiving context cancelled", "stream", stream)

			return
		default:
		}

		if time.Since(lastClaim) >= r.client.redeliver {
			r.reclaim(ctx, out, stream)
			lastClaim = time.Now()
		}
		r.readAndEmit(ctx, out, stream)
	}
}

func (r *Receiver) readAndEmit(ctx context.Context, out chan broker.Message, stream string) {
	entries, err := r.client.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.client.group,
		Consumer: r.consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    r.client.block,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.Error("failed to read from redis stream group", "stream", stream, "err", err)
			sleep(ctx, time.Second)
		}

		return
	}

	for _, s := range entries {
		r.emit(ctx, out, stream, s.Messages)
	}
}

// reclaim hands pending entries that nobody acknowledged back to this consumer.
func (r *Receiver) reclaim(ctx context.Context, out chan broker.Message, stream string) {
	msgs, _, err := r.client.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    r.client.group,
		Consumer: r.consumer,
		MinIdle:  r.client.redeliver,
		Start:    "0-0",
		Count:    16,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.Warn("failed to reclaim pending messages", "stream", stream, "err", err)
		}

		return
	}

	r.emit(ctx, out, stream, msgs)
}

func (r *Receiver) emit(ctx context.Context, out chan broker.Message, stream string, msgs []redis.XMessage) {
	for _, msg := range msgs {
		body, ok := msg.Values["body"].(string)
		if !ok {
			logger.Error("invalid body type in redis message", "id", msg.ID)
			_ = r.client.redis.XAck(ctx, stream, r.client.group, msg.ID).Err()

			continue
		}

		m := &RedisMessage{
			stream:      stream,
			group:       r.client.group,
			id:          msg.ID,
			body:        []byte(body),
			redisClient: r.client.redis,
		}
		select {
		case out <- m:
		case <-ctx.Done():
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
