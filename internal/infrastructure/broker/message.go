package broker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisMessage struct {
	stream      string
	group       string
	id          string
	body        []byte
	redisClient *redis.Client
}

func (m *RedisMessage) ID() string {
	return m.id
}

func (m *RedisMessage) Body() []byte {
	return m.body
}

func (m *RedisMessage) Ack() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.redisClient.XAck(ctx, m.stream, m.group, m.id).Err()
}

// Nack leaves the entry pending; the receiver claims it again once it has been idle long enough.
func (m *RedisMessage) Nack() error {
	return nil
}
