package broker

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultBlock     = 5 * time.Second
	defaultRedeliver = 30 * time.Second
)

type Client struct {
	redis     *redis.Client
	stream    string
	group     string
	block     time.Duration
	redeliver time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	opt, err := redis.ParseURL(cfg.URI)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, err
	}

	c := &Client{
		redis:     rdb,
		stream:    cfg.StreamName,
		group:     cfg.GroupName,
		block:     time.Duration(cfg.BlockMS) * time.Millisecond,
		redeliver: time.Duration(cfg.RedeliverAfterMS) * time.Millisecond,
	}
	if c.stream == "" {
		c.stream = "cipherdrop:notices"
	}
	if c.group == "" {
		c.group = "cipherdrop"
	}
	if c.block <= 0 {
		c.block = defaultBlock
	}
	if c.redeliver <= 0 {
		c.redeliver = defaultRedeliver
	}

	return c, nil
}

func (c *Client) Close() error {
	return c.redis.Close()
}

// streamFor keeps every recipient on its own stream so a consumer group never sees foreign notices.
func (c *Client) streamFor(recipient string) string {
	return c.stream + ":" + recipient
}

func (c *Client) ensureGroup(ctx context.Context, stream string) error {
	err := c.redis.XGroupCreateMkStream(ctx, stream, c.group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}

	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
