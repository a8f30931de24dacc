package paymentgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"cipherdrop/internal/domain/failure"
)

// AuthorizeMethod is the full gRPC method name served by the payment service.
const AuthorizeMethod = "/cipherdrop.payment.v1.PaymentGate/AuthorizeLargeFile"

// Client talks to a remote payment service. Requests and replies are
// google.protobuf.Struct values, so no generated stubs are needed.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

func New(endpoint string, cfg Config, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{conn: conn, timeout: timeout}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) AuthorizeLargeFile(ctx context.Context, size int64, conversation string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{
		"size":         float64(size),
		"conversation": conversation,
	})
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, AuthorizeMethod, req, resp); err != nil {
		logger.Warn("payment gate call failed", "size", size, "err", err)

		return "", translate(err)
	}

	fields := resp.GetFields()
	if !fields["authorized"].GetBoolValue() {
		reason := fields["reason"].GetStringValue()
		if reason == "" {
			reason = "denied"
		}

		return "", fmt.Errorf("payment gate: %s: %w", reason, failure.ErrPayment)
	}

	token := fields["token"].GetStringValue()
	if token == "" {
		return "", fmt.Errorf("payment gate returned no token: %w", failure.ErrPayment)
	}

	return token, nil
}

func translate(err error) error {
	return fmt.Errorf("payment gate %s: %w", status.Code(err), errors.Join(failure.ErrPayment, err))
}
