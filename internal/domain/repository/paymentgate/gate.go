package paymentgate

import "context"

// Gate authorizes files above the free-tier threshold. A denial is reported
// as an error wrapping failure.ErrPayment.
type Gate interface {
	AuthorizeLargeFile(ctx context.Context, size int64, conversation string) (string, error)
}
