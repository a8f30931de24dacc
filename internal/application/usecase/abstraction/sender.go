package abstraction

import (
	"context"

	"cipherdrop/internal/application/usecase"
)

type Sender interface {
	Upload(ctx context.Context, req usecase.UploadRequest) (*usecase.UploadResult, error)
}
