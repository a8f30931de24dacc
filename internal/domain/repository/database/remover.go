package database

import "context"

type Remover interface {
	RemoveByID(ctx context.Context, recordID string) error
}
