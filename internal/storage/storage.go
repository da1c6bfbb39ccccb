package storage

import "context"

// Storage persists uploaded media and returns a URL the public site can
// serve the object from.
type Storage interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
