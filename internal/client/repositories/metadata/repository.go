// Package metadata is the local key/value table of the client. Session tokens
// are kept here when the SQLite token store is selected.
package metadata

import "context"

// Repository reads and writes string values by key. Get returns
// common.ErrorNotFound when the key is absent.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, keys ...string) error
}
