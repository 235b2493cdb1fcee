// Package session persists the CLI's login state (bearer token and the
// account it belongs to) in the local SQLite database.
package session

import "context"

// Key names a stored session value.
type Key string

const (
	KeyToken     Key = "token"
	KeyUserEmail Key = "user_email"
	KeyServerURL Key = "server_url"
)

// Repository is a small key/value store. Get reports ok=false for keys that
// were never set.
type Repository interface {
	Get(ctx context.Context, key Key) (value string, ok bool, err error)
	Set(ctx context.Context, key Key, value string) error
	Delete(ctx context.Context, keys ...Key) error
	All(ctx context.Context) (map[Key]string, error)
}
