// Package secrets holds the credential store the repository service reads
// its API token from.
package secrets

import (
	"errors"
	"fmt"
	"strings"
)

// KeyAPIKey is the entry holding the GitHub API token.
const KeyAPIKey = "github_api_key"

var (
	// ErrNotFound is returned by Retrieve when the key has no value.
	ErrNotFound = errors.New("secrets: not found")

	// ErrReadOnly is returned by stores that cannot be written to.
	ErrReadOnly = errors.New("secrets: store is read-only")
)

// Store is a small key/value store for secrets.
type Store interface {
	Save(key, value string) error
	Retrieve(key string) (string, error)
	Delete(key string) error
}

// OperationError wraps a backend failure.
type OperationError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Backend names accepted by Open.
const (
	BackendKeyring = "keyring"
	BackendBolt    = "bolt"
	BackendEnv     = "env"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the bbolt database file for BackendBolt.
	Path string
	// Token is the value served by BackendEnv.
	Token string
}

// Open returns the configured store. Stores backed by a file also
// implement io.Closer.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendKeyring:
		return NewKeyringStore(keyringService), nil
	case BackendBolt:
		if opts.Path == "" {
			return nil, errors.New("secrets: bolt backend needs a file path")
		}
		return OpenBolt(opts.Path)
	case BackendEnv:
		return NewEnvStore(opts.Token), nil
	}
	return nil, fmt.Errorf("secrets: unknown backend %q", opts.Backend)
}
