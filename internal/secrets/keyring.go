package secrets

import (
	"context"
	"errors"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used for keyring entries
	keyringService = "gh-orgstars"

	// keyringTimeout bounds each keyring call; some desktop keyrings block
	// on an unlock prompt.
	keyringTimeout = 5 * time.Second
)

// KeyringStore keeps secrets in the operating system keychain.
type KeyringStore struct {
	service string
	timeout time.Duration
}

// NewKeyringStore creates a store using the given keychain service name.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service, timeout: keyringTimeout}
}

// Save stores value under key, replacing any previous value.
func (s *KeyringStore) Save(key, value string) error {
	_, err := s.do("set", func() (string, error) {
		return "", keyring.Set(s.service, key, value)
	})
	return err
}

// Retrieve returns the value stored under key.
func (s *KeyringStore) Retrieve(key string) (string, error) {
	return s.do("get", func() (string, error) {
		return keyring.Get(s.service, key)
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KeyringStore) Delete(key string) error {
	_, err := s.do("delete", func() (string, error) {
		return "", keyring.Delete(s.service, key)
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (s *KeyringStore) do(op string, fn func() (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		value, err := fn()
		resultCh <- result{value: value, err: err}
	}()

	select {
	case r := <-resultCh:
		if errors.Is(r.err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		if r.err != nil {
			return "", &OperationError{Backend: "keyring", Operation: op, Err: r.err}
		}
		return r.value, nil
	case <-ctx.Done():
		return "", &OperationError{Backend: "keyring", Operation: op, Err: ctx.Err()}
	}
}
