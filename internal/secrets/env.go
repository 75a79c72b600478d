package secrets

// EnvStore serves a token taken from the environment. It cannot be written.
type EnvStore struct {
	token string
}

// NewEnvStore creates a store that answers KeyAPIKey with token.
func NewEnvStore(token string) *EnvStore {
	return &EnvStore{token: token}
}

func (s *EnvStore) Save(string, string) error { return ErrReadOnly }

func (s *EnvStore) Delete(string) error { return ErrReadOnly }

// Retrieve returns the token for KeyAPIKey when one was configured.
func (s *EnvStore) Retrieve(key string) (string, error) {
	if key != KeyAPIKey || s.token == "" {
		return "", ErrNotFound
	}
	return s.token, nil
}
