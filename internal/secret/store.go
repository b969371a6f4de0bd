package secret

import (
	"os"
	"strings"
)

// SecretStore provides a pluggable interface for storing sensitive data
// such as database passwords.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// EnvStore reads secrets from environment variables named
// DATAFILL_SECRET_<KEY>, with the key upper-cased and every character
// outside [A-Z0-9] turned into an underscore. Set and Delete only affect
// the current process.
type EnvStore struct{}

// EnvName returns the variable consulted for key.
func EnvName(key string) string {
	var b strings.Builder
	b.WriteString("DATAFILL_SECRET_")
	for _, r := range strings.ToUpper(key) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(EnvName(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (EnvStore) Set(key string, value []byte) error { return os.Setenv(EnvName(key), string(value)) }

func (EnvStore) Delete(key string) error { return os.Unsetenv(EnvName(key)) }

// Chain reads from each store in turn and returns the first non-empty
// secret. Writes go to the first store.
type Chain []SecretStore

func (c Chain) Get(key string) ([]byte, error) {
	for _, s := range c {
		v, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if len(v) > 0 {
			return v, nil
		}
	}
	return nil, nil
}

func (c Chain) Set(key string, value []byte) error {
	if len(c) == 0 {
		return nil
	}
	return c[0].Set(key, value)
}

func (c Chain) Delete(key string) error {
	for _, s := range c {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
