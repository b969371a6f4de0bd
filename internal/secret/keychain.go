package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

const keychainService = "datafill"

// ErrNoKeychain is returned by KeychainStore.Set off macOS.
var ErrNoKeychain = errors.New("keychain is only available on macOS")

// KeychainStore implements SecretStore using the macOS Keychain via the
// `security` CLI tool. On other systems reads find nothing.
type KeychainStore struct{}

// NewKeychainStore creates a new KeychainStore.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{}
}

func (k *KeychainStore) available() bool { return runtime.GOOS == "darwin" }

// Set stores a secret, replacing any existing entry.
func (k *KeychainStore) Set(key string, value []byte) error {
	if !k.available() {
		return ErrNoKeychain
	}
	cmd := exec.Command("security", "add-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w", string(value),
		"-U",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("keychain set: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Get retrieves a secret. A missing item yields nil, nil.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	if !k.available() {
		return nil, nil
	}
	out, err := exec.Command("security", "find-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w",
	).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 44 {
			return nil, nil
		}
		return nil, fmt.Errorf("keychain get: %w", err)
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

// Delete removes a secret. Missing items are not an error.
func (k *KeychainStore) Delete(key string) error {
	if !k.available() {
		return nil
	}
	_ = exec.Command("security", "delete-generic-password", "-a", key, "-s", keychainService).Run()
	return nil
}
