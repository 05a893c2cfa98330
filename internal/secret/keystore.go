package secret

import (
	"crypto/rand"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/99designs/keyring"
)

const (
	serviceName  = "quern"
	masterKeyKey = "master-encryption-key"
)

// Keystore holds the AES-256 master key used to seal connection passwords.
// The key lives in the OS keyring when one is available and falls back to an
// encrypted file under the config directory otherwise.
type Keystore struct {
	ring          keyring.Keyring
	usingFallback bool
}

// NewKeystore opens the keyring with platform-appropriate backends.
func NewKeystore(configDir string) (*Keystore, error) {
	backends := getBackendsForPlatform()
	fileDir := filepath.Join(configDir, "keyring")

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backends,
		FileDir:         fileDir,
		FilePasswordFunc: func(_ string) (string, error) {
			return deriveFilePassword()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	return &Keystore{
		ring:          ring,
		usingFallback: isUsingFallback(backends),
	}, nil
}

// getBackendsForPlatform returns the backend priority for the current OS.
func getBackendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.FileBackend,
		}
	case "linux":
		return []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	case "windows":
		return []keyring.BackendType{
			keyring.WinCredBackend,
			keyring.FileBackend,
		}
	default:
		return []keyring.BackendType{
			keyring.FileBackend,
		}
	}
}

// isUsingFallback checks whether only the file backend is available.
func isUsingFallback(requestedBackends []keyring.BackendType) bool {
	if len(requestedBackends) == 1 && requestedBackends[0] == keyring.FileBackend {
		return true
	}
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			return false
		}
	}
	return true
}

// IsUsingFallback returns true if the master key is stored in the file
// backend instead of the native OS keyring.
func (ks *Keystore) IsUsingFallback() bool {
	return ks.usingFallback
}

// MasterKey returns the 32-byte master key, generating and persisting a new
// one on first use. The same key is returned for the life of the install, so
// passwords sealed in earlier sessions stay readable.
func (ks *Keystore) MasterKey() ([]byte, error) {
	item, err := ks.ring.Get(masterKeyKey)
	if err == nil {
		if len(item.Data) != KeySize {
			return nil, fmt.Errorf("stored master key has invalid length %d", len(item.Data))
		}
		return item.Data, nil
	}
	if !errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to read master key: %w", err)
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	err = ks.ring.Set(keyring.Item{
		Key:         masterKeyKey,
		Data:        key,
		Label:       "quern: master encryption key",
		Description: "AES-256 key protecting saved connection passwords",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist master key: %w", err)
	}
	return key, nil
}

// DeleteMasterKey removes the master key from the keyring. Passwords sealed
// under it become unreadable.
func (ks *Keystore) DeleteMasterKey() error {
	err := ks.ring.Remove(masterKeyKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete master key: %w", err)
	}
	return nil
}
