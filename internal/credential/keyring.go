package credential

import (
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"
)

const serviceName = "projectboard"

// Fixed keys under which the token pair is persisted.
const (
	accessTokenKey  = "access-token"
	refreshTokenKey = "refresh-token"
)

// Store persists the session token pair across process restarts.
// Absent tokens read back as empty strings, never as an error.
type Store interface {
	// Save overwrites both tokens. Callers never observe a state with
	// one token from the new pair and one from the old.
	Save(access, refresh string) error

	// SaveAccess replaces only the access token, keeping the stored
	// refresh token. Used after a successful token refresh.
	SaveAccess(access string) error

	// Read returns the stored pair; missing values are empty strings.
	Read() (access, refresh string, err error)

	// Clear removes both tokens. Clearing an empty store is a no-op.
	Clear() error
}

// KeyringStore keeps the token pair in the system keyring, falling
// back to an encrypted file backend where no native keyring exists.
type KeyringStore struct {
	mu   sync.Mutex
	open func() (keyring.Keyring, error)
}

// NewKeyringStore returns a Store backed by the system keyring.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{open: openKeyring}
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/projectboard/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("projectboard-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Save stores both tokens. The refresh token is written first so that
// a failure between the two writes leaves a pair that fails toward a
// refresh on next use rather than toward a stale access token.
func (s *KeyringStore) Save(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, err := s.open()
	if err != nil {
		return err
	}

	if err := ring.Set(keyring.Item{Key: refreshTokenKey, Data: []byte(refresh)}); err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	if err := ring.Set(keyring.Item{Key: accessTokenKey, Data: []byte(access)}); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}
	return nil
}

// SaveAccess replaces only the access token.
func (s *KeyringStore) SaveAccess(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, err := s.open()
	if err != nil {
		return err
	}

	if err := ring.Set(keyring.Item{Key: accessTokenKey, Data: []byte(access)}); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}
	return nil
}

// Read returns the stored token pair. A missing key yields an empty
// string for that token.
func (s *KeyringStore) Read() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, err := s.open()
	if err != nil {
		return "", "", err
	}

	access, err := getOrEmpty(ring, accessTokenKey)
	if err != nil {
		return "", "", err
	}
	refresh, err := getOrEmpty(ring, refreshTokenKey)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Clear removes both tokens. Missing keys are ignored.
func (s *KeyringStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, err := s.open()
	if err != nil {
		return err
	}

	for _, key := range []string{accessTokenKey, refreshTokenKey} {
		if err := ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("deleting credential %q: %w", key, err)
		}
	}
	return nil
}

// getOrEmpty reads a single key, mapping "not found" to empty.
func getOrEmpty(ring keyring.Keyring, key string) (string, error) {
	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}
