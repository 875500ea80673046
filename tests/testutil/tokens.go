package testutil

import "sync"

// MemoryTokenStore is an in-memory credential.Store for tests, so the
// suite never touches the real system keyring.
type MemoryTokenStore struct {
	mu      sync.Mutex
	access  string
	refresh string

	// SaveErr, when set, is returned from the next Save call.
	SaveErr error
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Seed installs a token pair without going through Save.
func (s *MemoryTokenStore) Seed(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
}

func (s *MemoryTokenStore) Save(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		err := s.SaveErr
		s.SaveErr = nil
		return err
	}
	s.access = access
	s.refresh = refresh
	return nil
}

func (s *MemoryTokenStore) SaveAccess(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	return nil
}

func (s *MemoryTokenStore) Read() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, s.refresh, nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	return nil
}
