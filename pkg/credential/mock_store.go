package credential

import "sync"

// MockStore implements Store for testing purposes
type MockStore struct {
	cred *UserCredential
	mu   sync.RWMutex

	// Error injection for testing
	LoadError   error
	SaveError   error
	DeleteError error

	// Saves counts successful Save calls
	Saves int
}

// NewMockStore creates a mock store, optionally preloaded with cred
func NewMockStore(cred *UserCredential) *MockStore {
	m := &MockStore{}
	if cred != nil {
		c := *cred
		m.cred = &c
	}
	return m
}

// Load returns a copy of the held credential
func (m *MockStore) Load() (*UserCredential, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cred == nil {
		return nil, ErrCredentialsNotFound
	}
	c := *m.cred
	return &c, nil
}

// Save keeps a copy of cred
func (m *MockStore) Save(cred *UserCredential) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	if err := cred.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *cred
	m.cred = &c
	m.Saves++
	return nil
}

// Delete forgets the held credential
func (m *MockStore) Delete() error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred == nil {
		return ErrCredentialsNotFound
	}
	m.cred = nil
	return nil
}

// Exists reports whether a credential is held
func (m *MockStore) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred != nil
}
