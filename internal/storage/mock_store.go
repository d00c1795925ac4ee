package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/telemetryhub/relay/internal/domain"
)

// MockStore is a hand-written, in-memory implementation of Store used in
// unit tests. No mock-generation library needed.
type MockStore struct {
	mu      sync.Mutex
	records map[string][]byte

	// QuotaBytes caps the size of any single write; writes over the cap
	// fail with domain.ErrQuotaExceeded. Zero disables the quota.
	QuotaBytes int

	// Optional error overrides — set in tests to simulate failure paths.
	ReadErr   error
	WriteErr  error
	DeleteErr error

	// WriteCalls counts every Write attempt, including failed ones.
	WriteCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{records: make(map[string][]byte)}
}

func (m *MockStore) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	blob, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	clone := make([]byte, len(blob))
	copy(clone, blob)
	return clone, nil
}

func (m *MockStore) Write(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteCalls++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if m.QuotaBytes > 0 && len(blob) > m.QuotaBytes {
		return fmt.Errorf("mock quota: %w", domain.ErrQuotaExceeded)
	}
	clone := make([]byte, len(blob))
	copy(clone, blob)
	m.records[key] = clone
	return nil
}

func (m *MockStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.records, key)
	return nil
}

// Get returns the stored blob and whether the key exists, for assertions.
func (m *MockStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.records[key]
	return blob, ok
}

// Put seeds a record directly, bypassing quota and error overrides.
func (m *MockStore) Put(key string, blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = blob
}

var _ Store = (*MockStore)(nil)
