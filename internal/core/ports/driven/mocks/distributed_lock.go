package mocks

import (
	"context"
	"sync"
	"time"
)

// MockDistributedLock is an in-memory DistributedLock for testing
type MockDistributedLock struct {
	mu     sync.Mutex
	held   map[string]bool
	AcqErr error

	// Acquired and Released record lock names in call order
	Acquired []string
	Released []string
}

// NewMockDistributedLock creates a new MockDistributedLock
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{held: make(map[string]bool)}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AcqErr != nil {
		return false, m.AcqErr
	}
	if m.held[name] {
		return false, nil
	}
	m.held[name] = true
	m.Acquired = append(m.Acquired, name)
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, name)
	m.Released = append(m.Released, name)
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	return nil
}

// Hold marks a lock as held by someone else, for contention tests
func (m *MockDistributedLock) Hold(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[name] = true
}

// Unhold clears a lock marked with Hold
func (m *MockDistributedLock) Unhold(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, name)
}
