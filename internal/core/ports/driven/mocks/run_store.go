package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// MockRunStore is an in-memory RunStore for testing
type MockRunStore struct {
	mu        sync.RWMutex
	runs      map[string]*domain.Run
	items     map[string]*domain.RunItem
	itemOrder map[string][]string // runID -> item IDs in creation order
	runOrder  []string
}

// NewMockRunStore creates a new MockRunStore
func NewMockRunStore() *MockRunStore {
	return &MockRunStore{
		runs:      make(map[string]*domain.Run),
		items:     make(map[string]*domain.RunItem),
		itemOrder: make(map[string][]string),
	}
}

func (m *MockRunStore) SaveRun(ctx context.Context, run *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; !exists {
		m.runOrder = append(m.runOrder, run.ID)
	}
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *MockRunStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *run
	return &copied, nil
}

func (m *MockRunStore) ListRunsByProject(ctx context.Context, projectID string) ([]*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var runs []*domain.Run
	for i := len(m.runOrder) - 1; i >= 0; i-- {
		if run := m.runs[m.runOrder[i]]; run.ProjectID == projectID {
			copied := *run
			runs = append(runs, &copied)
		}
	}
	return runs, nil
}

func (m *MockRunStore) SaveItems(ctx context.Context, items []*domain.RunItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		if _, exists := m.items[item.ID]; !exists {
			m.itemOrder[item.RunID] = append(m.itemOrder[item.RunID], item.ID)
		}
		copied := *item
		m.items[item.ID] = &copied
	}
	return nil
}

func (m *MockRunStore) UpdateItem(ctx context.Context, item *domain.RunItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return domain.ErrNotFound
	}
	copied := *item
	m.items[item.ID] = &copied
	return nil
}

func (m *MockRunStore) GetItems(ctx context.Context, runID string) ([]*domain.RunItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []*domain.RunItem
	for _, id := range m.itemOrder[runID] {
		copied := *m.items[id]
		items = append(items, &copied)
	}
	return items, nil
}

func (m *MockRunStore) NextPending(ctx context.Context, runID string) (*domain.RunItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.itemOrder[runID] {
		if item := m.items[id]; item.State == domain.RunItemStatePending {
			copied := *item
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRunStore) CountPending(ctx context.Context, runID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, id := range m.itemOrder[runID] {
		if m.items[id].State == domain.RunItemStatePending {
			count++
		}
	}
	return count, nil
}
