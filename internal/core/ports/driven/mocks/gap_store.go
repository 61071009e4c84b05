package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// MockGapStore is an in-memory GapStore for testing. Project scoping is
// resolved through registered run item / document relationships.
type MockGapStore struct {
	mu        sync.RWMutex
	results   []*domain.GapResult
	summaries []*domain.SummaryResult

	// itemDocs maps run item ID -> document ID (set by tests or the run
	// service via RegisterItem)
	itemDocs map[string]string

	// docProjects maps document ID -> project ID
	docProjects map[string]string
}

// NewMockGapStore creates a new MockGapStore
func NewMockGapStore() *MockGapStore {
	return &MockGapStore{
		itemDocs:    make(map[string]string),
		docProjects: make(map[string]string),
	}
}

// RegisterItem links a run item to its document and project so that
// document- and project-scoped listings work.
func (m *MockGapStore) RegisterItem(runItemID, documentID, projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.itemDocs[runItemID] = documentID
	m.docProjects[documentID] = projectID
}

func (m *MockGapStore) SaveResult(ctx context.Context, result *domain.GapResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *result
	m.results = append(m.results, &copied)
	return nil
}

func (m *MockGapStore) ListByDocument(ctx context.Context, documentID string) ([]*domain.GapResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.GapResult
	for _, r := range m.results {
		if m.itemDocs[r.RunItemID] == documentID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockGapStore) ListByProject(ctx context.Context, projectID string) ([]*domain.GapResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.GapResult
	for _, r := range m.results {
		doc := m.itemDocs[r.RunItemID]
		if m.docProjects[doc] == projectID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockGapStore) SaveSummary(ctx context.Context, summary *domain.SummaryResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *summary
	m.summaries = append(m.summaries, &copied)
	return nil
}

func (m *MockGapStore) ListSummariesByProject(ctx context.Context, projectID string) ([]*domain.SummaryResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.SummaryResult
	for _, s := range m.summaries {
		if m.docProjects[s.DocumentID] == projectID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}
