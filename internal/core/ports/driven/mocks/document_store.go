package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// MockDocumentStore is an in-memory DocumentStore for testing
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
	projects  map[string]*domain.Project
	order     []string // document insertion order
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
		projects:  make(map[string]*domain.Project),
	}
}

func (m *MockDocumentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.documents[doc.ID]; !exists {
		m.order = append(m.order, doc.ID)
	}
	m.documents[doc.ID] = doc
	return nil
}

func (m *MockDocumentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *MockDocumentStore) ListByProject(ctx context.Context, projectID string) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*domain.Document
	for _, id := range m.order {
		if doc := m.documents[id]; doc.ProjectID == projectID {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockDocumentStore) SaveProject(ctx context.Context, project *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
	return nil
}

func (m *MockDocumentStore) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return project, nil
}

// MockTextSource is an in-memory TextSource for testing
type MockTextSource struct {
	mu    sync.RWMutex
	texts map[string]string

	// Err, when set, is returned by every GetLatestText call
	Err error
}

// NewMockTextSource creates a new MockTextSource
func NewMockTextSource() *MockTextSource {
	return &MockTextSource{texts: make(map[string]string)}
}

// SetText registers the extracted text for a document
func (m *MockTextSource) SetText(documentID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[documentID] = text
}

func (m *MockTextSource) GetLatestText(ctx context.Context, documentID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.texts[documentID], nil
}

// MockPassageStore is an in-memory PassageStore for testing
type MockPassageStore struct {
	mu         sync.RWMutex
	byDocument map[string][]*domain.Passage
}

// NewMockPassageStore creates a new MockPassageStore
func NewMockPassageStore() *MockPassageStore {
	return &MockPassageStore{byDocument: make(map[string][]*domain.Passage)}
}

func (m *MockPassageStore) SaveBatch(ctx context.Context, passages []*domain.Passage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range passages {
		m.byDocument[p.DocumentID] = append(m.byDocument[p.DocumentID], p)
	}
	for docID := range m.byDocument {
		sort.SliceStable(m.byDocument[docID], func(i, j int) bool {
			return m.byDocument[docID][i].Position < m.byDocument[docID][j].Position
		})
	}
	return nil
}

func (m *MockPassageStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Passage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.Passage(nil), m.byDocument[documentID]...), nil
}

func (m *MockPassageStore) GetTopOrdered(ctx context.Context, documentID string, k int) ([]*domain.Passage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	passages := m.byDocument[documentID]
	if k > 0 && len(passages) > k {
		passages = passages[:k]
	}
	return append([]*domain.Passage(nil), passages...), nil
}

func (m *MockPassageStore) List(ctx context.Context, documentIDs []string) ([]*domain.Passage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := documentIDs
	if len(ids) == 0 {
		for id := range m.byDocument {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	var all []*domain.Passage
	for _, id := range ids {
		all = append(all, m.byDocument[id]...)
	}
	return all, nil
}

func (m *MockPassageStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byDocument, documentID)
	return nil
}
