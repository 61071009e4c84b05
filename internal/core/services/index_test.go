package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/lacuna-core/internal/runtime"
)

func newTestServices(t *testing.T) *runtime.Services {
	t.Helper()
	services := runtime.NewServices(domain.NewRuntimeConfig("postgres"))
	services.SetEmbeddingService(mocks.NewMockEmbeddingService())
	services.SetAnalysisService(mocks.NewMockAnalysisService())
	return services
}

func seedDocument(t *testing.T, store *mocks.MockDocumentStore, projectID, docID string) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:        docID,
		ProjectID: projectID,
		Title:     "Test Article",
		CreatedAt: time.Now(),
	}
	if err := store.SaveDocument(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

func TestIndexService_Index(t *testing.T) {
	ctx := context.Background()

	t.Run("stores one passage per chunk", func(t *testing.T) {
		docStore := mocks.NewMockDocumentStore()
		textSource := mocks.NewMockTextSource()
		passageStore := mocks.NewMockPassageStore()
		seedDocument(t, docStore, "proj-1", "doc-1")

		// Long enough to split into several windows
		textSource.SetText("doc-1", strings.Repeat("This sentence fills the passage window with plain prose. ", 80))

		svc := NewIndexService(docStore, textSource, passageStore, newTestServices(t), nil)
		count, err := svc.Index(ctx, "doc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count < 2 {
			t.Fatalf("expected multiple passages, got %d", count)
		}

		passages, err := passageStore.GetByDocument(ctx, "doc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(passages) != count {
			t.Errorf("expected %d stored passages, got %d", count, len(passages))
		}
		for i, p := range passages {
			if p.Position != i {
				t.Errorf("passage %d has position %d", i, p.Position)
			}
			if len(p.Embedding) == 0 {
				t.Errorf("passage %d has no embedding", i)
			}
		}

		doc, _ := docStore.GetDocument(ctx, "doc-1")
		if doc.IndexedAt.IsZero() {
			t.Error("expected indexed timestamp to be set")
		}
	})

	t.Run("empty text indexes to zero without error", func(t *testing.T) {
		docStore := mocks.NewMockDocumentStore()
		textSource := mocks.NewMockTextSource()
		passageStore := mocks.NewMockPassageStore()
		seedDocument(t, docStore, "proj-1", "doc-1")

		svc := NewIndexService(docStore, textSource, passageStore, newTestServices(t), nil)
		count, err := svc.Index(ctx, "doc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 0 {
			t.Errorf("expected 0 passages, got %d", count)
		}
	})

	t.Run("unembeddable chunks are skipped and do not count", func(t *testing.T) {
		docStore := mocks.NewMockDocumentStore()
		textSource := mocks.NewMockTextSource()
		passageStore := mocks.NewMockPassageStore()
		seedDocument(t, docStore, "proj-1", "doc-1")

		text := "A short document under one window."
		textSource.SetText("doc-1", text)

		embedding := mocks.NewMockEmbeddingService()
		embedding.Unembeddable[text] = true
		services := runtime.NewServices(domain.NewRuntimeConfig("postgres"))
		services.SetEmbeddingService(embedding)

		svc := NewIndexService(docStore, textSource, passageStore, services, nil)
		count, err := svc.Index(ctx, "doc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 0 {
			t.Errorf("expected 0 passages, got %d", count)
		}
	})

	t.Run("re-index replaces the passage set", func(t *testing.T) {
		docStore := mocks.NewMockDocumentStore()
		textSource := mocks.NewMockTextSource()
		passageStore := mocks.NewMockPassageStore()
		seedDocument(t, docStore, "proj-1", "doc-1")
		services := newTestServices(t)

		textSource.SetText("doc-1", strings.Repeat("First extraction of the article text. ", 60))
		svc := NewIndexService(docStore, textSource, passageStore, services, nil)
		if _, err := svc.Index(ctx, "doc-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		textSource.SetText("doc-1", "Second, much shorter extraction of the article.")
		count, err := svc.Index(ctx, "doc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		passages, _ := passageStore.GetByDocument(ctx, "doc-1")
		if len(passages) != count {
			t.Errorf("expected stale passages to be replaced, have %d want %d", len(passages), count)
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		svc := NewIndexService(mocks.NewMockDocumentStore(), mocks.NewMockTextSource(), mocks.NewMockPassageStore(), newTestServices(t), nil)
		if _, err := svc.Index(ctx, "missing"); err == nil {
			t.Error("expected error for unknown document")
		}
	})

	t.Run("no embedding service", func(t *testing.T) {
		docStore := mocks.NewMockDocumentStore()
		seedDocument(t, docStore, "proj-1", "doc-1")
		services := runtime.NewServices(domain.NewRuntimeConfig("postgres"))

		svc := NewIndexService(docStore, mocks.NewMockTextSource(), mocks.NewMockPassageStore(), services, nil)
		if _, err := svc.Index(ctx, "doc-1"); err != domain.ErrServiceUnavailable {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
