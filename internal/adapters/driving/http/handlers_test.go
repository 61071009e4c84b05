package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/lacuna-core/internal/adapters/driven/auth"
	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven/mocks"
)

// Stub driving services

type stubIndexService struct {
	count int
	err   error
	calls []string
}

func (s *stubIndexService) Index(ctx context.Context, documentID string) (int, error) {
	s.calls = append(s.calls, documentID)
	return s.count, s.err
}

type stubSearchService struct {
	results []domain.ScoredPassage
	err     error

	lastQuery string
	lastScope []string
	lastTopK  int
}

func (s *stubSearchService) Search(ctx context.Context, query string, scope []string, topK int) ([]domain.ScoredPassage, error) {
	s.lastQuery = query
	s.lastScope = scope
	s.lastTopK = topK
	return s.results, s.err
}

func (s *stubSearchService) TopOrdered(ctx context.Context, documentID string, k int) ([]*domain.Passage, error) {
	return nil, nil
}

type stubRunService struct {
	runs  map[string]*domain.Run
	items []*domain.RunItem

	createErr  error
	advanceErr error
	advanced   []string
}

func newStubRunService() *stubRunService {
	return &stubRunService{runs: make(map[string]*domain.Run)}
}

func (s *stubRunService) CreateRun(ctx context.Context, projectID string) (*domain.Run, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	run := &domain.Run{
		ID:         domain.GenerateID(),
		ProjectID:  projectID,
		State:      domain.RunStateCreated,
		ItemsTotal: 2,
	}
	s.runs[run.ID] = run
	return run, nil
}

func (s *stubRunService) Advance(ctx context.Context, runID string) (*domain.Run, error) {
	if s.advanceErr != nil {
		return nil, s.advanceErr
	}
	s.advanced = append(s.advanced, runID)
	run, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

func (s *stubRunService) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	run, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

func (s *stubRunService) ListRuns(ctx context.Context, projectID string) ([]*domain.Run, error) {
	var out []*domain.Run
	for _, run := range s.runs {
		if run.ProjectID == projectID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (s *stubRunService) ListItems(ctx context.Context, runID string) ([]*domain.RunItem, error) {
	return s.items, nil
}

type stubReportService struct {
	indicators *domain.ProjectIndicators
	err        error
}

func (s *stubReportService) ProjectIndicators(ctx context.Context, projectID string) (*domain.ProjectIndicators, error) {
	return s.indicators, s.err
}

type stubTextSink struct {
	texts map[string]string
	err   error
}

func (s *stubTextSink) SaveText(ctx context.Context, documentID, text string) error {
	if s.err != nil {
		return s.err
	}
	if s.texts == nil {
		s.texts = make(map[string]string)
	}
	s.texts[documentID] = text
	return nil
}

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

type failPinger struct{}

func (failPinger) Ping(ctx context.Context) error { return errors.New("connection refused") }

// Test fixture

const testAdminPassword = "correct-horse"

type fixture struct {
	server  *Server
	auth    *auth.Adapter
	index   *stubIndexService
	search  *stubSearchService
	runs    *stubRunService
	reports *stubReportService
	docs    *mocks.MockDocumentStore
	texts   *stubTextSink
	queue   *mocks.MockTaskQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	adapter := auth.NewAdapterWithCost("test-secret", 4)
	hash, err := adapter.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	f := &fixture{
		auth:    adapter,
		index:   &stubIndexService{count: 5},
		search:  &stubSearchService{},
		runs:    newStubRunService(),
		reports: &stubReportService{indicators: &domain.ProjectIndicators{Total: 3, Accepted: 2}},
		docs:    mocks.NewMockDocumentStore(),
		texts:   &stubTextSink{},
		queue:   mocks.NewMockTaskQueue(),
	}

	cfg := DefaultConfig()
	cfg.AdminPasswordHash = hash

	f.server = NewServer(cfg, adapter,
		f.index, f.search, f.runs, f.reports,
		f.docs, f.texts, f.queue,
		okPinger{}, okPinger{})

	return f
}

func (f *fixture) token(t *testing.T) string {
	t.Helper()
	token, err := f.auth.IssueToken("admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return token
}

func (f *fixture) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.server.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/health", nil, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
}

func TestHandleHealth_DegradedOnRedisFailure(t *testing.T) {
	f := newFixture(t)
	f.server.redisClient = failPinger{}

	rec := f.request(t, http.MethodGet, "/health", nil, "")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
}

func TestHandleVersion(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/version", nil, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["version"] != "dev" {
		t.Errorf("version = %q, want dev", body["version"])
	}
}

func TestHandleIssueToken(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/auth/token",
		issueTokenRequest{Password: testAdminPassword}, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var body issueTokenResponse
	decodeBody(t, rec, &body)
	if body.Token == "" {
		t.Fatal("expected a token")
	}

	subject, err := f.auth.ValidateToken(body.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if subject != "admin" {
		t.Errorf("subject = %q, want admin", subject)
	}
}

func TestHandleIssueToken_WrongPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/auth/token",
		issueTokenRequest{Password: "wrong"}, "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/search?q=test", nil, "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestProtectedRoute_RejectsExpiredToken(t *testing.T) {
	f := newFixture(t)

	expired, err := f.auth.IssueToken("admin", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	rec := f.request(t, http.MethodGet, "/api/v1/search?q=test", nil, expired)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "token expired" {
		t.Errorf("error = %q, want %q", body["error"], "token expired")
	}
}

func TestHandleCreateProject(t *testing.T) {
	f := newFixture(t)
	token := f.token(t)

	rec := f.request(t, http.MethodPost, "/api/v1/projects", createProjectRequest{
		Name:        "AI in Education",
		Topic:       "adaptive learning",
		Methodology: "systematic review",
		Sector:      "education",
		Objective:   "map adoption barriers",
	}, token)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var project domain.Project
	decodeBody(t, rec, &project)
	if project.ID == "" {
		t.Fatal("expected a generated project ID")
	}
	if project.Name != "AI in Education" {
		t.Errorf("name = %q", project.Name)
	}

	stored, err := f.docs.GetProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if stored.Topic != "adaptive learning" {
		t.Errorf("stored topic = %q", stored.Topic)
	}
}

func TestHandleCreateProject_MissingName(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/projects",
		createProjectRequest{Topic: "something"}, f.token(t))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleGetProject_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/projects/nope", nil, f.token(t))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleCreateDocument(t *testing.T) {
	f := newFixture(t)
	token := f.token(t)

	project := &domain.Project{ID: "proj-1", Name: "Test", CreatedAt: time.Now()}
	if err := f.docs.SaveProject(context.Background(), project); err != nil {
		t.Fatal(err)
	}

	rec := f.request(t, http.MethodPost, "/api/v1/projects/proj-1/documents",
		createDocumentRequest{Title: "A Survey of Retrieval", Authors: "Doe, J.", Year: 2023}, token)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var doc domain.Document
	decodeBody(t, rec, &doc)
	if doc.ProjectID != "proj-1" {
		t.Errorf("project_id = %q, want proj-1", doc.ProjectID)
	}
	if doc.Year != 2023 {
		t.Errorf("year = %d, want 2023", doc.Year)
	}
}

func TestHandleCreateDocument_UnknownProject(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/projects/missing/documents",
		createDocumentRequest{Title: "Orphan"}, f.token(t))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleUploadText(t *testing.T) {
	f := newFixture(t)
	token := f.token(t)

	doc := &domain.Document{ID: "doc-1", ProjectID: "proj-1", Title: "Paper", CreatedAt: time.Now()}
	if err := f.docs.SaveDocument(context.Background(), doc); err != nil {
		t.Fatal(err)
	}

	rec := f.request(t, http.MethodPut, "/api/v1/documents/doc-1/text",
		uploadTextRequest{Text: "Full extracted text of the paper."}, token)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if f.texts.texts["doc-1"] != "Full extracted text of the paper." {
		t.Errorf("stored text = %q", f.texts.texts["doc-1"])
	}
}

func TestHandleUploadText_EmptyBody(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPut, "/api/v1/documents/doc-1/text",
		uploadTextRequest{}, f.token(t))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleIndexDocument_Inline(t *testing.T) {
	f := newFixture(t)
	f.index.count = 12

	rec := f.request(t, http.MethodPost, "/api/v1/documents/doc-1/index", nil, f.token(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	if body["passages"] != float64(12) {
		t.Errorf("passages = %v, want 12", body["passages"])
	}
	if len(f.index.calls) != 1 || f.index.calls[0] != "doc-1" {
		t.Errorf("index calls = %v", f.index.calls)
	}
}

func TestHandleIndexDocument_Async(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/documents/doc-1/index?async=true", nil, f.token(t))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if len(f.index.calls) != 0 {
		t.Errorf("expected no inline indexing, got calls %v", f.index.calls)
	}

	task, err := f.queue.DequeueWithTimeout(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if task == nil || task.Type != domain.TaskTypeIndexDocument {
		t.Fatalf("task = %+v, want an index_document task", task)
	}
	if task.DocumentID() != "doc-1" {
		t.Errorf("document_id = %q, want doc-1", task.DocumentID())
	}
}

func TestHandleIndexDocument_NotFound(t *testing.T) {
	f := newFixture(t)
	f.index.err = fmt.Errorf("%w: document missing", domain.ErrNotFound)

	rec := f.request(t, http.MethodPost, "/api/v1/documents/missing/index", nil, f.token(t))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleSearch(t *testing.T) {
	f := newFixture(t)
	f.search.results = []domain.ScoredPassage{
		{PassageID: "p1", Score: 0.91, Text: "relevant passage"},
		{PassageID: "p2", Score: 0.54, Text: "less relevant"},
	}

	rec := f.request(t, http.MethodGet,
		"/api/v1/search?q=research+gaps&scope=doc-1,doc-2&top_k=5", nil, f.token(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	if f.search.lastQuery != "research gaps" {
		t.Errorf("query = %q", f.search.lastQuery)
	}
	if len(f.search.lastScope) != 2 || f.search.lastScope[0] != "doc-1" {
		t.Errorf("scope = %v", f.search.lastScope)
	}
	if f.search.lastTopK != 5 {
		t.Errorf("topK = %d, want 5", f.search.lastTopK)
	}

	var body struct {
		Results []domain.ScoredPassage `json:"results"`
	}
	decodeBody(t, rec, &body)
	if len(body.Results) != 2 {
		t.Errorf("results = %d, want 2", len(body.Results))
	}
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/search", nil, f.token(t))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSearch_InvalidTopK(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/search?q=x&top_k=zero", nil, f.token(t))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSearch_EmptyResults(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/search?q=nothing", nil, f.token(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Errorf("expected empty results array, got %s", rec.Body.String())
	}
}

func TestHandleCreateRun(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/projects/proj-1/runs", nil, f.token(t))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var run domain.Run
	decodeBody(t, rec, &run)
	if run.ProjectID != "proj-1" {
		t.Errorf("project_id = %q, want proj-1", run.ProjectID)
	}
	if run.State != domain.RunStateCreated {
		t.Errorf("state = %q, want created", run.State)
	}
}

func TestHandleCreateRun_NoDocuments(t *testing.T) {
	f := newFixture(t)
	f.runs.createErr = fmt.Errorf("%w: project proj-1", domain.ErrNoDocuments)

	rec := f.request(t, http.MethodPost, "/api/v1/projects/proj-1/runs", nil, f.token(t))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleAdvanceRun(t *testing.T) {
	f := newFixture(t)
	run, _ := f.runs.CreateRun(context.Background(), "proj-1")

	rec := f.request(t, http.MethodPost, "/api/v1/runs/"+run.ID+"/advance", nil, f.token(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(f.runs.advanced) != 1 || f.runs.advanced[0] != run.ID {
		t.Errorf("advanced = %v", f.runs.advanced)
	}
}

func TestHandleAdvanceRun_Busy(t *testing.T) {
	f := newFixture(t)
	f.runs.advanceErr = domain.ErrRunBusy

	rec := f.request(t, http.MethodPost, "/api/v1/runs/r1/advance", nil, f.token(t))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestHandleAdvanceRun_ProviderDown(t *testing.T) {
	f := newFixture(t)
	f.runs.advanceErr = fmt.Errorf("%w: gemini", domain.ErrServiceUnavailable)

	rec := f.request(t, http.MethodPost, "/api/v1/runs/r1/advance", nil, f.token(t))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHandleProcessRun(t *testing.T) {
	f := newFixture(t)
	run, _ := f.runs.CreateRun(context.Background(), "proj-1")

	rec := f.request(t, http.MethodPost, "/api/v1/runs/"+run.ID+"/process", nil, f.token(t))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	task, err := f.queue.DequeueWithTimeout(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if task == nil || task.Type != domain.TaskTypeProcessRun {
		t.Fatalf("task = %+v, want a process_run task", task)
	}
	if task.RunID() != run.ID {
		t.Errorf("run_id = %q, want %q", task.RunID(), run.ID)
	}
}

func TestHandleProcessRun_UnknownRun(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/runs/missing/process", nil, f.token(t))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleListRunItems(t *testing.T) {
	f := newFixture(t)
	run, _ := f.runs.CreateRun(context.Background(), "proj-1")
	f.runs.items = []*domain.RunItem{
		{ID: "i1", RunID: run.ID, DocumentID: "doc-1", State: domain.RunItemStateAnalyzed},
		{ID: "i2", RunID: run.ID, DocumentID: "doc-2", State: domain.RunItemStateFailed, ErrorMsg: "no source text"},
	}

	rec := f.request(t, http.MethodGet, "/api/v1/runs/"+run.ID+"/items", nil, f.token(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var body struct {
		Items []*domain.RunItem `json:"items"`
	}
	decodeBody(t, rec, &body)
	if len(body.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(body.Items))
	}
	if body.Items[1].ErrorMsg != "no source text" {
		t.Errorf("error_msg = %q", body.Items[1].ErrorMsg)
	}
}

func TestHandleProjectIndicators(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/projects/proj-1/indicators", nil, f.token(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var indicators domain.ProjectIndicators
	decodeBody(t, rec, &indicators)
	if indicators.Total != 3 || indicators.Accepted != 2 {
		t.Errorf("indicators = %+v", indicators)
	}
}
