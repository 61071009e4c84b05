package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNoDocuments):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRunBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleHealth returns the health status of the service and its dependencies
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health := map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	checks := map[string]string{}
	healthy := true

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["postgres"] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			checks["postgres"] = "healthy"
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			checks["redis"] = "healthy"
		}
	}

	health["checks"] = checks
	if !healthy {
		health["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	writeJSON(w, http.StatusOK, health)
}

// handleVersion returns the service version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

type issueTokenRequest struct {
	Password string `json:"password"`
}

type issueTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleIssueToken exchanges the admin password for a bearer token
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Password == "" || !s.auth.VerifyPassword(req.Password, s.adminPasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.IssueToken("admin", s.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, issueTokenResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.tokenTTL),
	})
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Topic       string `json:"topic"`
	Methodology string `json:"methodology"`
	Sector      string `json:"sector"`
	Objective   string `json:"objective"`
}

// handleCreateProject registers a new project
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	project := &domain.Project{
		ID:          domain.GenerateID(),
		Name:        strings.TrimSpace(req.Name),
		Topic:       strings.TrimSpace(req.Topic),
		Methodology: strings.TrimSpace(req.Methodology),
		Sector:      strings.TrimSpace(req.Sector),
		Objective:   strings.TrimSpace(req.Objective),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.documentStore.SaveProject(r.Context(), project); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// handleGetProject retrieves a project by ID
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.documentStore.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

type createDocumentRequest struct {
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Year    int    `json:"year"`
}

// handleCreateDocument registers a document under a project
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")

	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	// Reject documents for unknown projects up front
	if _, err := s.documentStore.GetProject(r.Context(), projectID); err != nil {
		writeServiceError(w, err)
		return
	}

	doc := &domain.Document{
		ID:        domain.GenerateID(),
		ProjectID: projectID,
		Title:     strings.TrimSpace(req.Title),
		Authors:   strings.TrimSpace(req.Authors),
		Year:      req.Year,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.documentStore.SaveDocument(r.Context(), doc); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// handleGetDocument retrieves a document by ID
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documentStore.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

type uploadTextRequest struct {
	Text string `json:"text"`
}

// handleUploadText stores a document's extracted full text
func (s *Server) handleUploadText(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")

	var req uploadTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	if _, err := s.documentStore.GetDocument(r.Context(), documentID); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := s.textSink.SaveText(r.Context(), documentID, req.Text); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"document_id": documentID,
		"status":      "stored",
	})
}

// handleIndexDocument chunks, embeds and stores a document's text.
// With ?async=true the work is enqueued instead of done inline.
func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")

	if r.URL.Query().Get("async") == "true" {
		task := domain.NewIndexDocumentTask(documentID)
		if err := s.taskQueue.Enqueue(r.Context(), task); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"task_id":     task.ID,
			"document_id": documentID,
			"status":      "queued",
		})
		return
	}

	count, err := s.indexService.Index(r.Context(), documentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": documentID,
		"passages":    count,
	})
}

// handleSearch ranks indexed passages against a query
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	var scope []string
	if raw := r.URL.Query().Get("scope"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				scope = append(scope, id)
			}
		}
	}

	topK := 10
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k < 1 {
			writeError(w, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		topK = k
	}

	results, err := s.searchService.Search(r.Context(), query, scope, topK)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if results == nil {
		results = []domain.ScoredPassage{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

// handleCreateRun starts a new evaluation pass over a project's documents
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runService.CreateRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

// handleListRuns retrieves a project's runs, most recent first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runService.ListRuns(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if runs == nil {
		runs = []*domain.Run{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// handleAdvanceRun processes exactly one pending item of the run
func (s *Server) handleAdvanceRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runService.Advance(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleProcessRun enqueues background processing of the whole run
func (s *Server) handleProcessRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	// Verify the run exists before queueing
	if _, err := s.runService.GetRun(r.Context(), runID); err != nil {
		writeServiceError(w, err)
		return
	}

	task := domain.NewProcessRunTask(runID)
	if err := s.taskQueue.Enqueue(r.Context(), task); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": task.ID,
		"run_id":  runID,
		"status":  "queued",
	})
}

// handleGetRun retrieves a run by ID
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runService.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleListRunItems retrieves the run's items in processing order
func (s *Server) handleListRunItems(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	if _, err := s.runService.GetRun(r.Context(), runID); err != nil {
		writeServiceError(w, err)
		return
	}

	items, err := s.runService.ListItems(r.Context(), runID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if items == nil {
		items = []*domain.RunItem{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"items":  items,
	})
}

// handleProjectIndicators computes the project's aggregate metrics
func (s *Server) handleProjectIndicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := s.reportService.ProjectIndicators(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, indicators)
}
