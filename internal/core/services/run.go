package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driving"
	"github.com/custodia-labs/lacuna-core/internal/runtime"
	"github.com/custodia-labs/lacuna-core/internal/textmetrics"
)

// Ensure runService implements RunService
var _ driving.RunService = (*runService)(nil)

const (
	// minViableTextChars is the minimum cleaned text length a document
	// needs before analysis is attempted
	minViableTextChars = 300

	// retrievalContextK is how many leading passages are handed to the
	// generative provider as grounding context
	retrievalContextK = 5

	// referenceSummaryWords is the document prefix compared against the
	// provider synopsis for summary scoring
	referenceSummaryWords = 180

	// minSummaryChars gates summary storage: both the synopsis and the
	// reference excerpt must exceed this to compare meaningfully
	minSummaryChars = 50

	// advanceLockTTL bounds how long one Advance step may hold the run
	// lock before it expires on its own
	advanceLockTTL = 2 * time.Minute
)

// runService implements the RunService interface.
// Advance is the single step of the evaluation state machine: one pending
// item per call, errors absorbed at the item boundary, run completion
// detected when no pending items remain.
type runService struct {
	runStore      driven.RunStore
	documentStore driven.DocumentStore
	textSource    driven.TextSource
	passageStore  driven.PassageStore
	gapStore      driven.GapStore
	lock          driven.DistributedLock
	validator     *Validator
	services      *runtime.Services
	logger        *slog.Logger
}

// RunServiceConfig holds the collaborators of the run service
type RunServiceConfig struct {
	RunStore      driven.RunStore
	DocumentStore driven.DocumentStore
	TextSource    driven.TextSource
	PassageStore  driven.PassageStore
	GapStore      driven.GapStore
	Lock          driven.DistributedLock
	Validator     *Validator
	Services      *runtime.Services
	Logger        *slog.Logger
}

// NewRunService creates a new RunService
func NewRunService(cfg RunServiceConfig) driving.RunService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &runService{
		runStore:      cfg.RunStore,
		documentStore: cfg.DocumentStore,
		textSource:    cfg.TextSource,
		passageStore:  cfg.PassageStore,
		gapStore:      cfg.GapStore,
		lock:          cfg.Lock,
		validator:     cfg.Validator,
		services:      cfg.Services,
		logger:        logger,
	}
}

// CreateRun starts a new evaluation pass over a project's documents, with
// one pending item per document in registration order.
func (s *runService) CreateRun(ctx context.Context, projectID string) (*domain.Run, error) {
	if _, err := s.documentStore.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	docs, err := s.documentStore.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrNoDocuments
	}

	run := &domain.Run{
		ID:         domain.GenerateID(),
		ProjectID:  projectID,
		State:      domain.RunStateCreated,
		ItemsTotal: len(docs),
	}
	if err := s.runStore.SaveRun(ctx, run); err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]*domain.RunItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, &domain.RunItem{
			ID:         domain.GenerateID(),
			RunID:      run.ID,
			DocumentID: doc.ID,
			State:      domain.RunItemStatePending,
			CreatedAt:  now,
		})
	}
	if err := s.runStore.SaveItems(ctx, items); err != nil {
		return nil, err
	}

	s.logger.Info("run created",
		"run_id", run.ID,
		"project_id", projectID,
		"items", len(items),
	)

	return run, nil
}

// Advance processes exactly one pending item of the run. A per-run lock
// serialises concurrent callers; a caller that loses the lock gets
// ErrRunBusy without touching any item. Per-item errors mark the item
// failed and are not propagated; only contention, lookup and
// infrastructure failures surface as errors.
func (s *runService) Advance(ctx context.Context, runID string) (*domain.Run, error) {
	lockName := "run:" + runID
	acquired, err := s.lock.Acquire(ctx, lockName, advanceLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunBusy, runID)
	}
	defer func() {
		if err := s.lock.Release(ctx, lockName); err != nil {
			s.logger.Warn("failed to release run lock", "run_id", runID, "error", err)
		}
	}()

	run, err := s.runStore.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.State == domain.RunStateCompleted {
		return run, nil
	}

	if s.services.AnalysisService() == nil {
		return nil, domain.ErrServiceUnavailable
	}

	item, err := s.runStore.NextPending(ctx, runID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.completeRun(ctx, run)
	}
	if err != nil {
		return nil, err
	}

	if run.State == domain.RunStateCreated {
		now := time.Now()
		run.StartedAt = &now
		if err := run.Transition(domain.RunStateInProgress); err != nil {
			return nil, err
		}
	}

	started := time.Now()
	usage, itemErr := s.processItem(ctx, run, item)
	elapsed := time.Since(started).Milliseconds()

	run.TokensIn += usage.TokensIn
	run.TokensOut += usage.TokensOut
	run.EstimatedCost += usage.Cost

	if itemErr != nil {
		if err := item.Transition(domain.RunItemStateFailed, itemErr.Error()); err != nil {
			return nil, err
		}
		s.logger.Warn("run item failed",
			"run_id", runID,
			"item_id", item.ID,
			"document_id", item.DocumentID,
			"error", itemErr,
		)
	} else {
		if err := item.Transition(domain.RunItemStateAnalyzed, ""); err != nil {
			return nil, err
		}
		run.ItemsOK++
	}
	item.DurationMS = elapsed
	if err := s.runStore.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	remaining, err := s.runStore.CountPending(ctx, runID)
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		return s.completeRun(ctx, run)
	}

	if err := s.runStore.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// completeRun transitions the run to completed and stamps the finish time.
// Idempotent: a run already completed passes through unchanged.
func (s *runService) completeRun(ctx context.Context, run *domain.Run) (*domain.Run, error) {
	if run.State != domain.RunStateCompleted {
		if err := run.Transition(domain.RunStateCompleted); err != nil {
			return nil, err
		}
		now := time.Now()
		run.FinishedAt = &now
		s.logger.Info("run completed",
			"run_id", run.ID,
			"items_total", run.ItemsTotal,
			"items_ok", run.ItemsOK,
		)
	}
	if err := s.runStore.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// processItem carries one document through analysis, validation and verdict
// persistence. Any error it returns is an item-level failure, absorbed by
// the caller into the item's state.
func (s *runService) processItem(ctx context.Context, run *domain.Run, item *domain.RunItem) (domain.Usage, error) {
	var usage domain.Usage

	doc, err := s.documentStore.GetDocument(ctx, item.DocumentID)
	if err != nil {
		return usage, err
	}
	project, err := s.documentStore.GetProject(ctx, run.ProjectID)
	if err != nil {
		return usage, err
	}

	text, err := s.textSource.GetLatestText(ctx, item.DocumentID)
	if err != nil {
		return usage, err
	}
	if strings.TrimSpace(text) == "" {
		return usage, domain.ErrNoSourceText
	}
	cleaned := textmetrics.Normalize(text)
	if len(cleaned) < minViableTextChars {
		return usage, domain.ErrInsufficientText
	}

	retrieval, err := s.passageStore.GetTopOrdered(ctx, item.DocumentID, retrievalContextK)
	if err != nil {
		return usage, err
	}
	fragments := make([]string, 0, len(retrieval))
	for _, p := range retrieval {
		fragments = append(fragments, p.Text)
	}

	analysisService := s.services.AnalysisService()
	if analysisService == nil {
		return usage, domain.ErrServiceUnavailable
	}

	draft, usage, err := analysisService.AnalyseDocument(ctx, driven.AnalysisRequest{
		DocumentText:     text,
		Context:          project.AnalysisContext(),
		RetrievalContext: fragments,
	})
	if err != nil {
		return usage, err
	}
	if draft.Claim == nil {
		return usage, fmt.Errorf("%w: unparseable provider response", domain.ErrMalformedClaim)
	}
	claim := draft.Claim

	metrics, err := s.validator.Validate(ctx, item.DocumentID, claim.Gap)
	if err != nil {
		return usage, err
	}
	verdict, reason := domain.Decide(metrics)

	result := &domain.GapResult{
		ID:              domain.GenerateID(),
		RunItemID:       item.ID,
		Gap:             claim.Gap,
		Opportunity:     claim.Opportunity,
		Category:        claim.Category,
		SimilarityAvg:   metrics.SimilarityAvg,
		Hits:            metrics.Hits,
		EntropyBits:     metrics.EntropyBits,
		EntropyNorm:     metrics.EntropyNorm,
		ValidationScore: metrics.ValidationScore,
		IsDuplicate:     metrics.IsDuplicate,
		DuplicateOfID:   metrics.DuplicateOfID,
		Verdict:         verdict,
		Reason:          reason,
		CreatedAt:       time.Now(),
	}
	if err := s.gapStore.SaveResult(ctx, result); err != nil {
		return usage, err
	}

	s.saveSummary(ctx, doc.ID, claim.Synopsis, cleaned)

	s.logger.Info("run item analyzed",
		"run_id", run.ID,
		"item_id", item.ID,
		"document_id", item.DocumentID,
		"verdict", verdict,
		"validation_score", metrics.ValidationScore,
	)

	return usage, nil
}

// saveSummary stores the synopsis alongside a reference excerpt when both
// are long enough to compare. Summary storage is best-effort and never
// fails the item.
func (s *runService) saveSummary(ctx context.Context, documentID, synopsis, cleanedText string) {
	words := strings.Fields(cleanedText)
	if len(words) > referenceSummaryWords {
		words = words[:referenceSummaryWords]
	}
	reference := strings.Join(words, " ")
	if len(synopsis) <= minSummaryChars || len(reference) <= minSummaryChars {
		return
	}

	summary := &domain.SummaryResult{
		ID:               domain.GenerateID(),
		DocumentID:       documentID,
		GeneratedSummary: synopsis,
		ReferenceSummary: reference,
		LexicalDensity:   textmetrics.LexicalDensity(synopsis),
		CreatedAt:        time.Now(),
	}
	if err := s.gapStore.SaveSummary(ctx, summary); err != nil {
		s.logger.Warn("failed to save summary", "document_id", documentID, "error", err)
	}
}

// GetRun retrieves a run by ID
func (s *runService) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	return s.runStore.GetRun(ctx, runID)
}

// ListRuns retrieves a project's runs, most recent first
func (s *runService) ListRuns(ctx context.Context, projectID string) ([]*domain.Run, error) {
	return s.runStore.ListRunsByProject(ctx, projectID)
}

// ListItems retrieves the run's items in processing order
func (s *runService) ListItems(ctx context.Context, runID string) ([]*domain.RunItem, error) {
	return s.runStore.GetItems(ctx, runID)
}
