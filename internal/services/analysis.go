package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/chatgpt"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/conversation"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/extraction"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/metrics"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrInvalidDocument is returned when an uploaded document is not JSON.
var ErrInvalidDocument = errors.New("conversation document is not valid JSON")

// ErrRunNotFound is returned when the run log has no row for a run ID, or
// when no run log is configured.
var ErrRunNotFound = errors.New("analysis run not found")

// ConversationFetcher produces a conversation document for a page URL.
type ConversationFetcher interface {
	Fetch(ctx context.Context, pageURL, cookie string) (*conversation.Document, error)
}

type AnalysisService struct {
	fetcher ConversationFetcher
	engine  *extraction.Engine
	runs    models.AnalysisRunRepository
	logger  *logrus.Logger
}

// NewAnalysisService wires one run pipeline. runs may be nil, which turns the
// run log off.
func NewAnalysisService(
	fetcher ConversationFetcher,
	engine *extraction.Engine,
	runs models.AnalysisRunRepository,
	logger *logrus.Logger,
) *AnalysisService {
	return &AnalysisService{
		fetcher: fetcher,
		engine:  engine,
		runs:    runs,
		logger:  logger,
	}
}

// AnalyzePage fetches the conversation behind a page URL and extracts it. The
// first fetch failure ends the run and no partial result is returned.
func (s *AnalysisService) AnalyzePage(ctx context.Context, req models.AnalyzeRequest, userSession string) (*models.AnalyzeResponse, error) {
	run := s.begin(models.RunSourcePage, userSession)
	log := s.logger.WithField("run_id", run.RunID)
	log.WithField("page_url", req.PageURL).Info("Starting page analysis")

	if id, err := chatgpt.ResolveConversationID(req.PageURL); err == nil {
		run.ConversationID = id
	}

	doc, err := s.fetcher.Fetch(ctx, req.PageURL, req.SessionCookie)
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}
	if ctx.Err() != nil {
		return nil, s.fail(ctx, run, ctx.Err())
	}

	return s.complete(ctx, run, doc)
}

// AnalyzeDocument extracts an already fetched conversation document.
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, raw []byte, userSession string) (*models.AnalyzeResponse, error) {
	run := s.begin(models.RunSourceDocument, userSession)
	s.logger.WithFields(logrus.Fields{
		"run_id": run.RunID,
		"size":   len(raw),
	}).Info("Starting document analysis")

	doc, err := conversation.Parse(raw)
	if err != nil {
		return nil, s.fail(ctx, run, fmt.Errorf("%w: %v", ErrInvalidDocument, err))
	}

	return s.complete(ctx, run, doc)
}

func (s *AnalysisService) begin(source, userSession string) *models.AnalysisRun {
	metrics.AnalysisRunsActive.Inc()
	return &models.AnalysisRun{
		RunID:       uuid.NewString(),
		Source:      source,
		StartedAt:   time.Now(),
		UserSession: userSession,
	}
}

func (s *AnalysisService) complete(ctx context.Context, run *models.AnalysisRun, doc *conversation.Document) (*models.AnalyzeResponse, error) {
	if id := doc.ConversationID(); id != "" {
		run.ConversationID = id
	}

	result := s.engine.Analyze(doc)

	// A newer run on the same surface owns the output now.
	if ctx.Err() != nil {
		return nil, s.fail(ctx, run, ctx.Err())
	}

	duration := s.finish(run, models.RunStatusCompleted)
	run.ApplyCounts(result)
	counts := result.Counts()
	metrics.RecordCounts(counts)
	s.record(run)

	fields := logrus.Fields{
		"run_id":          run.RunID,
		"conversation_id": run.ConversationID,
		"source":          run.Source,
		"duration_ms":     run.DurationMs,
	}
	for k, v := range counts {
		fields[k] = v
	}
	s.logger.WithFields(fields).Info("Analysis completed")

	return &models.AnalyzeResponse{
		RunID:          run.RunID,
		ConversationID: run.ConversationID,
		Result:         result,
		DurationMs:     int(duration.Milliseconds()),
	}, nil
}

func (s *AnalysisService) fail(ctx context.Context, run *models.AnalysisRun, err error) error {
	if Superseded(ctx) {
		err = ErrSuperseded
	}

	if fe, ok := chatgpt.AsFetchError(err); ok {
		run.ErrorCode = string(fe.Code)
		run.UpstreamStatus = fe.Status
	} else if errors.Is(err, ErrSuperseded) {
		run.ErrorCode = "SUPERSEDED"
	} else if errors.Is(err, ErrInvalidDocument) {
		run.ErrorCode = "INVALID_DOCUMENT"
	} else {
		run.ErrorCode = "CANCELED"
	}

	s.finish(run, models.RunStatusFailed)
	s.record(run)

	s.logger.WithFields(logrus.Fields{
		"run_id":          run.RunID,
		"conversation_id": run.ConversationID,
		"source":          run.Source,
		"error_code":      run.ErrorCode,
		"upstream_status": run.UpstreamStatus,
	}).WithError(err).Error("Analysis failed")

	return err
}

func (s *AnalysisService) finish(run *models.AnalysisRun, status string) time.Duration {
	metrics.AnalysisRunsActive.Dec()
	duration := time.Since(run.StartedAt)
	run.Status = status
	run.DurationMs = int(duration.Milliseconds())

	outcome := status
	if status == models.RunStatusFailed {
		outcome = run.ErrorCode
	}
	metrics.AnalysisRuns.WithLabelValues(outcome).Inc()
	metrics.AnalysisRunDuration.WithLabelValues(run.Source).Observe(duration.Seconds())
	return duration
}

// record writes the run log row. Failures are logged and otherwise ignored.
func (s *AnalysisService) record(run *models.AnalysisRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Create(run); err != nil {
		s.logger.WithError(err).WithField("run_id", run.RunID).Warn("Failed to record analysis run")
	}
}

// RecentRuns lists run log rows, newest first. Without a run log it returns an
// empty list.
func (s *AnalysisService) RecentRuns(limit int) ([]models.AnalysisRun, error) {
	if s.runs == nil {
		return []models.AnalysisRun{}, nil
	}
	runs, err := s.runs.GetRecent(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if runs == nil {
		runs = []models.AnalysisRun{}
	}
	return runs, nil
}

// GetRun looks up one run log row by its run ID.
func (s *AnalysisService) GetRun(runID string) (*models.AnalysisRun, error) {
	if s.runs == nil || runID == "" {
		return nil, ErrRunNotFound
	}
	run, err := s.runs.GetByRunID(runID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return run, nil
}

// ConversationRuns lists run log rows for one conversation.
func (s *AnalysisService) ConversationRuns(conversationID string, limit int) ([]models.AnalysisRun, error) {
	if s.runs == nil {
		return []models.AnalysisRun{}, nil
	}
	runs, err := s.runs.GetByConversation(conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if runs == nil {
		runs = []models.AnalysisRun{}
	}
	return runs, nil
}
