package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/chatgpt"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/conversation"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/extraction"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const sampleDoc = `{
  "conversation_id": "abc123",
  "current_node": "a1",
  "mapping": {
    "u1": {"parent": null, "children": ["a1"], "message": {"author": {"role": "user"}, "content": {"parts": ["hello"]}}},
    "a1": {"parent": "u1", "children": [], "message": {"author": {"role": "assistant"},
      "metadata": {"search_queries": [{"q": "greeting and farewell"}]}}}
  }
}`

type fakeFetcher struct {
	raw string
	err error
}

func (f *fakeFetcher) Fetch(ctx context.Context, pageURL, cookie string) (*conversation.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return conversation.Parse([]byte(f.raw))
}

type memoryRunRepo struct {
	mu   sync.Mutex
	runs []models.AnalysisRun
	err  error
}

func (r *memoryRunRepo) Create(run *models.AnalysisRun) error {
	if err := run.Validate(); err != nil {
		return err
	}
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	return nil
}

func (r *memoryRunRepo) GetByRunID(runID string) (*models.AnalysisRun, error) {
	for i := range r.runs {
		if r.runs[i].RunID == runID {
			return &r.runs[i], nil
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryRunRepo) GetRecent(limit int) ([]models.AnalysisRun, error) {
	return r.runs, nil
}

func (r *memoryRunRepo) GetByConversation(conversationID string, limit int) ([]models.AnalysisRun, error) {
	var out []models.AnalysisRun
	for _, run := range r.runs {
		if run.ConversationID == conversationID {
			out = append(out, run)
		}
	}
	return out, nil
}

func newService(f ConversationFetcher, repo models.AnalysisRunRepository) *AnalysisService {
	logger := logrus.New()
	return NewAnalysisService(f, extraction.NewEngine(extraction.DefaultOptions(), logger), repo, logger)
}

func TestAnalyzePage(t *testing.T) {
	repo := &memoryRunRepo{}
	svc := newService(&fakeFetcher{raw: sampleDoc}, repo)

	resp, err := svc.AnalyzePage(context.Background(), models.AnalyzeRequest{PageURL: "https://chatgpt.com/c/abc123"}, "sess")
	require.NoError(t, err)

	_, err = uuid.Parse(resp.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "abc123", resp.ConversationID)
	assert.Equal(t, []string{"hello"}, resp.Result.UserMessages)
	assert.Equal(t, []string{"greeting", "farewell"}, resp.Result.Queries)

	require.Len(t, repo.runs, 1)
	run := repo.runs[0]
	assert.Equal(t, resp.RunID, run.RunID)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, models.RunSourcePage, run.Source)
	assert.Equal(t, 1, run.UserMessages)
	assert.Equal(t, 2, run.Queries)
	assert.Equal(t, "sess", run.UserSession)
}

func TestAnalyzePage_FetchFailure(t *testing.T) {
	repo := &memoryRunRepo{}
	fetchErr := &chatgpt.FetchError{Code: chatgpt.CodeSessionFetchFailed, Status: 401}
	svc := newService(&fakeFetcher{err: fetchErr}, repo)

	resp, err := svc.AnalyzePage(context.Background(), models.AnalyzeRequest{PageURL: "https://chatgpt.com/c/abc123"}, "")
	assert.Nil(t, resp)
	assert.True(t, chatgpt.IsCode(err, chatgpt.CodeSessionFetchFailed))

	require.Len(t, repo.runs, 1)
	assert.Equal(t, models.RunStatusFailed, repo.runs[0].Status)
	assert.Equal(t, "SESSION_FETCH_FAILED", repo.runs[0].ErrorCode)
	assert.Equal(t, 401, repo.runs[0].UpstreamStatus)
	assert.Equal(t, "abc123", repo.runs[0].ConversationID)
}

func TestAnalyzePage_RecordFailureIsNotSurfaced(t *testing.T) {
	repo := &memoryRunRepo{err: errors.New("db down")}
	svc := newService(&fakeFetcher{raw: sampleDoc}, repo)

	resp, err := svc.AnalyzePage(context.Background(), models.AnalyzeRequest{PageURL: "/c/abc123"}, "")
	require.NoError(t, err)
	assert.NotNil(t, resp.Result)
}

func TestAnalyzePage_Superseded(t *testing.T) {
	registry := NewRunRegistry()
	svc := newService(&fakeFetcher{raw: sampleDoc}, nil)

	ctx, release := registry.Begin(context.Background(), "surface")
	defer release()
	_, release2 := registry.Begin(context.Background(), "surface")
	defer release2()

	resp, err := svc.AnalyzePage(ctx, models.AnalyzeRequest{PageURL: "/c/abc123"}, "")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrSuperseded)
}

func TestAnalyzeDocument(t *testing.T) {
	svc := newService(nil, nil)

	resp, err := svc.AnalyzeDocument(context.Background(), []byte(sampleDoc), "")
	require.NoError(t, err)
	assert.Equal(t, "abc123", resp.ConversationID)
	assert.Equal(t, []string{"greeting and farewell"}, resp.Result.AllQueries)

	_, err = svc.AnalyzeDocument(context.Background(), []byte(`{"mapping":`), "")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestRecentRuns_WithoutRunLog(t *testing.T) {
	svc := newService(nil, nil)

	runs, err := svc.RecentRuns(10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestGetRun(t *testing.T) {
	repo := &memoryRunRepo{}
	svc := newService(&fakeFetcher{raw: sampleDoc}, repo)

	resp, err := svc.AnalyzePage(context.Background(), models.AnalyzeRequest{PageURL: "https://chatgpt.com/c/abc123"}, "sess")
	require.NoError(t, err)

	run, err := svc.GetRun(resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, resp.RunID, run.RunID)
	assert.Equal(t, "abc123", run.ConversationID)

	_, err = svc.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestGetRun_Errors(t *testing.T) {
	_, err := newService(nil, nil).GetRun("any")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = newService(nil, &memoryRunRepo{}).GetRun("")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = newService(nil, &memoryRunRepo{err: errors.New("db down")}).GetRun("any")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRunNotFound)
}
