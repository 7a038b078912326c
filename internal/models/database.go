package models

// GORM models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Run statuses
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run sources
const (
	RunSourcePage     = "page"
	RunSourceDocument = "document"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnalysisRun is the audit row for one analysis pass. Only metadata and
// collection sizes are stored, never the extracted records themselves.
type AnalysisRun struct {
	BaseModel
	RunID          string    `json:"run_id" gorm:"uniqueIndex;not null"`
	ConversationID string    `json:"conversation_id" gorm:"index"`
	Source         string    `json:"source" gorm:"not null;check:source IN ('page','document')"`
	Status         string    `json:"status" gorm:"not null;check:status IN ('completed','failed')"`
	ErrorCode      string    `json:"error_code,omitempty"`
	UpstreamStatus int       `json:"upstream_status,omitempty"`
	UserMessages   int       `json:"user_messages"`
	Queries        int       `json:"queries"`
	ResultsUsed    int       `json:"results_used"`
	ResultsUnused  int       `json:"results_unused"`
	Reasoning      int       `json:"reasoning"`
	Products       int       `json:"products"`
	DurationMs     int       `json:"duration_ms"`
	StartedAt      time.Time `json:"started_at"`
	UserSession    string    `json:"user_session"`
}

// AnalysisRunRepository is the storage contract for the run log.
type AnalysisRunRepository interface {
	Create(run *AnalysisRun) error
	GetByRunID(runID string) (*AnalysisRun, error)
	GetRecent(limit int) ([]AnalysisRun, error)
	GetByConversation(conversationID string, limit int) ([]AnalysisRun, error)
}

func (AnalysisRun) TableName() string { return "analysis_runs" }

// ApplyCounts copies collection sizes from a result.
func (ar *AnalysisRun) ApplyCounts(result *AnalysisResult) {
	if result == nil {
		return
	}
	ar.UserMessages = len(result.UserMessages)
	ar.Queries = len(result.Queries)
	ar.ResultsUsed = len(result.ResultsUsed)
	ar.ResultsUnused = len(result.ResultsUnused)
	ar.Reasoning = len(result.ReasoningEntries)
	ar.Products = len(result.ProductResults)
}

func (ar *AnalysisRun) Validate() error {
	if ar.RunID == "" {
		return fmt.Errorf("run ID is required")
	}
	validStatuses := map[string]bool{
		RunStatusCompleted: true,
		RunStatusFailed:    true,
	}
	if !validStatuses[ar.Status] {
		return fmt.Errorf("invalid run status: %s", ar.Status)
	}
	validSources := map[string]bool{
		RunSourcePage:     true,
		RunSourceDocument: true,
	}
	if !validSources[ar.Source] {
		return fmt.Errorf("invalid run source: %s", ar.Source)
	}
	if ar.DurationMs < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	return nil
}

// GORM hooks
func (ar *AnalysisRun) BeforeCreate(tx *gorm.DB) error {
	return ar.Validate()
}
