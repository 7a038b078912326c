package repository

import (
	"time"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"gorm.io/gorm"
)

const maxListLimit = 200

// AnalysisRunRepositoryImpl implements AnalysisRunRepository
type AnalysisRunRepositoryImpl struct {
	db *gorm.DB
}

func NewAnalysisRunRepository(db *gorm.DB) models.AnalysisRunRepository {
	return &AnalysisRunRepositoryImpl{db: db}
}

func (r *AnalysisRunRepositoryImpl) Create(run *models.AnalysisRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return r.db.Create(run).Error
}

func (r *AnalysisRunRepositoryImpl) GetByRunID(runID string) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	err := r.db.Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *AnalysisRunRepositoryImpl) GetRecent(limit int) ([]models.AnalysisRun, error) {
	var runs []models.AnalysisRun
	err := r.db.Order("started_at DESC").
		Limit(clampLimit(limit)).
		Find(&runs).Error
	return runs, err
}

func (r *AnalysisRunRepositoryImpl) GetByConversation(conversationID string, limit int) ([]models.AnalysisRun, error) {
	var runs []models.AnalysisRun
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("started_at DESC").
		Limit(clampLimit(limit)).
		Find(&runs).Error
	return runs, err
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	AnalysisRun models.AnalysisRunRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		AnalysisRun: NewAnalysisRunRepository(db),
	}
}
