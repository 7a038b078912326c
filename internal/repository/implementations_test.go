package repository

import (
	"testing"
	"time"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestAnalysisRunRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepositoryManager(db).AnalysisRun

	mock.ExpectQuery(`INSERT INTO "analysis_runs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	run := &models.AnalysisRun{
		RunID:  "run-1",
		Source: models.RunSourcePage,
		Status: models.RunStatusCompleted,
	}
	require.NoError(t, repo.Create(run))
	assert.Equal(t, uint(7), run.ID)
	assert.False(t, run.StartedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRunRepository_CreateRejectsInvalid(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRunRepository(db)

	err := repo.Create(&models.AnalysisRun{RunID: "run-1", Source: "page", Status: "running"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRunRepository_GetRecent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRunRepository(db)

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "analysis_runs" ORDER BY started_at DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "run_id", "conversation_id", "source", "status", "results_used", "started_at"}).
			AddRow(2, "run-2", "abc", "page", "completed", 3, started).
			AddRow(1, "run-1", "abc", "document", "failed", 0, started.Add(-time.Minute)))

	runs, err := repo.GetRecent(5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, 3, runs[0].ResultsUsed)
	assert.Equal(t, models.RunStatusFailed, runs[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRunRepository_GetByConversation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRunRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "analysis_runs" WHERE conversation_id = \$1 ORDER BY started_at DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "run_id", "conversation_id"}).AddRow(1, "run-1", "abc"))

	runs, err := repo.GetByConversation("abc", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "abc", runs[0].ConversationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRunRepository_GetByRunID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRunRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "analysis_runs" WHERE run_id = \$1 ORDER BY "analysis_runs"."id" LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "run_id", "conversation_id", "status"}).
			AddRow(4, "run-4", "abc", "completed"))

	run, err := repo.GetByRunID("run-4")
	require.NoError(t, err)
	assert.Equal(t, uint(4), run.ID)
	assert.Equal(t, "abc", run.ConversationID)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRunRepository_GetByRunIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRunRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "analysis_runs" WHERE run_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "run_id"}))

	run, err := repo.GetByRunID("missing")
	assert.Nil(t, run)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, clampLimit(0))
	assert.Equal(t, 20, clampLimit(-3))
	assert.Equal(t, 50, clampLimit(50))
	assert.Equal(t, maxListLimit, clampLimit(10_000))
}
