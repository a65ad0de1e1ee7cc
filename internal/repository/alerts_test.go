package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"observation-hub/internal/models"
)

func setupMockAlertsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *AlertsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewAlertsRepository(db, zap.NewNop())
	return db, mock, repo
}

func TestInsertAlerts_Success(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	alerts := []models.AlertRecord{
		{
			ArrayID:      "A1",
			ObserverName: "error_code",
			Level:        models.SeverityWarning,
			Message:      "误码增长",
			Details:      map[string]any{"port_counters": map[string]any{"P1": map[string]any{}}},
			Timestamp:    "2024-05-01T10:00:00",
		},
		{
			ArrayID:      "A1",
			ObserverName: "cpu_usage",
			Level:        models.SeverityError,
			Message:      "CPU 高",
			Timestamp:    "2024-05-01T10:01:00",
		},
	}

	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs("A1", "", "error_code", "warning", "误码增长", sqlmock.AnyArg(), "2024-05-01T10:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs("A1", "", "cpu_usage", "error", "CPU 高", "{}", "2024-05-01T10:01:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(102)))

	inserted, err := repo.InsertAlerts(context.Background(), alerts)

	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, int64(101), alerts[0].ID)
	assert.Equal(t, int64(102), alerts[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAlerts_PartialFailureContinues(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	alerts := []models.AlertRecord{
		{ArrayID: "A1", ObserverName: "a", Level: models.SeverityInfo, Message: "m1", Timestamp: "t1"},
		{ArrayID: "A1", ObserverName: "b", Level: models.SeverityInfo, Message: "m2", Timestamp: "t2"},
	}

	mock.ExpectQuery(`INSERT INTO alerts`).
		WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	inserted, err := repo.InsertAlerts(context.Background(), alerts)

	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAlerts_Empty(t *testing.T) {
	db, _, repo := setupMockAlertsDB(t)
	defer db.Close()

	inserted, err := repo.InsertAlerts(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}

func TestListRecent_Success(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "array_id", "array_name", "observer_name", "level", "message", "details", "timestamp",
	}).AddRow(
		int64(2), "A1", "阵列一", "error_code", "warning", "误码增长",
		`{"port_counters":{"P1":{}}}`, "2024-05-01T10:05:00",
	).AddRow(
		int64(1), "A1", "阵列一", "cpu_usage", "error", "CPU 高", `{}`, "2024-05-01T10:00:00",
	)

	mock.ExpectQuery(`SELECT id, array_id`).
		WithArgs("A1", 500).
		WillReturnRows(rows)

	alerts, err := repo.ListRecent(context.Background(), "A1", AlertFilters{})

	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "error_code", alerts[0].ObserverName)
	assert.Equal(t, models.SeverityWarning, alerts[0].Level)
	assert.Contains(t, alerts[0].Details, "port_counters")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent_MalformedDetailsDegrades(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "array_id", "array_name", "observer_name", "level", "message", "details", "timestamp",
	}).AddRow(int64(1), "A1", nil, "x", "info", "m", `{broken json`, "t1")

	mock.ExpectQuery(`SELECT id, array_id`).
		WithArgs("A1", 500).
		WillReturnRows(rows)

	alerts, err := repo.ListRecent(context.Background(), "A1", AlertFilters{})

	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.NotNil(t, alerts[0].Details)
	assert.Empty(t, alerts[0].Details)
}

func TestListRecent_WithFilters(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	observer := "error_code"
	level := models.SeverityError

	mock.ExpectQuery(`SELECT id, array_id`).
		WithArgs("A1", observer, "error", 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "array_id", "array_name", "observer_name", "level", "message", "details", "timestamp",
		}))

	alerts, err := repo.ListRecent(context.Background(), "A1", AlertFilters{
		ObserverName: &observer,
		Level:        &level,
		Limit:        50,
	})

	require.NoError(t, err)
	assert.Empty(t, alerts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent_MissingArrayID(t *testing.T) {
	db, _, repo := setupMockAlertsDB(t)
	defer db.Close()

	_, err := repo.ListRecent(context.Background(), "", AlertFilters{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "array_id")
}

func TestLevelSummary_Success(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"level", "count"}).
		AddRow("error", 2).
		AddRow("warning", 1).
		AddRow("info", 4)

	mock.ExpectQuery(`SELECT level, COUNT`).
		WithArgs("A1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	summary, err := repo.LevelSummary(context.Background(), "A1", 2*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 2, summary["error"])
	assert.Equal(t, 1, summary["warning"])
	assert.Equal(t, 4, summary["info"])
	assert.Zero(t, summary["critical"])
	require.NoError(t, mock.ExpectationsWereMet())
}
