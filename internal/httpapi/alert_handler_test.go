package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"observation-hub/internal/config"
	"observation-hub/internal/models"
	"observation-hub/internal/repository"
	"observation-hub/internal/service"
)

func setupTestHandler(t *testing.T) (*AlertHandler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Feed.RetainPerList = 500

	repo := repository.NewAlertsRepository(db, zap.NewNop())
	svc := service.NewAlertService(cfg, repo, nil, nil, zap.NewNop())
	return NewAlertHandler(svc, repo, zap.NewNop()), mock
}

func doRequest(h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) Result[map[string]any] {
	var result Result[map[string]any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestIngestAlerts_Success(t *testing.T) {
	h, mock := setupTestHandler(t)
	mock.ExpectQuery(`INSERT INTO alerts`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	rec := doRequest(h, http.MethodPost, "/api/v1/alerts", map[string]any{
		"alerts": []models.AlertRecord{
			{ObserverName: "cpu_usage", ArrayID: "A1", Level: models.SeverityWarning, Message: "cpu high", Timestamp: "2026-09-01T10:00:00"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, CodeOK, result.Code)
	assert.Equal(t, float64(1), result.Result["accepted"])
}

func TestIngestAlerts_MissingArrayID(t *testing.T) {
	h, _ := setupTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/alerts", map[string]any{
		"alerts": []models.AlertRecord{
			{ObserverName: "cpu_usage", Message: "cpu high"},
		},
	})

	result := decodeResult(t, rec)
	assert.Equal(t, CodeError, result.Code)
	assert.Contains(t, result.Message, "array_id")
}

func TestIngestAlerts_EmptyBatch(t *testing.T) {
	h, _ := setupTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/alerts", map[string]any{"alerts": []models.AlertRecord{}})

	result := decodeResult(t, rec)
	assert.Equal(t, CodeError, result.Code)
}

func TestListAlerts_TranslatesRecords(t *testing.T) {
	h, mock := setupTestHandler(t)

	rows := sqlmock.NewRows([]string{"id", "array_id", "array_name", "observer_name", "level", "message", "details", "timestamp"}).
		AddRow(1, "A1", "阵列一", "cpu_usage", "warning", "raw msg",
			`{"current_usage_percent": 92.5, "threshold_percent": 90}`, "2026-09-01T10:00:00")
	mock.ExpectQuery(`SELECT id, array_id`).WillReturnRows(rows)

	rec := doRequest(h, http.MethodGet, "/api/v1/alerts?array_id=A1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var result Result[struct {
		Items []TranslatedAlert `json:"items"`
		Total int               `json:"total"`
	}]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, CodeOK, result.Code)
	require.Len(t, result.Result.Items, 1)

	item := result.Result.Items[0]
	assert.Equal(t, "CPU 监测", item.ObserverLabel)
	assert.Equal(t, "system", item.Category)
	assert.Contains(t, item.Event, "92.5%")
	assert.NotEmpty(t, item.Suggestion)
	assert.False(t, item.Critical)
}

func TestListAlerts_MissingArrayID(t *testing.T) {
	h, _ := setupTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/alerts", nil)

	result := decodeResult(t, rec)
	assert.Equal(t, CodeError, result.Code)
}

func TestListFolded_GroupsCurrentAlerts(t *testing.T) {
	h, mock := setupTestHandler(t)
	mock.ExpectQuery(`INSERT INTO alerts`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	details := map[string]any{"changes": []any{map[string]any{"port": "P1", "change": "up -> down"}}}
	doRequest(h, http.MethodPost, "/api/v1/alerts", map[string]any{
		"alerts": []models.AlertRecord{
			{ObserverName: "link_status", ArrayID: "A1", Level: models.SeverityError, Message: "link down", Details: details, Timestamp: "2026-09-01T10:00:00"},
			{ObserverName: "link_status", ArrayID: "A1", Level: models.SeverityWarning, Message: "link flap", Details: details, Timestamp: "2026-09-01T10:05:00"},
		},
	})

	rec := doRequest(h, http.MethodGet, "/api/v1/alerts/folded?array_id=A1", nil)

	var result Result[struct {
		Groups []models.FoldGroup `json:"groups"`
		Total  int                `json:"total"`
	}]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, CodeOK, result.Code)
	require.Len(t, result.Result.Groups, 1)
	assert.Equal(t, 2, result.Result.Groups[0].Count)
	assert.Equal(t, models.SeverityError, result.Result.Groups[0].WorstLevel)
	assert.False(t, result.Result.Groups[0].Critical)
}

func TestListFolded_MarksCriticalGroups(t *testing.T) {
	h, mock := setupTestHandler(t)
	mock.ExpectQuery(`INSERT INTO alerts`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	doRequest(h, http.MethodPost, "/api/v1/alerts", map[string]any{
		"alerts": []models.AlertRecord{
			{ObserverName: "io_timeout", ArrayID: "A1", Level: models.SeverityError, Message: "io stuck", Timestamp: "2026-09-01T10:00:00"},
		},
	})

	rec := doRequest(h, http.MethodGet, "/api/v1/alerts/folded?array_id=A1", nil)

	var result Result[struct {
		Groups []models.FoldGroup `json:"groups"`
	}]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, CodeOK, result.Code)
	require.Len(t, result.Result.Groups, 1)
	assert.True(t, result.Result.Groups[0].Critical)
}

func TestToggleFold_FlipsState(t *testing.T) {
	h, _ := setupTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/alerts/folded/toggle", map[string]any{"key": "link_status|A1|P1"})
	result := decodeResult(t, rec)
	require.Equal(t, CodeOK, result.Code)
	assert.Equal(t, true, result.Result["expanded"])

	rec = doRequest(h, http.MethodPost, "/api/v1/alerts/folded/toggle", map[string]any{"key": "link_status|A1|P1"})
	result = decodeResult(t, rec)
	assert.Equal(t, false, result.Result["expanded"])
}

func TestToggleFold_MissingKey(t *testing.T) {
	h, _ := setupTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/alerts/folded/toggle", map[string]any{})
	result := decodeResult(t, rec)
	assert.Equal(t, CodeError, result.Code)
}

func TestLevelSummary(t *testing.T) {
	h, mock := setupTestHandler(t)
	rows := sqlmock.NewRows([]string{"level", "count"}).
		AddRow("warning", 3).
		AddRow("error", 1)
	mock.ExpectQuery(`SELECT level, COUNT`).WillReturnRows(rows)

	rec := doRequest(h, http.MethodGet, "/api/v1/alerts/summary?array_id=A1&hours=4", nil)

	var result Result[map[string]int]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, CodeOK, result.Code)
	assert.Equal(t, 3, result.Result["warning"])
	assert.Equal(t, 1, result.Result["error"])
}

func TestExportAlerts_ReturnsXlsx(t *testing.T) {
	h, mock := setupTestHandler(t)
	rows := sqlmock.NewRows([]string{"id", "array_id", "array_name", "observer_name", "level", "message", "details", "timestamp"}).
		AddRow(1, "A1", "阵列一", "memory_leak", "warning", "raw msg",
			`{"current_used_mb": 2048, "consecutive_increases": 5}`, "2026-09-01T10:00:00")
	mock.ExpectQuery(`SELECT id, array_id`).WillReturnRows(rows)

	rec := doRequest(h, http.MethodGet, "/api/v1/alerts/export?array_id=A1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	// xlsx 是 zip 容器，魔数 PK
	body := rec.Body.Bytes()
	require.Greater(t, len(body), 4)
	assert.True(t, strings.HasPrefix(string(body), "PK"))
}

func TestUnknownRouteReturns404(t *testing.T) {
	h, _ := setupTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(h, http.MethodDelete, "/api/v1/alerts", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateAlertExport_EmptyHasHeaderOnly(t *testing.T) {
	data, err := GenerateAlertExport(nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "PK"))
}
