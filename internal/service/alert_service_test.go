package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"observation-hub/internal/config"
	"observation-hub/internal/consumer"
	"observation-hub/internal/models"
	"observation-hub/internal/repository"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Feed.Stream = "alerts:feed"
	cfg.Feed.Group = "observation-hub"
	cfg.Feed.Consumer = "hub-test"
	cfg.Feed.BlockSeconds = 0
	cfg.Feed.BatchSize = 10
	cfg.Feed.RetainPerList = 500
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) (*AlertService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewAlertsRepository(db, zap.NewNop())
	return NewAlertService(cfg, repo, nil, nil, zap.NewNop()), mock
}

func expectInsert(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery(`INSERT INTO alerts`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
}

func TestIngest_PersistsAndTracksCurrent(t *testing.T) {
	svc, mock := newTestService(t, testConfig())
	expectInsert(mock, 1)
	expectInsert(mock, 2)

	svc.Ingest(context.Background(), []models.AlertRecord{
		{ObserverName: "cpu_usage", ArrayID: "A1", Level: models.SeverityWarning, Message: "cpu high", Timestamp: "2026-09-01T10:00:00"},
		{ObserverName: "link_status", ArrayID: "A2", Level: models.SeverityError, Message: "link down", Timestamp: "2026-09-01T10:00:01"},
	})

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, svc.CurrentAlerts("A1"), 1)
	assert.Len(t, svc.CurrentAlerts("A2"), 1)
	assert.Empty(t, svc.CurrentAlerts("A3"))
}

func TestIngest_RetainLimitBoundsCurrentList(t *testing.T) {
	cfg := testConfig()
	cfg.Feed.RetainPerList = 3
	svc, mock := newTestService(t, cfg)

	records := make([]models.AlertRecord, 5)
	for i := range records {
		expectInsert(mock, int64(i+1))
		records[i] = models.AlertRecord{
			ObserverName: "cpu_usage",
			ArrayID:      "A1",
			Level:        models.SeverityInfo,
			Message:      "tick",
			Timestamp:    "2026-09-01T10:00:00",
		}
	}

	svc.Ingest(context.Background(), records)

	current := svc.CurrentAlerts("A1")
	require.Len(t, current, 3)
	// 保留的是最新的几条
	assert.Equal(t, int64(3), current[0].ID)
	assert.Equal(t, int64(5), current[2].ID)
}

func TestIngest_PersistFailureStillTracksCurrent(t *testing.T) {
	svc, mock := newTestService(t, testConfig())
	mock.ExpectQuery(`INSERT INTO alerts`).WillReturnError(assert.AnError)

	svc.Ingest(context.Background(), []models.AlertRecord{
		{ObserverName: "cpu_usage", ArrayID: "A1", Level: models.SeverityWarning, Message: "cpu high", Timestamp: "2026-09-01T10:00:00"},
	})

	assert.Len(t, svc.CurrentAlerts("A1"), 1)
}

func TestIngest_WarnsOnUnknownObserver(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.NewAlertsRepository(db, zap.NewNop())
	svc := NewAlertService(testConfig(), repo, nil, nil, zap.New(core))

	expectInsert(mock, 1)
	expectInsert(mock, 2)

	svc.Ingest(context.Background(), []models.AlertRecord{
		{ObserverName: "quantum_flux", ArrayID: "A1", Level: models.SeverityInfo, Message: "???", Timestamp: "2026-09-01T10:00:00"},
		{ObserverName: "cpu_usage", ArrayID: "A1", Level: models.SeverityWarning, Message: "cpu high", Timestamp: "2026-09-01T10:00:01"},
	})

	entries := logs.FilterMessage("Unknown observer in alert feed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "quantum_flux", entries[0].ContextMap()["observer"])
	// 未知观测点照常入库
	assert.Len(t, svc.CurrentAlerts("A1"), 2)
}

func TestFolded_RespectsToggledExpandState(t *testing.T) {
	svc, mock := newTestService(t, testConfig())
	for i := 0; i < 3; i++ {
		expectInsert(mock, int64(i+1))
	}

	details := map[string]any{
		"port_counters": map[string]any{"P1": 10.0},
	}
	svc.Ingest(context.Background(), []models.AlertRecord{
		{ObserverName: "error_code", ArrayID: "A1", Level: models.SeverityWarning, Message: "err a", Details: details, Timestamp: "2026-09-01T10:00:00"},
		{ObserverName: "error_code", ArrayID: "A1", Level: models.SeverityError, Message: "err b", Details: details, Timestamp: "2026-09-01T10:05:00"},
		{ObserverName: "error_code", ArrayID: "A1", Level: models.SeverityWarning, Message: "err c", Details: details, Timestamp: "2026-09-01T10:02:00"},
	})

	groups := svc.Folded("A1")
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].Count)
	assert.Equal(t, models.SeverityError, groups[0].WorstLevel)
	assert.False(t, groups[0].Expanded)

	svc.ToggleExpand(groups[0].Key)
	groups = svc.Folded("A1")
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Expanded)

	svc.ToggleExpand(groups[0].Key)
	assert.False(t, svc.Expanded(groups[0].Key))
}

func TestIngest_ReportsCriticalToAgent(t *testing.T) {
	var got AlertReport
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/alerts/report", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":0,"msg":"ok"}`))
	}))
	defer server.Close()

	cfg := testConfig()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.NewAlertsRepository(db, zap.NewNop())
	agent := NewAgentClient(server.URL, zap.NewNop())
	svc := NewAlertService(cfg, repo, nil, agent, zap.NewNop())

	expectInsert(mock, 1)
	expectInsert(mock, 2)

	svc.Ingest(context.Background(), []models.AlertRecord{
		{ObserverName: "process_crash", ArrayID: "A1", Level: models.SeverityError, Message: "crash", Timestamp: "2026-09-01T10:00:00"},
		{ObserverName: "cpu_usage", ArrayID: "A1", Level: models.SeverityWarning, Message: "cpu high", Timestamp: "2026-09-01T10:00:01"},
	})

	// 只有需要立即关注的那条被上报
	assert.Equal(t, "A1", got.ArrayID)
	require.Len(t, got.Alerts, 1)
	assert.Equal(t, "process_crash", got.Alerts[0].ObserverName)
	require.Len(t, got.Summaries, 1)
	assert.NotEmpty(t, got.Summaries[0].Summary)
	assert.NotEmpty(t, got.BatchID)
}

func TestStart_ConsumesFromStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := testConfig()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewAlertsRepository(db, zap.NewNop())
	feed := consumer.NewFeedConsumer(cfg, client, zap.NewNop())
	svc := NewAlertService(cfg, repo, feed, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	_, err = consumer.PublishAlert(ctx, client, cfg.Feed.Stream, &models.AlertRecord{
		ObserverName: "memory_leak",
		ArrayID:      "A1",
		Level:        models.SeverityWarning,
		Message:      "memory climbing",
		Timestamp:    "2026-09-01T10:00:00",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(svc.CurrentAlerts("A1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Stop 与取消 ctx 等价
	svc.Stop()
	require.NoError(t, <-done)
}
