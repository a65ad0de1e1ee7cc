package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"observation-hub/internal/models"
)

// AlertsRepository 告警仓库（alerts 表）
type AlertsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertsRepository 创建告警仓库
func NewAlertsRepository(db *sql.DB, logger *zap.Logger) *AlertsRepository {
	return &AlertsRepository{
		db:     db,
		logger: logger,
	}
}

// AlertFilters 告警查询过滤条件
type AlertFilters struct {
	ObserverName *string
	Level        *models.Severity
	Since        *time.Time
	Limit        int
}

// InsertAlerts 批量写入告警。details 序列化为 JSON 存储；单条失败
// 只记日志不中断，返回成功写入的条数。
func (r *AlertsRepository) InsertAlerts(ctx context.Context, alerts []models.AlertRecord) (int, error) {
	if len(alerts) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO alerts (array_id, array_name, observer_name, level, message, details, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id
	`

	inserted := 0
	for i := range alerts {
		a := &alerts[i]

		detailsJSON := "{}"
		if a.Details != nil {
			if b, err := json.Marshal(a.Details); err == nil {
				detailsJSON = string(b)
			}
		}

		var id int64
		err := r.db.QueryRowContext(ctx, query,
			a.ArrayID,
			a.ArrayName,
			a.ObserverName,
			string(a.Level),
			a.Message,
			detailsJSON,
			a.Timestamp,
		).Scan(&id)
		if err != nil {
			r.logger.Error("Failed to insert alert",
				zap.String("array_id", a.ArrayID),
				zap.String("observer", a.ObserverName),
				zap.Error(err),
			)
			continue
		}
		a.ID = id
		inserted++
	}

	return inserted, nil
}

// ListRecent 查询某阵列最近的告警，按时间倒序
func (r *AlertsRepository) ListRecent(ctx context.Context, arrayID string, filters AlertFilters) ([]models.AlertRecord, error) {
	if arrayID == "" {
		return nil, fmt.Errorf("array_id is required")
	}

	query := `
		SELECT id, array_id, array_name, observer_name, level, message, details, timestamp
		FROM alerts
		WHERE array_id = $1
	`
	args := []any{arrayID}
	argPos := 2

	if filters.ObserverName != nil {
		query += fmt.Sprintf(" AND observer_name = $%d", argPos)
		args = append(args, *filters.ObserverName)
		argPos++
	}
	if filters.Level != nil {
		query += fmt.Sprintf(" AND level = $%d", argPos)
		args = append(args, string(*filters.Level))
		argPos++
	}
	if filters.Since != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argPos)
		args = append(args, *filters.Since)
		argPos++
	}

	limit := filters.Limit
	if limit <= 0 || limit > 1000 {
		limit = 500
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", argPos)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.AlertRecord
	for rows.Next() {
		var a models.AlertRecord
		var arrayName sql.NullString
		var detailsJSON string
		var level string

		if err := rows.Scan(&a.ID, &a.ArrayID, &arrayName, &a.ObserverName, &level, &a.Message, &detailsJSON, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		a.ArrayName = arrayName.String
		a.Level = models.Severity(level)
		if detailsJSON != "" {
			// 畸形 details 按空对象处理，不让一行坏数据毁掉整页查询
			if err := json.Unmarshal([]byte(detailsJSON), &a.Details); err != nil {
				r.logger.Warn("Malformed details JSON in alerts table",
					zap.Int64("alert_id", a.ID),
				)
				a.Details = map[string]any{}
			}
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert rows: %w", err)
	}

	return alerts, nil
}

// LevelSummary 统计某阵列最近一段时间内各级别的告警条数
func (r *AlertsRepository) LevelSummary(ctx context.Context, arrayID string, window time.Duration) (map[string]int, error) {
	if arrayID == "" {
		return nil, fmt.Errorf("array_id is required")
	}
	if window <= 0 {
		window = 2 * time.Hour
	}

	query := `
		SELECT level, COUNT(*)
		FROM alerts
		WHERE array_id = $1 AND timestamp >= $2
		GROUP BY level
	`
	since := time.Now().Add(-window)

	rows, err := r.db.QueryContext(ctx, query, arrayID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query level summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]int)
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summary[strings.ToLower(level)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summary rows: %w", err)
	}

	return summary, nil
}
