package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"observation-hub/internal/models"
	"observation-hub/internal/registry"
	"observation-hub/internal/repository"
	"observation-hub/internal/service"
	"observation-hub/internal/translator"
)

// TranslatedAlert 告警记录加翻译结果，面板直接渲染
type TranslatedAlert struct {
	Alert         models.AlertRecord `json:"alert"`
	Summary       string             `json:"summary"`
	Event         string             `json:"event"`
	Impact        string             `json:"impact,omitempty"`
	Suggestion    string             `json:"suggestion,omitempty"`
	ObserverLabel string             `json:"observer_label"`
	Category      string             `json:"category"`
	CategoryLabel string             `json:"category_label"`
	Critical      bool               `json:"critical"`
}

// AlertHandler 告警 Handler
type AlertHandler struct {
	alertService *service.AlertService
	alertRepo    *repository.AlertsRepository
	logger       *zap.Logger
}

// NewAlertHandler 创建告警 Handler
func NewAlertHandler(alertService *service.AlertService, alertRepo *repository.AlertsRepository, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		alertRepo:    alertRepo,
		logger:       logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *AlertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	path := r.URL.Path
	switch {
	case path == "/api/v1/alerts" && r.Method == http.MethodPost:
		h.IngestAlerts(w, r)
	case path == "/api/v1/alerts" && r.Method == http.MethodGet:
		h.ListAlerts(w, r)
	case path == "/api/v1/alerts/folded" && r.Method == http.MethodGet:
		h.ListFolded(w, r)
	case path == "/api/v1/alerts/folded/toggle" && r.Method == http.MethodPost:
		h.ToggleFold(w, r)
	case path == "/api/v1/alerts/summary" && r.Method == http.MethodGet:
		h.LevelSummary(w, r)
	case path == "/api/v1/alerts/export" && r.Method == http.MethodGet:
		h.ExportAlerts(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// IngestAlerts 直接接收一批告警（agent 推流不可用时的 HTTP 兜底）
func (h *AlertHandler) IngestAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Alerts []models.AlertRecord `json:"alerts"`
	}
	if err := decodeBody(r, maxIngestBody, &req); err != nil {
		respond(w, Fail("invalid request body"))
		return
	}
	if len(req.Alerts) == 0 {
		respond(w, Fail("alerts is required"))
		return
	}
	for i := range req.Alerts {
		if req.Alerts[i].ArrayID == "" {
			respond(w, Fail("array_id is required"))
			return
		}
	}

	h.alertService.Ingest(ctx, req.Alerts)

	respond(w, Ok(map[string]any{
		"accepted": len(req.Alerts),
	}))
}

// ListAlerts 查询某阵列最近告警，附带翻译结果
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	arrayID, ok := arrayIDParam(w, r)
	if !ok {
		return
	}

	filters := repository.AlertFilters{
		Limit: queryInt(r, "limit", 100),
	}
	if filters.Limit > 1000 {
		filters.Limit = 1000
	}
	if observer := strings.TrimSpace(r.URL.Query().Get("observer")); observer != "" {
		filters.ObserverName = &observer
	}
	if levelStr := strings.TrimSpace(r.URL.Query().Get("level")); levelStr != "" {
		level := models.Severity(levelStr)
		filters.Level = &level
	}
	if sinceStr := strings.TrimSpace(r.URL.Query().Get("since")); sinceStr != "" {
		if since, err := time.Parse(time.RFC3339, sinceStr); err == nil {
			filters.Since = &since
		}
	}

	alerts, err := h.alertRepo.ListRecent(ctx, arrayID, filters)
	if err != nil {
		h.logger.Error("Failed to list alerts",
			zap.String("array_id", arrayID),
			zap.Error(err),
		)
		respond(w, Fail("failed to list alerts"))
		return
	}

	items := make([]TranslatedAlert, 0, len(alerts))
	for i := range alerts {
		items = append(items, translateAlert(&alerts[i]))
	}

	respond(w, Ok(map[string]any{
		"items": items,
		"total": len(items),
	}))
}

// ListFolded 返回某阵列当前告警的折叠视图
func (h *AlertHandler) ListFolded(w http.ResponseWriter, r *http.Request) {
	arrayID, ok := arrayIDParam(w, r)
	if !ok {
		return
	}

	groups := h.alertService.Folded(arrayID)

	respond(w, Ok(map[string]any{
		"groups": groups,
		"total":  len(groups),
	}))
}

// ToggleFold 切换折叠组的展开状态
func (h *AlertHandler) ToggleFold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := decodeBody(r, maxToggleBody, &req); err != nil {
		respond(w, Fail("invalid request body"))
		return
	}
	if req.Key == "" {
		respond(w, Fail("key is required"))
		return
	}

	h.alertService.ToggleExpand(req.Key)

	respond(w, Ok(map[string]any{
		"key":      req.Key,
		"expanded": h.alertService.Expanded(req.Key),
	}))
}

// LevelSummary 按级别统计某阵列时间窗内的告警量
func (h *AlertHandler) LevelSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	arrayID, ok := arrayIDParam(w, r)
	if !ok {
		return
	}

	hours := queryInt(r, "hours", 2)
	summary, err := h.alertRepo.LevelSummary(ctx, arrayID, time.Duration(hours)*time.Hour)
	if err != nil {
		h.logger.Error("Failed to summarize alerts",
			zap.String("array_id", arrayID),
			zap.Error(err),
		)
		respond(w, Fail("failed to summarize alerts"))
		return
	}

	respond(w, Ok(summary))
}

// ExportAlerts 导出某阵列最近告警为 Excel
func (h *AlertHandler) ExportAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	arrayID, ok := arrayIDParam(w, r)
	if !ok {
		return
	}

	filters := repository.AlertFilters{
		Limit: queryInt(r, "limit", 1000),
	}
	alerts, err := h.alertRepo.ListRecent(ctx, arrayID, filters)
	if err != nil {
		h.logger.Error("Failed to list alerts for export",
			zap.String("array_id", arrayID),
			zap.Error(err),
		)
		respond(w, Fail("failed to export alerts"))
		return
	}

	items := make([]TranslatedAlert, 0, len(alerts))
	for i := range alerts {
		items = append(items, translateAlert(&alerts[i]))
	}

	data, err := GenerateAlertExport(items)
	if err != nil {
		h.logger.Error("Failed to generate alert export",
			zap.String("array_id", arrayID),
			zap.Error(err),
		)
		respond(w, Fail("failed to export alerts"))
		return
	}

	filename := fmt.Sprintf("alerts_%s_%s.xlsx", arrayID, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// translateAlert 附上翻译、分类和关注级别
func translateAlert(rec *models.AlertRecord) TranslatedAlert {
	t := translator.Translate(rec)
	group := registry.Group(rec.ObserverName)
	return TranslatedAlert{
		Alert:         *rec,
		Summary:       t.Summary,
		Event:         t.Event,
		Impact:        t.Impact,
		Suggestion:    t.Suggestion,
		ObserverLabel: registry.DisplayName(rec.ObserverName),
		Category:      group.ID,
		CategoryLabel: group.Label,
		Critical:      registry.IsCritical(rec),
	}
}
