package service

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"observation-hub/internal/models"
)

// AlertReport 上报给总控面板的一批告警
type AlertReport struct {
	BatchID   string               `json:"batch_id"`
	ArrayID   string               `json:"array_id"`
	Alerts    []models.AlertRecord `json:"alerts"`
	Summaries []models.Translation `json:"summaries"`
	SentAt    int64                `json:"sent_at"`
}

// ReportResponse 面板侧的回执
type ReportResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

// AgentClient 面板上报客户端。关键告警翻译完成后推给总控面板。
type AgentClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewAgentClient 创建面板上报客户端
func NewAgentClient(baseURL string, logger *zap.Logger) *AgentClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &AgentClient{
		httpClient: client,
		logger:     logger,
	}
}

// ReportAlerts 把一批告警连同翻译结果上报。batch_id 用于面板侧去重。
func (c *AgentClient) ReportAlerts(arrayID string, alerts []models.AlertRecord, summaries []models.Translation) error {
	if len(alerts) == 0 {
		return nil
	}

	report := AlertReport{
		BatchID:   uuid.New().String(),
		ArrayID:   arrayID,
		Alerts:    alerts,
		Summaries: summaries,
		SentAt:    time.Now().Unix(),
	}

	// 2xx 和拒绝应答是同一个结构，拒绝时 Msg 带原因
	var response ReportResponse
	resp, err := c.httpClient.R().
		SetBody(report).
		SetResult(&response).
		SetError(&response).
		Post("/api/v1/alerts/report")

	if err != nil {
		c.logger.Error("Failed to report alerts",
			zap.String("array_id", arrayID),
			zap.String("batch_id", report.BatchID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to report alerts: %w", err)
	}

	if resp.StatusCode() >= 300 {
		c.logger.Error("Alert report rejected",
			zap.String("array_id", arrayID),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", response.Msg),
		)
		return fmt.Errorf("alert report rejected: %s (status: %d)", response.Msg, resp.StatusCode())
	}

	c.logger.Info("Reported alerts",
		zap.String("array_id", arrayID),
		zap.String("batch_id", report.BatchID),
		zap.Int("alert_count", len(alerts)),
	)

	return nil
}
