package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"observation-hub/internal/config"
	"observation-hub/internal/consumer"
	"observation-hub/internal/folding"
	"observation-hub/internal/models"
	"observation-hub/internal/registry"
	"observation-hub/internal/repository"
	"observation-hub/internal/translator"
)

// AlertService 告警处理服务。从接入流读告警，落库，维护每个阵列的
// 当前告警列表，并对外提供翻译和折叠视图。折叠的展开状态由本服务
// 持有，折叠计算本身不改它。
type AlertService struct {
	cfg    *config.Config
	repo   *repository.AlertsRepository
	feed   *consumer.FeedConsumer
	agent  *AgentClient // 可为 nil，表示不上报面板
	logger *zap.Logger

	mu       sync.RWMutex
	stop     context.CancelFunc
	current  map[string][]models.AlertRecord // array_id -> 当前告警（按到达顺序）
	expanded map[string]bool                 // 折叠组展开状态
}

// NewAlertService 创建告警处理服务
func NewAlertService(
	cfg *config.Config,
	repo *repository.AlertsRepository,
	feed *consumer.FeedConsumer,
	agent *AgentClient,
	logger *zap.Logger,
) *AlertService {
	return &AlertService{
		cfg:      cfg,
		repo:     repo,
		feed:     feed,
		agent:    agent,
		logger:   logger,
		current:  make(map[string][]models.AlertRecord),
		expanded: make(map[string]bool),
	}
}

// Start 启动消费循环，ctx 取消或调用 Stop 后返回
func (s *AlertService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.stop = cancel
	s.mu.Unlock()

	if err := s.feed.EnsureGroup(ctx); err != nil {
		return err
	}

	s.logger.Info("Alert service started",
		zap.String("stream", s.cfg.Feed.Stream),
		zap.String("group", s.cfg.Feed.Group),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Alert service stopped")
			return nil
		default:
		}

		records, err := s.feed.ReadBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Alert service stopped")
				return nil
			}
			s.logger.Error("Failed to read alert batch",
				zap.Error(err),
			)
			time.Sleep(time.Second)
			continue
		}
		if len(records) == 0 {
			// 非阻塞模式下稍作等待，避免空转
			if s.cfg.Feed.BlockSeconds <= 0 {
				time.Sleep(50 * time.Millisecond)
			}
			continue
		}

		s.Ingest(ctx, records)
	}
}

// Stop 停止消费循环。未启动时调用无效果。
func (s *AlertService) Stop() {
	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Ingest 处理一批告警：落库、更新当前列表、关键告警上报面板。
// 单步失败记日志继续，不丢整批。
func (s *AlertService) Ingest(ctx context.Context, records []models.AlertRecord) {
	if len(records) == 0 {
		return
	}

	for i := range records {
		// 未登记的观测点照常入库（翻译会退回原文），但要留痕，
		// 方便发现 agent 先于登记表升级的情况
		if name := records[i].ObserverName; name != "" && !registry.Known(name) {
			s.logger.Warn("Unknown observer in alert feed",
				zap.String("observer", name),
				zap.String("array_id", records[i].ArrayID),
			)
		}
	}

	inserted, err := s.repo.InsertAlerts(ctx, records)
	if err != nil {
		s.logger.Error("Failed to persist alerts",
			zap.Int("record_count", len(records)),
			zap.Error(err),
		)
	}

	s.mu.Lock()
	for _, rec := range records {
		list := append(s.current[rec.ArrayID], rec)
		if limit := s.cfg.Feed.RetainPerList; limit > 0 && len(list) > limit {
			list = list[len(list)-limit:]
		}
		s.current[rec.ArrayID] = list
	}
	s.mu.Unlock()

	s.logger.Info("Ingested alert batch",
		zap.Int("record_count", len(records)),
		zap.Int("persisted", inserted),
	)

	s.reportCritical(records)
}

// reportCritical 把需要立即关注的告警连同翻译结果推给面板
func (s *AlertService) reportCritical(records []models.AlertRecord) {
	if s.agent == nil {
		return
	}

	byArray := make(map[string][]models.AlertRecord)
	for _, rec := range records {
		r := rec
		if registry.IsCritical(&r) {
			byArray[rec.ArrayID] = append(byArray[rec.ArrayID], rec)
		}
	}

	for arrayID, alerts := range byArray {
		summaries := make([]models.Translation, 0, len(alerts))
		for i := range alerts {
			summaries = append(summaries, translator.Translate(&alerts[i]))
		}
		if err := s.agent.ReportAlerts(arrayID, alerts, summaries); err != nil {
			s.logger.Error("Failed to report critical alerts",
				zap.String("array_id", arrayID),
				zap.Int("alert_count", len(alerts)),
				zap.Error(err),
			)
		}
	}
}

// CurrentAlerts 返回某阵列当前告警列表的副本
func (s *AlertService) CurrentAlerts(arrayID string) []models.AlertRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.current[arrayID]
	out := make([]models.AlertRecord, len(list))
	copy(out, list)
	return out
}

// Folded 返回某阵列当前告警的折叠视图
func (s *AlertService) Folded(arrayID string) []models.FoldGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return folding.Fold(s.current[arrayID], s.expanded)
}

// ToggleExpand 切换某折叠组的展开状态
func (s *AlertService) ToggleExpand(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	folding.ToggleExpand(s.expanded, key)
}

// Expanded 查询某折叠组是否展开
func (s *AlertService) Expanded(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.expanded[key]
}
