package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"observation-hub/internal/config"
	"observation-hub/internal/models"
)

// FeedConsumer 告警接入流消费者。agent 把采集到的告警批量写进
// Redis Stream，这里用消费组读出来交给服务层。
type FeedConsumer struct {
	cfg         *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewFeedConsumer 创建告警流消费者
func NewFeedConsumer(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *FeedConsumer {
	return &FeedConsumer{
		cfg:         cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// EnsureGroup 保证消费组存在。组已存在不算错误。
func (c *FeedConsumer) EnsureGroup(ctx context.Context) error {
	err := c.redisClient.XGroupCreateMkStream(ctx, c.cfg.Feed.Stream, c.cfg.Feed.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// ReadBatch 阻塞读取一批告警记录。无新消息时返回空，不算错误。
// 单条解析失败只记日志并 ACK 掉，不影响同批其他消息。
func (c *FeedConsumer) ReadBatch(ctx context.Context) ([]models.AlertRecord, error) {
	// BlockSeconds <= 0 表示不阻塞，轮询一次就返回
	block := time.Duration(-1)
	if c.cfg.Feed.BlockSeconds > 0 {
		block = time.Duration(c.cfg.Feed.BlockSeconds) * time.Second
	}

	streams, err := c.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Feed.Group,
		Consumer: c.cfg.Feed.Consumer,
		Streams:  []string{c.cfg.Feed.Stream, ">"},
		Count:    int64(c.cfg.Feed.BatchSize),
		Block:    block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read alert feed: %w", err)
	}

	var records []models.AlertRecord
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			record, perr := parseFeedMessage(msg.Values)
			if perr != nil {
				c.logger.Warn("Dropping malformed feed message",
					zap.String("message_id", msg.ID),
					zap.Error(perr),
				)
			} else {
				records = append(records, *record)
			}
			if ackErr := c.redisClient.XAck(ctx, c.cfg.Feed.Stream, c.cfg.Feed.Group, msg.ID).Err(); ackErr != nil {
				c.logger.Warn("Failed to ack feed message",
					zap.String("message_id", msg.ID),
					zap.Error(ackErr),
				)
			}
		}
	}

	return records, nil
}

// parseFeedMessage 从 stream 消息还原告警记录。
// agent 按 {"data": "<json>"} 的格式写入。
func parseFeedMessage(values map[string]interface{}) (*models.AlertRecord, error) {
	raw, ok := values["data"]
	if !ok {
		return nil, fmt.Errorf("missing data field")
	}
	data, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("data field is not a string")
	}

	var record models.AlertRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to decode alert record: %w", err)
	}
	if record.ObserverName == "" {
		return nil, fmt.Errorf("alert record missing observer_name")
	}
	if record.ArrayID == "" {
		return nil, fmt.Errorf("alert record missing array_id")
	}
	return &record, nil
}

// PublishAlert 把一条告警写入接入流（测试与本机回灌用）
func PublishAlert(ctx context.Context, client *redis.Client, stream string, record *models.AlertRecord) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode alert record: %w", err)
	}
	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Result()
}
