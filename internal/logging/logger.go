// Package logging 构建本服务的 zap Logger。所有日志都带 service_name
// 和 hostname 字段，多套观测中心汇到同一个收集器时靠它们区分来源。
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"observation-hub/internal/config"
)

const serviceName = "observation-hub"

// New 按配置构建 Logger。format 为 "console" 时输出给人看（本地
// 调试），其余情况一律按 JSON 写 stdout，交给容器日志收集。
// 级别写错不报错，按 info 兜底。
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Log.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.OutputPaths = []string{"stdout"}
		zc.ErrorOutputPaths = []string{"stderr"}
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("service_name", serviceName)}
	if hostname, herr := os.Hostname(); herr == nil && hostname != "" {
		fields = append(fields, zap.String("hostname", hostname))
	}
	return logger.With(fields...), nil
}
