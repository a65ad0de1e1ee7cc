package config

import (
	"os"
	"strconv"
)

// Config 观测中心服务配置
type Config struct {
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		ListenAddr string
	}

	// 告警接入配置
	Feed struct {
		Stream        string // 告警流的 Redis Stream key
		Group         string // 消费组名
		Consumer      string // 消费者名
		BlockSeconds  int    // XREADGROUP 阻塞时长（秒）
		BatchSize     int    // 单次读取条数
		RetainPerList int    // 每个阵列内存中保留的当前告警条数
	}

	// 总控面板上报配置。BaseURL 为空表示不上报。
	Agent struct {
		BaseURL string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "observation")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.HTTP.ListenAddr = getEnv("HTTP_LISTEN_ADDR", ":8080")

	cfg.Feed.Stream = getEnv("FEED_STREAM", "observation:alerts")
	cfg.Feed.Group = getEnv("FEED_GROUP", "observation-hub")
	cfg.Feed.Consumer = getEnv("FEED_CONSUMER", "hub-1")
	cfg.Feed.BlockSeconds = getEnvInt("FEED_BLOCK_SECONDS", 5)
	cfg.Feed.BatchSize = getEnvInt("FEED_BATCH_SIZE", 100)
	cfg.Feed.RetainPerList = getEnvInt("FEED_RETAIN_PER_ARRAY", 500)

	cfg.Agent.BaseURL = getEnv("AGENT_BASE_URL", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
