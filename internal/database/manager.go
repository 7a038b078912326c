package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Manager holds the optional backing stores. Either field may be nil when its
// URL is not configured.
type Manager struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *logrus.Logger
}

// Database configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	LogLevel    string
}

// NewManager connects whatever is configured. An empty URL skips that store.
func NewManager(config *Config, logger *logrus.Logger) (*Manager, error) {
	m := &Manager{logger: logger}

	if config.DatabaseURL != "" {
		db, err := openPostgres(config, logger)
		if err != nil {
			return nil, err
		}
		m.DB = db
	}

	if config.RedisURL != "" {
		client, err := openRedis(config.RedisURL)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.Redis = client
	}

	logger.WithFields(logrus.Fields{
		"database": m.DB != nil,
		"redis":    m.Redis != nil,
	}).Info("Storage connections established")

	return m, nil
}

func openPostgres(config *Config, logger *logrus.Logger) (*gorm.DB, error) {
	var gormLog gormlogger.Interface
	switch config.LogLevel {
	case "debug":
		gormLog = gormlogger.New(
			logger,
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormlogger.Info,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		)
	default:
		gormLog = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func openRedis(url string) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.PoolSize = 20
	redisOpts.MinIdleConns = 2
	redisOpts.MaxConnAge = time.Hour
	redisOpts.IdleTimeout = 30 * time.Minute

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Migrate creates the run log table. No-op without a database.
func (m *Manager) Migrate() error {
	if m.DB == nil {
		return nil
	}
	m.logger.Info("Running database migrations...")
	return m.DB.AutoMigrate(&models.AnalysisRun{})
}

// Close closes all database connections
func (m *Manager) Close() error {
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			m.logger.WithError(err).Error("Failed to close Redis connection")
		}
	}

	if m.DB != nil {
		sqlDB, err := m.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

func (m *Manager) HasDatabase() bool { return m != nil && m.DB != nil }

func (m *Manager) HasRedis() bool { return m != nil && m.Redis != nil }

// Health check methods
func (m *Manager) PingDatabase(ctx context.Context) error {
	if !m.HasDatabase() {
		return fmt.Errorf("database not configured")
	}
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *Manager) PingRedis(ctx context.Context) error {
	if !m.HasRedis() {
		return fmt.Errorf("redis not configured")
	}
	return m.Redis.Ping(ctx).Err()
}

// Cache wraps the Redis counters shared between replicas.
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	RateLimitKey = "ratelimit:%s:%d"
)

// IncrementWindow bumps the counter for key in the current fixed window and
// returns the new count. The key expires with its window.
func (c *Cache) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	slot := time.Now().UnixNano() / int64(window)
	full := fmt.Sprintf(RateLimitKey, key, slot)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, full)
	pipe.Expire(ctx, full, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", full, err)
	}
	return incr.Val(), nil
}

// GetCacheStats reports the key count and, when the server exposes them, the
// client and keyspace counters from INFO.
func (c *Cache) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	keys, err := c.client.DBSize(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read key count: %w", err)
	}

	stats := map[string]interface{}{
		"keys": keys,
	}

	info, err := c.client.Info(ctx).Result()
	if err != nil {
		c.logger.WithError(err).Debug("Redis INFO unavailable")
		return stats, nil
	}
	stats["connected_clients"] = c.extractStat(info, "connected_clients")
	stats["keyspace_hits"] = c.extractStat(info, "keyspace_hits")
	stats["keyspace_misses"] = c.extractStat(info, "keyspace_misses")
	stats["total_commands"] = c.extractStat(info, "total_commands_processed")

	return stats, nil
}

func (c *Cache) extractStat(info, key string) string {
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, key+":") {
			return strings.TrimPrefix(line, key+":")
		}
	}
	return "0"
}
