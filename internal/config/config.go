package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит все настройки приложения
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	JWT         JWTConfig
	Marketplace MarketplaceConfig
	LogLevel    string
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MongoConfig - настройки подключения к MongoDB (отзывы и рейтинги)
type MongoConfig struct {
	URI    string
	DBName string
}

// RedisConfig - настройки подключения к Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig - настройки Kafka producer
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// JWTConfig - настройки для JWT токенов
type JWTConfig struct {
	SecretKey           string
	AccessTokenDuration time.Duration
}

// MarketplaceConfig - бизнес-правила маркетплейса.
// Передаётся в сервисы явно, никаких скрытых синглтонов.
type MarketplaceConfig struct {
	// Комиссия площадки в базисных пунктах (1000 = 10%)
	PlatformFeeBps int64
	// Лимит скачиваний на один токен
	DownloadLimit int
	// Срок жизни токена скачивания
	DownloadTokenTTL time.Duration
	// Срок жизни токена сброса пароля
	ResetTokenTTL time.Duration
	// Backend чёрного списка токенов: postgres или redis
	BlacklistBackend string
	// Расписание cron для фоновой очистки
	CleanupSchedule string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	accessDuration, err := time.ParseDuration(getEnv("JWT_ACCESS_DURATION", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_DURATION: %w", err)
	}

	downloadTTL, err := time.ParseDuration(getEnv("DOWNLOAD_TOKEN_TTL", "720h")) // 30 дней
	if err != nil {
		return nil, fmt.Errorf("invalid DOWNLOAD_TOKEN_TTL: %w", err)
	}

	resetTTL, err := time.ParseDuration(getEnv("RESET_TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESET_TOKEN_TTL: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "furnibles"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Mongo: MongoConfig{
			URI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
			DBName: getEnv("MONGO_DB", "furnibles_reviews"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKER", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "furnibles.events"),
		},
		JWT: JWTConfig{
			SecretKey:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenDuration: accessDuration,
		},
		Marketplace: MarketplaceConfig{
			PlatformFeeBps:   int64(getEnvInt("PLATFORM_FEE_BPS", 1000)),
			DownloadLimit:    getEnvInt("DOWNLOAD_LIMIT", 5),
			DownloadTokenTTL: downloadTTL,
			ResetTokenTTL:    resetTTL,
			BlacklistBackend: getEnv("BLACKLIST_BACKEND", "postgres"),
			CleanupSchedule:  getEnv("CLEANUP_SCHEDULE", "@hourly"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL возвращает connection string в формате postgres://
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает значение переменной окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
