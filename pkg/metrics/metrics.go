package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database Метрики
// =============================================================================

// DbQueryDuration - время выполнения SQL запросов
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

// DbErrors - счётчик ошибок базы данных
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

// RedisOperationDuration - время операций Redis
var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Business Метрики (специфичные для Furnibles)
// =============================================================================

// --- Auth ---

// AuthRegistrations - регистрации пользователей
var AuthRegistrations = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_registrations_total",
		Help: "Total number of user registrations",
	},
)

// AuthLogins - попытки входа
var AuthLogins = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total number of login attempts",
	},
	[]string{"status"}, // success, failed
)

// AuthTokensIssued - выданные access токены
var AuthTokensIssued = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Total number of access tokens issued",
	},
)

// AuthTokensRevoked - токены, попавшие в чёрный список при logout
var AuthTokensRevoked = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_tokens_revoked_total",
		Help: "Total number of tokens blacklisted on logout",
	},
)

// AuthRevokedTokensDenied - запросы, отклонённые из-за отозванного токена
var AuthRevokedTokensDenied = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_revoked_tokens_denied_total",
		Help: "Total number of requests denied due to a revoked token",
	},
)

// AuthBlacklistCheckFailures - ошибки проверки чёрного списка (fail-open)
var AuthBlacklistCheckFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_blacklist_check_failures_total",
		Help: "Total number of blacklist check failures (request allowed, fail-open)",
	},
)

// --- Orders ---

// OrdersCreated - созданные заказы
var OrdersCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	},
)

// OrdersPaid - оплаченные заказы
var OrdersPaid = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders confirmed by the payment provider",
	},
)

// PlatformFeesCents - собранная комиссия площадки в минорных единицах
var PlatformFeesCents = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "platform_fees_cents_total",
		Help: "Total platform fees collected, in cents",
	},
)

// DownloadTokensIssued - выданные токены скачивания
var DownloadTokensIssued = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "download_tokens_issued_total",
		Help: "Total number of download tokens minted",
	},
)

// DownloadRedemptions - попытки скачивания по токену
var DownloadRedemptions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "download_redemptions_total",
		Help: "Total number of download token redemptions",
	},
	[]string{"status"}, // success, expired, exhausted, denied
)

// --- Reviews ---

// ReviewsCreated - созданные отзывы
var ReviewsCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "reviews_created_total",
		Help: "Total number of reviews created",
	},
)

// ReviewsModerated - результаты модерации
var ReviewsModerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_moderated_total",
		Help: "Total number of review moderation outcomes",
	},
	[]string{"status"}, // published, flagged, removed
)

// ReviewVotes - голоса за полезность отзывов
var ReviewVotes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "review_votes_total",
		Help: "Total number of review helpfulness votes",
	},
	[]string{"vote"}, // helpful, not_helpful
)
