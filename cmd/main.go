package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	authhandler "furnibles/internal/app/auth/handler"
	authrepo "furnibles/internal/app/auth/repository"
	authservice "furnibles/internal/app/auth/service"
	"furnibles/internal/app/auth/util"
	ordersentity "furnibles/internal/app/orders/entity"
	ordershandler "furnibles/internal/app/orders/handler"
	ordersrepo "furnibles/internal/app/orders/repository"
	ordersservice "furnibles/internal/app/orders/service"
	reviewshandler "furnibles/internal/app/reviews/handler"
	reviewsrepo "furnibles/internal/app/reviews/repository"
	reviewsservice "furnibles/internal/app/reviews/service"
	"furnibles/internal/app/scheduler"
	"furnibles/internal/config"
	"furnibles/internal/infrastructure/messaging"
	"furnibles/internal/router"
	"furnibles/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	logger.Init("furnibles", cfg.LogLevel)

	// === POSTGRESQL (pgx) ===
	// Пул pgx обслуживает auth: пользователи и чёрный список токенов
	pool, err := connectDB(context.Background(), cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	logger.Info().Msg("Successfully connected to PostgreSQL")

	// === POSTGRESQL (GORM) ===
	// GORM обслуживает заказы: транзакционный Store с row-level locking
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open GORM connection")
	}

	err = gormDB.AutoMigrate(
		&ordersentity.Order{},
		&ordersentity.OrderItem{},
		&ordersentity.CartItem{},
		&ordersentity.DownloadToken{},
		&ordersentity.Transaction{},
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate orders schema")
	}

	// === MONGODB ===
	// MongoDB хранит отзывы, ответы продавцов, голоса и рейтинги
	mongoClient, err := connectMongoDB(cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	}()
	logger.Info().Msg("Successfully connected to MongoDB")

	mongoDB := mongoClient.Database(cfg.Mongo.DBName)

	// === KAFKA PRODUCER ===
	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().Str("topic", cfg.Kafka.Topic).Msg("Kafka producer initialized")

	// === AUTH ===
	jwtManager := util.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.AccessTokenDuration)
	userRepo := authrepo.NewUserRepository(pool)
	tokenRepo := buildTokenRepository(cfg, pool)

	authSvc := authservice.NewAuthService(userRepo, tokenRepo, jwtManager, cfg.Marketplace.ResetTokenTTL)
	authHandler := authhandler.NewAuthHandler(authSvc)
	authMiddleware := authhandler.NewAuthMiddleware(authSvc)

	// === ORDERS ===
	store := ordersrepo.NewStore(gormDB)
	orderSvc := ordersservice.NewOrderService(
		store,
		kafkaProducer,
		cfg.Marketplace.PlatformFeeBps,
		cfg.Marketplace.DownloadLimit,
		cfg.Marketplace.DownloadTokenTTL,
	)
	orderHandler := ordershandler.NewOrderHandler(orderSvc)

	// === REVIEWS ===
	reviewSvc := reviewsservice.NewReviewService(
		reviewsrepo.NewReviewRepository(mongoDB),
		reviewsrepo.NewResponseRepository(mongoDB),
		reviewsrepo.NewVoteRepository(mongoDB),
		reviewsrepo.NewRatingRepository(mongoDB),
		orderSvc,
		kafkaProducer,
	)
	reviewHandler := reviewshandler.NewReviewHandler(reviewSvc)

	// === SCHEDULER ===
	// Фоновая уборка просроченных записей чёрного списка и токенов скачивания
	cronScheduler := scheduler.NewCronScheduler(tokenRepo, orderSvc)
	if err := cronScheduler.Start(context.Background(), cfg.Marketplace.CleanupSchedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}
	defer cronScheduler.Stop()

	// === HTTP SERVER ===
	engine := router.SetupRoutes(authHandler, authMiddleware, orderHandler, reviewHandler)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Address()).Msg("Starting Furnibles server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server stopped gracefully")
}

// buildTokenRepository выбирает backend чёрного списка по конфигурации.
// postgres - основной (переживает рестарты без внешних зависимостей),
// redis - для инсталляций с большим трафиком logout.
func buildTokenRepository(cfg *config.Config, pool *pgxpool.Pool) authrepo.TokenRepository {
	if cfg.Marketplace.BlacklistBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Address(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 5,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}

		logger.Info().Msg("Using Redis token blacklist")
		return authrepo.NewRedisTokenRepository(client)
	}

	logger.Info().Msg("Using PostgreSQL token blacklist")
	return authrepo.NewTokenRepository(pool)
}

// connectDB устанавливает соединение с PostgreSQL через пул pgx
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// Подключение с повторными попытками: БД может подниматься дольше сервиса
	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().Int("attempt", i+1).Err(err).Msg("Failed to connect to PostgreSQL, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}

// connectMongoDB устанавливает соединение с MongoDB с повторными попытками
func connectMongoDB(cfg config.MongoConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err = mongo.Connect(ctx, clientOptions)
		cancel()

		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = client.Ping(pingCtx, nil)
			pingCancel()

			if err == nil {
				return client, nil
			}
		}

		logger.Warn().Int("attempt", i+1).Err(err).Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}
