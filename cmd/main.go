package main

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	jwtmw "github.com/studiohub/studiohub/middleware/jwt"
	logger "github.com/studiohub/studiohub/middleware/log"

	"github.com/studiohub/studiohub/config"
	"github.com/studiohub/studiohub/internal/consumer"
	"github.com/studiohub/studiohub/internal/handlers"
	"github.com/studiohub/studiohub/internal/repositories"
	"github.com/studiohub/studiohub/internal/routers"
	"github.com/studiohub/studiohub/internal/services"
	"github.com/studiohub/studiohub/internal/storage"
	"github.com/studiohub/studiohub/internal/utils"
	"github.com/studiohub/studiohub/internal/ws"
	"github.com/studiohub/studiohub/pkg/mq"
	"github.com/studiohub/studiohub/utils/ratelimit"
	"github.com/studiohub/studiohub/utils/snowflake"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer appLog.Close()

	utils.InitGlobalWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)

	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	postgres, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		appLog.Fatal("failed to init postgres", zap.Error(err))
	}

	// Redis carries presence marks and rate limit counters. Both are
	// advisory, so the service starts without it.
	redisClient, err := storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		appLog.Warn("redis unavailable, presence and rate limiting disabled", zap.Error(err))
		redisClient = nil
	}

	messageRepo := repositories.NewMessageRepository(postgres)
	projectRepo := repositories.NewProjectRepository(postgres)
	userRepo := repositories.NewUserRepository(postgres)

	idgen, err := snowflake.NewGenerator(snowflake.Config{WorkerID: cfg.Gateway.WorkerID})
	if err != nil {
		appLog.Fatal("failed to init id generator", zap.Error(err))
	}

	messageService := services.NewMessageService(messageRepo, projectRepo, userRepo, idgen, appLog)

	registry := ws.NewRegistry(redisClient, cfg.Gateway.NodeID, appLog)
	hub := ws.NewHub(registry, appLog)
	go hub.Run()

	notificationService := services.NewNotificationService(projectRepo, userRepo, hub, appLog)
	inProcess := services.NewInProcessDispatcher(notificationService, utils.GlobalWorkerPool)

	// The broker is preferred for the post-commit fanout; without it the
	// in-process dispatcher carries the same semantics on the worker pool.
	var dispatcher services.Dispatcher = inProcess
	kafkaProducer, err := mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		appLog.Warn("kafka unavailable, running fanout in process", zap.Error(err))
	} else {
		defer kafkaProducer.Close()
		dispatcher = mq.NewKafkaDispatcher(kafkaProducer, inProcess)

		eventConsumer := consumer.NewEventConsumer(notificationService, appLog)
		if err := consumer.StartConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, eventConsumer, appLog); err != nil {
			appLog.Warn("failed to start event consumer", zap.Error(err))
		}
	}

	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewTokenBucketLimiter(redisClient, appLog, true)
	}

	tokens := jwtmw.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.RefreshHours)

	messageHandler := handlers.NewMessageHandler(messageService, hub, dispatcher, appLog)
	automationHandler := handlers.NewAutomationHandler(messageService, hub, appLog)

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	routers.SetupRoutes(r, cfg,
		tokens,
		messageHandler,
		automationHandler,
		hub,
		messageService,
		dispatcher,
		limiter,
		appLog,
	)

	appLog.Info("starting server", zap.Int("port", cfg.Server.Port))
	if err := r.Run(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
		appLog.Fatal("server exited", zap.Error(err))
	}
}
