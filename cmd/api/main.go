package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/andescargo/tracking-gateway/internal/auth"
	"github.com/andescargo/tracking-gateway/internal/config"
	"github.com/andescargo/tracking-gateway/internal/events"
	"github.com/andescargo/tracking-gateway/internal/handlers"
	"github.com/andescargo/tracking-gateway/internal/repository"
	"github.com/andescargo/tracking-gateway/internal/services"
	xhttp "github.com/andescargo/tracking-gateway/pkg/http"
	"github.com/andescargo/tracking-gateway/pkg/logger"
	"github.com/andescargo/tracking-gateway/pkg/pg"
	"github.com/andescargo/tracking-gateway/pkg/prom"
	"github.com/andescargo/tracking-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	eventQueue, err := events.NewQueue(redisAdap, events.QueueConfig{
		Stream:            config.Get().EventStreamName,
		ConsumerGroup:     config.Get().EventConsumerGroup,
		ConsumerName:      config.Get().EventConsumerName,
		MaxRetries:        config.Get().EventMaxRetries,
		VisibilityTimeout: config.Get().EventVisibilityTimeout,
		PollInterval:      config.Get().EventPollInterval,
		BatchSize:         config.Get().EventBatchSize,
		MaxLen:            config.Get().EventMaxLen,
		EnableDLQ:         config.Get().EventEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating event queue", "error", err)
		return
	}

	if err := prom.Create(config.Get().AppName, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
		logger.Warn("failed registering metrics", "error", err)
	}
	if config.Get().AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
	}

	packageRepo := repository.NewPackageRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// services
	packageService := services.NewPackageService(packageRepo, historyRepo, eventQueue, redisAdap, config.Get().TrackingCacheTTL)
	statsService := services.NewStatsService(statsRepo)
	healthService := services.NewHealthService()

	verifier := auth.NewVerifier([]byte(config.Get().JWTSecret))

	// v1 handlers
	packageHandler := handlers.NewPackageHandler(packageService, verifier)
	statsHandler := handlers.NewStatsHandler(statsService, verifier)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterPackageRoutes(g, packageHandler)
	handlers.RegisterStatsRoutes(g, statsHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
