package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/RepairBooking/service-booking/internal/application"
	"github.com/RepairBooking/service-booking/internal/config"
	bookingEvents "github.com/RepairBooking/service-booking/internal/events"
	"github.com/RepairBooking/service-booking/internal/handler"
	"github.com/RepairBooking/service-booking/internal/repository"
	"github.com/RepairBooking/service-booking/migrations"
	"github.com/RepairBooking/service-booking/pkg/common/auth"
	"github.com/RepairBooking/service-booking/pkg/common/database"
	"github.com/RepairBooking/service-booking/pkg/common/health"
	"github.com/RepairBooking/service-booking/pkg/common/kafka"
	"github.com/RepairBooking/service-booking/pkg/common/logger"
	"github.com/RepairBooking/service-booking/pkg/common/metrics"
	"github.com/RepairBooking/service-booking/pkg/common/middleware"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:            cfg.DBConfig.Host,
		Port:            cfg.DBConfig.Port,
		User:            cfg.DBConfig.User,
		Password:        cfg.DBConfig.Password,
		DBName:          cfg.DBConfig.DBName,
		SSLMode:         cfg.DBConfig.SSLMode,
		MaxOpenConns:    cfg.DBConfig.MaxOpenConns,
		MaxIdleConns:    cfg.DBConfig.MaxIdleConns,
		ConnMaxLifetime: cfg.DBConfig.ConnMaxLifetime,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.IsDevelopment() {
		if err := db.AutoMigrate(
			&repository.UserModel{},
			&repository.ServiceModel{},
			&repository.BookingModel{},
			&repository.RatingModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), migrations.FS, ".", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	).WithIssuer(cfg.JWTConfig.Issuer)

	// Initialize token blacklist
	blacklist, closeBlacklist := newBlacklist(cfg, log)
	defer closeBlacklist()

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New("booking", registry)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	ratingRepo := repository.NewGormRatingRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	serviceRepo := repository.NewGormServiceRepository(db)

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		ratingRepo,
		serviceRepo,
		userRepo,
		kafkaProducer,
		appMetrics,
		log,
	)
	ratingService := application.NewRatingService(bookingRepo, ratingRepo, kafkaProducer, appMetrics, log)
	directoryService := application.NewDirectoryService(userRepo, serviceRepo, log)

	// Initialize and start directory event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	directoryConsumer := bookingEvents.NewDirectoryEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		directoryService,
		log,
	)
	defer func() { _ = directoryConsumer.Close() }()

	go func() {
		log.Info("starting directory event consumer")
		if err := directoryConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("directory event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService, directoryService)
	ratingHandler := handler.NewRatingHandler(ratingService, directoryService)
	adminBookingHandler := handler.NewAdminBookingHandler(bookingService)
	authHandler := handler.NewAuthHandler(blacklist, log)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.MetricsMiddleware(appMetrics))

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)
	if cfg.MetricsConfig.Enabled {
		router.GET(cfg.MetricsConfig.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// Register routes
	authMW := middleware.AuthMiddleware(jwtManager, blacklist)
	bookingHandler.RegisterRoutes(&router.RouterGroup, authMW)
	ratingHandler.RegisterRoutes(&router.RouterGroup, authMW)
	adminBookingHandler.RegisterRoutes(&router.RouterGroup, authMW)
	authHandler.RegisterRoutes(&router.RouterGroup, authMW)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}

// newBlacklist connects to Redis. Logout is disabled when Redis is off or unreachable.
func newBlacklist(cfg *config.ServiceConfig, log *zap.Logger) (auth.TokenBlacklist, func()) {
	if !cfg.RedisConfig.Enabled {
		log.Warn("redis disabled, token revocation is off")
		return auth.NoopBlacklist{}, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, token revocation is off", zap.Error(err))
		_ = rdb.Close()
		return auth.NoopBlacklist{}, func() {}
	}

	log.Info("connected to redis", zap.String("addr", cfg.RedisConfig.Addr))
	return auth.NewRedisBlacklist(rdb), func() { _ = rdb.Close() }
}
