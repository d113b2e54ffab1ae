package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/cache"
	"github.com/uniconnect/backend/internal/config"
	"github.com/uniconnect/backend/internal/database"
	"github.com/uniconnect/backend/internal/email"
	"github.com/uniconnect/backend/internal/handlers"
	"github.com/uniconnect/backend/internal/kernel"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/metrics"
	"github.com/uniconnect/backend/internal/middleware"
	"github.com/uniconnect/backend/internal/storage"
	"github.com/uniconnect/backend/internal/telemetry"
	"github.com/uniconnect/backend/internal/validation"
	"github.com/uniconnect/backend/internal/websocket"
	"go.uber.org/zap"
)

const serviceName = "uniconnect-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== UniConnect server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	ctx := context.Background()
	metrics.Initialize()

	tp, err := telemetry.InitTracer(ctx, telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Telemetry.Endpoint,
		Enabled:      cfg.Telemetry.Enabled,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Log.Warn("Tracing disabled", zap.Error(err))
	}

	db, err := database.Open(cfg.Database, cfg.Environment)
	if err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	if tp != nil {
		if err := db.Use(telemetry.GORMTracingPlugin()); err != nil {
			logger.WarnWithFields("Failed to install database tracing", err)
		}
	}
	if err := database.Migrate(db); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	k := kernel.New().
		SetDB(db).
		SetLogger(logger.Log).
		SetHub(websocket.NewHub()).
		SetAuthConfig(cfg.Auth)

	sv := validation.NewServiceValidator(cfg.RequiredServices)

	// The store is always installed. While Redis is unreachable the breaker
	// turns every lookup into a miss and reads go to the database.
	store := cache.NewRedisStore(cache.NewRedisClient(cfg.Redis))
	k.SetCache(cache.New(store))
	k.OnCleanup(func(context.Context) error { return store.Close() })
	sv.Register("redis", store.Ping)
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		logger.Log.Warn("Redis unreachable, serving from the database until it recovers",
			zap.String("address", cfg.Redis.Addr), zap.Error(err))
	} else {
		logger.Log.Info("Redis client connected", zap.String("address", cfg.Redis.Addr))
	}
	cancelPing()

	if cfg.AWS.Bucket != "" {
		uploader, err := storage.NewS3Uploader(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNBaseURL)
		if err != nil {
			logger.WarnWithFields("Failed to initialize S3 uploader", err)
		} else {
			k.SetUploader(uploader)
			sv.Register("storage", uploader.CheckBucketAccess)
		}
	}

	if cfg.Email.From != "" {
		mailer, err := email.NewEmailService(cfg.AWS.Region, cfg.Email.From, cfg.Email.FromName)
		if err != nil {
			logger.WarnWithFields("Failed to initialize SES mailer", err)
			k.SetMailer(email.LogSender{})
		} else {
			k.SetMailer(mailer)
		}
	} else {
		k.SetMailer(email.LogSender{})
	}

	if err := k.Wire(); err != nil {
		logger.FatalWithFields("Failed to wire services", err)
	}
	if err := k.Validate(); err != nil {
		logger.FatalWithFields("Kernel validation failed", err)
	}

	chatbotClient := telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{ServiceName: "chatbot"})
	if cfg.ChatbotURL != "" {
		sv.Register("chatbot", validation.HTTPCheck(chatbotClient, cfg.ChatbotURL))
	}
	if err := sv.ValidateServices(ctx); err != nil {
		logger.FatalWithFields("Required service unavailable", err)
	}

	wsHandler := websocket.NewHandler(k.Hub(), k.Auth(), cfg.ClientOrigins)
	k.SetWebSocketHandler(wsHandler)

	h := handlers.NewHandlers(k)
	h.SetChatbot(cfg.ChatbotURL, chatbotClient)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if tp != nil {
		r.Use(middleware.TracingMiddleware(serviceName)...)
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.ClientOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "X-Cache"}
	r.Use(cors.New(corsConfig))

	// The chatbot reply and socket frames must reach the client unbuffered
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/chat", "/ws", "/metrics"})))

	h.RegisterRoutes(r, wsHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Log.Info("UniConnect backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := k.Hub().Shutdown(shutdownCtx); err != nil {
		logger.WarnWithFields("WebSocket shutdown warning", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	if err := k.Cleanup(shutdownCtx); err != nil {
		logger.WarnWithFields("Cleanup finished with errors", err)
	}
	if err := database.Close(db); err != nil {
		logger.WarnWithFields("Failed to close database", err)
	}
	if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
		fmt.Fprintf(os.Stderr, "tracer shutdown: %v\n", err)
	}

	logger.Log.Info("Server exited")
}
