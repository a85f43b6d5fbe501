package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mukamba/internal/config"
	"mukamba/internal/database"
	"mukamba/internal/domain/lead"
	"mukamba/internal/logger"
	"mukamba/internal/middleware"
	"mukamba/internal/modules/pipeline"
	"mukamba/internal/notification"
	jwtsvc "mukamba/internal/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		logger.New(logger.DefaultConfig()).Fatal("invalid configuration", zap.Error(err))
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	logCfg.Output = cfg.LogOutput
	log := logger.New(logCfg)
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, log, logger.GormLevel(cfg.LogLevel))
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(db, &lead.Lead{}); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}

	notifier, closeNotifier := newNotifier(cfg, log)
	defer closeNotifier()

	hub := pipeline.NewHub()
	defer hub.Close()

	svc := pipeline.NewService(lead.NewRepository(db), notifier, hub, pipeline.Options{
		StageLimits:    cfg.StageLimits,
		GestureTimeout: cfg.GestureTimeout,
	}, log)
	if err := svc.Load(context.Background()); err != nil {
		log.Fatal("load pipeline failed", zap.Error(err))
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(cfg, db, svc, hub, j, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}

// newRouter wires middleware, health and the pipeline API
func newRouter(cfg *config.Config, db *gorm.DB, svc *pipeline.Service, hub *pipeline.Hub, j *jwtsvc.Service, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(log))
	r.Use(middleware.ErrorLogger(log))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			logger.FromGin(c).Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "agents_online": hub.OnlineCount()})
	})

	v1 := r.Group("/api/v1")
	{
		pipeline.NewWSHandler(hub, j, log).RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j), middleware.AdminOnly())
		{
			pipeline.NewHandler(svc).RegisterRoutes(protected)
		}
	}
	return r
}

// newNotifier uses the Redis stream when REDIS_ADDR is set and logs otherwise
func newNotifier(cfg *config.Config, log *zap.Logger) (notification.Notifier, func()) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, bulk notifications are only logged")
		return notification.NewLogNotifier(log), func() {}
	}

	n := notification.NewRedisNotifier(
		notification.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		cfg.NotifyStream,
	)
	if err := n.Ping(context.Background()); err != nil {
		log.Warn("redis unreachable, notifications will fail until it recovers", zap.Error(err))
	}
	return n, func() { _ = n.Close() }
}
