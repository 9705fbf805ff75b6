package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/docufold/docufold/handlers"
	"github.com/docufold/docufold/internal/config"
	"github.com/docufold/docufold/internal/database"
	"github.com/docufold/docufold/internal/docs"
	dochandler "github.com/docufold/docufold/internal/docs/handler"
	"github.com/docufold/docufold/internal/docs/repository"
	"github.com/docufold/docufold/internal/docs/service"
	"github.com/docufold/docufold/internal/sessions"
	"github.com/docufold/docufold/internal/storage"
	"github.com/docufold/docufold/pkg/logger"
	"github.com/docufold/docufold/pkg/metrics"
	"github.com/docufold/docufold/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Storage.Endpoint != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and token blacklist can use it
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			sessions.SetBlacklistClient(rdb)
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// per-operator when authenticated, otherwise per-IP
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// MongoDB holds document metadata and the session fallback store
	var docRepo repository.Repository
	var sessionsSvc *sessions.Service
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() { _ = client.Disconnect(ctx) }()
		db := client.Database(cfg.MongoDB.Database)
		docRepo = repository.NewMongoRepo(db.Collection("documents"))

		if rdb != nil {
			sessionsSvc = sessions.NewService(sessions.NewRedisRepository(rdb, ""))
			logger.Infof("using Redis for session storage")
		} else {
			sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
			logger.Infof("using MongoDB for session storage")
		}
	} else {
		logger.Warnf("MONGODB_URI not set; using in-memory document metadata (development only)")
		docRepo = repository.NewMemoryRepo()
		if rdb != nil {
			sessionsSvc = sessions.NewService(sessions.NewRedisRepository(rdb, ""))
		}
	}

	// Object store for document content and images
	var store service.ObjectStore
	if cfg.Storage.Endpoint != "" {
		ms, err := storage.NewMinIOStore(&cfg.Storage)
		if err != nil {
			logger.Fatalf("could not initialize MinIO store: %v", err)
		}
		store = ms
	} else {
		logger.Warnf("MINIO_ENDPOINT not set; using in-memory object store (development only)")
		store = storage.NewMemoryStore(cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
	}

	rewriter := docs.PathRewriter{
		BaseURL:   cfg.Storage.PublicBaseURL,
		Bucket:    cfg.Storage.Bucket,
		Namespace: cfg.Storage.Namespace,
	}
	docSvc := service.New(docRepo, store, rewriter, cfg.Storage.Namespace, cfg.Storage.ContentExt)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness reports per-dependency health; sessions are optional in dev
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{
			"metadata": docRepo != nil,
			"storage":  store != nil,
			"sessions": sessionsSvc != nil,
		}
		if !deps["metadata"] || !deps["storage"] {
			ready = false
		}
		if cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis {
			deps["redis"] = rdb != nil
			if rdb == nil {
				ready = false
			}
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Document CRUD; mutations require an admin access token
	dochandler.New(docSvc).Register(r, middleware.AuthMiddleware(cfg.JWT.Secret))

	if sessionsSvc != nil {
		handlers.NewAuthHandler(cfg, sessionsSvc).Register(r.Group("/"))
	} else {
		logger.Warnf("auth endpoints not registered because no session store is available")
	}

	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting docufold on %s (env=%s)", addr, cfg.Server.Environment)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
