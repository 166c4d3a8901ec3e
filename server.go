package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/middlewares"
	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/mmdatafocus/roastery_backend/store"
	"github.com/mmdatafocus/roastery_backend/workflow"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("roastery-backend")

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// readiness serves /healthz at once and 503 for everything else until the
// application router is installed.
type readiness struct {
	app atomic.Value // http.Handler
}

func (rd *readiness) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/healthz" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h, _ := rd.app.Load().(http.Handler)
	if h == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	h.ServeHTTP(w, r)
}

// corsConfig reports false in production without CORS_ALLOWED_ORIGINS; no
// cross-origin headers are sent then.
func corsConfig() (cors.Config, bool) {
	corsConfig := cors.DefaultConfig()
	allowedOrigins := splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if len(allowedOrigins) == 0 {
			return corsConfig, false
		}
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", middlewares.CorrelationHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationHeader)
	corsConfig.AllowCredentials = true
	return corsConfig, true
}

// rateLimiterFromEnv returns nil unless RATE_LIMIT_ENABLED=true.
// RATE_LIMIT_WINDOW_SECONDS and RATE_LIMIT_MAX_REQUESTS default to 60 and 600.
func rateLimiterFromEnv() *middlewares.RateLimiter {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		return nil
	}
	limit := int64(600)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	windowSec := int64(60)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			windowSec = n
		}
	}
	return middlewares.NewRateLimiter(config.GetRedisDB(), limit, time.Duration(windowSec)*time.Second)
}

func newRouter(h *Handlers, logger *logrus.Logger, limiter *middlewares.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	if cfg, ok := corsConfig(); ok {
		r.Use(cors.New(cfg))
	}
	if limiter != nil {
		r.Use(limiter.RateLimitMiddleware)
	}
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	h.Register(r)
	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		gin.SetMode(gin.ReleaseMode)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// listen before dependencies are up so the startup probe passes
	gate := &readiness{}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: gate,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal("AutoMigrate failed: " + err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	books := workflow.NewBooks(store.NewGormStore(db, logger), logger)
	loadCtx, cancelLoad := context.WithTimeout(sigCtx, 2*time.Minute)
	if err := books.Load(loadCtx); err != nil {
		cancelLoad()
		logger.WithFields(logrus.Fields{"field": "books"}).Fatal("failed to load books: " + err.Error())
	}
	cancelLoad()
	if drift := books.VerifyStock(); len(drift) > 0 {
		logger.WithFields(logrus.Fields{
			"field": "books",
			"items": len(drift),
		}).Warn("stored stock differs from movements; run cmd/stock-verify")
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if config.OutboxEnabled() {
		go workflow.NewOutboxDispatcher(db, logger).Run(workerCtx)
	}
	if config.WeeklyReportEnabled() {
		go workflow.NewWeeklyReporter(books, logger).Run(workerCtx)
	}

	gate.app.Store(http.Handler(newRouter(NewHandlers(books, db, logger), logger, rateLimiterFromEnv())))

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on :", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// stop background workers before draining requests
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs only requests that recorded errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"status": c.Writer.Status(),
			}).Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
