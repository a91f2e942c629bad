package main

import (
	"encoding/json"
	"net/http"
	"time"

	"queuecast/internal/core/ports"
	"queuecast/internal/core/services"
	httphandlers "queuecast/internal/handlers/http"
	"queuecast/internal/infrastructure/middleware"
	"queuecast/internal/infrastructure/monitoring"
	livesignal "queuecast/internal/infrastructure/signal"
	"queuecast/pkg/config"
	"queuecast/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type apiDeps struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *monitoring.PrometheusCollector
	registry *prometheus.Registry
	health   *monitoring.HealthChecker
	auth     services.AuthService
	users    ports.UserService
	queues   ports.QueueService
}

func newAPIRouter(d apiDeps) *gin.Engine {
	if d.cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	sugar := d.logger.Sugar()
	startTime := time.Now()

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(sugar),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware(),
		middleware.RequestLoggerMiddleware(logger.NewContextLogger(d.logger), d.metrics),
		middleware.NewHTTPRateLimitMiddleware(d.cfg),
		middleware.ErrorHandlerMiddleware(sugar),
	)

	httphandlers.NewUserHandler(d.users, int(d.cfg.Auth.AccessTokenTTL/time.Second), d.cfg.Auth.CookieSecure).
		SetupRoutes(router)
	httphandlers.NewQueueHandler(d.queues, d.metrics).
		SetupRoutes(router, middleware.AuthMiddleware(d.auth))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    monitoring.StatusHealthy,
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		status := d.health.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != monitoring.StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	if d.cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})))
	}

	return router
}

func newSignalMux(ws *livesignal.WebSocketServer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ws.HealthCheck())
	})
	return mux
}
