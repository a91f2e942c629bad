package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"queuecast/internal/core/services"
	"queuecast/internal/infrastructure/monitoring"
	"queuecast/internal/infrastructure/repositories"
	livesignal "queuecast/internal/infrastructure/signal"
	"queuecast/pkg/config"
	"queuecast/pkg/logger"
	"queuecast/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var configPaths = []string{
	"configs/config.yaml",
	"./configs/config.yaml",
	"/etc/queuecast/config.yaml",
	"config.yaml",
}

func loadConfig() (*config.Config, string) {
	if path := os.Getenv("QUEUECAST_CONFIG"); path != "" {
		if cfg, err := config.Load(path); err == nil {
			return cfg, path
		}
	}
	for _, path := range configPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if cfg, err := config.Load(path); err == nil {
			return cfg, path
		}
	}
	// A missing file still gets env overrides applied over the defaults.
	cfg, err := config.Load(configPaths[0])
	if err != nil {
		return config.DefaultConfig(), ""
	}
	return cfg, ""
}

func main() {
	cfg, cfgPath := loadConfig()

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()
	if cfgPath != "" {
		log.Infow("loaded config", "path", cfgPath)
	} else {
		log.Info("no config file found, using defaults")
	}

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "queuecast",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialise tracing", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewPrometheusCollector(registry)

	startCtx, startCancel := context.WithTimeout(context.Background(), time.Minute)
	repoFactory, err := repositories.NewRepositoryFactory(startCtx, cfg, log)
	startCancel()
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}

	hub := livesignal.NewHub(metrics, log.Named("hub"))
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	userService := services.NewUserService(repoFactory.UserRepository(), authService, 0, log.Named("users"))
	queueService := services.NewQueueService(
		repoFactory.QueueRepository(),
		repoFactory.ItemRepository(),
		repoFactory.Locker(),
		hub,
	)

	health := monitoring.NewHealthChecker()
	health.AddCheck("store:"+repoFactory.Driver(), repoFactory.HealthCheck, cfg.Monitoring.HealthTimeout)

	apiServer := &http.Server{
		Addr: cfg.Server.Address,
		Handler: newAPIRouter(apiDeps{
			cfg:      cfg,
			logger:   zapLogger,
			metrics:  metrics,
			registry: registry,
			health:   health,
			auth:     authService,
			users:    userService,
			queues:   queueService,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	wsServer := livesignal.NewWebSocketServer(cfg, hub, queueService, repoFactory.Locker(), metrics, log.Named("signal"))
	signalServer := &http.Server{
		Addr:    cfg.Signal.Address,
		Handler: newSignalMux(wsServer),
	}

	serverErr := make(chan error, 2)
	serve := func(name string, srv *http.Server) {
		log.Infow("starting server", "server", name, "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}
	go serve("api", apiServer)
	go serve("signal", signalServer)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	shutdown(log, cfg, apiServer, signalServer, wsServer)

	if err := repoFactory.Close(); err != nil {
		log.Errorw("error closing repository factory", "error", err)
	}
	traceCtx, traceCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer traceCancel()
	if err := tp.Shutdown(traceCtx); err != nil {
		log.Errorw("error shutting down tracer provider", "error", err)
	}
	log.Info("queuecast stopped")
}

func shutdown(log *zap.SugaredLogger, cfg *config.Config, api, sig *http.Server, ws *livesignal.WebSocketServer) {
	apiCtx, apiCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer apiCancel()
	if err := api.Shutdown(apiCtx); err != nil {
		log.Errorw("error during api shutdown", "error", err)
		api.Close()
	}

	// Hijacked websocket connections are not tracked by http.Server.
	ws.Shutdown()
	sigCtx, sigCancel := context.WithTimeout(context.Background(), cfg.Signal.ShutdownTimeout)
	defer sigCancel()
	if err := sig.Shutdown(sigCtx); err != nil {
		log.Errorw("error during signal shutdown", "error", err)
		sig.Close()
	}
}
