package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wakana-code/station-navi-app/internal/api"
	"github.com/wakana-code/station-navi-app/internal/config"
	"github.com/wakana-code/station-navi-app/internal/database"
	"github.com/wakana-code/station-navi-app/internal/handler"
	"github.com/wakana-code/station-navi-app/internal/middleware"
	"github.com/wakana-code/station-navi-app/internal/narration"
	"github.com/wakana-code/station-navi-app/internal/observe"
	"github.com/wakana-code/station-navi-app/internal/repository"
	"github.com/wakana-code/station-navi-app/internal/service"
)

const (
	shutdownTimeout   = 10 * time.Second
	idleCheckInterval = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	if cfg.LogLevel != config.LogDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		return err
	}
	defer shutdownMetrics(context.Background())
	metrics := observe.DefaultMetrics()

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		return err
	}
	defer database.Close()
	db := database.GetDB()

	loc, err := cfg.Narration.Location()
	if err != nil {
		return err
	}

	routeRepo := repository.NewRouteRepository(db)
	recordingRepo := repository.NewRecordingRepository(db)

	recordings := service.NewRecordingService(recordingRepo, cfg.Segmentation,
		narration.Options{Skew: cfg.Narration.Skew, Location: loc}, metrics)
	recordings.SetIdleTimeout(cfg.RecordingIdleTimeout)
	routes := service.NewRouteService(routeRepo, metrics)
	search := service.NewSearchService(routeRepo, metrics)

	g, ctx := errgroup.WithContext(ctx)

	var surveyLimiter *middleware.RateLimiter
	if cfg.SurveyRateLimit > 0 {
		surveyLimiter = middleware.NewRateLimiter(cfg.SurveyRateLimit, time.Minute)
		g.Go(func() error {
			surveyLimiter.Run(ctx)
			return nil
		})
	}

	if cfg.RecordingIdleTimeout > 0 {
		g.Go(func() error {
			recordings.Run(ctx, idleCheckInterval)
			return nil
		})
	}

	// 初始化路由
	router := api.SetupRouter(cfg, api.Deps{
		Logger:        logger.With("component", "http"),
		Metrics:       metrics,
		SurveyLimiter: surveyLimiter,
		Recordings:    handler.NewRecordingHandler(recordings),
		Routes:        handler.NewRouteHandler(routes, search),
		Stream:        handler.NewStreamHandler(recordings, cfg.StreamOrigins),
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level.Slog()}))
}
