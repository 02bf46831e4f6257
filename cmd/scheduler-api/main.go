package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ciriera/examboard-scheduler/internal/httpapi"
	internaljobs "github.com/Ciriera/examboard-scheduler/internal/jobs"
	"github.com/Ciriera/examboard-scheduler/internal/pipeline"
	"github.com/Ciriera/examboard-scheduler/pkg/cache"
	"github.com/Ciriera/examboard-scheduler/pkg/config"
	"github.com/Ciriera/examboard-scheduler/pkg/database"
	"github.com/Ciriera/examboard-scheduler/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	metrics := httpapi.NewMetrics()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, score endpoint will not memoize", "error", err)
	}
	scoreCache := httpapi.NewScoreCache(redisClient, 10*time.Minute)

	pl := pipeline.New(logr)
	runner := internaljobs.NewRunner(pl, defaultRunnerWorkers, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner.Start(ctx)
	defer runner.Stop()

	handler := httpapi.NewHandler(runner, nil, logr, metrics, scoreCache)
	guard := httpapi.NewAuthGuard(cfg.JWT.Secret)
	router := httpapi.NewRouter(handler, guard, logr, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:              serverAddr(cfg),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Sugar().Errorw("server shutdown error", "error", err)
		}
	}()

	logr.Sugar().Infow("scheduler-api listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server stopped", "error", err)
	}
}

const defaultRunnerWorkers = 4

func serverAddr(cfg *config.Config) string {
	return fmt.Sprintf(":%d", cfg.Port)
}
