package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	_ "github.com/d60-Lab/action-trace/docs"
	"github.com/d60-Lab/action-trace/internal/api"
	"github.com/d60-Lab/action-trace/internal/api/handler"
	"github.com/d60-Lab/action-trace/internal/cache"
	"github.com/d60-Lab/action-trace/internal/config"
	"github.com/d60-Lab/action-trace/internal/model"
	"github.com/d60-Lab/action-trace/internal/resource"
	"github.com/d60-Lab/action-trace/internal/service"
	"github.com/d60-Lab/action-trace/pkg/logger"
	"github.com/d60-Lab/action-trace/pkg/tracing"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Dev); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	if cfg.Trace.Enabled {
		shutdown, err := tracing.Init(ctx, cfg.Trace.Endpoint, "action-trace")
		if err != nil {
			logger.Warn("tracing init failed", zap.Error(err))
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("open database", zap.Error(err))
		return
	}
	if err := db.AutoMigrate(
		&model.User{}, &model.Post{}, &model.Question{}, &model.Reply{},
		&model.Demand{}, &model.Consult{}, &model.Comment{},
		&model.Trace{}, &model.Remind{},
	); err != nil {
		logger.Error("migrate", zap.Error(err))
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("redis ping", zap.Error(err))
		return
	}

	counters := cache.NewCounterCache(rdb, cfg.Cache.CounterTTL)
	snaps := cache.NewSnapshotCache(rdb, cfg.Cache.SnapshotTTL)
	resolver := resource.NewResolver(
		resource.NewPostProvider(db, snaps),
		resource.NewQuestionProvider(db, snaps),
		resource.NewReplyProvider(db, snaps),
		resource.NewDemandProvider(db, snaps),
		resource.NewConsultProvider(db, snaps),
		resource.NewCommentProvider(db, snaps),
		resource.NewUserProvider(db, snaps),
	)

	h := handler.New(handler.Options{
		Create:        service.NewCreateService(db, counters, resolver),
		Like:          service.NewLikeService(db, counters, resolver),
		Follow:        service.NewFollowService(db, counters, resolver),
		View:          service.NewViewService(db, counters, resolver),
		Invite:        service.NewInviteService(db, counters, resolver),
		Users:         service.NewUserService(db),
		JWTSecret:     cfg.JWT.Secret,
		JWTTTLSeconds: int64(cfg.JWT.TTL / time.Second),
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(cfg, h),
	}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
