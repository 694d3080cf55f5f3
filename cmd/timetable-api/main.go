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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/router"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/logger"
)

// @title Timetable API
// @version 1.0.0
// @description University timetable management: resources, constraints, random generation and exports.
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 10 * time.Second

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db, logr); err != nil {
			logr.Fatal("database migration failed", zap.Error(err))
		}
	}

	var redisClient redis.UniversalClient
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		} else {
			redisClient = client
		}
	}

	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	constraintRepo := repository.NewConstraintRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TimetableTTL, logr, cacheRepo.Enabled())
	auditSvc := service.NewAuditService(auditRepo)
	teacherSvc := service.NewTeacherService(teacherRepo, cacheSvc, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, cacheSvc, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, cacheSvc, validate, logr)
	constraintSvc := service.NewConstraintService(constraintRepo, teacherRepo, groupRepo, validate, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, groupRepo, teacherRepo, roomRepo, constraintRepo, cacheSvc, metrics, validate, logr, service.TimetableServiceConfig{
		Subjects:            cfg.Scheduler.Subjects,
		SoftConstraintTypes: cfg.Scheduler.SoftConstraintTypes,
		GlobalExclusion:     cfg.Scheduler.GlobalExclusion,
		CacheTTL:            cfg.Cache.TimetableTTL,
	})

	location, err := time.LoadLocation(cfg.Export.Timezone)
	if err != nil {
		logr.Warn("unknown export timezone, using UTC", zap.String("timezone", cfg.Export.Timezone), zap.Error(err))
		location = time.UTC
	}
	exportSvc := service.NewExportService(timetableSvc, service.ExportServiceConfig{
		CalendarName: cfg.Export.CalendarName,
		Location:     location,
	}, logr, nil, nil, nil, nil)

	engine := router.Setup(cfg, router.Handlers{
		Teachers:    handler.NewTeacherHandler(teacherSvc),
		Rooms:       handler.NewRoomHandler(roomSvc),
		Groups:      handler.NewGroupHandler(groupSvc),
		Constraints: handler.NewConstraintHandler(constraintSvc),
		Timetable:   handler.NewTimetableHandler(timetableSvc, exportSvc),
		Audit:       handler.NewAuditHandler(auditSvc),
		Ops:         handler.NewMetricsHandler(metrics, db),
	}, metrics, logr)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
