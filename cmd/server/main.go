package main

import (
	"log"
	"time"

	"github.com/fitdash/internal/config"
	"github.com/fitdash/internal/db"
	"github.com/fitdash/internal/fitbit"
	"github.com/fitdash/internal/fitness"
	"github.com/fitdash/internal/handler"
	"github.com/fitdash/internal/logging"
	"github.com/fitdash/internal/metrics"
	"github.com/fitdash/internal/router"
	"github.com/fitdash/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	logger, err := logging.New(cfg.LogLevel, cfg.GinMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	user, err := db.EnsureDefaultUser(db.DB, cfg.DefaultUserEmail, cfg.DefaultUserPassword)
	if err != nil {
		logger.Fatal("failed to ensure default user", zap.Error(err))
	}

	collector := metrics.New()
	client := fitbit.NewClient(
		fitbit.WithBaseURL(cfg.FitbitAPIBaseURL),
		fitbit.WithTimeout(cfg.FitbitTimeout),
		fitbit.WithRetries(cfg.FitbitMaxRetries, time.Second),
		fitbit.WithLogger(logger.Named("fitbit")),
		fitbit.WithRecorder(collector),
	)

	store := service.NewFitnessStore(db.DB, user.Email, logger.Named("store"))
	settings := service.NewSettingService(db.DB, service.Settings{WaterGoalML: cfg.WaterGoalML})
	imports := service.NewImportService(store, settings, client, collector, logger.Named("import"), service.ImportOptions{
		Mode:        fitness.ParseValidationMode(cfg.ValidationMode),
		StrictDates: cfg.StrictDates,
	})
	reports := service.NewReportService(store, settings)

	api := handler.NewAPI(store, imports, reports, settings, logger.Named("http"))

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret, collector.Handler())
	logger.Info("fitdash listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("database", cfg.DatabasePath),
		zap.String("default_user", user.Email))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("failed to run server", zap.Error(err))
	}
}
