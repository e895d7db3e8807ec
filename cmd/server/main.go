package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/habittrack/internal/config"
	"github.com/habittrack/internal/db"
	"github.com/habittrack/internal/handler"
	"github.com/habittrack/internal/router"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// 读取 .env（不存在时忽略）
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	// 设置并运行 Gin 服务器
	api := handler.NewAPI(db.NewGormKV(db.DB), logger)
	r := router.Setup(api, cfg.SessionSecret)

	logger.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("failed to run server", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(parsed)
	}
	return config.Build()
}
