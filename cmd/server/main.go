package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/tms7331/centralized-poker/internal/api"
	"github.com/tms7331/centralized-poker/internal/config"
	"github.com/tms7331/centralized-poker/internal/poker/eval"
	"github.com/tms7331/centralized-poker/internal/repo"
	"github.com/tms7331/centralized-poker/internal/service"
	"github.com/tms7331/centralized-poker/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Load Config
	config.LoadConfig(configPath)

	// 2. Init Logger
	logger.InitLogger(config.GlobalConfig.Server.Mode)
	defer logger.Log.Sync()

	logger.Log.Info("Starting server...", zap.String("mode", config.GlobalConfig.Server.Mode))

	// 3. Hand evaluator tables (generated on first run, cached on disk after)
	evaluator, err := eval.LoadOrBuild(config.GlobalConfig.Game.EvalTablePath)
	if err != nil {
		logger.Log.Fatal("failed to load hand evaluator", zap.Error(err))
	}

	// 4. Init DB & Redis
	repo.InitDB()
	repo.InitRedis()

	// 5. Init Services
	services := service.NewContainer(repo.DB, repo.RDB, evaluator)
	if err := services.Start(ctx); err != nil {
		logger.Log.Fatal("failed to start services", zap.Error(err))
	}

	// 6. Init Router
	if config.GlobalConfig.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// Register Routes
	api.RegisterRoutes(r, services)

	// 7. Start Server
	addr := fmt.Sprintf(":%s", config.GlobalConfig.Server.Port)
	logger.Log.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
