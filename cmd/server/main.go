package main

import (
	"log"

	"github.com/inkpress/internal/cache"
	"github.com/inkpress/internal/config"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/handler"
	"github.com/inkpress/internal/logging"
	"github.com/inkpress/internal/router"
	"github.com/inkpress/internal/storage"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Init(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("initialize database", zap.Error(err))
	}

	if cfg.AdminUserName != "" && cfg.AdminPassword != "" {
		if err := db.EnsureUser(gdb, cfg.AdminUserName, cfg.AdminPassword); err != nil {
			logger.Fatal("ensure admin user", zap.Error(err))
		}
	}

	var media storage.Storage
	if cfg.MinioEndpoint != "" {
		media, err = storage.NewMinioStorage(cfg)
		if err != nil {
			logger.Fatal("initialize object storage", zap.Error(err))
		}
		logger.Info("using minio storage", zap.String("endpoint", cfg.MinioEndpoint), zap.String("bucket", cfg.MinioBucket))
	} else {
		media, err = storage.NewLocalStorage(cfg.UploadDir, cfg.UploadURLPath)
		if err != nil {
			logger.Fatal("initialize local storage", zap.Error(err))
		}
	}

	api := handler.NewAPI(gdb, cache.New(cfg.CacheTTL), media, logger)
	r := router.Setup(cfg, api, logger)

	logger.Info("listening", zap.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
