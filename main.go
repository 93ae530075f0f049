package main

import (
	"context"
	"log"
	"os"

	"zrozumto/internal/api"
	"zrozumto/internal/auth"
	"zrozumto/internal/config"
	"zrozumto/internal/logger"
	"zrozumto/internal/redis"
	"zrozumto/internal/service/platform"
	"zrozumto/internal/service/quizgen"
	"zrozumto/internal/staging"
	"zrozumto/internal/storage"
	"zrozumto/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("ZROZUMTO_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLog, err := logger.New(os.Getenv("ZROZUMTO_LOG_MODE"))
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer appLog.Sync()

	dbType := os.Getenv("ZROZUMTO_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	rdb, err := redis.NewClient(cfg)
	if err != nil {
		appLog.Warn("redis unavailable, token cache disabled", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	stagingDir := cfg.BasicConfig.StagingDir
	if stagingDir == "" {
		stagingDir = "./data/staging"
	}
	store, err := staging.NewStore(stagingDir)
	if err != nil {
		log.Fatalf("init staging store: %v", err)
	}

	platformSvc := platform.NewService(db, cfg.BasicConfig.EmailDomain)
	authSvc := auth.NewService(db, rdb, 0)

	genSvc, err := quizgen.NewService(context.Background(), cfg.Gemini, appLog)
	if err != nil {
		log.Fatalf("init quiz generator: %v", err)
	}

	pool := worker.NewPool(worker.PoolConfig{
		Workers:   cfg.BasicConfig.Workers,
		QueueSize: cfg.BasicConfig.QueueSize,
	}, genSvc, platformSvc, store, appLog)
	defer pool.Stop()

	handlers := api.NewHandler(platformSvc, authSvc, pool, store, cfg.BasicConfig.WebhookSecret, appLog)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
