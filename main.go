package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"brandpilot/internal/api"
	"brandpilot/internal/cache"
	"brandpilot/internal/config"
	"brandpilot/internal/service/ai"
	"brandpilot/internal/service/generator"
	"brandpilot/internal/service/workspace"
	"brandpilot/internal/storage"
	"brandpilot/internal/store"
)

func main() {
	cfgPath := os.Getenv("BRANDPILOT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("BRANDPILOT_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create necessary tables: project context, media asset index
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	cacheClient, err := cache.NewClient(cfg)
	if err != nil {
		log.Printf("redis unavailable, research cache disabled: %v", err)
		cacheClient = nil
	}
	defer cacheClient.Close()

	mediaTTL := time.Duration(cfg.BasicConfig.MediaTTLMinutes) * time.Minute
	if mediaTTL <= 0 {
		mediaTTL = workspace.DefaultMediaTTL
	}
	workspaceService, err := workspace.NewService(db, cfg.BasicConfig.MediaDir, mediaTTL)
	if err != nil {
		log.Fatalf("init workspace service: %v", err)
	}
	cleanCtx, cleanCancel := context.WithCancel(context.Background())
	defer cleanCancel()
	cleanInterval := time.Duration(cfg.BasicConfig.CleanIntervalMinutes) * time.Minute
	if cleanInterval <= 0 {
		cleanInterval = workspace.DefaultMediaCleanupInterval
	}
	workspaceService.StartMediaCleaner(cleanCtx, cleanInterval)

	aiService, err := ai.NewService(context.Background(), cfg, cacheClient)
	if err != nil {
		log.Fatalf("init ai service: %v", err)
	}

	conversation := store.NewConversation()
	controller := generator.NewController(conversation, aiService, workspaceService)
	submitTimeout := time.Duration(cfg.BasicConfig.SubmitTimeoutMinutes) * time.Minute
	handlers := api.NewHandler(conversation, controller, workspaceService, submitTimeout)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	if err := router.Run(cfg.BasicConfig.ServerAddress); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
