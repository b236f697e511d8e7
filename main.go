// @title TalentFlow 测评服务 API
// @version 1.0
// @description TalentFlow 招聘流程中测评的编辑、校验与预览服务。

// @host localhost:8080
// @BasePath /api

package main

import (
	"context"
	"flag"
	"log"
	"talentflow_backend/internal/app"
	"talentflow_backend/internal/config"
	"talentflow_backend/pkg/logger"
	"time"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)

	// 迁移完成后直接退出
	if *migrateOnly {
		logger.Log.Info("Database migration finished, exiting")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		application.Close(ctx)
		return
	}

	application.Run()
}
