package database

import (
	"fmt"
	"strings"
	"talentflow_backend/internal/config"
	"talentflow_backend/internal/model"
	applog "talentflow_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 连接配置的数据库，不执行迁移
func Open(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	level := logger.Warn
	if mode == "debug" {
		level = logger.Info
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	switch cfg.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return gorm.Open(mysql.Open(dsn), gormCfg)
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = "talentflow.db"
		}
		db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), gormCfg)
		if err != nil {
			return nil, err
		}
		// sqlite 只允许单个写连接
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// SQLiteDSN 未设置时为路径追加 busy timeout
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

// Migrate 创建或更新测评相关表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.AssessmentRecord{},
		&model.SubmissionRecord{},
	)
}

// InitDB 连接并迁移数据库，release 模式下只在强制时迁移
func InitDB(cfg *config.DatabaseConfig, mode string, forceMigrate bool) (*gorm.DB, error) {
	db, err := Open(cfg, mode)
	if err != nil {
		return nil, err
	}
	applog.Log.Info("Database connection established", zap.String("driver", cfg.Driver))

	if mode == "release" && !forceMigrate {
		applog.Log.Info("Skipping database migration in release mode")
		return db, nil
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	applog.Log.Info("Database migration completed")
	return db, nil
}
