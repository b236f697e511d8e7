package controller

import (
	"context"
	"net/http"
	"talentflow_backend/internal/config"
	"talentflow_backend/internal/service"
	"talentflow_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SimulationSettings 当前网络模拟配置，重新加载配置后可能变化
type SimulationSettings interface {
	Settings() config.SimulationConfig
}

type HealthController struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Sync       *service.SyncService
	Simulation SimulationSettings
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, sync *service.SyncService, sim SimulationSettings) *HealthController {
	return &HealthController{DB: db, Redis: rdb, Sync: sync, Simulation: sim}
}

// @Summary 健康检查
// @Description 检查服务状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 检查数据库连接
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.Ping(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	components := gin.H{"database": "up", "redis": "disabled"}
	if c.Redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			util.Error(ctx, http.StatusServiceUnavailable, "Redis unavailable")
			return
		}
		components["redis"] = "up"
	}

	data := gin.H{
		"status":     "ok",
		"components": components,
	}
	if c.Sync != nil {
		data["unsynced"] = c.Sync.Unsynced()
	}
	if c.Simulation != nil {
		data["simulation"] = c.Simulation.Settings()
	}
	util.Success(ctx, data)
}
