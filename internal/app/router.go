package app

import (
	"talentflow_backend/docs"
	"talentflow_backend/internal/middleware"
	"talentflow_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		// 1. 测评
		a.registerAssessmentRoutes(api, c)

		// 2. 预览作答
		a.registerPreviewRoutes(api, c)
	}
}

func (a *App) registerAssessmentRoutes(api *gin.RouterGroup, c *controllers) {
	api.GET("/assessments", c.assessment.ListAssessments)

	job := api.Group("/assessments/:jobId")
	job.Use(middleware.JobIDGuard())
	{
		job.GET("", c.assessment.GetAssessment)
		job.PUT("", c.assessment.SaveAssessment)
		job.POST("/submit", c.assessment.SubmitAssessment)
		job.GET("/submissions", c.assessment.ListSubmissions)

		job.POST("/builder/open", c.builder.Open)
		job.POST("/builder/ops", c.builder.Apply)

		job.GET("/sync", c.builder.SyncStatus)
		job.POST("/sync/retry", c.builder.Retry)
		job.GET("/sync/ws", c.builder.Stream)

		job.GET("/preview", c.preview.Render)
		job.POST("/preview/sessions", c.preview.StartSession)
	}
}

func (a *App) registerPreviewRoutes(api *gin.RouterGroup, c *controllers) {
	sessions := api.Group("/preview/sessions/:sessionId")
	{
		sessions.GET("", c.preview.GetSession)
		sessions.PUT("/answers/:questionId", c.preview.SetAnswer)
		sessions.POST("/answers/:questionId/files", c.preview.SelectFiles)
		sessions.DELETE("/answers/:questionId/files", c.preview.ClearFiles)
		sessions.DELETE("/answers/:questionId/files/:index", c.preview.RemoveFile)
		sessions.POST("/validate", c.preview.Validate)
		sessions.POST("/submit", c.preview.Submit)
	}
}
