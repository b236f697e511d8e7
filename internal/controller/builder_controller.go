package controller

import (
	"errors"
	"talentflow_backend/internal/assessment"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/service"
	"talentflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BuilderController struct {
	Editor *service.EditorService
	Sync   *service.SyncService
	Hub    *service.SyncHub
}

func NewBuilderController(editor *service.EditorService, sync *service.SyncService, hub *service.SyncHub) *BuilderController {
	return &BuilderController{Editor: editor, Sync: sync, Hub: hub}
}

// OpenResult 编辑中的文档及其编号和同步状态
type OpenResult struct {
	Document  model.Assessment           `json:"document"`
	Numbering []assessment.SectionNumber `json:"numbering"`
	Status    model.SyncStatus           `json:"status"`
}

// @Summary 打开测评编辑
// @Description 加载职位的测评；没有时创建空测评
// @Tags 测评编辑
// @Produce json
// @Param jobId path string true "职位ID"
// @Success 200 {object} util.Response{data=OpenResult}
// @Router /assessments/{jobId}/builder/open [post]
func (c *BuilderController) Open(ctx *gin.Context) {
	doc, status, err := c.Editor.Open(ctx.Request.Context(), ctx.Param("jobId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, OpenResult{Document: doc, Numbering: assessment.Numbering(doc), Status: status})
}

// @Summary 执行编辑操作
// @Description 对编辑中的文档执行一次操作并在后台保存。操作失败时文档保持不变。
// @Tags 测评编辑
// @Accept json
// @Produce json
// @Param jobId path string true "职位ID"
// @Param body body service.Operation true "编辑操作"
// @Success 200 {object} util.Response{data=service.OpResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /assessments/{jobId}/builder/ops [post]
func (c *BuilderController) Apply(ctx *gin.Context) {
	var op service.Operation
	if err := ctx.ShouldBindJSON(&op); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.Editor.Apply(ctx.Request.Context(), ctx.Param("jobId"), op)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 获取同步状态
// @Tags 测评编辑
// @Produce json
// @Param jobId path string true "职位ID"
// @Success 200 {object} util.Response{data=model.SyncStatus}
// @Failure 404 {object} util.Response
// @Router /assessments/{jobId}/sync [get]
func (c *BuilderController) SyncStatus(ctx *gin.Context) {
	status, ok := c.Sync.Status(ctx.Param("jobId"))
	if !ok {
		util.NotFound(ctx, "assessment is not open for editing")
		return
	}
	util.Success(ctx, status)
}

// @Summary 重试保存
// @Description 立即重新保存最新版本
// @Tags 测评编辑
// @Produce json
// @Param jobId path string true "职位ID"
// @Success 200 {object} util.Response{data=model.SyncStatus}
// @Failure 503 {object} util.Response{data=model.SyncStatus}
// @Router /assessments/{jobId}/sync/retry [post]
func (c *BuilderController) Retry(ctx *gin.Context) {
	status, err := c.Sync.Retry(ctx.Request.Context(), ctx.Param("jobId"))
	if errors.Is(err, util.ErrAssessmentNotFound) {
		util.NotFound(ctx, "assessment is not open for editing")
		return
	}
	if err != nil {
		util.Unavailable(ctx, util.CodeSaveFailed, err, status)
		return
	}
	util.Success(ctx, status)
}

// @Summary 同步状态推送
// @Description WebSocket，每次同步状态变化推送 {"type":"SYNC_STATUS","data":{...}}
// @Tags 测评编辑
// @Param jobId path string true "职位ID"
// @Router /assessments/{jobId}/sync/ws [get]
func (c *BuilderController) Stream(ctx *gin.Context) {
	jobID := ctx.Param("jobId")
	var current *model.SyncStatus
	if status, ok := c.Sync.Status(jobID); ok {
		current = &status
	}
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, jobID, current)
}
