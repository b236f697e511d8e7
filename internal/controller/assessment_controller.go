package controller

import (
	"errors"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/service"
	"talentflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	Service *service.AssessmentService
	Editor  *service.EditorService
	Preview *service.PreviewService
}

func NewAssessmentController(svc *service.AssessmentService, editor *service.EditorService, preview *service.PreviewService) *AssessmentController {
	return &AssessmentController{Service: svc, Editor: editor, Preview: preview}
}

// SaveResult 保存后的文档及同步状态
type SaveResult struct {
	Document model.Assessment `json:"document"`
	Status   model.SyncStatus `json:"status"`
}

type SubmitAssessmentRequest struct {
	CandidateID string          `json:"candidateId"`
	Responses   model.Responses `json:"responses"`
}

// @Summary 获取测评列表
// @Tags 测评
// @Produce json
// @Param search query string false "按职位ID或标题搜索"
// @Param page query int false "页码" default(1)
// @Param pageSize query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /assessments [get]
func (c *AssessmentController) ListAssessments(ctx *gin.Context) {
	page := util.ParseIntDefault(ctx.Query("page"), util.DefaultPage)
	pageSize := util.ParseIntDefault(ctx.Query("pageSize"), util.DefaultPageSize)

	res, err := c.Service.List(ctx.Request.Context(), ctx.Query("search"), page, pageSize)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 获取职位的测评
// @Tags 测评
// @Produce json
// @Param jobId path string true "职位ID"
// @Success 200 {object} util.Response{data=model.Assessment}
// @Failure 404 {object} util.Response
// @Router /assessments/{jobId} [get]
func (c *AssessmentController) GetAssessment(ctx *gin.Context) {
	doc, err := c.Service.Get(ctx.Request.Context(), ctx.Param("jobId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, doc)
}

// @Summary 保存整个测评文档
// @Description 替换编辑中的文档并同步写入存储。写入失败时文档仍保留在内存中，返回 503 和同步状态。
// @Tags 测评
// @Accept json
// @Produce json
// @Param jobId path string true "职位ID"
// @Param body body model.Assessment true "测评文档"
// @Success 200 {object} util.Response{data=SaveResult}
// @Failure 503 {object} util.Response{data=SaveResult}
// @Router /assessments/{jobId} [put]
func (c *AssessmentController) SaveAssessment(ctx *gin.Context) {
	var doc model.Assessment
	if err := ctx.ShouldBindJSON(&doc); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	saved, status, err := c.Editor.Replace(ctx.Request.Context(), ctx.Param("jobId"), doc)
	if errors.Is(err, util.ErrSaveFailed) {
		util.Unavailable(ctx, util.CodeSaveFailed, err, SaveResult{Document: saved, Status: status})
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, SaveResult{Document: saved, Status: status})
}

// @Summary 提交测评答案
// @Description 校验整份答卷后保存。校验失败返回 422，存储失败返回 503。
// @Tags 测评
// @Accept json
// @Produce json
// @Param jobId path string true "职位ID"
// @Param body body SubmitAssessmentRequest true "答卷"
// @Success 201 {object} util.Response{data=service.SubmitResult}
// @Failure 422 {object} util.Response{data=assessment.Failure}
// @Failure 503 {object} util.Response
// @Router /assessments/{jobId}/submit [post]
func (c *AssessmentController) SubmitAssessment(ctx *gin.Context) {
	var req SubmitAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Responses == nil {
		req.Responses = model.Responses{}
	}

	res, err := c.Preview.SubmitDirect(ctx.Request.Context(), ctx.Param("jobId"), req.CandidateID, req.Responses)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// @Summary 获取职位的提交记录
// @Tags 测评
// @Produce json
// @Param jobId path string true "职位ID"
// @Success 200 {object} util.Response{data=[]model.SubmissionRecord}
// @Router /assessments/{jobId}/submissions [get]
func (c *AssessmentController) ListSubmissions(ctx *gin.Context) {
	recs, err := c.Service.ListSubmissions(ctx.Request.Context(), ctx.Param("jobId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, recs)
}
