package controller

import (
	"mime/multipart"
	"strconv"
	"strings"
	"talentflow_backend/internal/assessment"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/service"
	"talentflow_backend/internal/util"
	"talentflow_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PreviewController struct {
	Service *service.PreviewService
}

func NewPreviewController(svc *service.PreviewService) *PreviewController {
	return &PreviewController{Service: svc}
}

type StartSessionRequest struct {
	CandidateID string `json:"candidateId"`
}

// SelectFilesRequest 客户端不上传文件本身时提交的文件元数据
type SelectFilesRequest struct {
	Files []model.FileMeta `json:"files" binding:"required"`
}

// @Summary 预览表单
// @Tags 测评预览
// @Produce json
// @Param jobId path string true "职位ID"
// @Success 200 {object} util.Response{data=assessment.Form}
// @Router /assessments/{jobId}/preview [get]
func (c *PreviewController) Render(ctx *gin.Context) {
	form, err := c.Service.Render(ctx.Request.Context(), ctx.Param("jobId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, form)
}

// @Summary 开始预览作答
// @Tags 测评预览
// @Accept json
// @Produce json
// @Param jobId path string true "职位ID"
// @Param body body StartSessionRequest false "候选人"
// @Success 201 {object} util.Response{data=service.PreviewView}
// @Router /assessments/{jobId}/preview/sessions [post]
func (c *PreviewController) StartSession(ctx *gin.Context) {
	var req StartSessionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	view, err := c.Service.StartSession(ctx.Request.Context(), ctx.Param("jobId"), req.CandidateID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// @Summary 获取预览作答
// @Tags 测评预览
// @Produce json
// @Param sessionId path string true "作答ID"
// @Success 200 {object} util.Response{data=service.PreviewView}
// @Failure 404 {object} util.Response
// @Router /preview/sessions/{sessionId} [get]
func (c *PreviewController) GetSession(ctx *gin.Context) {
	view, err := c.Service.Session(ctx.Request.Context(), ctx.Param("sessionId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 填写答案
// @Tags 测评预览
// @Accept json
// @Produce json
// @Param sessionId path string true "作答ID"
// @Param questionId path string true "题目ID"
// @Param body body assessment.AnswerInput true "答案"
// @Success 200 {object} util.Response{data=model.PreviewSession}
// @Router /preview/sessions/{sessionId}/answers/{questionId} [put]
func (c *PreviewController) SetAnswer(ctx *gin.Context) {
	var in assessment.AnswerInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.Service.SetAnswer(ctx.Request.Context(), ctx.Param("sessionId"), ctx.Param("questionId"), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// @Summary 选择文件
// @Description 只记录文件元数据，不保存文件内容。支持 multipart（字段 files，可选 lastModified）或 JSON 元数据。
// @Tags 测评预览
// @Accept multipart/form-data,json
// @Produce json
// @Param sessionId path string true "作答ID"
// @Param questionId path string true "题目ID"
// @Param files formData file false "文件"
// @Success 200 {object} util.Response{data=model.PreviewSession}
// @Failure 422 {object} util.Response{data=assessment.FileRejection}
// @Router /preview/sessions/{sessionId}/answers/{questionId}/files [post]
func (c *PreviewController) SelectFiles(ctx *gin.Context) {
	var files []model.FileMeta
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		form, err := ctx.MultipartForm()
		if err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
		files, err = describeUploads(form)
		if err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	} else {
		var req SelectFilesRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
		files = req.Files
	}

	session, err := c.Service.SelectFiles(ctx.Request.Context(), ctx.Param("sessionId"), ctx.Param("questionId"), files)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// @Summary 移除文件
// @Tags 测评预览
// @Produce json
// @Param sessionId path string true "作答ID"
// @Param questionId path string true "题目ID"
// @Param index path int true "文件序号"
// @Success 200 {object} util.Response{data=model.PreviewSession}
// @Router /preview/sessions/{sessionId}/answers/{questionId}/files/{index} [delete]
func (c *PreviewController) RemoveFile(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "invalid index")
		return
	}

	session, err := c.Service.RemoveFile(ctx.Request.Context(), ctx.Param("sessionId"), ctx.Param("questionId"), index)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// @Summary 清空文件
// @Tags 测评预览
// @Produce json
// @Param sessionId path string true "作答ID"
// @Param questionId path string true "题目ID"
// @Success 200 {object} util.Response{data=model.PreviewSession}
// @Router /preview/sessions/{sessionId}/answers/{questionId}/files [delete]
func (c *PreviewController) ClearFiles(ctx *gin.Context) {
	session, err := c.Service.ClearFiles(ctx.Request.Context(), ctx.Param("sessionId"), ctx.Param("questionId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// @Summary 校验作答
// @Tags 测评预览
// @Produce json
// @Param sessionId path string true "作答ID"
// @Success 200 {object} util.Response{data=assessment.Result}
// @Router /preview/sessions/{sessionId}/validate [post]
func (c *PreviewController) Validate(ctx *gin.Context) {
	res, err := c.Service.Validate(ctx.Request.Context(), ctx.Param("sessionId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 提交作答
// @Tags 测评预览
// @Produce json
// @Param sessionId path string true "作答ID"
// @Success 201 {object} util.Response{data=service.SubmitResult}
// @Failure 422 {object} util.Response{data=assessment.Failure}
// @Failure 503 {object} util.Response
// @Router /preview/sessions/{sessionId}/submit [post]
func (c *PreviewController) Submit(ctx *gin.Context) {
	res, err := c.Service.Submit(ctx.Request.Context(), ctx.Param("sessionId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// describeUploads 只读取上传文件的元数据。客户端未提供可用的类型时嗅探文件头
func describeUploads(form *multipart.Form) ([]model.FileMeta, error) {
	headers := form.File["files"]
	lastModified := form.Value["lastModified"]
	files := make([]model.FileMeta, 0, len(headers))
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		mimeType, err := util.DetectMimeType(fh.Header.Get("Content-Type"), fh.Filename, f)
		f.Close()
		if err != nil {
			logger.Log.Warn("MIME detection failed", zap.String("file", fh.Filename), zap.Error(err))
			mimeType = util.MimeOctetStream
		}
		meta := model.FileMeta{Name: fh.Filename, Size: fh.Size, Type: mimeType}
		if i < len(lastModified) {
			meta.LastModified, _ = strconv.ParseInt(lastModified[i], 10, 64)
		}
		files = append(files, meta)
	}
	return files, nil
}
