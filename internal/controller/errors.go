package controller

import (
	"errors"
	"net/http"
	"talentflow_backend/internal/assessment"
	"talentflow_backend/internal/service"
	"talentflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 把服务层和引擎错误映射为统一响应
func respondError(ctx *gin.Context, err error) {
	var failure *assessment.Failure
	var rejection *assessment.FileRejection

	switch {
	case errors.As(err, &failure):
		util.Unprocessable(ctx, util.CodeValidationFailed, failure.Message, failure)
	case errors.As(err, &rejection):
		util.Unprocessable(ctx, util.CodeFileRejected, rejection.Message, rejection)
	case errors.Is(err, util.ErrAssessmentNotFound),
		errors.Is(err, util.ErrSessionNotFound),
		assessment.IsLookupError(err):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrSaveFailed):
		util.Unavailable(ctx, util.CodeSaveFailed, err, nil)
	case errors.Is(err, util.ErrSubmitFailed):
		util.Unavailable(ctx, util.CodeSubmitFailed, err, nil)
	case isInvalidOperation(err):
		util.Fail(ctx, http.StatusBadRequest, util.CodeInvalidOperation, err.Error(), nil)
	default:
		util.LogInternalError(ctx, err)
	}
}

func isInvalidOperation(err error) bool {
	for _, target := range []error{
		util.ErrInvalidJobID,
		service.ErrUnknownOperation,
		assessment.ErrUnknownField,
		assessment.ErrUnknownQuestionType,
		assessment.ErrInvalidValue,
		assessment.ErrNotChoiceQuestion,
		assessment.ErrDuplicateOption,
		assessment.ErrWrongQuestionType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
