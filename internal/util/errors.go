package util

import "errors"

var (
	ErrAssessmentNotFound = errors.New("Assessment not found")
	ErrSessionNotFound    = errors.New("preview session not found")
	ErrStaleRevision      = errors.New("stored assessment has a newer revision")
	ErrSimulatedFailure   = errors.New("random write error")
	ErrSaveFailed         = errors.New("assessment could not be saved")
	ErrSubmitFailed       = errors.New("assessment submission could not be stored")
	ErrInvalidJobID       = errors.New("invalid job id")
)

// 响应中与HTTP状态码一同返回的错误码
const (
	CodeSaveFailed       = "SAVE_FAILED"
	CodeSubmitFailed     = "SUBMIT_FAILED"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeFileRejected     = "FILE_REJECTED"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeNotFound         = "NOT_FOUND"
)
