package repository

import (
	"context"

	"talentflow_backend/internal/model"
)

// ListQuery 测评列表查询条件，Search 匹配职位ID或标题
type ListQuery struct {
	Search   string
	Page     int
	PageSize int
}

// AssessmentStore 测评服务的持久化接口
type AssessmentStore interface {
	// Load 职位没有测评时返回 util.ErrAssessmentNotFound
	Load(ctx context.Context, jobID string) (*model.Assessment, error)
	// Save 写入文档。已存在更新的版本时返回 util.ErrStaleRevision，不修改记录
	Save(ctx context.Context, doc *model.Assessment) error
	Submit(ctx context.Context, sub *model.Submission) (*model.SubmissionRecord, error)
	List(ctx context.Context, q ListQuery) ([]model.AssessmentSummary, int64, error)
}
