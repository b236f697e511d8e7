package service

import (
	"context"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/repository"
	"talentflow_backend/internal/util"
)

// AssessmentService 提供测评的读取。构建器中已打开的文档直接从内存返回，可以看到未保存的修改
type AssessmentService struct {
	Store       repository.AssessmentStore
	Submissions SubmissionLister
	Editor      *EditorService
}

// SubmissionLister 读取职位的提交记录
type SubmissionLister interface {
	ListSubmissions(ctx context.Context, jobID string) ([]model.SubmissionRecord, error)
}

func NewAssessmentService(store repository.AssessmentStore, submissions SubmissionLister, editor *EditorService) *AssessmentService {
	return &AssessmentService{Store: store, Submissions: submissions, Editor: editor}
}

func (s *AssessmentService) List(ctx context.Context, search string, page, pageSize int) (*util.PageResponse, error) {
	if page < 1 {
		page = util.DefaultPage
	}
	if pageSize < 1 {
		pageSize = util.DefaultPageSize
	}
	if pageSize > util.MaxPageSize {
		pageSize = util.MaxPageSize
	}
	items, total, err := s.Store.List(ctx, repository.ListQuery{Search: search, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.AssessmentSummary{}
	}
	return &util.PageResponse{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *AssessmentService) Get(ctx context.Context, jobID string) (*model.Assessment, error) {
	if jobID == "" {
		return nil, util.ErrInvalidJobID
	}
	if doc, ok := s.Editor.Document(jobID); ok {
		return &doc, nil
	}
	return s.Store.Load(ctx, jobID)
}

func (s *AssessmentService) ListSubmissions(ctx context.Context, jobID string) ([]model.SubmissionRecord, error) {
	if jobID == "" {
		return nil, util.ErrInvalidJobID
	}
	recs, err := s.Submissions.ListSubmissions(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []model.SubmissionRecord{}
	}
	return recs, nil
}
