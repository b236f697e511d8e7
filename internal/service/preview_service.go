package service

import (
	"context"
	"fmt"
	"talentflow_backend/internal/assessment"
	"talentflow_backend/internal/cache"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/repository"
	"talentflow_backend/internal/util"
	"talentflow_backend/pkg/logger"
	"talentflow_backend/pkg/monitoring"
	"talentflow_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SubmitResult 通过校验并已保存的提交
type SubmitResult struct {
	Submission *model.Submission        `json:"submission"`
	Record     *model.SubmissionRecord `json:"record"`
}

// PreviewView 渲染后的表单及正在填写的会话
type PreviewView struct {
	Form    assessment.Form       `json:"form"`
	Session *model.PreviewSession `json:"session,omitempty"`
}

// PreviewService 基于构建器中的当前文档运行答题会话，预览总能反映未保存的修改
type PreviewService struct {
	editor   *EditorService
	sessions cache.SessionCache
	store    repository.AssessmentStore
	now      func() time.Time
}

func NewPreviewService(editor *EditorService, sessions cache.SessionCache, store repository.AssessmentStore) *PreviewService {
	return &PreviewService{
		editor:   editor,
		sessions: sessions,
		store:    store,
		now:      time.Now,
	}
}

// Render 返回职位的表单，不创建会话
func (s *PreviewService) Render(ctx context.Context, jobID string) (assessment.Form, error) {
	doc, _, err := s.editor.Open(ctx, jobID)
	if err != nil {
		return assessment.Form{}, err
	}
	return assessment.Render(doc), nil
}

// StartSession 为候选人创建空的答案集
func (s *PreviewService) StartSession(ctx context.Context, jobID, candidateID string) (*PreviewView, error) {
	doc, _, err := s.editor.Open(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if candidateID == "" {
		candidateID = util.DemoCandidateID
	}
	session := assessment.NewSession(jobID, candidateID, s.now())
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, err
	}
	logger.Log.Info("Preview session started",
		zap.String("session_id", session.ID),
		zap.String("job_id", jobID),
		zap.String("candidate_id", candidateID),
	)
	return &PreviewView{Form: assessment.Render(doc), Session: session}, nil
}

// Session 返回会话及当前渲染的表单
func (s *PreviewService) Session(ctx context.Context, sessionID string) (*PreviewView, error) {
	p, err := s.preview(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	doc, _ := s.editor.Document(p.Session().JobID)
	return &PreviewView{Form: assessment.Render(doc), Session: p.Session()}, nil
}

func (s *PreviewService) SetAnswer(ctx context.Context, sessionID, questionID string, in assessment.AnswerInput) (*model.PreviewSession, error) {
	return s.update(ctx, sessionID, func(p *assessment.Preview) error {
		return p.SetAnswer(questionID, in)
	})
}

// SelectFiles 记录文件元数据，文件不符合题目约束时返回 *assessment.FileRejection
func (s *PreviewService) SelectFiles(ctx context.Context, sessionID, questionID string, files []model.FileMeta) (*model.PreviewSession, error) {
	return s.update(ctx, sessionID, func(p *assessment.Preview) error {
		return p.SelectFiles(questionID, files)
	})
}

func (s *PreviewService) RemoveFile(ctx context.Context, sessionID, questionID string, index int) (*model.PreviewSession, error) {
	return s.update(ctx, sessionID, func(p *assessment.Preview) error {
		return p.RemoveFile(questionID, index)
	})
}

func (s *PreviewService) ClearFiles(ctx context.Context, sessionID, questionID string) (*model.PreviewSession, error) {
	return s.update(ctx, sessionID, func(p *assessment.Preview) error {
		return p.ClearFiles(questionID)
	})
}

// Validate 返回第一个违规项，不提交
func (s *PreviewService) Validate(ctx context.Context, sessionID string) (assessment.Result, error) {
	p, err := s.preview(ctx, sessionID)
	if err != nil {
		return assessment.Result{}, err
	}
	return p.Validate(), nil
}

// Submit 校验会话并保存提交。校验失败返回 *assessment.Failure 并保留会话供答题者修改，
// 成功后丢弃会话
func (s *PreviewService) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	p, err := s.preview(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result, err := s.submit(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		logger.Log.Warn("Failed to discard submitted preview session", zap.String("session_id", sessionID), zap.Error(err))
	}
	return result, nil
}

// SubmitDirect 一次性校验并保存完整的答案集
func (s *PreviewService) SubmitDirect(ctx context.Context, jobID, candidateID string, responses model.Responses) (*SubmitResult, error) {
	doc, _, err := s.editor.Open(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if candidateID == "" {
		candidateID = util.DemoCandidateID
	}
	p := assessment.NewPreview(doc, assessment.NewSession(jobID, candidateID, s.now()))
	if err := replay(p, doc, responses); err != nil {
		return nil, err
	}
	return s.submit(ctx, p)
}

// replay 按文档顺序让每个答案经过与预览控件相同的检查，空答案视为未作答
func replay(p *assessment.Preview, doc model.Assessment, responses model.Responses) error {
	for _, sec := range doc.Sections {
		for _, q := range sec.Questions {
			a, ok := responses[q.ID]
			if !ok {
				continue
			}
			var err error
			switch {
			case q.Type == model.FileUpload:
				if len(a.Files) > 0 {
					err = p.SelectFiles(q.ID, a.Files)
				}
			case q.Type == model.MultiChoice:
				if len(a.Values) > 0 {
					err = p.SetAnswer(q.ID, assessment.AnswerInput{Values: a.Values})
				}
			case a.Value != "":
				value := a.Value
				err = p.SetAnswer(q.ID, assessment.AnswerInput{Value: &value})
			}
			if err != nil {
				return fmt.Errorf("question %s: %w", q.ID, err)
			}
		}
	}
	return nil
}

func (s *PreviewService) submit(ctx context.Context, p *assessment.Preview) (*SubmitResult, error) {
	session := p.Session()
	ctx, span := tracing.StartSpan(ctx, "assessment.submit",
		attribute.String("job_id", session.JobID),
		attribute.String("session_id", session.ID),
	)

	sub, failure := p.Submit()
	if failure != nil {
		monitoring.PreviewSubmissions.WithLabelValues("invalid").Inc()
		span.SetAttributes(attribute.String("failure.question_id", failure.QuestionID))
		tracing.End(span, nil)
		logger.Log.Info("Preview submission failed validation",
			zap.String("session_id", session.ID),
			zap.String("question_id", failure.QuestionID),
			zap.String("reason", string(failure.Reason)),
		)
		return nil, failure
	}

	record, err := s.store.Submit(ctx, sub)
	tracing.End(span, err)
	if err != nil {
		monitoring.PreviewSubmissions.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", util.ErrSubmitFailed, err)
	}
	monitoring.PreviewSubmissions.WithLabelValues("ok").Inc()
	logger.Log.Info("Preview submitted",
		zap.String("job_id", sub.JobID),
		zap.String("candidate_id", sub.CandidateID),
		zap.Int("answers", len(sub.Responses)),
	)
	return &SubmitResult{Submission: sub, Record: record}, nil
}

func (s *PreviewService) update(ctx context.Context, sessionID string, fn func(p *assessment.Preview) error) (*model.PreviewSession, error) {
	p, err := s.preview(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.sessions.Set(ctx, p.Session()); err != nil {
		return nil, err
	}
	return p.Session(), nil
}

func (s *PreviewService) preview(ctx context.Context, sessionID string) (*assessment.Preview, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	doc, _, err := s.editor.Open(ctx, session.JobID)
	if err != nil {
		return nil, err
	}
	return assessment.NewPreview(doc, session), nil
}
