package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"talentflow_backend/internal/assessment"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/repository"
	"talentflow_backend/internal/util"
	"talentflow_backend/pkg/logger"
	"talentflow_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

var ErrUnknownOperation = errors.New("unknown builder operation")

// Apply 接受的构建操作名称
const (
	OpEditTitle           = "editTitle"
	OpAddSection          = "addSection"
	OpEditSection         = "editSection"
	OpDeleteSection       = "deleteSection"
	OpAddQuestion         = "addQuestion"
	OpEditQuestion        = "editQuestion"
	OpDeleteQuestion      = "deleteQuestion"
	OpAddOption           = "addOption"
	OpEditOption          = "editOption"
	OpDeleteOption        = "deleteOption"
	OpToggleCorrectAnswer = "toggleCorrectAnswer"
)

// Operation 构建器前端发送的一次编辑
type Operation struct {
	Op         string          `json:"op" binding:"required"`
	SectionID  string          `json:"sectionId,omitempty"`
	QuestionID string          `json:"questionId,omitempty"`
	OptionID   string          `json:"optionId,omitempty"`
	Field      string          `json:"field,omitempty"`
	Index      *int            `json:"index,omitempty"`
	Value      json.RawMessage `json:"value,omitempty" swaggertype:"object"`
}

// OpResult 编辑后的文档以及新建节点的ID
type OpResult struct {
	Document  model.Assessment           `json:"document"`
	Numbering []assessment.SectionNumber `json:"numbering"`
	CreatedID string                     `json:"createdId,omitempty"`
	Status    model.SyncStatus           `json:"status"`
}

type opHandler func(doc model.Assessment, op Operation) (model.Assessment, string, error)

var opHandlers = map[string]opHandler{
	OpEditTitle: func(doc model.Assessment, op Operation) (model.Assessment, string, error) {
		var title string
		if err := decodeValue(op.Value, &title); err != nil {
			return doc, "", err
		}
		return assessment.EditTitle(doc, title), "", nil
	},
	OpAddSection: func(doc model.Assessment, _ Operation) (model.Assessment, string, error) {
		out, id := assessment.AddSection(doc)
		return out, id, nil
	},
	OpEditSection: func(doc model.Assessment, op Operation) (model.Assessment, string, error) {
		var value string
		if err := decodeValue(op.Value, &value); err != nil {
			return doc, "", err
		}
		out, err := assessment.EditSectionField(doc, op.SectionID, op.Field, value)
		return out, "", err
	},
	OpDeleteSection: func(doc model.Assessment, op Operation) (model.Assessment, string, error) {
		out, err := assessment.DeleteSection(doc, op.SectionID)
		return out, "", err
	},
	OpAddQuestion: func(doc model.Assessment, op Operation) (model.Assessment, string, error) {
		return assessment.AddQuestion(doc, op.SectionID)
	},
	OpEditQuestion: func(doc model.Assessment, op Operation) (model.Assessment, string, error) {
		value, err := decodeQuestionField(op.Field, op.Value)
		if err != nil {
			return doc, "", err
		}
		out, err := assessment.EditQuestionField(doc, op.SectionID, op.QuestionID, op.Field, value)
		return out, "", err
	},
	OpDeleteQuestion: func(doc model.Assessment, op Operation) (model.Assessment, string, error) {
		out, err := assessment.DeleteQuestion(doc, op.SectionID, op.QuestionID)
		return out, "", err
	},
	OpAddOption: func(doc model.Assessment, op Operation) (model.Assessment, string, error) {
		return assessment.AddOption(doc, op.SectionID, op.QuestionID)
	},
	OpEditOption: func(doc model.Assessment, op Operation) (model.Assessment, string, error) {
		if op.Index == nil {
			return doc, "", fmt.Errorf("%w: index is required", assessment.ErrInvalidValue)
		}
		var text string
		if err := decodeValue(op.Value, &text); err != nil {
			return doc, "", err
		}
		out, err := assessment.EditOption(doc, op.SectionID, op.QuestionID, *op.Index, text)
		return out, "", err
	},
	OpDeleteOption: func(doc model.Assessment, op Operation) (model.Assessment, string, error) {
		if op.Index == nil {
			return doc, "", fmt.Errorf("%w: index is required", assessment.ErrInvalidValue)
		}
		out, err := assessment.DeleteOption(doc, op.SectionID, op.QuestionID, *op.Index)
		return out, "", err
	},
	OpToggleCorrectAnswer: func(doc model.Assessment, op Operation) (model.Assessment, string, error) {
		out, err := assessment.ToggleCorrectAnswer(doc, op.SectionID, op.QuestionID, op.OptionID)
		return out, "", err
	},
}

type editingSession struct {
	mu  sync.Mutex
	doc model.Assessment
}

// EditorService 保存所有正在编辑的职位的内存文档。
// 构建器和预览都渲染这份文档，存储通过 SyncService 跟随它
type EditorService struct {
	store repository.AssessmentStore
	sync  *SyncService
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*editingSession
}

func NewEditorService(store repository.AssessmentStore, syncService *SyncService) *EditorService {
	return &EditorService{
		store:    store,
		sync:     syncService,
		now:      time.Now,
		sessions: make(map[string]*editingSession),
	}
}

// Open 返回职位的编辑文档，首次使用时从存储加载。没有已存测评的职位从空文档开始
func (s *EditorService) Open(ctx context.Context, jobID string) (model.Assessment, model.SyncStatus, error) {
	sess, err := s.session(ctx, jobID)
	if err != nil {
		return model.Assessment{}, model.SyncStatus{}, err
	}
	sess.mu.Lock()
	doc := sess.doc
	sess.mu.Unlock()
	st, _ := s.sync.Status(jobID)
	return doc, st, nil
}

// Document 职位已打开时返回其编辑文档
func (s *EditorService) Document(jobID string) (model.Assessment, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[jobID]
	s.mu.Unlock()
	if !ok {
		return model.Assessment{}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.doc, true
}

// Apply 执行一次构建操作。失败时文档不变并返回错误，成功时版本号加一并安排后台保存
func (s *EditorService) Apply(ctx context.Context, jobID string, op Operation) (*OpResult, error) {
	handler, ok := opHandlers[op.Op]
	if !ok {
		monitoring.BuilderMutations.WithLabelValues("unknown", "invalid").Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Op)
	}
	sess, err := s.session(ctx, jobID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	next, createdID, err := handler(sess.doc, op)
	if err != nil {
		sess.mu.Unlock()
		result := "invalid"
		if assessment.IsLookupError(err) {
			result = "not_found"
		}
		monitoring.BuilderMutations.WithLabelValues(op.Op, result).Inc()
		logger.Log.Warn("Builder operation rejected",
			zap.String("job_id", jobID),
			zap.String("op", op.Op),
			zap.String("section_id", op.SectionID),
			zap.String("question_id", op.QuestionID),
			zap.String("result", result),
			zap.Error(err),
		)
		return nil, err
	}
	next.Revision = sess.doc.Revision + 1
	next.UpdatedAt = s.now()
	sess.doc = next
	// 在会话锁内调度，保证版本按顺序到达同步服务
	st := s.sync.Schedule(next)
	sess.mu.Unlock()

	monitoring.BuilderMutations.WithLabelValues(op.Op, "ok").Inc()
	logger.Log.Debug("Builder operation applied",
		zap.String("job_id", jobID),
		zap.String("op", op.Op),
		zap.Int64("revision", next.Revision),
	)
	return &OpResult{
		Document:  next,
		Numbering: assessment.Numbering(next),
		CreatedID: createdID,
		Status:    st,
	}, nil
}

// Replace 替换整份文档并在返回前保存。保存失败时新文档仍保留在内存中
func (s *EditorService) Replace(ctx context.Context, jobID string, doc model.Assessment) (model.Assessment, model.SyncStatus, error) {
	sess, err := s.session(ctx, jobID)
	if err != nil {
		return model.Assessment{}, model.SyncStatus{}, err
	}

	sess.mu.Lock()
	next := assessment.Normalize(doc)
	next.JobID = jobID
	next.Revision = sess.doc.Revision + 1
	next.UpdatedAt = s.now()
	sess.doc = next
	sess.mu.Unlock()

	st, err := s.sync.SaveNow(ctx, next)
	if err != nil {
		return next, st, fmt.Errorf("%w: %v", util.ErrSaveFailed, err)
	}
	return next, st, nil
}

func (s *EditorService) session(ctx context.Context, jobID string) (*editingSession, error) {
	if jobID == "" {
		return nil, util.ErrInvalidJobID
	}
	s.mu.Lock()
	if sess, ok := s.sessions[jobID]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	doc, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// 加载期间可能已有其他请求打开了该职位
	if sess, ok := s.sessions[jobID]; ok {
		return sess, nil
	}
	sess := &editingSession{doc: doc}
	s.sessions[jobID] = sess
	s.sync.Track(doc)
	return sess, nil
}

func (s *EditorService) load(ctx context.Context, jobID string) (model.Assessment, error) {
	stored, err := s.store.Load(ctx, jobID)
	switch {
	case errors.Is(err, util.ErrAssessmentNotFound):
		doc := assessment.CreateEmpty("")
		doc.JobID = jobID
		return doc, nil
	case err != nil:
		return model.Assessment{}, err
	}
	doc := assessment.Normalize(*stored)
	doc.JobID = jobID
	return doc, nil
}

func decodeValue(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: value is required", assessment.ErrInvalidValue)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", assessment.ErrInvalidValue, err)
	}
	return nil
}

// decodeQuestionField 把原始值转换为 EditQuestionField 对应字段需要的类型。
// 未知字段原样传递，由构建器拒绝
func decodeQuestionField(field string, raw json.RawMessage) (interface{}, error) {
	var dst interface{}
	switch field {
	case assessment.FieldType:
		var name string
		if err := decodeValue(raw, &name); err != nil {
			return nil, err
		}
		return assessment.ParseQuestionType(name)
	case assessment.FieldLabel:
		dst = new(string)
	case assessment.FieldRequired:
		dst = new(bool)
	case assessment.FieldValidation:
		dst = new(model.Validation)
	default:
		return nil, nil
	}
	if err := decodeValue(raw, dst); err != nil {
		return nil, err
	}
	switch v := dst.(type) {
	case *string:
		return *v, nil
	case *bool:
		return *v, nil
	case *model.Validation:
		return *v, nil
	}
	return nil, nil
}
