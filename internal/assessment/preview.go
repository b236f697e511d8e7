package assessment

import (
	"fmt"
	"time"

	"talentflow_backend/internal/model"
)

// AnswerInput 答题者修改控件时提交的内容。
// 文本、单选和数字控件提交 Value，多选提交 Option 加 Checked 或完整的 Values
type AnswerInput struct {
	Value   *string  `json:"value,omitempty"`
	Values  []string `json:"values,omitempty"`
	Option  string   `json:"option,omitempty"`
	Checked *bool    `json:"checked,omitempty"`
}

type inputHandler func(q model.Question, current model.Answer, in AnswerInput) (model.Answer, error)

var inputHandlers = map[model.QuestionType]inputHandler{
	model.ShortText:    setValue,
	model.LongText:     setValue,
	model.Numeric:      setValue,
	model.SingleChoice: setChoice,
	model.MultiChoice:  setMulti,
}

// summarizers 把答案转换为提交载荷中的形式
var summarizers = map[model.QuestionType]func(model.Answer) interface{}{
	model.MultiChoice: func(a model.Answer) interface{} {
		return append([]string{}, a.Values...)
	},
	model.FileUpload: summarizeFiles,
}

// Preview 针对一份文档收集一个会话的答案
type Preview struct {
	doc     model.Assessment
	session *model.PreviewSession
	now     func() time.Time
}

// NewSession 创建空的答案集
func NewSession(jobID, candidateID string, now time.Time) *model.PreviewSession {
	return &model.PreviewSession{
		ID:          newID(),
		JobID:       jobID,
		CandidateID: candidateID,
		Responses:   model.Responses{},
		StartedAt:   now,
	}
}

func NewPreview(doc model.Assessment, session *model.PreviewSession) *Preview {
	if session.Responses == nil {
		session.Responses = model.Responses{}
	}
	return &Preview{doc: doc, session: session, now: time.Now}
}

func (p *Preview) Session() *model.PreviewSession {
	return p.session
}

// SetAnswer 记录非文件题的输入
func (p *Preview) SetAnswer(questionID string, in AnswerInput) error {
	q, ok := p.doc.FindQuestion(questionID)
	if !ok {
		return ErrQuestionNotFound
	}
	h, ok := inputHandlers[q.Type]
	if !ok {
		return fmt.Errorf("%w: %s answers are set by selecting files", ErrWrongQuestionType, q.Type)
	}
	next, err := h(q, p.session.Responses[questionID], in)
	if err != nil {
		return err
	}
	p.session.Responses[questionID] = next
	return nil
}

// SelectFiles 检查一次选择中的每个文件。出现第一个违规即丢弃整次选择，已接受的文件保留。
// 未开启 multiple 时替换当前文件，开启时追加
func (p *Preview) SelectFiles(questionID string, files []model.FileMeta) error {
	q, ok := p.doc.FindQuestion(questionID)
	if !ok {
		return ErrQuestionNotFound
	}
	if q.Type != model.FileUpload {
		return fmt.Errorf("%w: %s question does not take files", ErrWrongQuestionType, q.Type)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no files selected", ErrInvalidValue)
	}
	if !q.Validation.Multiple && len(files) > 1 {
		return fmt.Errorf("%w: only one file can be selected", ErrInvalidValue)
	}
	for _, f := range files {
		if r := CheckFile(q.Validation, f); r != nil {
			return r
		}
	}

	current := p.session.Responses[questionID]
	var kept []model.FileMeta
	if q.Validation.Multiple {
		kept = append(kept, current.Files...)
	}
	kept = append(kept, files...)
	ts := p.now()
	p.session.Responses[questionID] = model.Answer{Files: kept, Timestamp: &ts}
	return nil
}

// RemoveFile 移除一个已接受的文件，移除最后一个时清空答案
func (p *Preview) RemoveFile(questionID string, index int) error {
	q, ok := p.doc.FindQuestion(questionID)
	if !ok {
		return ErrQuestionNotFound
	}
	if q.Type != model.FileUpload {
		return ErrWrongQuestionType
	}
	current, ok := p.session.Responses[questionID]
	if !ok || index < 0 || index >= len(current.Files) {
		return fmt.Errorf("%w: no file at index %d", ErrInvalidValue, index)
	}
	files := removeAt(current.Files, index)
	if len(files) == 0 {
		delete(p.session.Responses, questionID)
		return nil
	}
	current.Files = files
	p.session.Responses[questionID] = current
	return nil
}

// ClearFiles 清空文件答案
func (p *Preview) ClearFiles(questionID string) error {
	q, ok := p.doc.FindQuestion(questionID)
	if !ok {
		return ErrQuestionNotFound
	}
	if q.Type != model.FileUpload {
		return ErrWrongQuestionType
	}
	delete(p.session.Responses, questionID)
	return nil
}

func (p *Preview) Validate() Result {
	return Validate(p.doc, p.session.Responses)
}

// Payload 按文档顺序列出已作答的题目，文件答案替换为元数据摘要
func (p *Preview) Payload() []model.ResponseItem {
	return BuildPayload(p.doc, p.session.Responses)
}

// Submit 校验答案，通过后打包提交内容
func (p *Preview) Submit() (*model.Submission, *Failure) {
	if r := p.Validate(); !r.Valid {
		return nil, r.Failure
	}
	return &model.Submission{
		JobID:       p.session.JobID,
		CandidateID: p.session.CandidateID,
		Responses:   p.Payload(),
		SubmittedAt: p.now(),
	}, nil
}

func BuildPayload(doc model.Assessment, responses model.Responses) []model.ResponseItem {
	items := []model.ResponseItem{}
	for _, s := range doc.Sections {
		for _, q := range s.Questions {
			a, ok := responses[q.ID]
			if !ok {
				continue
			}
			var answer interface{} = a.Value
			if sum, ok := summarizers[q.Type]; ok {
				answer = sum(a)
			}
			items = append(items, model.ResponseItem{QuestionID: q.ID, Answer: answer})
		}
	}
	return items
}

func summarizeFiles(a model.Answer) interface{} {
	s := model.FileAnswerSummary{
		FileCount: len(a.Files),
		FileNames: make([]string, 0, len(a.Files)),
		Uploaded:  false,
	}
	for _, f := range a.Files {
		s.FileNames = append(s.FileNames, f.Name)
		s.TotalSize += f.Size
	}
	if a.Timestamp != nil {
		s.Timestamp = *a.Timestamp
	}
	return s
}

func setValue(q model.Question, _ model.Answer, in AnswerInput) (model.Answer, error) {
	if in.Value == nil {
		return model.Answer{}, fmt.Errorf("%w: value is required", ErrInvalidValue)
	}
	return model.Answer{Value: *in.Value}, nil
}

func setChoice(q model.Question, _ model.Answer, in AnswerInput) (model.Answer, error) {
	if in.Value == nil || !q.HasOptionText(*in.Value) {
		return model.Answer{}, fmt.Errorf("%w: not an option of %q", ErrInvalidValue, q.Label)
	}
	return model.Answer{Value: *in.Value}, nil
}

func setMulti(q model.Question, current model.Answer, in AnswerInput) (model.Answer, error) {
	if in.Values != nil {
		for _, v := range in.Values {
			if !q.HasOptionText(v) {
				return model.Answer{}, fmt.Errorf("%w: %q is not an option", ErrInvalidValue, v)
			}
		}
		return model.Answer{Values: append([]string{}, in.Values...)}, nil
	}
	if in.Option == "" || in.Checked == nil {
		return model.Answer{}, fmt.Errorf("%w: option and checked are required", ErrInvalidValue)
	}
	if !q.HasOptionText(in.Option) {
		return model.Answer{}, fmt.Errorf("%w: %q is not an option", ErrInvalidValue, in.Option)
	}
	values := without(current.Values, in.Option)
	if *in.Checked {
		values = append(values, in.Option)
	}
	return model.Answer{Values: values}, nil
}
