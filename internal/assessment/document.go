// Package assessment 测评引擎：文档模型工具、构建操作、校验引擎和预览会话。
// 本包不做任何 I/O
package assessment

import (
	"talentflow_backend/internal/model"

	"github.com/google/uuid"
)

const (
	DefaultSectionTitle  = "New Section"
	DefaultQuestionLabel = "New Question"
	DefaultOptionText    = "New Option"
)

var newID = uuid.NewString

// CreateEmpty 创建一个新ID、无分区的测评
func CreateEmpty(title string) model.Assessment {
	return model.Assessment{
		ID:       newID(),
		Title:    title,
		Sections: []model.Section{},
	}
}

type QuestionNumber struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
}

type SectionNumber struct {
	ID        string           `json:"id"`
	Number    int              `json:"number"`
	Questions []QuestionNumber `json:"questions"`
}

// Numbering 按切片位置生成从1开始的显示序号
func Numbering(doc model.Assessment) []SectionNumber {
	out := make([]SectionNumber, len(doc.Sections))
	for i, s := range doc.Sections {
		qs := make([]QuestionNumber, len(s.Questions))
		for j, q := range s.Questions {
			qs[j] = QuestionNumber{ID: q.ID, Number: j + 1}
		}
		out[i] = SectionNumber{ID: s.ID, Number: i + 1, Questions: qs}
	}
	return out
}

// Normalize 返回满足文档约束的副本：空切片代替nil，每个节点都有ID，
// 选项文本唯一，正确答案只引用已有选项，校验规则裁剪为题型使用的部分。
// 外部传入的文档在保存前都要经过这里
func Normalize(doc model.Assessment) model.Assessment {
	out := doc
	if out.ID == "" {
		out.ID = newID()
	}
	out.Sections = make([]model.Section, len(doc.Sections))
	for i, s := range doc.Sections {
		ns := s
		if ns.ID == "" {
			ns.ID = newID()
		}
		ns.Questions = make([]model.Question, len(s.Questions))
		for j, q := range s.Questions {
			ns.Questions[j] = normalizeQuestion(q)
		}
		out.Sections[i] = ns
	}
	return out
}

func normalizeQuestion(q model.Question) model.Question {
	nq := q
	if nq.ID == "" {
		nq.ID = newID()
	}
	spec, ok := model.LookupType(nq.Type)
	if !ok {
		spec = model.QuestionTypes[model.ShortText]
		nq.Type = model.ShortText
	}

	nq.Options = []model.Option{}
	nq.CorrectAnswers = []string{}
	if spec.HasOptions {
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if seen[o.Text] {
				continue
			}
			seen[o.Text] = true
			if o.ID == "" {
				o.ID = newID()
			}
			nq.Options = append(nq.Options, o)
		}
	}
	if spec.HasCorrectAnswers() {
		for _, id := range q.CorrectAnswers {
			if _, ok := nq.OptionText(id); ok && !contains(nq.CorrectAnswers, id) {
				nq.CorrectAnswers = append(nq.CorrectAnswers, id)
			}
		}
		if spec.SingleCorrect && len(nq.CorrectAnswers) > 1 {
			nq.CorrectAnswers = nq.CorrectAnswers[:1]
		}
	}

	if v, err := fitValidation(spec, q.Validation); err == nil {
		nq.Validation = v
	} else {
		nq.Validation = spec.DefaultValidation()
	}
	return nq
}

func sectionIndex(doc model.Assessment, id string) int {
	for i, s := range doc.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func questionIndex(s model.Section, id string) int {
	for i, q := range s.Questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func removeAt[T any](list []T, i int) []T {
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func replaceAt[T any](list []T, i int, v T) []T {
	out := make([]T, len(list))
	copy(out, list)
	out[i] = v
	return out
}

func appendCopy[T any](list []T, v T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, list...)
	return append(out, v)
}
