package model

import "time"

// swagger:model Assessment
type Assessment struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId,omitempty"`
	Title     string    `json:"title"`
	Sections  []Section `json:"sections"`
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// swagger:model Section
type Section struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// swagger:model Question
type Question struct {
	ID             string       `json:"id"`
	Label          string       `json:"label"`
	Type           QuestionType `json:"type"`
	Required       bool         `json:"required"`
	Options        []Option     `json:"options"`
	CorrectAnswers []string     `json:"correctAnswers"` // 选项ID
	Validation     Validation   `json:"validation"`
}

// Option 带固定ID的选项，改名不改ID
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Validation 题型相关的约束，只有题型 ValidationKind 指定的部分有效
type Validation struct {
	Min       *float64     `json:"min,omitempty"`
	Max       *float64     `json:"max,omitempty"`
	FileTypes FileCategory `json:"fileTypes,omitempty"`
	MaxSizeMB *float64     `json:"maxSizeMB,omitempty"`
	Multiple  bool         `json:"multiple,omitempty"`
}

// EffectiveMaxSizeMB 未设置时取 DefaultMaxSizeMB
func (v Validation) EffectiveMaxSizeMB() float64 {
	if v.MaxSizeMB == nil || *v.MaxSizeMB <= 0 {
		return DefaultMaxSizeMB
	}
	return *v.MaxSizeMB
}

// EffectiveFileTypes 未设置时取 FileTypeAll
func (v Validation) EffectiveFileTypes() FileCategory {
	if v.FileTypes == "" {
		return FileTypeAll
	}
	return v.FileTypes
}

// HasRange 是否设置了上限或下限
func (v Validation) HasRange() bool {
	return v.Min != nil || v.Max != nil
}

// OptionText 返回指定ID选项的文本
func (q Question) OptionText(id string) (string, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o.Text, true
		}
	}
	return "", false
}

// HasOptionText 文本是否为某个选项的文本
func (q Question) HasOptionText(text string) bool {
	for _, o := range q.Options {
		if o.Text == text {
			return true
		}
	}
	return false
}

// QuestionCount 所有分区的题目总数
func (a Assessment) QuestionCount() int {
	n := 0
	for _, s := range a.Sections {
		n += len(s.Questions)
	}
	return n
}

// FindQuestion 在整个文档中按ID查找题目
func (a Assessment) FindQuestion(id string) (Question, bool) {
	for _, s := range a.Sections {
		for _, q := range s.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

// Float64 返回v的指针，用于构造校验规则
func Float64(v float64) *float64 {
	return &v
}
