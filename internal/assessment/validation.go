package assessment

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"talentflow_backend/internal/model"
)

type Reason string

const (
	RequiredFieldMissing Reason = "RequiredFieldMissing"
	OutOfRange           Reason = "OutOfRange"
	RequiredFileMissing  Reason = "RequiredFileMissing"
)

// Failure 第一道未通过校验的题目
type Failure struct {
	QuestionID    string   `json:"questionId"`
	QuestionLabel string   `json:"questionLabel"`
	Reason        Reason   `json:"reason"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	Message       string   `json:"message"`
}

func (f *Failure) Error() string {
	return f.Message
}

// Result 校验通过，或携带第一个失败项
type Result struct {
	Valid   bool     `json:"valid"`
	Failure *Failure `json:"failure,omitempty"`
}

type check func(q model.Question, answer model.Answer, present bool) *Failure

// presence 判断必填检查中答案是否算作已填写。
// 文件题只要有条目就算已填写，空文件列表由文件检查报告
var presence = map[model.QuestionType]func(model.Answer) bool{
	model.ShortText:    hasValue,
	model.LongText:     hasValue,
	model.SingleChoice: hasValue,
	model.Numeric:      hasValue,
	model.MultiChoice:  func(a model.Answer) bool { return len(a.Values) > 0 },
	model.FileUpload:   func(model.Answer) bool { return true },
}

// typeChecks 必填检查之后按题型执行的检查
var typeChecks = map[model.QuestionType]check{
	model.Numeric:    checkRange,
	model.FileUpload: checkRequiredFiles,
}

// Validate 依次遍历分区和题目，遇到第一个失败即停止。答案集只读
func Validate(doc model.Assessment, responses model.Responses) Result {
	for _, s := range doc.Sections {
		for _, q := range s.Questions {
			if f := validateQuestion(q, responses); f != nil {
				return Result{Failure: f}
			}
		}
	}
	return Result{Valid: true}
}

func validateQuestion(q model.Question, responses model.Responses) *Failure {
	answer, ok := responses[q.ID]
	present := ok && answered(q.Type, answer)

	if q.Required && !present {
		return &Failure{
			QuestionID:    q.ID,
			QuestionLabel: q.Label,
			Reason:        RequiredFieldMissing,
			Message:       fmt.Sprintf("Question %q is required", q.Label),
		}
	}
	if c, ok := typeChecks[q.Type]; ok {
		return c(q, answer, present)
	}
	return nil
}

func answered(t model.QuestionType, a model.Answer) bool {
	if p, ok := presence[t]; ok {
		return p(a)
	}
	return hasValue(a)
}

func hasValue(a model.Answer) bool {
	return a.Value != ""
}

// checkRange 将转换后的答案与上下限比较。
// 无法解析的答案为 NaN，与 NaN 的比较都为 false，因此视为通过
func checkRange(q model.Question, answer model.Answer, present bool) *Failure {
	if !present || !q.Validation.HasRange() {
		return nil
	}
	v := coerceNumber(answer.Value)
	min, max := q.Validation.Min, q.Validation.Max
	if (min != nil && v < *min) || (max != nil && v > *max) {
		return &Failure{
			QuestionID:    q.ID,
			QuestionLabel: q.Label,
			Reason:        OutOfRange,
			Min:           min,
			Max:           max,
			Message:       fmt.Sprintf("Question %q must be %s", q.Label, RangeText(min, max)),
		}
	}
	return nil
}

func checkRequiredFiles(q model.Question, answer model.Answer, present bool) *Failure {
	if q.Required && len(answer.Files) == 0 {
		return &Failure{
			QuestionID:    q.ID,
			QuestionLabel: q.Label,
			Reason:        RequiredFileMissing,
			Message:       fmt.Sprintf("File upload required for %q", q.Label),
		}
	}
	return nil
}

func coerceNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// RangeText 把上下限渲染为 "between 1 and 10"、"at least 1" 或 "at most 10"
func RangeText(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("between %s and %s", formatNumber(*min), formatNumber(*max))
	case min != nil:
		return "at least " + formatNumber(*min)
	case max != nil:
		return "at most " + formatNumber(*max)
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
