package assessment

import (
	"fmt"
	"strings"

	"talentflow_backend/internal/model"
)

// 可编辑字段
const (
	FieldTitle       = "title"
	FieldDescription = "description"

	FieldLabel      = "label"
	FieldType       = "type"
	FieldRequired   = "required"
	FieldValidation = "validation"
)

// 每个构建操作接收当前文档并返回只应用了一处修改的新文档。
// 输入不会被修改，调用方可以保留旧文档用于撤销。出错时原样返回输入文档

// EditTitle 设置测评标题
func EditTitle(doc model.Assessment, title string) model.Assessment {
	out := doc
	out.Title = title
	return out
}

// AddSection 追加一个空分区并返回其ID
func AddSection(doc model.Assessment) (model.Assessment, string) {
	s := model.Section{
		ID:        newID(),
		Title:     DefaultSectionTitle,
		Questions: []model.Question{},
	}
	out := doc
	out.Sections = appendCopy(doc.Sections, s)
	return out, s.ID
}

// EditSectionField 修改分区的标题或描述
func EditSectionField(doc model.Assessment, sectionID, field, value string) (model.Assessment, error) {
	return updateSection(doc, sectionID, func(s model.Section) (model.Section, error) {
		switch field {
		case FieldTitle:
			s.Title = value
		case FieldDescription:
			s.Description = value
		default:
			return s, fmt.Errorf("%w: section field %q", ErrUnknownField, field)
		}
		return s, nil
	})
}

// DeleteSection 删除分区及其下所有题目
func DeleteSection(doc model.Assessment, sectionID string) (model.Assessment, error) {
	i := sectionIndex(doc, sectionID)
	if i < 0 {
		return doc, ErrSectionNotFound
	}
	out := doc
	out.Sections = removeAt(doc.Sections, i)
	return out, nil
}

// AddQuestion 向分区追加一道短文本题并返回其ID
func AddQuestion(doc model.Assessment, sectionID string) (model.Assessment, string, error) {
	q := model.Question{
		ID:             newID(),
		Label:          DefaultQuestionLabel,
		Type:           model.ShortText,
		Options:        []model.Option{},
		CorrectAnswers: []string{},
		Validation:     model.Validation{},
	}
	out, err := updateSection(doc, sectionID, func(s model.Section) (model.Section, error) {
		s.Questions = appendCopy(s.Questions, q)
		return s, nil
	})
	if err != nil {
		return doc, "", err
	}
	return out, q.ID, nil
}

// EditQuestionField 修改 label(string)、type(string 或 QuestionType)、
// required(bool) 或 validation(Validation) 之一。
// 切换题型时选项、正确答案和校验规则重置为新题型的默认值
func EditQuestionField(doc model.Assessment, sectionID, questionID, field string, value interface{}) (model.Assessment, error) {
	return updateQuestion(doc, sectionID, questionID, func(q model.Question) (model.Question, error) {
		switch field {
		case FieldLabel:
			label, ok := value.(string)
			if !ok {
				return q, fmt.Errorf("%w: label must be a string", ErrInvalidValue)
			}
			q.Label = label
		case FieldRequired:
			required, ok := value.(bool)
			if !ok {
				return q, fmt.Errorf("%w: required must be a boolean", ErrInvalidValue)
			}
			q.Required = required
		case FieldType:
			t, err := toQuestionType(value)
			if err != nil {
				return q, err
			}
			return switchType(q, t), nil
		case FieldValidation:
			v, ok := value.(model.Validation)
			if !ok {
				return q, fmt.Errorf("%w: validation must be a validation record", ErrInvalidValue)
			}
			fitted, err := fitValidation(model.QuestionTypes[q.Type], v)
			if err != nil {
				return q, err
			}
			q.Validation = fitted
		default:
			return q, fmt.Errorf("%w: question field %q", ErrUnknownField, field)
		}
		return q, nil
	})
}

// DeleteQuestion 从分区中删除一道题
func DeleteQuestion(doc model.Assessment, sectionID, questionID string) (model.Assessment, error) {
	return updateSection(doc, sectionID, func(s model.Section) (model.Section, error) {
		j := questionIndex(s, questionID)
		if j < 0 {
			return s, ErrQuestionNotFound
		}
		s.Questions = removeAt(s.Questions, j)
		return s, nil
	})
}

// AddOption 追加一个 "New Option" 选项，文本重复时自动编号，返回选项ID
func AddOption(doc model.Assessment, sectionID, questionID string) (model.Assessment, string, error) {
	var id string
	out, err := updateChoiceQuestion(doc, sectionID, questionID, func(q model.Question) (model.Question, error) {
		opt := model.Option{ID: newID(), Text: nextOptionText(q)}
		q.Options = appendCopy(q.Options, opt)
		id = opt.ID
		return q, nil
	})
	if err != nil {
		return doc, "", err
	}
	return out, id, nil
}

// EditOption 替换指定下标选项的文本。选项ID不变，正确答案标记随之保留
func EditOption(doc model.Assessment, sectionID, questionID string, index int, value string) (model.Assessment, error) {
	return updateChoiceQuestion(doc, sectionID, questionID, func(q model.Question) (model.Question, error) {
		if index < 0 || index >= len(q.Options) {
			return q, ErrOptionNotFound
		}
		for i, o := range q.Options {
			if i != index && o.Text == value {
				return q, fmt.Errorf("%w: %q", ErrDuplicateOption, value)
			}
		}
		opt := q.Options[index]
		opt.Text = value
		q.Options = replaceAt(q.Options, index, opt)
		return q, nil
	})
}

// DeleteOption 删除指定下标的选项并从正确答案中移除
func DeleteOption(doc model.Assessment, sectionID, questionID string, index int) (model.Assessment, error) {
	return updateChoiceQuestion(doc, sectionID, questionID, func(q model.Question) (model.Question, error) {
		if index < 0 || index >= len(q.Options) {
			return q, ErrOptionNotFound
		}
		removed := q.Options[index].ID
		q.Options = removeAt(q.Options, index)
		q.CorrectAnswers = without(q.CorrectAnswers, removed)
		return q, nil
	})
}

// ToggleCorrectAnswer 标记正确选项。单选题最多一个正确选项，多选题切换选中状态
func ToggleCorrectAnswer(doc model.Assessment, sectionID, questionID, optionID string) (model.Assessment, error) {
	return updateChoiceQuestion(doc, sectionID, questionID, func(q model.Question) (model.Question, error) {
		if _, ok := q.OptionText(optionID); !ok {
			return q, ErrOptionNotFound
		}
		if model.QuestionTypes[q.Type].SingleCorrect {
			q.CorrectAnswers = []string{optionID}
			return q, nil
		}
		if contains(q.CorrectAnswers, optionID) {
			q.CorrectAnswers = without(q.CorrectAnswers, optionID)
		} else {
			q.CorrectAnswers = appendCopy(q.CorrectAnswers, optionID)
		}
		return q, nil
	})
}

func updateSection(doc model.Assessment, sectionID string, fn func(model.Section) (model.Section, error)) (model.Assessment, error) {
	i := sectionIndex(doc, sectionID)
	if i < 0 {
		return doc, ErrSectionNotFound
	}
	s, err := fn(doc.Sections[i])
	if err != nil {
		return doc, err
	}
	out := doc
	out.Sections = replaceAt(doc.Sections, i, s)
	return out, nil
}

func updateQuestion(doc model.Assessment, sectionID, questionID string, fn func(model.Question) (model.Question, error)) (model.Assessment, error) {
	return updateSection(doc, sectionID, func(s model.Section) (model.Section, error) {
		j := questionIndex(s, questionID)
		if j < 0 {
			return s, ErrQuestionNotFound
		}
		q, err := fn(s.Questions[j])
		if err != nil {
			return s, err
		}
		s.Questions = replaceAt(s.Questions, j, q)
		return s, nil
	})
}

func updateChoiceQuestion(doc model.Assessment, sectionID, questionID string, fn func(model.Question) (model.Question, error)) (model.Assessment, error) {
	return updateQuestion(doc, sectionID, questionID, func(q model.Question) (model.Question, error) {
		if !model.QuestionTypes[q.Type].HasOptions {
			return q, fmt.Errorf("%w: %s", ErrNotChoiceQuestion, q.Type)
		}
		return fn(q)
	})
}

func switchType(q model.Question, t model.QuestionType) model.Question {
	if q.Type == t {
		return q
	}
	spec := model.QuestionTypes[t]
	q.Type = t
	q.Options = []model.Option{}
	q.CorrectAnswers = []string{}
	q.Validation = spec.DefaultValidation()
	return q
}

func toQuestionType(value interface{}) (model.QuestionType, error) {
	var t model.QuestionType
	switch v := value.(type) {
	case model.QuestionType:
		t = v
	case string:
		t = model.QuestionType(v)
	default:
		return "", fmt.Errorf("%w: type must be a string", ErrInvalidValue)
	}
	if _, ok := model.LookupType(t); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownQuestionType, t)
	}
	return t, nil
}

// fitValidation 只保留题型支持的约束
func fitValidation(spec model.TypeSpec, v model.Validation) (model.Validation, error) {
	switch spec.Validation {
	case model.ValidationRange:
		if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
			return model.Validation{}, fmt.Errorf("%w: min %v is greater than max %v", ErrInvalidValue, *v.Min, *v.Max)
		}
		return model.Validation{Min: v.Min, Max: v.Max}, nil
	case model.ValidationFileSet:
		out := model.Validation{FileTypes: v.EffectiveFileTypes(), MaxSizeMB: v.MaxSizeMB, Multiple: v.Multiple}
		if !model.IsValidFileCategory(out.FileTypes) {
			return model.Validation{}, fmt.Errorf("%w: file type %q", ErrInvalidValue, v.FileTypes)
		}
		if v.MaxSizeMB != nil && *v.MaxSizeMB <= 0 {
			return model.Validation{}, fmt.Errorf("%w: maxSizeMB must be positive", ErrInvalidValue)
		}
		return out, nil
	}
	if v != (model.Validation{}) {
		return model.Validation{}, fmt.Errorf("%w: %s questions take no validation", ErrInvalidValue, spec.Type)
	}
	return model.Validation{}, nil
}

func nextOptionText(q model.Question) string {
	if !q.HasOptionText(DefaultOptionText) {
		return DefaultOptionText
	}
	for n := 2; ; n++ {
		text := fmt.Sprintf("%s %d", DefaultOptionText, n)
		if !q.HasOptionText(text) {
			return text
		}
	}
}

func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

// ParseQuestionType 解析题型名称，不区分大小写
func ParseQuestionType(s string) (model.QuestionType, error) {
	return toQuestionType(strings.ToLower(strings.TrimSpace(s)))
}
