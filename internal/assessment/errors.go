package assessment

import "errors"

// 构建和预览操作返回的查找与参数错误。返回这些错误时文档或会话保持不变
var (
	ErrSectionNotFound     = errors.New("section not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrOptionNotFound      = errors.New("option not found")
	ErrUnknownField        = errors.New("unknown field")
	ErrUnknownQuestionType = errors.New("unknown question type")
	ErrInvalidValue        = errors.New("invalid value")
	ErrNotChoiceQuestion   = errors.New("question has no options")
	ErrDuplicateOption     = errors.New("option text already exists")
	ErrWrongQuestionType   = errors.New("answer does not fit question type")
)

// IsLookupError 判断错误是否为ID在文档中找不到，而不是取值不合法
func IsLookupError(err error) bool {
	return errors.Is(err, ErrSectionNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrOptionNotFound)
}
