package model

// QuestionType 测评支持的题型，取值固定。
// 名称与构建器前端一致(short, long, single, multi, numeric, file)
type QuestionType string

const (
	ShortText    QuestionType = "short"
	LongText     QuestionType = "long"
	SingleChoice QuestionType = "single"
	MultiChoice  QuestionType = "multi"
	Numeric      QuestionType = "numeric"
	FileUpload   QuestionType = "file"
)

// FileCategory 文件题可接受的文件类别
type FileCategory string

const (
	FileTypeAll      FileCategory = "all"
	FileTypeImage    FileCategory = "image"
	FileTypeDocument FileCategory = "document"
	FileTypePDF      FileCategory = "pdf"
	FileTypeVideo    FileCategory = "video"
	FileTypeAudio    FileCategory = "audio"
)

// DefaultMaxSizeMB 文件题未设置 maxSizeMB 时使用
const DefaultMaxSizeMB = 10

// ValidationKind 题型使用 Validation 的哪一部分
type ValidationKind string

const (
	ValidationNone    ValidationKind = ""
	ValidationRange   ValidationKind = "range"
	ValidationFileSet ValidationKind = "file"
)

// Control 预览为题目渲染的输入控件
type Control string

const (
	ControlText     Control = "text"
	ControlTextarea Control = "textarea"
	ControlRadio    Control = "radio"
	ControlCheckbox Control = "checkbox"
	ControlNumber   Control = "number"
	ControlFile     Control = "file"
)

// TypeSpec 描述题型适用的附加字段
type TypeSpec struct {
	Type          QuestionType
	DisplayName   string
	HasOptions    bool
	SingleCorrect bool
	Validation    ValidationKind
	Control       Control
}

// HasCorrectAnswers 题型是否可以设置正确答案
func (s TypeSpec) HasCorrectAnswers() bool {
	return s.HasOptions
}

// DefaultValidation 该题型新题目的默认校验规则
func (s TypeSpec) DefaultValidation() Validation {
	if s.Validation == ValidationFileSet {
		return Validation{FileTypes: FileTypeAll}
	}
	return Validation{}
}

// QuestionTypes 题型查找表，构建器、校验引擎和预览渲染共用
var QuestionTypes = map[QuestionType]TypeSpec{
	ShortText:    {Type: ShortText, DisplayName: "Short Text", Control: ControlText},
	LongText:     {Type: LongText, DisplayName: "Long Text", Control: ControlTextarea},
	SingleChoice: {Type: SingleChoice, DisplayName: "Single Choice", HasOptions: true, SingleCorrect: true, Control: ControlRadio},
	MultiChoice:  {Type: MultiChoice, DisplayName: "Multiple Choice", HasOptions: true, Control: ControlCheckbox},
	Numeric:      {Type: Numeric, DisplayName: "Numeric", Validation: ValidationRange, Control: ControlNumber},
	FileUpload:   {Type: FileUpload, DisplayName: "File Upload", Validation: ValidationFileSet, Control: ControlFile},
}

// LookupType 返回题型描述以及是否为已知题型
func LookupType(t QuestionType) (TypeSpec, bool) {
	spec, ok := QuestionTypes[t]
	return spec, ok
}

// IsValidFileCategory 是否为已知文件类别
func IsValidFileCategory(c FileCategory) bool {
	switch c {
	case FileTypeAll, FileTypeImage, FileTypeDocument, FileTypePDF, FileTypeVideo, FileTypeAudio:
		return true
	}
	return false
}
