package util

const (
	MimeOctetStream = "application/octet-stream"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// DemoCandidateID 未指定候选人时预览使用
	DemoCandidateID = "demo-candidate"

	// MaxUploadMemory 解析文件表单时的内存上限(字节)
	MaxUploadMemory = 32 << 20
)
