package assessment

import (
	"fmt"
	"strings"

	"talentflow_backend/internal/model"
)

const bytesPerMB = 1024 * 1024

// allowedFileTypes 每个类别接受的MIME类型和扩展名。FileTypeAll 没有条目，接受任意文件
var allowedFileTypes = map[model.FileCategory][]string{
	model.FileTypeImage:    {"image/jpeg", "image/png", "image/gif", "image/webp"},
	model.FileTypeDocument: {".doc", ".docx", ".txt", "application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	model.FileTypePDF:      {"application/pdf"},
	model.FileTypeVideo:    {"video/mp4", "video/mpeg", "video/quicktime"},
	model.FileTypeAudio:    {"audio/mpeg", "audio/wav", "audio/ogg"},
}

var acceptAttributes = map[model.FileCategory]string{
	model.FileTypeImage:    "image/*",
	model.FileTypeDocument: ".doc,.docx,.txt,.pdf,application/msword,application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	model.FileTypePDF:      ".pdf,application/pdf",
	model.FileTypeVideo:    "video/*",
	model.FileTypeAudio:    "audio/*",
}

var fileTypeLabels = map[model.FileCategory]string{
	model.FileTypeImage:    "Images only",
	model.FileTypeDocument: "Documents only",
	model.FileTypePDF:      "PDF only",
	model.FileTypeVideo:    "Videos only",
	model.FileTypeAudio:    "Audio only",
}

// FileRejection 文件被拒绝的原因
type FileRejection struct {
	FileName string `json:"fileName"`
	Message  string `json:"message"`
}

func (r *FileRejection) Error() string {
	return r.Message
}

// CheckFile 对单个文件检查大小限制和类别白名单
func CheckFile(v model.Validation, f model.FileMeta) *FileRejection {
	maxMB := v.EffectiveMaxSizeMB()
	if float64(f.Size) > maxMB*bytesPerMB {
		return &FileRejection{
			FileName: f.Name,
			Message:  fmt.Sprintf("File %q exceeds maximum size of %sMB", f.Name, formatNumber(maxMB)),
		}
	}
	category := v.EffectiveFileTypes()
	allowed, restricted := allowedFileTypes[category]
	if !restricted {
		return nil
	}
	mime := strings.ToLower(f.Type)
	name := strings.ToLower(f.Name)
	for _, entry := range allowed {
		if strings.HasSuffix(name, entry) {
			return nil
		}
		if mime != "" && strings.Contains(mime, strings.Replace(entry, ".", "", 1)) {
			return nil
		}
	}
	return &FileRejection{
		FileName: f.Name,
		Message:  fmt.Sprintf("File %q is not a valid %s file", f.Name, category),
	}
}

// AcceptAttribute 类别对应的文件输入框 accept 属性
func AcceptAttribute(c model.FileCategory) string {
	if a, ok := acceptAttributes[c]; ok {
		return a
	}
	return "*/*"
}

// FileHint 文件控件下方的 "Max size: 10MB • Images only" 提示
func FileHint(v model.Validation) string {
	label, ok := fileTypeLabels[v.EffectiveFileTypes()]
	if !ok {
		label = "All files"
	}
	return fmt.Sprintf("Max size: %sMB • %s", formatNumber(v.EffectiveMaxSizeMB()), label)
}
