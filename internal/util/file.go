package util

import (
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMimeType 返回文件类型。声明的类型为空或为 octet-stream 时按文件头判断，
// 最后才按扩展名判断
func DetectMimeType(declared, name string, r io.Reader) (string, error) {
	if declared != "" && declared != MimeOctetStream {
		return declared, nil
	}
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	detected := m.String()
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = detected[:i]
	}
	if detected == MimeOctetStream {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			return byExt, nil
		}
	}
	return detected, nil
}
