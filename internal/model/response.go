package model

import "time"

// Answer 答题者的一个答案，取值字段由题型决定：
// 文本、单选和数字题用 Value，多选用 Values，文件题用 Files
type Answer struct {
	Value     string     `json:"value,omitempty"`
	Values    []string   `json:"values,omitempty"`
	Files     []FileMeta `json:"files,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// FileMeta 客户端采集的文件元数据，不保存文件内容
type FileMeta struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	LastModified int64  `json:"lastModified"`
}

// Responses 一个预览会话的答案，按题目ID索引
type Responses map[string]Answer

// PreviewSession 一名答题者填写测评的状态
type PreviewSession struct {
	ID          string    `json:"id"`
	JobID       string    `json:"jobId"`
	CandidateID string    `json:"candidateId"`
	Responses   Responses `json:"responses"`
	StartedAt   time.Time `json:"startedAt"`
}

// ResponseItem 提交载荷中的一项
type ResponseItem struct {
	QuestionID string      `json:"questionId"`
	Answer     interface{} `json:"answer"`
}

// FileAnswerSummary 提交载荷中代替原始文件的摘要
type FileAnswerSummary struct {
	FileCount int       `json:"fileCount"`
	FileNames []string  `json:"fileNames"`
	TotalSize int64     `json:"totalSize"`
	Uploaded  bool      `json:"uploaded"`
	Timestamp time.Time `json:"timestamp"`
}

// Submission 提交给存储的答卷
type Submission struct {
	JobID       string         `json:"jobId"`
	CandidateID string         `json:"candidateId"`
	Responses   []ResponseItem `json:"responses"`
	SubmittedAt time.Time      `json:"submittedAt"`
}
