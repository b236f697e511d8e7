package model

import (
	"time"

	"gorm.io/datatypes"
)

// AssessmentRecord 每个职位一份测评文档，分区和题目整体存放在 Document 中
type AssessmentRecord struct {
	JobID         string         `gorm:"primaryKey;type:varchar(64)" json:"jobId"`
	AssessmentID  string         `gorm:"type:varchar(36);index" json:"assessmentId"`
	Title         string         `gorm:"size:255" json:"title"`
	Document      datatypes.JSON `json:"document"`
	Revision      int64          `gorm:"not null;default:0" json:"revision"`
	SectionCount  int            `json:"sectionCount"`
	QuestionCount int            `json:"questionCount"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (AssessmentRecord) TableName() string {
	return "assessments"
}

// swagger:model AssessmentSubmission
type SubmissionRecord struct {
	UUIDBase
	JobID       string         `gorm:"index;type:varchar(64);not null" json:"jobId"`
	CandidateID string         `gorm:"index;size:64" json:"candidateId"`
	Responses   datatypes.JSON `json:"responses"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

func (SubmissionRecord) TableName() string {
	return "assessment_submissions"
}

// AssessmentSummary 测评列表项
type AssessmentSummary struct {
	JobID         string    `json:"jobId"`
	AssessmentID  string    `json:"assessmentId"`
	Title         string    `json:"title"`
	SectionCount  int       `json:"sectionCount"`
	QuestionCount int       `json:"questionCount"`
	Revision      int64     `json:"revision"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
