package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/util"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) Load(ctx context.Context, jobID string) (*model.Assessment, error) {
	var rec model.AssessmentRecord
	err := r.DB.WithContext(ctx).Where("job_id = ?", jobID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAssessmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(&rec)
}

// Save 在一个事务中插入或更新文档。比较已存版本时锁定该行，并发保存按最后写入为准
func (r *AssessmentRepository) Save(ctx context.Context, doc *model.Assessment) error {
	if doc.JobID == "" {
		return util.ErrInvalidJobID
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	now := time.Now()

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.AssessmentRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("job_id = ?", doc.JobID).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec := model.AssessmentRecord{
				JobID:         doc.JobID,
				AssessmentID:  doc.ID,
				Title:         doc.Title,
				Document:      datatypes.JSON(body),
				Revision:      doc.Revision,
				SectionCount:  len(doc.Sections),
				QuestionCount: doc.QuestionCount(),
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			return tx.Create(&rec).Error
		case err != nil:
			return err
		}

		if existing.Revision > doc.Revision {
			return util.ErrStaleRevision
		}
		return tx.Model(&existing).Updates(map[string]interface{}{
			"assessment_id":  doc.ID,
			"title":          doc.Title,
			"document":       datatypes.JSON(body),
			"revision":       doc.Revision,
			"section_count":  len(doc.Sections),
			"question_count": doc.QuestionCount(),
			"updated_at":     now,
		}).Error
	})
}

func (r *AssessmentRepository) Submit(ctx context.Context, sub *model.Submission) (*model.SubmissionRecord, error) {
	body, err := json.Marshal(sub.Responses)
	if err != nil {
		return nil, err
	}
	rec := &model.SubmissionRecord{
		JobID:       sub.JobID,
		CandidateID: sub.CandidateID,
		Responses:   datatypes.JSON(body),
		SubmittedAt: sub.SubmittedAt,
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now()
	}
	if err := r.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *AssessmentRepository) List(ctx context.Context, q ListQuery) ([]model.AssessmentSummary, int64, error) {
	page, pageSize := q.Page, q.PageSize
	if page <= 0 {
		page = util.DefaultPage
	}
	if pageSize <= 0 {
		pageSize = util.DefaultPageSize
	}

	var total int64
	query := r.DB.WithContext(ctx).Model(&model.AssessmentRecord{})
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(job_id) LIKE ? OR LOWER(title) LIKE ?", like, like)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []model.AssessmentRecord
	offset := (page - 1) * pageSize
	err := query.Select("job_id", "assessment_id", "title", "revision", "section_count", "question_count", "created_at", "updated_at").
		Order("updated_at desc").
		Offset(offset).
		Limit(pageSize).
		Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]model.AssessmentSummary, 0, len(recs))
	for _, rec := range recs {
		items = append(items, model.AssessmentSummary{
			JobID:         rec.JobID,
			AssessmentID:  rec.AssessmentID,
			Title:         rec.Title,
			SectionCount:  rec.SectionCount,
			QuestionCount: rec.QuestionCount,
			Revision:      rec.Revision,
			CreatedAt:     rec.CreatedAt,
			UpdatedAt:     rec.UpdatedAt,
		})
	}
	return items, total, nil
}

// ListSubmissions 返回职位的提交记录，最新的在前
func (r *AssessmentRepository) ListSubmissions(ctx context.Context, jobID string) ([]model.SubmissionRecord, error) {
	var recs []model.SubmissionRecord
	err := r.DB.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("submitted_at desc").
		Find(&recs).Error
	return recs, err
}

func decodeRecord(rec *model.AssessmentRecord) (*model.Assessment, error) {
	var doc model.Assessment
	if err := json.Unmarshal(rec.Document, &doc); err != nil {
		return nil, err
	}
	doc.JobID = rec.JobID
	doc.Revision = rec.Revision
	doc.UpdatedAt = rec.UpdatedAt
	if doc.Sections == nil {
		doc.Sections = []model.Section{}
	}
	return &doc, nil
}
