package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"talentflow_backend/internal/model"
	"talentflow_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assessments.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.AssessmentRecord{}, &model.SubmissionRecord{}))
	return db
}

func sampleDoc(jobID string, revision int64) *model.Assessment {
	return &model.Assessment{
		ID:       "a-" + jobID,
		JobID:    jobID,
		Title:    "Assessment for " + jobID,
		Revision: revision,
		Sections: []model.Section{{
			ID:    "s1",
			Title: "Basics",
			Questions: []model.Question{
				{ID: "q1", Label: "Name", Type: model.ShortText, Options: []model.Option{}, CorrectAnswers: []string{}},
				{ID: "q2", Label: "Years", Type: model.Numeric, Options: []model.Option{}, CorrectAnswers: []string{},
					Validation: model.Validation{Min: model.Float64(0), Max: model.Float64(40)}},
			},
		}},
	}
}

func TestAssessmentRepository_LoadMissing(t *testing.T) {
	repo := NewAssessmentRepository(setupTestDB(t))
	_, err := repo.Load(context.Background(), "job-404")
	assert.ErrorIs(t, err, util.ErrAssessmentNotFound)
}

func TestAssessmentRepository_SaveAndLoad(t *testing.T) {
	repo := NewAssessmentRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleDoc("job-1", 1)))
	got, err := repo.Load(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "Assessment for job-1", got.Title)
	assert.Equal(t, int64(1), got.Revision)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, 40.0, *got.Sections[0].Questions[1].Validation.Max)
	assert.False(t, got.UpdatedAt.IsZero())

	doc := sampleDoc("job-1", 2)
	doc.Title = "Renamed"
	require.NoError(t, repo.Save(ctx, doc))
	got, err = repo.Load(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, int64(2), got.Revision)
}

func TestAssessmentRepository_SaveDiscardsStaleRevision(t *testing.T) {
	repo := NewAssessmentRepository(setupTestDB(t))
	ctx := context.Background()

	newer := sampleDoc("job-1", 5)
	newer.Title = "Newer"
	require.NoError(t, repo.Save(ctx, newer))

	older := sampleDoc("job-1", 3)
	older.Title = "Older"
	assert.ErrorIs(t, repo.Save(ctx, older), util.ErrStaleRevision)

	got, err := repo.Load(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "Newer", got.Title)
	assert.Equal(t, int64(5), got.Revision)
}

func TestAssessmentRepository_SaveRequiresJobID(t *testing.T) {
	repo := NewAssessmentRepository(setupTestDB(t))
	assert.ErrorIs(t, repo.Save(context.Background(), sampleDoc("", 1)), util.ErrInvalidJobID)
}

func TestAssessmentRepository_List(t *testing.T) {
	repo := NewAssessmentRepository(setupTestDB(t))
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		doc := sampleDoc(fmt.Sprintf("job-%d", i), 1)
		if i == 3 {
			doc.Title = "Senior Gopher"
		}
		require.NoError(t, repo.Save(ctx, doc))
	}

	items, total, err := repo.List(ctx, ListQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, items[0].QuestionCount)
	assert.Equal(t, 1, items[0].SectionCount)

	items, total, err = repo.List(ctx, ListQuery{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, items, 1)

	items, total, err = repo.List(ctx, ListQuery{Search: "gopher"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "job-3", items[0].JobID)

	_, total, err = repo.List(ctx, ListQuery{Search: "JOB-4"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestAssessmentRepository_Submit(t *testing.T) {
	repo := NewAssessmentRepository(setupTestDB(t))
	ctx := context.Background()

	sub := &model.Submission{
		JobID:       "job-1",
		CandidateID: "demo-candidate",
		Responses: []model.ResponseItem{
			{QuestionID: "q1", Answer: "Ada"},
			{QuestionID: "cv", Answer: model.FileAnswerSummary{FileCount: 1, FileNames: []string{"cv.pdf"}, TotalSize: 10}},
		},
		SubmittedAt: time.Now(),
	}
	rec, err := repo.Submit(ctx, sub)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Contains(t, string(rec.Responses), `"fileNames":["cv.pdf"]`)

	recs, err := repo.ListSubmissions(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "demo-candidate", recs[0].CandidateID)
}
