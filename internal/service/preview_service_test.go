package service

import (
	"context"
	"testing"
	"time"

	"talentflow_backend/internal/assessment"
	"talentflow_backend/internal/cache"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func screeningDoc() model.Assessment {
	return model.Assessment{
		ID:    "a1",
		JobID: "job-1",
		Title: "Backend Engineer",
		Sections: []model.Section{
			{ID: "s1", Title: "Basics", Questions: []model.Question{
				{ID: "q1", Label: "Pick one", Type: model.SingleChoice, Required: true,
					Options: []model.Option{{ID: "oa", Text: "A"}, {ID: "ob", Text: "B"}}},
				{ID: "years", Label: "Years", Type: model.Numeric,
					Validation: model.Validation{Min: model.Float64(0), Max: model.Float64(40)}},
			}},
			{ID: "s2", Title: "Files", Questions: []model.Question{
				{ID: "cv", Label: "CV", Type: model.FileUpload, Required: true,
					Validation: model.Validation{FileTypes: model.FileTypePDF, MaxSizeMB: model.Float64(1)}},
			}},
		},
		Revision: 1,
	}
}

func newTestPreviewService(store *fakeStore) (*PreviewService, *EditorService) {
	editor, _ := newTestEditor(store)
	return NewPreviewService(editor, cache.NewMemorySessionCache(time.Hour), store), editor
}

func strPtr(s string) *string { return &s }

func TestPreviewService_StartSession(t *testing.T) {
	p, _ := newTestPreviewService(newFakeStore(screeningDoc()))

	view, err := p.StartSession(context.Background(), "job-1", "")
	require.NoError(t, err)
	assert.Equal(t, util.DemoCandidateID, view.Session.CandidateID)
	assert.Empty(t, view.Session.Responses)
	assert.Equal(t, "Backend Engineer", view.Form.Title)
	require.Len(t, view.Form.Sections, 2)
	assert.Equal(t, "Must be between 0 and 40", view.Form.Sections[0].Questions[1].RangeHint)

	again, err := p.Session(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Session.ID, again.Session.ID)
}

func TestPreviewService_UnknownSession(t *testing.T) {
	p, _ := newTestPreviewService(newFakeStore(screeningDoc()))
	_, err := p.SetAnswer(context.Background(), "nope", "q1", assessment.AnswerInput{Value: strPtr("A")})
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestPreviewService_SubmitFlow(t *testing.T) {
	store := newFakeStore(screeningDoc())
	p, _ := newTestPreviewService(store)
	ctx := context.Background()

	view, err := p.StartSession(ctx, "job-1", "cand-7")
	require.NoError(t, err)
	id := view.Session.ID

	_, err = p.Submit(ctx, id)
	var failure *assessment.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "q1", failure.QuestionID)

	_, err = p.SetAnswer(ctx, id, "q1", assessment.AnswerInput{Value: strPtr("B")})
	require.NoError(t, err)
	_, err = p.SetAnswer(ctx, id, "years", assessment.AnswerInput{Value: strPtr("50")})
	require.NoError(t, err)

	res, err := p.Validate(ctx, id)
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Equal(t, "years", res.Failure.QuestionID)
	assert.Equal(t, assessment.OutOfRange, res.Failure.Reason)

	_, err = p.SetAnswer(ctx, id, "years", assessment.AnswerInput{Value: strPtr("7")})
	require.NoError(t, err)

	_, err = p.SelectFiles(ctx, id, "cv", []model.FileMeta{{Name: "cv.png", Size: 100, Type: "image/png"}})
	var rejection *assessment.FileRejection
	require.ErrorAs(t, err, &rejection)

	session, err := p.SelectFiles(ctx, id, "cv", []model.FileMeta{{Name: "cv.pdf", Size: 1000, Type: "application/pdf"}})
	require.NoError(t, err)
	assert.Len(t, session.Responses["cv"].Files, 1)

	out, err := p.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cand-7", out.Submission.CandidateID)
	require.Len(t, out.Submission.Responses, 3)
	assert.Equal(t, "q1", out.Submission.Responses[0].QuestionID)
	summary, ok := out.Submission.Responses[2].Answer.(model.FileAnswerSummary)
	require.True(t, ok)
	assert.Equal(t, []string{"cv.pdf"}, summary.FileNames)
	assert.False(t, summary.Uploaded)
	assert.Len(t, store.submissions, 1)

	_, err = p.Session(ctx, id)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestPreviewService_SubmitDirectStoreFailure(t *testing.T) {
	store := newFakeStore(screeningDoc())
	store.failSubmit = true
	p, _ := newTestPreviewService(store)
	ctx := context.Background()

	out, err := p.SubmitDirect(ctx, "job-1", "", model.Responses{
		"q1": {Value: "A"},
		"cv": {Files: []model.FileMeta{{Name: "cv.pdf", Size: 10, Type: "application/pdf"}}},
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, util.ErrSubmitFailed)
}

func TestPreviewService_SubmitDirectChecksSelections(t *testing.T) {
	store := newFakeStore(screeningDoc())
	p, _ := newTestPreviewService(store)
	ctx := context.Background()

	tests := []struct {
		name      string
		responses model.Responses
		wantErr   error
	}{
		{"wrong file type", model.Responses{
			"q1": {Value: "A"},
			"cv": {Files: []model.FileMeta{{Name: "cv.png", Size: 10, Type: "image/png"}}},
		}, nil},
		{"file too large", model.Responses{
			"q1": {Value: "A"},
			"cv": {Files: []model.FileMeta{{Name: "cv.pdf", Size: 5 * 1024 * 1024, Type: "application/pdf"}}},
		}, nil},
		{"too many files", model.Responses{
			"q1": {Value: "A"},
			"cv": {Files: []model.FileMeta{
				{Name: "a.pdf", Size: 10, Type: "application/pdf"},
				{Name: "b.pdf", Size: 10, Type: "application/pdf"},
			}},
		}, assessment.ErrInvalidValue},
		{"unknown option", model.Responses{
			"q1": {Value: "C"},
			"cv": {Files: []model.FileMeta{{Name: "cv.pdf", Size: 10, Type: "application/pdf"}}},
		}, assessment.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.SubmitDirect(ctx, "job-1", "", tt.responses)
			assert.Nil(t, out)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var rejection *assessment.FileRejection
			assert.ErrorAs(t, err, &rejection)
		})
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.submissions)
}

func TestPreviewService_SubmitDirectAccepted(t *testing.T) {
	store := newFakeStore(screeningDoc())
	p, _ := newTestPreviewService(store)

	out, err := p.SubmitDirect(context.Background(), "job-1", "cand-2", model.Responses{
		"q1":    {Value: "B"},
		"years": {Value: "3"},
		"cv":    {Files: []model.FileMeta{{Name: "cv.pdf", Size: 10, Type: "application/pdf"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "cand-2", out.Submission.CandidateID)
	require.Len(t, out.Submission.Responses, 3)
	assert.Equal(t, "B", out.Submission.Responses[0].Answer)
}

func TestPreviewService_ReflectsUnsavedEdits(t *testing.T) {
	store := newFakeStore(screeningDoc())
	p, editor := newTestPreviewService(store)
	ctx := context.Background()

	view, err := p.StartSession(ctx, "job-1", "")
	require.NoError(t, err)

	_, err = editor.Apply(ctx, "job-1", Operation{Op: OpEditQuestion, SectionID: "s1", QuestionID: "q1",
		Field: assessment.FieldRequired, Value: raw(t, false)})
	require.NoError(t, err)
	_, err = editor.Apply(ctx, "job-1", Operation{Op: OpEditQuestion, SectionID: "s2", QuestionID: "cv",
		Field: assessment.FieldRequired, Value: raw(t, false)})
	require.NoError(t, err)

	out, err := p.Submit(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Empty(t, out.Submission.Responses)
}

func TestPreviewService_RemoveAndClearFiles(t *testing.T) {
	p, _ := newTestPreviewService(newFakeStore(screeningDoc()))
	ctx := context.Background()
	view, err := p.StartSession(ctx, "job-1", "")
	require.NoError(t, err)
	id := view.Session.ID

	_, err = p.SelectFiles(ctx, id, "cv", []model.FileMeta{{Name: "cv.pdf", Size: 10, Type: "application/pdf"}})
	require.NoError(t, err)

	session, err := p.RemoveFile(ctx, id, "cv", 0)
	require.NoError(t, err)
	_, ok := session.Responses["cv"]
	assert.False(t, ok)

	_, err = p.RemoveFile(ctx, id, "cv", 0)
	assert.ErrorIs(t, err, assessment.ErrInvalidValue)

	_, err = p.SelectFiles(ctx, id, "cv", []model.FileMeta{{Name: "cv.pdf", Size: 10, Type: "application/pdf"}})
	require.NoError(t, err)
	session, err = p.ClearFiles(ctx, id, "cv")
	require.NoError(t, err)
	assert.Empty(t, session.Responses)
}
