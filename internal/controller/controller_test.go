package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"talentflow_backend/internal/cache"
	"talentflow_backend/internal/config"
	"talentflow_backend/internal/middleware"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/repository"
	"talentflow_backend/internal/service"
	"talentflow_backend/internal/util"
	"talentflow_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorCode"`
	Data      json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	store  *repository.SimulatedStore
	sync   *service.SyncService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "assessments.db")
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: path}, "release")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	repo := repository.NewAssessmentRepository(db)
	store := repository.NewSimulatedStore(repo, config.SimulationConfig{})
	hub := service.NewSyncHub(nil)
	syncService := service.NewSyncService(store, hub, config.SyncConfig{
		RetryInterval: time.Second,
		MaxAttempts:   3,
		SaveTimeout:   5 * time.Second,
		RetryRate:     1000,
	})
	editor := service.NewEditorService(store, syncService)
	preview := service.NewPreviewService(editor, cache.NewMemorySessionCache(time.Hour), store)
	assessments := service.NewAssessmentService(store, repo, editor)

	ac := NewAssessmentController(assessments, editor, preview)
	bc := NewBuilderController(editor, syncService, hub)
	pc := NewPreviewController(preview)
	hc := NewHealthController(db, nil, syncService, store)

	r := gin.New()
	r.GET("/health", hc.HealthCheck)
	api := r.Group("/api")
	api.GET("/assessments", ac.ListAssessments)
	job := api.Group("/assessments/:jobId", middleware.JobIDGuard())
	job.GET("", ac.GetAssessment)
	job.PUT("", ac.SaveAssessment)
	job.POST("/submit", ac.SubmitAssessment)
	job.GET("/submissions", ac.ListSubmissions)
	job.POST("/builder/open", bc.Open)
	job.POST("/builder/ops", bc.Apply)
	job.GET("/sync", bc.SyncStatus)
	job.POST("/sync/retry", bc.Retry)
	job.POST("/preview/sessions", pc.StartSession)
	sessions := api.Group("/preview/sessions/:sessionId")
	sessions.GET("", pc.GetSession)
	sessions.PUT("/answers/:questionId", pc.SetAnswer)
	sessions.POST("/answers/:questionId/files", pc.SelectFiles)
	sessions.POST("/submit", pc.Submit)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = syncService.Wait(ctx)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testServer{router: r, store: store, sync: syncService}
}

func (s *testServer) do(t *testing.T, method, url string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func screeningAssessment() model.Assessment {
	return model.Assessment{
		Title: "Backend Engineer",
		Sections: []model.Section{{
			ID:    "s1",
			Title: "Basics",
			Questions: []model.Question{
				{ID: "q1", Label: "Pick one", Type: model.SingleChoice, Required: true,
					Options: []model.Option{{ID: "oa", Text: "A"}, {ID: "ob", Text: "B"}}},
				{ID: "cv", Label: "CV", Type: model.FileUpload, Required: true,
					Validation: model.Validation{FileTypes: model.FileTypePDF, MaxSizeMB: model.Float64(1)}},
			},
		}},
	}
}

func TestHealthController(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Status     string                  `json:"status"`
		Components map[string]string       `json:"components"`
		Simulation config.SimulationConfig `json:"simulation"`
	}
	decode(t, env.Data, &data)
	assert.Equal(t, "ok", data.Status)
	assert.Equal(t, "up", data.Components["database"])
	assert.Equal(t, "disabled", data.Components["redis"])
	assert.False(t, data.Simulation.Enabled)
}

func TestAssessmentController_GetMissing(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodGet, "/api/assessments/job-404", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, util.CodeNotFound, env.ErrorCode)
}

func TestAssessmentController_RejectsBadJobID(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodGet, "/api/assessments/-bad", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBuilderController_OpsFlow(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/assessments/job-1/builder/open", nil)
	require.Equal(t, http.StatusOK, code)
	var opened OpenResult
	decode(t, env.Data, &opened)
	assert.Equal(t, "job-1", opened.Document.JobID)
	assert.Empty(t, opened.Document.Sections)

	code, env = s.do(t, http.MethodPost, "/api/assessments/job-1/builder/ops", service.Operation{Op: service.OpAddSection})
	require.Equal(t, http.StatusOK, code)
	var res service.OpResult
	decode(t, env.Data, &res)
	sectionID := res.CreatedID
	require.NotEmpty(t, sectionID)

	code, env = s.do(t, http.MethodPost, "/api/assessments/job-1/builder/ops",
		service.Operation{Op: service.OpAddQuestion, SectionID: sectionID})
	require.Equal(t, http.StatusOK, code)
	decode(t, env.Data, &res)
	questionID := res.CreatedID
	require.NotEmpty(t, questionID)

	code, env = s.do(t, http.MethodPost, "/api/assessments/job-1/builder/ops", map[string]interface{}{
		"op": service.OpEditQuestion, "sectionId": sectionID, "questionId": questionID,
		"field": "label", "value": "Why this role?",
	})
	require.Equal(t, http.StatusOK, code)
	decode(t, env.Data, &res)
	assert.Equal(t, "Why this role?", res.Document.Sections[0].Questions[0].Label)
	assert.Equal(t, int64(3), res.Document.Revision)
	require.Len(t, res.Numbering, 1)
	assert.Equal(t, 1, res.Numbering[0].Questions[0].Number)

	code, env = s.do(t, http.MethodPost, "/api/assessments/job-1/builder/ops", service.Operation{Op: "renameEverything"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.CodeInvalidOperation, env.ErrorCode)

	code, _ = s.do(t, http.MethodPost, "/api/assessments/job-1/builder/ops",
		service.Operation{Op: service.OpDeleteSection, SectionID: "missing"})
	assert.Equal(t, http.StatusNotFound, code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.sync.Wait(ctx))

	code, env = s.do(t, http.MethodGet, "/api/assessments/job-1/sync", nil)
	require.Equal(t, http.StatusOK, code)
	var status model.SyncStatus
	decode(t, env.Data, &status)
	assert.Equal(t, model.SyncSynced, status.State)
	assert.Equal(t, int64(3), status.SavedRevision)
}

func TestBuilderController_BackToBackOpsEndSynced(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/assessments/job-7/builder/open", nil)
	require.Equal(t, http.StatusOK, code)

	var res service.OpResult
	for i := 0; i < 8; i++ {
		code, env := s.do(t, http.MethodPost, "/api/assessments/job-7/builder/ops", service.Operation{Op: service.OpAddSection})
		require.Equal(t, http.StatusOK, code)
		decode(t, env.Data, &res)
	}
	assert.Equal(t, int64(8), res.Document.Revision)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.sync.Wait(ctx))

	code, env := s.do(t, http.MethodGet, "/api/assessments/job-7/sync", nil)
	require.Equal(t, http.StatusOK, code)
	var status model.SyncStatus
	decode(t, env.Data, &status)
	assert.Equal(t, model.SyncSynced, status.State)
	assert.Equal(t, int64(8), status.SavedRevision)
	assert.Empty(t, status.LastError)

	code, env = s.do(t, http.MethodGet, "/api/assessments/job-7", nil)
	require.Equal(t, http.StatusOK, code)
	var doc model.Assessment
	decode(t, env.Data, &doc)
	assert.Len(t, doc.Sections, 8)
}

func TestBuilderController_SyncStatusNotOpen(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodGet, "/api/assessments/job-9/sync", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAssessmentController_SaveFailure(t *testing.T) {
	s := newTestServer(t)
	s.store.Update(config.SimulationConfig{Enabled: true, WriteErrorRate: 1})

	code, env := s.do(t, http.MethodPut, "/api/assessments/job-1", screeningAssessment())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, util.CodeSaveFailed, env.ErrorCode)
	var res SaveResult
	decode(t, env.Data, &res)
	assert.Equal(t, "Backend Engineer", res.Document.Title)
	assert.Equal(t, model.SyncError, res.Status.State)

	// 文档仍保留在内存中
	code, env = s.do(t, http.MethodGet, "/api/assessments/job-1", nil)
	require.Equal(t, http.StatusOK, code)
	var doc model.Assessment
	decode(t, env.Data, &doc)
	assert.Equal(t, "Backend Engineer", doc.Title)

	s.store.Update(config.SimulationConfig{})
	code, env = s.do(t, http.MethodPost, "/api/assessments/job-1/sync/retry", nil)
	require.Equal(t, http.StatusOK, code)
	var status model.SyncStatus
	decode(t, env.Data, &status)
	assert.Equal(t, model.SyncSynced, status.State)
}

func TestAssessmentController_SubmitValidation(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPut, "/api/assessments/job-1", screeningAssessment())
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(t, http.MethodPost, "/api/assessments/job-1/submit", SubmitAssessmentRequest{
		Responses: model.Responses{"q1": {Value: "A"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, util.CodeValidationFailed, env.ErrorCode)
	var failure map[string]interface{}
	decode(t, env.Data, &failure)
	assert.Equal(t, "cv", failure["questionId"])
	assert.Equal(t, "RequiredFieldMissing", failure["reason"])

	code, _ = s.do(t, http.MethodPost, "/api/assessments/job-1/submit", SubmitAssessmentRequest{
		CandidateID: "cand-1",
		Responses: model.Responses{
			"q1": {Value: "A"},
			"cv": {Files: []model.FileMeta{{Name: "cv.pdf", Size: 10, Type: "application/pdf"}}},
		},
	})
	assert.Equal(t, http.StatusCreated, code)

	code, env = s.do(t, http.MethodGet, "/api/assessments/job-1/submissions", nil)
	require.Equal(t, http.StatusOK, code)
	var recs []model.SubmissionRecord
	decode(t, env.Data, &recs)
	require.Len(t, recs, 1)
	assert.Equal(t, "cand-1", recs[0].CandidateID)
}

func TestAssessmentController_SubmitRejectsBadFile(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPut, "/api/assessments/job-1", screeningAssessment())
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(t, http.MethodPost, "/api/assessments/job-1/submit", SubmitAssessmentRequest{
		Responses: model.Responses{
			"q1": {Value: "A"},
			"cv": {Files: []model.FileMeta{{Name: "cv.png", Size: 10, Type: "image/png"}}},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, util.CodeFileRejected, env.ErrorCode)

	code, env = s.do(t, http.MethodGet, "/api/assessments/job-1/submissions", nil)
	require.Equal(t, http.StatusOK, code)
	var recs []model.SubmissionRecord
	decode(t, env.Data, &recs)
	assert.Empty(t, recs)
}

func TestPreviewController_SessionWithUploads(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPut, "/api/assessments/job-1", screeningAssessment())
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(t, http.MethodPost, "/api/assessments/job-1/preview/sessions", nil)
	require.Equal(t, http.StatusCreated, code)
	var view service.PreviewView
	decode(t, env.Data, &view)
	id := view.Session.ID
	assert.Equal(t, util.DemoCandidateID, view.Session.CandidateID)

	upload := func(name string, content []byte) (int, envelope) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.WriteField("lastModified", "1700000000000"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/preview/sessions/"+id+"/answers/cv/files", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return s.serve(t, req)
	}

	code, env = upload("photo.png", []byte("\x89PNG\r\n\x1a\n0000"))
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, util.CodeFileRejected, env.ErrorCode)

	code, env = upload("cv.pdf", []byte("%PDF-1.4\n%test\n"))
	require.Equal(t, http.StatusOK, code)
	var session model.PreviewSession
	decode(t, env.Data, &session)
	require.Len(t, session.Responses["cv"].Files, 1)
	file := session.Responses["cv"].Files[0]
	assert.Equal(t, "cv.pdf", file.Name)
	assert.Equal(t, "application/pdf", file.Type)
	assert.Equal(t, int64(1700000000000), file.LastModified)

	code, _ = s.do(t, http.MethodPost, "/api/preview/sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = s.do(t, http.MethodPut, "/api/preview/sessions/"+id+"/answers/q1", map[string]string{"value": "B"})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/api/preview/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusCreated, code)
	var out service.SubmitResult
	decode(t, env.Data, &out)
	assert.Len(t, out.Submission.Responses, 2)

	code, _ = s.do(t, http.MethodGet, "/api/preview/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPreviewController_UnknownSession(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodPut, "/api/preview/sessions/nope/answers/q1", map[string]string{"value": "B"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, util.CodeNotFound, env.ErrorCode)
}
