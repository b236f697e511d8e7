package assessment

import (
	"testing"

	"talentflow_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmpty(t *testing.T) {
	form := Render(CreateEmpty("Nothing yet"))
	assert.True(t, form.Empty)
	assert.Equal(t, "Nothing yet", form.Title)
	assert.Empty(t, form.Sections)
}

func TestRenderControls(t *testing.T) {
	doc := previewDoc()
	doc.Sections[1].Questions = append(doc.Sections[1].Questions, model.Question{
		ID: "years", Label: "Years", Type: model.Numeric,
		Validation: model.Validation{Min: model.Float64(1), Max: model.Float64(10)},
	})

	form := Render(doc)
	require.Len(t, form.Sections, 2)
	assert.False(t, form.Empty)

	basics := form.Sections[0]
	assert.Equal(t, 1, basics.Number)
	assert.Equal(t, model.ControlText, basics.Questions[0].Control)
	assert.Equal(t, model.ControlRadio, basics.Questions[1].Control)
	assert.Equal(t, 2, basics.Questions[1].Number)
	assert.True(t, basics.Questions[1].Required)
	assert.Equal(t, []string{"A", "B"}, basics.Questions[1].Options)
	assert.Equal(t, model.ControlCheckbox, basics.Questions[2].Control)
	assert.Equal(t, "Multiple Choice", basics.Questions[2].Type)

	files := form.Sections[1]
	assert.Equal(t, 2, files.Number)
	cv := files.Questions[0]
	assert.Equal(t, model.ControlFile, cv.Control)
	assert.Equal(t, "*/*", cv.Accept)
	assert.Equal(t, "Max size: 10MB • All files", cv.FileHint)
	assert.False(t, cv.Multiple)

	shots := files.Questions[1]
	assert.Equal(t, "image/*", shots.Accept)
	assert.Equal(t, "Max size: 2MB • Images only", shots.FileHint)
	assert.True(t, shots.Multiple)

	years := files.Questions[2]
	assert.Equal(t, model.ControlNumber, years.Control)
	assert.Equal(t, "Must be between 1 and 10", years.RangeHint)
	assert.Equal(t, 3, years.Number)
}

func TestCheckFileTypeMatching(t *testing.T) {
	tests := []struct {
		name     string
		category model.FileCategory
		file     model.FileMeta
		ok       bool
	}{
		{"pdf by mime", model.FileTypePDF, model.FileMeta{Name: "cv", Type: "application/pdf"}, true},
		{"docx by extension", model.FileTypeDocument, model.FileMeta{Name: "CV.DOCX"}, true},
		{"txt by extension", model.FileTypeDocument, model.FileMeta{Name: "notes.txt", Type: "text/plain"}, true},
		{"video rejected as audio", model.FileTypeAudio, model.FileMeta{Name: "clip.mp4", Type: "video/mp4"}, false},
		{"anything for all", model.FileTypeAll, model.FileMeta{Name: "a.bin", Type: "application/octet-stream"}, true},
		{"jpeg image", model.FileTypeImage, model.FileMeta{Name: "me.jpg", Type: "image/jpeg"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CheckFile(model.Validation{FileTypes: tt.category}, tt.file)
			assert.Equal(t, tt.ok, r == nil)
		})
	}
}
