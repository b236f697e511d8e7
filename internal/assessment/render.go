package assessment

import "talentflow_backend/internal/model"

// RenderedQuestion 预览表单中的一个输入控件
type RenderedQuestion struct {
	ID        string        `json:"id"`
	Number    int           `json:"number"`
	Label     string        `json:"label"`
	Required  bool          `json:"required"`
	Type      string        `json:"type"`
	Control   model.Control `json:"control"`
	Options   []string      `json:"options,omitempty"`
	RangeHint string        `json:"rangeHint,omitempty"`
	Accept    string        `json:"accept,omitempty"`
	FileHint  string        `json:"fileHint,omitempty"`
	Multiple  bool          `json:"multiple,omitempty"`
}

type RenderedSection struct {
	ID          string             `json:"id"`
	Number      int                `json:"number"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Questions   []RenderedQuestion `json:"questions"`
}

// Form 预览的渲染模型
type Form struct {
	Title    string            `json:"title"`
	Empty    bool              `json:"empty"`
	Sections []RenderedSection `json:"sections"`
}

type decorator func(q model.Question, r *RenderedQuestion)

var decorators = map[model.QuestionType]decorator{
	model.SingleChoice: withOptions,
	model.MultiChoice:  withOptions,
	model.Numeric: func(q model.Question, r *RenderedQuestion) {
		if q.Validation.HasRange() {
			r.RangeHint = "Must be " + RangeText(q.Validation.Min, q.Validation.Max)
		}
	},
	model.FileUpload: func(q model.Question, r *RenderedQuestion) {
		r.Accept = AcceptAttribute(q.Validation.EffectiveFileTypes())
		r.FileHint = FileHint(q.Validation)
		r.Multiple = q.Validation.Multiple
	},
}

// Render 为每道题生成一个控件，按位置编号
func Render(doc model.Assessment) Form {
	form := Form{
		Title:    doc.Title,
		Empty:    len(doc.Sections) == 0,
		Sections: make([]RenderedSection, 0, len(doc.Sections)),
	}
	for i, s := range doc.Sections {
		rs := RenderedSection{
			ID:          s.ID,
			Number:      i + 1,
			Title:       s.Title,
			Description: s.Description,
			Questions:   make([]RenderedQuestion, 0, len(s.Questions)),
		}
		for j, q := range s.Questions {
			rq := RenderedQuestion{
				ID:       q.ID,
				Number:   j + 1,
				Label:    q.Label,
				Required: q.Required,
				Type:     model.QuestionTypes[q.Type].DisplayName,
				Control:  model.QuestionTypes[q.Type].Control,
			}
			if d, ok := decorators[q.Type]; ok {
				d(q, &rq)
			}
			rs.Questions = append(rs.Questions, rq)
		}
		form.Sections = append(form.Sections, rs)
	}
	return form
}

func withOptions(q model.Question, r *RenderedQuestion) {
	r.Options = make([]string, len(q.Options))
	for i, o := range q.Options {
		r.Options[i] = o.Text
	}
}
