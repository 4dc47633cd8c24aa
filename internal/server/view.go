package server

import (
	"github.com/conneroisu/minplay/internal/config"
	"github.com/conneroisu/minplay/internal/pipeline"
	"github.com/conneroisu/minplay/internal/size"
)

// Panel names.
const (
	PanelOptions = "options"
	PanelInput   = "input"
	PanelOutput  = "output"
)

// Display carries the editor display settings for one panel.
type Display struct {
	LineWrap     bool `json:"line_wrap"`
	ShowFileSize bool `json:"show_file_size"`
}

// Panel is everything an editor widget needs to render one pane.
type Panel struct {
	Name          string  `json:"name"`
	Text          string  `json:"text"`
	Display       Display `json:"display"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	Placeholder   string  `json:"placeholder,omitempty"`
	FileSize      int     `json:"file_size"`
	FileSizeLabel string  `json:"file_size_label,omitempty"`
}

// View is the rendered playground: three panels plus pipeline status.
type View struct {
	Options     Panel   `json:"options"`
	Input       Panel   `json:"input"`
	Output      Panel   `json:"output"`
	Phase       string  `json:"phase"`
	Savings     float64 `json:"savings_percent"`
	Evaluations uint64  `json:"evaluations"`
}

// NewView renders s. The options error sits on the options panel and the
// transform error on the input panel, next to the text that caused it.
func NewView(s pipeline.State, editor config.EditorConfig) View {
	display := Display{LineWrap: editor.LineWrap, ShowFileSize: editor.ShowFileSize}

	optionsSize := size.ByteSize(s.OptionsText)
	return View{
		Options:     panel(PanelOptions, s.OptionsText, display, s.OptionsMessage(), "{}", optionsSize),
		Input:       panel(PanelInput, s.SourceText, display, s.TransformMessage(), pipeline.DefaultSource, s.SourceSize),
		Output:      panel(PanelOutput, s.ResultText, display, "", pipeline.DefaultResult, s.ResultSize),
		Phase:       s.Phase.String(),
		Savings:     s.Savings(),
		Evaluations: s.Evaluations,
	}
}

func panel(name, text string, display Display, errMsg, placeholder string, n int) Panel {
	p := Panel{
		Name:         name,
		Text:         text,
		Display:      display,
		ErrorMessage: errMsg,
		Placeholder:  placeholder,
		FileSize:     n,
	}
	if display.ShowFileSize {
		p.FileSizeLabel = size.Format(n)
	}
	return p
}
