package tui

import (
	"io"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a function that renders question markdown using
// glamour. When the renderer cannot be built the text passes through.
func NewRenderer() runner.ContentRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

var severityColors = map[domain.Severity]string{
	domain.SeverityA: "#ef4444",
	domain.SeverityB: "#f97316",
	domain.SeverityC: "#eab308",
	domain.SeverityD: "#22c55e",
}

// NewHighlighter colours text by severity for the terminal behind w.
// Plain writers (pipes, files) get the text unchanged.
func NewHighlighter(w io.Writer) runner.Highlighter {
	out := termenv.NewOutput(w)
	return func(level domain.Severity, text string) string {
		color, ok := severityColors[level]
		if !ok || out.Profile == termenv.Ascii {
			return text
		}
		s := out.String(text).Foreground(out.Color(color))
		if level == domain.TopSeverity {
			s = s.Bold()
		}
		return s.String()
	}
}
