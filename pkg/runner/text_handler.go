package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/triage/pkg/domain"
	"golang.org/x/term"
)

const defaultBarWidth = 20

// ContentRenderer transforms question text before it is printed, e.g. to
// render markdown as ANSI.
type ContentRenderer func(string) (string, error)

// Highlighter decorates text according to a severity level.
type Highlighter func(level domain.Severity, text string) string

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader    *bufio.Reader
	Writer    io.Writer
	Renderer  ContentRenderer
	Highlight Highlighter
	barWidth  int

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerHighlighter configures severity colouring.
func WithTextHandlerHighlighter(hl Highlighter) TextHandlerOption {
	return func(h *TextHandler) {
		h.Highlight = hl
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:   bufio.NewReader(r),
		Writer:   w,
		barWidth: barWidth(w),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// barWidth sizes the progress bar to the terminal, if w is one.
func barWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultBarWidth
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return defaultBarWidth
	}
	return max(10, min(40, cols-20))
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, v *View) error {
	if v.Terminal {
		return h.outcome(v)
	}
	n := v.Question
	if n == nil {
		return nil
	}

	fmt.Fprintf(h.Writer, "\n%s\n", h.bar(v.Progress.Current, v.Progress.Total, v.Progress.Percent))
	text := n.Text
	if text == "" {
		text = n.ID
	}
	if h.Renderer != nil {
		if rendered, err := h.Renderer(text); err == nil {
			text = rendered
		}
	}
	fmt.Fprintln(h.Writer, strings.TrimSpace(text))

	for i, o := range n.Options {
		if n.Type == domain.NodeTypeInfo {
			break
		}
		fmt.Fprintf(h.Writer, "  %d) %s\n", i+1, o.Label)
	}
	if hint := hint(n); hint != "" {
		fmt.Fprintf(h.Writer, "(%s)\n", hint)
	}
	return nil
}

func hint(n *domain.Node) string {
	switch n.Type {
	case domain.NodeTypeBoolean:
		return "yes/no"
	case domain.NodeTypeNumeric:
		var b strings.Builder
		b.WriteString("number")
		if n.Min != nil && n.Max != nil {
			fmt.Fprintf(&b, " between %v and %v", *n.Min, *n.Max)
		}
		if n.Unit != "" {
			fmt.Fprintf(&b, ", in %s", n.Unit)
		}
		return b.String()
	case domain.NodeTypeSingleChoice:
		return "pick one number"
	case domain.NodeTypeMultipleChoice:
		return "numbers separated by commas, or press Enter for none"
	case domain.NodeTypeInfo:
		return "press Enter to continue"
	}
	return ""
}

func (h *TextHandler) bar(current, total int, pct float64) string {
	filled := int(pct / 100 * float64(h.barWidth))
	filled = min(h.barWidth, max(0, filled))
	return fmt.Sprintf("[%d/%d] %s%s %3.0f%%",
		current, total,
		strings.Repeat("█", filled), strings.Repeat("░", h.barWidth-filled), pct)
}

var outcomeMessages = map[domain.Outcome]string{
	domain.OutcomeEmergencyCall:         "Call the emergency number now.",
	domain.OutcomePriorityCallback:      "A clinician will call you back as a priority.",
	domain.OutcomeScheduledConsultation: "Book a consultation with your doctor.",
}

func (h *TextHandler) outcome(v *View) error {
	s := v.Session
	title := "Triage complete"
	if s.Status == domain.StatusCriticalStop {
		title = "Warning signs detected"
	}
	msg := fmt.Sprintf("%s: %s", title, outcomeMessages[v.Outcome])
	level := s.MaxSeverity
	if s.Status == domain.StatusCriticalStop {
		level = domain.TopSeverity
	}
	if h.Highlight != nil {
		msg = h.Highlight(level, msg)
	}
	fmt.Fprintf(h.Writer, "\n%s\n", msg)
	fmt.Fprintf(h.Writer, "Severity: %s  Outcome: %s  Questions answered: %d\n", s.MaxSeverity, v.Outcome, len(s.History))
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return nil
}
