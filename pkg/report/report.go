// Package report renders a finished triage session as a clinician handoff
// document.
package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/jung-kurt/gofpdf"
)

// Line is one answered question, in the order it was asked.
type Line struct {
	NodeID   string
	Question string
	Answer   string
	Risk     domain.Severity
}

// Handoff is the printable summary of a session.
type Handoff struct {
	SessionID   string
	ModuleID    string
	ModuleTitle string
	Status      domain.Status
	Severity    domain.Severity
	Outcome     domain.Outcome
	GeneratedAt time.Time
	Lines       []Line
	// PatientData holds seeded and saved values, without the per-question copies.
	PatientData map[string]string
}

// New builds a handoff for s. m may be nil when the module is no longer
// available; questions are then listed by node id.
func New(m *domain.Module, s *domain.Session, now time.Time) *Handoff {
	h := &Handoff{
		SessionID:   s.ID,
		ModuleID:    s.ModuleID,
		ModuleTitle: s.ModuleID,
		Status:      s.Status,
		Severity:    s.MaxSeverity,
		Outcome:     s.Outcome(),
		GeneratedAt: now,
		PatientData: make(map[string]string),
	}
	if m != nil && m.Title != "" {
		h.ModuleTitle = m.Title
	}

	for _, id := range s.History {
		answer := s.Answers[id]
		line := Line{NodeID: id, Question: id, Answer: answer.String()}
		if n, ok := m.Node(id); ok {
			if n.Text != "" {
				line.Question = n.Text
			}
			line.Answer = describe(n, answer)
			line.Risk = runtime.ContributedRisk(n, answer)
		}
		h.Lines = append(h.Lines, line)
	}

	for k, v := range s.PatientData {
		if _, answered := s.Answers[k]; answered || v.IsNull() {
			continue
		}
		h.PatientData[k] = v.String()
	}
	return h
}

// describe renders an answer with option labels instead of raw values.
func describe(n *domain.Node, answer domain.Value) string {
	switch n.Type {
	case domain.NodeTypeBoolean:
		if answer.Truthy() {
			return "Yes"
		}
		return "No"
	case domain.NodeTypeSingleChoice, domain.NodeTypeMultipleChoice:
		selected, _ := answer.AsList()
		if len(selected) == 0 {
			return "None"
		}
		labels := make([]string, len(selected))
		for i, v := range selected {
			labels[i] = v
			if o, ok := n.Option(domain.StringValue(v)); ok {
				labels[i] = o.Label
			}
		}
		return strings.Join(labels, "; ")
	case domain.NodeTypeNumeric:
		if n.Unit != "" {
			return answer.String() + " " + n.Unit
		}
	case domain.NodeTypeInfo:
		return "Acknowledged"
	}
	return answer.String()
}

var outcomeText = map[domain.Outcome]string{
	domain.OutcomeEmergencyCall:         "Emergency: call the emergency number now",
	domain.OutcomePriorityCallback:      "Priority callback by a clinician",
	domain.OutcomeScheduledConsultation: "Scheduled consultation",
}

// WritePDF renders h as a single A4 document.
func (h *Handoff) WritePDF(w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Triage handoff "+h.SessionID, true)
	pdf.SetCreator("triage", true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr("Triage handoff: "+h.ModuleTitle))
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	for _, kv := range [][2]string{
		{"Session", h.SessionID},
		{"Generated", h.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Status", string(h.Status)},
		{"Severity", h.Severity.String()},
	} {
		pdf.CellFormat(35, 7, kv[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, tr(kv[1]), "", 1, "L", false, 0, "")
	}

	r, g, b := outcomeColor(h.Outcome)
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Ln(3)
	pdf.CellFormat(0, 10, tr(outcomeText[h.Outcome]), "", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Answers")
	pdf.Ln(9)
	if len(h.Lines) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 6, "No questions answered.")
		pdf.Ln(8)
	}
	for _, l := range h.Lines {
		pdf.SetFont("Helvetica", "B", 10)
		risk := ""
		if l.Risk != domain.SeverityNone {
			risk = " [" + l.Risk.String() + "]"
		}
		pdf.MultiCell(0, 5, tr(l.Question+risk), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(l.Answer), "", "L", false)
		pdf.Ln(2)
	}

	if len(h.PatientData) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Patient data")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 10)
		for _, k := range slices.Sorted(maps.Keys(h.PatientData)) {
			pdf.CellFormat(50, 6, tr(k), "", 0, "L", false, 0, "")
			pdf.MultiCell(0, 6, tr(h.PatientData[k]), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render handoff %s: %w", h.SessionID, err)
	}
	return nil
}

func outcomeColor(o domain.Outcome) (int, int, int) {
	switch o {
	case domain.OutcomeEmergencyCall:
		return 192, 32, 32
	case domain.OutcomePriorityCallback:
		return 214, 120, 0
	}
	return 40, 120, 60
}
