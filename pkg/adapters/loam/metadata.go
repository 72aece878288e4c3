package loam

import (
	"fmt"

	"github.com/aretw0/triage/internal/dto"
)

// ModuleDoc is the document id whose front matter carries the module header.
const ModuleDoc = "module"

// NodeMetadata is the front matter of a question document. The module header
// document (module.md) uses the same shape and fills the header fields instead.
type NodeMetadata struct {
	ID   string `json:"id" mapstructure:"id"`
	Type string `json:"type" mapstructure:"type"`
	// Text overrides the document body as the question text.
	Text         string           `json:"text" mapstructure:"text"`
	Min          any              `json:"min" mapstructure:"min"`
	Max          any              `json:"max" mapstructure:"max"`
	Unit         string           `json:"unit" mapstructure:"unit"`
	Options      []OptionMetadata `json:"options" mapstructure:"options"`
	Criticality  string           `json:"criticality" mapstructure:"criticality"`
	CriticalStop bool             `json:"criticalStop" mapstructure:"criticalStop"`
	SaveTo       string           `json:"saveTo" mapstructure:"saveTo"`
	// Next is a node id, or a list of branches ({to, when} maps or bare ids).
	Next any `json:"next" mapstructure:"next"`

	// Module header
	Title        string            `json:"title" mapstructure:"title"`
	Description  string            `json:"description" mapstructure:"description"`
	Entry        string            `json:"entry" mapstructure:"entry"`
	Entries      map[string]string `json:"entries" mapstructure:"entries"`
	RequiredData []string          `json:"requiredData" mapstructure:"requiredData"`
}

type OptionMetadata struct {
	Label     string `json:"label" mapstructure:"label"`
	Value     any    `json:"value" mapstructure:"value"`
	RiskLevel string `json:"riskLevel" mapstructure:"riskLevel"`
	Exclusive bool   `json:"exclusive" mapstructure:"exclusive"`
}

func (m NodeMetadata) document(id, body string) (*dto.NodeDocument, error) {
	doc := &dto.NodeDocument{
		ID:           id,
		Text:         m.Text,
		Type:         m.Type,
		Unit:         m.Unit,
		Criticality:  m.Criticality,
		CriticalStop: m.CriticalStop,
		SaveTo:       m.SaveTo,
		Next:         m.Next,
	}
	if doc.Text == "" {
		doc.Text = body
	}

	var err error
	if doc.Min, err = number(m.Min); err != nil {
		return nil, fmt.Errorf("min: %w", err)
	}
	if doc.Max, err = number(m.Max); err != nil {
		return nil, fmt.Errorf("max: %w", err)
	}
	for _, o := range m.Options {
		doc.Options = append(doc.Options, dto.OptionDocument(o))
	}
	return doc, nil
}

// number accepts the numeric shapes front matter decoders produce
// (json.Number in strict mode, float64 or int otherwise).
func number(raw any) (*float64, error) {
	if raw == nil {
		return nil, nil
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case interface{ Float64() (float64, error) }:
		n, err := v.Float64()
		if err != nil {
			return nil, err
		}
		f = n
	default:
		return nil, fmt.Errorf("expected number, got %T", raw)
	}
	return &f, nil
}
