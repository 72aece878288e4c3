package runner

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/triage/pkg/domain"
)

// ParseAnswer turns a typed reply into an answer for n and checks its shape.
//
//   - boolean: yes/no, y/n, true/false, 1/0.
//   - numeric: a decimal number; a comma decimal separator is accepted.
//   - single_choice: the option number, value or label.
//   - multiple_choice: comma-separated numbers, values or labels, a JSON
//     array, or an empty line for none.
//   - info: any reply acknowledges.
//   - text: taken verbatim.
func ParseAnswer(n *domain.Node, raw string) (domain.Value, error) {
	raw = strings.TrimSpace(raw)
	v, err := parse(n, raw)
	if err != nil {
		return domain.NullValue(), &domain.AnswerError{NodeID: n.ID, Reason: err.Error()}
	}
	if err := n.CheckAnswer(v); err != nil {
		return domain.NullValue(), err
	}
	return v, nil
}

func parse(n *domain.Node, raw string) (domain.Value, error) {
	switch n.Type {
	case domain.NodeTypeBoolean:
		switch strings.ToLower(raw) {
		case "y", "yes", "true", "1", "s", "si", "sí":
			return domain.BoolValue(true), nil
		case "n", "no", "false", "0":
			return domain.BoolValue(false), nil
		}
		return domain.NullValue(), fmt.Errorf("answer yes or no, got %q", raw)
	case domain.NodeTypeNumeric:
		f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return domain.NullValue(), fmt.Errorf("expected a number, got %q", raw)
		}
		return domain.NumberValue(f), nil
	case domain.NodeTypeSingleChoice:
		o, ok := pick(n, raw)
		if !ok {
			return domain.NullValue(), fmt.Errorf("no option %q", raw)
		}
		return o.Value, nil
	case domain.NodeTypeMultipleChoice:
		tokens, err := split(raw)
		if err != nil {
			return domain.NullValue(), err
		}
		selected := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			o, ok := pick(n, tok)
			if !ok {
				return domain.NullValue(), fmt.Errorf("no option %q", tok)
			}
			selected = append(selected, o.Value.String())
		}
		return domain.ListValue(selected...), nil
	case domain.NodeTypeInfo:
		if len(n.Options) > 0 {
			return n.Options[0].Value, nil
		}
		return domain.BoolValue(true), nil
	}
	return domain.StringValue(raw), nil
}

// pick matches a 1-based option number, then a value, then a label.
func pick(n *domain.Node, tok string) (domain.Option, bool) {
	if i, err := strconv.Atoi(tok); err == nil && i >= 1 && i <= len(n.Options) {
		return n.Options[i-1], true
	}
	for _, o := range n.Options {
		if strings.EqualFold(o.Value.String(), tok) {
			return o, true
		}
	}
	for _, o := range n.Options {
		if strings.EqualFold(o.Label, tok) {
			return o, true
		}
	}
	return domain.Option{}, false
}

func split(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var items []any
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("invalid JSON list: %w", err)
		}
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = strings.TrimSpace(fmt.Sprint(item))
		}
		return out, nil
	}
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out, nil
}
