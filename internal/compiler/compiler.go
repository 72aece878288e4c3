// Package compiler turns authored module documents into domain modules.
package compiler

import (
	"errors"
	"fmt"

	"github.com/aretw0/triage/internal/dto"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Compile converts doc into a module. Structural problems (unknown node types,
// bad severities, unparsable conditions, duplicate ids) are errors; graph
// problems such as dangling references are left to the validator.
func Compile(doc *dto.ModuleDocument) (*domain.Module, error) {
	if doc.ID == "" {
		return nil, errors.New("module missing id")
	}
	m := &domain.Module{
		ID:           doc.ID,
		Title:        doc.Title,
		Description:  doc.Description,
		Entry:        doc.Entry,
		Entries:      doc.Entries,
		RequiredData: doc.RequiredData,
		Nodes:        make(map[string]*domain.Node, len(doc.Nodes)),
	}

	var errs []error
	for i := range doc.Nodes {
		nd := &doc.Nodes[i]
		if nd.ID == "" {
			errs = append(errs, fmt.Errorf("node %d: missing id", i))
			continue
		}
		if _, dup := m.Nodes[nd.ID]; dup {
			errs = append(errs, fmt.Errorf("node %s: duplicate id", nd.ID))
			continue
		}
		n, err := CompileNode(nd)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Nodes[n.ID] = n
	}
	if m.Entry == "" && len(doc.Nodes) > 0 {
		m.Entry = doc.Nodes[0].ID
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("module %s: %w", doc.ID, err)
	}
	return m, nil
}

// CompileNode converts a single node document.
func CompileNode(nd *dto.NodeDocument) (*domain.Node, error) {
	n := &domain.Node{
		ID:           nd.ID,
		Text:         nd.Text,
		Type:         domain.NodeType(nd.Type),
		Min:          nd.Min,
		Max:          nd.Max,
		Unit:         nd.Unit,
		CriticalStop: nd.CriticalStop,
		SaveTo:       nd.SaveTo,
	}
	if n.Type == "" {
		n.Type = domain.NodeTypeBoolean
	}
	if !n.Type.Valid() {
		return nil, fmt.Errorf("node %s: unknown type %q", nd.ID, nd.Type)
	}

	var err error
	if n.Criticality, err = domain.ParseSeverity(nd.Criticality); err != nil {
		return nil, fmt.Errorf("node %s: criticality: %w", nd.ID, err)
	}

	for i, od := range nd.Options {
		o, err := compileOption(od)
		if err != nil {
			return nil, fmt.Errorf("node %s: option %d: %w", nd.ID, i, err)
		}
		n.Options = append(n.Options, o)
	}

	if n.Next, err = compileNext(nd.Next); err != nil {
		return nil, fmt.Errorf("node %s: next: %w", nd.ID, err)
	}
	return n, nil
}

func compileOption(od dto.OptionDocument) (domain.Option, error) {
	raw := od.Value
	if raw == nil {
		raw = od.Label
	}
	v, err := domain.ValueOf(raw)
	if err != nil {
		return domain.Option{}, err
	}
	risk, err := domain.ParseSeverity(od.RiskLevel)
	if err != nil {
		return domain.Option{}, err
	}
	return domain.Option{Label: od.Label, Value: v, RiskLevel: risk, Exclusive: od.Exclusive}, nil
}

func compileNext(raw any) (domain.Next, error) {
	switch v := raw.(type) {
	case nil:
		return domain.Next{}, nil
	case string:
		return domain.Goto(v), nil
	case []any:
		branches := make([]domain.Branch, 0, len(v))
		for i, item := range v {
			b, err := compileBranch(item)
			if err != nil {
				return domain.Next{}, fmt.Errorf("branch %d: %w", i, err)
			}
			branches = append(branches, b)
		}
		return domain.Branches(branches...), nil
	default:
		return domain.Next{}, fmt.Errorf("expected node id or branch list, got %T", raw)
	}
}

func compileBranch(raw any) (domain.Branch, error) {
	if id, ok := raw.(string); ok {
		return domain.Branch{To: id}, nil
	}
	var bd dto.BranchDocument
	if err := mapstructure.Decode(raw, &bd); err != nil {
		return domain.Branch{}, err
	}
	if bd.To == "" {
		return domain.Branch{}, errors.New("missing target")
	}
	b := domain.Branch{To: bd.To}
	if bd.When != nil {
		c, err := CompileCondition(bd.When)
		if err != nil {
			return domain.Branch{}, fmt.Errorf("to %s: %w", bd.To, err)
		}
		b.When = &c
	}
	return b, nil
}

// CompileCondition accepts a shorthand expression or a structured mapping.
func CompileCondition(raw any) (domain.Condition, error) {
	if expr, ok := raw.(string); ok {
		return domain.ParseCondition(expr)
	}
	c, err := structuredCondition(raw)
	if err != nil {
		return domain.Condition{}, err
	}
	if err := c.Validate(); err != nil {
		return domain.Condition{}, err
	}
	return c, nil
}

func structuredCondition(raw any) (domain.Condition, error) {
	if expr, ok := raw.(string); ok {
		return domain.ParseCondition(expr)
	}
	var cd dto.ConditionDocument
	if err := mapstructure.Decode(raw, &cd); err != nil {
		return domain.Condition{}, err
	}
	c := domain.Condition{Op: domain.Op(cd.Op), Key: cd.Key, Min: cd.Min, Max: cd.Max}

	var err error
	if c.Value, err = domain.ValueOf(cd.Value); err != nil {
		return domain.Condition{}, fmt.Errorf("%s value: %w", cd.Op, err)
	}
	if cd.Fallback != nil {
		fb, err := domain.ValueOf(cd.Fallback)
		if err != nil {
			return domain.Condition{}, fmt.Errorf("%s fallback: %w", cd.Op, err)
		}
		c.Fallback = &fb
	}
	for _, t := range cd.Terms {
		term, err := structuredCondition(t)
		if err != nil {
			return domain.Condition{}, err
		}
		c.Terms = append(c.Terms, term)
	}
	return c, nil
}
