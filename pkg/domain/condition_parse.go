package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseCondition reads the shorthand used in module files:
//
//	ageMonths ?? 0 < 3 && P_FEVER_INPUT >= 38
//	B_MODERATE contains BP_SUGAR_ISSUE
//	MH_HISTORY in [HOSPITALIZATION, SUBSTANCE_ACTIVE]
//	weight set || !(isChronic == true)
//
// Operators: == != < <= > >= contains in set unset, combined with && (binds
// tighter), || and !. Parentheses group. "key ?? literal" supplies a fallback
// for a missing key. Bare words and quoted strings are string literals.
func ParseCondition(expr string) (Condition, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return Condition{}, err
	}
	p := &condParser{toks: toks}
	c, err := p.parseOr()
	if err != nil {
		return Condition{}, err
	}
	if !p.done() {
		return Condition{}, fmt.Errorf("condition %q: unexpected %q", expr, p.peek().text)
	}
	if err := c.Validate(); err != nil {
		return Condition{}, fmt.Errorf("condition %q: %w", expr, err)
	}
	return c, nil
}

// MustParseCondition is ParseCondition for expressions known to be valid.
func MustParseCondition(expr string) Condition {
	c, err := ParseCondition(expr)
	if err != nil {
		panic(err)
	}
	return c
}

type tokKind int

const (
	tokWord tokKind = iota
	tokString
	tokSymbol
)

type token struct {
	kind tokKind
	text string
}

func tokenize(expr string) ([]token, error) {
	var toks []token
	rs := []rune(expr)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '\'' || r == '"':
			var sb strings.Builder
			j := i + 1
			for ; j < len(rs) && rs[j] != r; j++ {
				if rs[j] == '\\' && j+1 < len(rs) {
					j++
				}
				sb.WriteRune(rs[j])
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("condition %q: unterminated string", expr)
			}
			toks = append(toks, token{kind: tokString, text: sb.String()})
			i = j + 1
		case strings.ContainsRune("()[],", r):
			toks = append(toks, token{kind: tokSymbol, text: string(r)})
			i++
		case strings.ContainsRune("=!<>&|?", r):
			two := ""
			if i+1 < len(rs) {
				two = string(rs[i : i+2])
			}
			switch two {
			case "==", "!=", "<=", ">=", "&&", "||", "??":
				toks = append(toks, token{kind: tokSymbol, text: two})
				i += 2
				continue
			}
			if r == '!' || r == '<' || r == '>' {
				toks = append(toks, token{kind: tokSymbol, text: string(r)})
				i++
				continue
			}
			return nil, fmt.Errorf("condition %q: unexpected %q", expr, string(r))
		default:
			j := i
			for j < len(rs) && isWordRune(rs[j]) {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("condition %q: unexpected %q", expr, string(r))
			}
			toks = append(toks, token{kind: tokWord, text: string(rs[i:j])})
			i = j
		}
	}
	return toks, nil
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '-' || r == '+'
}

type condParser struct {
	toks []token
	pos  int
}

func (p *condParser) done() bool { return p.pos >= len(p.toks) }

func (p *condParser) peek() token {
	if p.done() {
		return token{kind: tokSymbol, text: "<end>"}
	}
	return p.toks[p.pos]
}

func (p *condParser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *condParser) accept(kind tokKind, text string) bool {
	if t := p.peek(); !p.done() && t.kind == kind && t.text == text {
		p.pos++
		return true
	}
	return false
}

func (p *condParser) parseOr() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return Condition{}, err
	}
	terms := []Condition{left}
	for p.accept(tokSymbol, "||") {
		right, err := p.parseAnd()
		if err != nil {
			return Condition{}, err
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return left, nil
	}
	return Any(terms...), nil
}

func (p *condParser) parseAnd() (Condition, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Condition{}, err
	}
	terms := []Condition{left}
	for p.accept(tokSymbol, "&&") {
		right, err := p.parseUnary()
		if err != nil {
			return Condition{}, err
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return left, nil
	}
	return All(terms...), nil
}

func (p *condParser) parseUnary() (Condition, error) {
	if p.accept(tokSymbol, "!") {
		inner, err := p.parseUnary()
		if err != nil {
			return Condition{}, err
		}
		return Not(inner), nil
	}
	if p.accept(tokSymbol, "(") {
		inner, err := p.parseOr()
		if err != nil {
			return Condition{}, err
		}
		if !p.accept(tokSymbol, ")") {
			return Condition{}, fmt.Errorf("expected ')', got %q", p.peek().text)
		}
		return inner, nil
	}
	return p.parseComparison()
}

func (p *condParser) parseComparison() (Condition, error) {
	keyTok := p.next()
	if keyTok.kind != tokWord && keyTok.kind != tokString {
		return Condition{}, fmt.Errorf("expected key, got %q", keyTok.text)
	}
	c := Condition{Key: keyTok.text}

	if p.accept(tokSymbol, "??") {
		fb, err := p.parseLiteral()
		if err != nil {
			return Condition{}, err
		}
		c.Fallback = &fb
	}

	opTok := p.next()
	switch {
	case opTok.kind == tokWord && opTok.text == "set":
		c.Op = OpSet
		return c, nil
	case opTok.kind == tokWord && opTok.text == "unset":
		c.Op = OpUnset
		return c, nil
	case opTok.kind == tokWord && opTok.text == "contains":
		c.Op = OpContains
	case opTok.kind == tokWord && opTok.text == "in":
		c.Op = OpAnyOf
	case opTok.kind == tokSymbol:
		for op, sym := range opSymbols {
			if sym == opTok.text {
				c.Op = op
			}
		}
	}
	if c.Op == "" {
		return Condition{}, fmt.Errorf("expected operator after %q, got %q", c.Key, opTok.text)
	}

	v, err := p.parseLiteral()
	if err != nil {
		return Condition{}, err
	}
	if c.Op == OpAnyOf && v.Kind() != KindList {
		v = ListValue(v.String())
	}
	c.Value = v
	return c, nil
}

func (p *condParser) parseLiteral() (Value, error) {
	if p.accept(tokSymbol, "[") {
		var items []string
		for !p.accept(tokSymbol, "]") {
			if len(items) > 0 && !p.accept(tokSymbol, ",") {
				return NullValue(), fmt.Errorf("expected ',' or ']', got %q", p.peek().text)
			}
			t := p.next()
			if t.kind == tokSymbol {
				return NullValue(), fmt.Errorf("expected list item, got %q", t.text)
			}
			items = append(items, t.text)
		}
		return ListValue(items...), nil
	}
	t := p.next()
	switch t.kind {
	case tokString:
		return StringValue(t.text), nil
	case tokWord:
		switch t.text {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		case "null":
			return NullValue(), nil
		}
		if f, err := strconv.ParseFloat(t.text, 64); err == nil {
			return NumberValue(f), nil
		}
		return StringValue(t.text), nil
	}
	return NullValue(), fmt.Errorf("expected literal, got %q", t.text)
}
