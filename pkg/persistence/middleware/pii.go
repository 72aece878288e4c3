package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
)

// Masked replaces identifying values before they reach the store.
const Masked = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks patient data and answers whose key matches any
// pattern. Masking is one-way: keys that branch conditions read must not match.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	masked := session.Clone()
	m.mask(masked.PatientData)
	m.mask(masked.Answers)
	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) mask(data map[string]domain.Value) {
	for k, v := range data {
		if v.IsNull() {
			continue
		}
		for _, p := range m.patterns {
			if p.MatchString(k) {
				data[k] = domain.StringValue(Masked)
				break
			}
		}
	}
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
