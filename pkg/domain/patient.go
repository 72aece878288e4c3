package domain

import (
	"fmt"
	"maps"
	"time"
)

// PatientData is the key/value record accumulated over a session.
// Keys are overwritten, never removed, except by a reset.
type PatientData map[string]Value

// Well-known keys seeded by intake forms.
const (
	KeyAgeMonths = "ageMonths"
	KeyWeight    = "weight"
	KeyChronic   = "isChronic"
)

// Get returns the value stored under key.
func (p PatientData) Get(key string) (Value, bool) {
	v, ok := p[key]
	return v, ok
}

// Has reports whether key holds a non-null value.
func (p PatientData) Has(key string) bool {
	v, ok := p[key]
	return ok && !v.IsNull()
}

// Number returns the numeric value stored under key.
func (p PatientData) Number(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// String returns the string stored under key.
func (p PatientData) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Strings returns the selection stored under key.
func (p PatientData) Strings(key string) ([]string, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	return v.AsList()
}

// Bool returns the boolean stored under key.
func (p PatientData) Bool(key string) (bool, bool) {
	v, ok := p[key]
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Clone returns an independent copy. A nil receiver yields an empty record.
func (p PatientData) Clone() PatientData {
	out := make(PatientData, len(p))
	maps.Copy(out, p)
	return out
}

// Merge returns a copy of p with every key of patch applied, last write wins.
func (p PatientData) Merge(patch PatientData) PatientData {
	out := p.Clone()
	maps.Copy(out, patch)
	return out
}

// PatientDataOf converts a decoded map (from JSON, YAML or a form) into PatientData.
func PatientDataOf(raw map[string]any) (PatientData, error) {
	out := make(PatientData, len(raw))
	for k, v := range raw {
		val, err := ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("patient data %q: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

// AgeInMonths counts calendar months between birth and now, ignoring the day
// of month. Future birth dates yield 0.
func AgeInMonths(birth, now time.Time) int {
	months := (now.Year()-birth.Year())*12 - int(birth.Month()) + int(now.Month())
	if months <= 0 {
		return 0
	}
	return months
}
