// Package modules embeds the built-in specialty questionnaires.
//
// Each module is a YAML document under definitions/ and goes through the same
// decoder and compiler as user-supplied files, so the catalog is also the
// reference for the authoring format.
package modules

import (
	"embed"
	"fmt"

	"github.com/aretw0/triage/pkg/adapters/file"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
)

// Built-in module ids.
const (
	Adults       = "adults"
	Pediatrics   = "pediatrics"
	MentalHealth = "mental-health"
	WomensHealth = "womens-health"
)

//go:embed definitions/*.yaml
var definitions embed.FS

// Load compiles every built-in module.
func Load() ([]*domain.Module, error) {
	mods, err := file.LoadFS(definitions, "definitions")
	if err != nil {
		return nil, fmt.Errorf("built-in modules: %w", err)
	}
	return mods, nil
}

// Catalog returns a loader serving the built-in modules.
func Catalog() (*memory.Loader, error) {
	mods, err := Load()
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(mods...), nil
}

// MustCatalog is like Catalog but panics on error. The definitions are
// embedded at build time, so a failure here is a programming error.
func MustCatalog() *memory.Loader {
	l, err := Catalog()
	if err != nil {
		panic(err)
	}
	return l
}
