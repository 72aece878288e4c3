package triage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/triage/pkg/adapters/file"
	"github.com/aretw0/triage/pkg/adapters/loam"
	"github.com/aretw0/triage/pkg/domain"
)

// LoadDir reads the modules in dir. A directory holding a module.md is a loam
// repository with one question per document; any other directory holds
// YAML or JSON module documents.
func LoadDir(ctx context.Context, dir string) ([]*domain.Module, error) {
	if !IsLoamRepo(dir) {
		return file.LoadFS(os.DirFS(dir), ".")
	}
	l, err := loam.Open(dir)
	if err != nil {
		return nil, err
	}
	m, err := l.Module(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return []*domain.Module{m}, nil
}

// IsLoamRepo reports whether dir carries a loam module header.
func IsLoamRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, loam.ModuleDoc+".md"))
	return err == nil
}
