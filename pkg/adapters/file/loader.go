// Package file loads module definitions from YAML or JSON documents and
// persists sessions as JSON files on the local filesystem.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/aretw0/triage/internal/compiler"
	"github.com/aretw0/triage/internal/dto"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"gopkg.in/yaml.v3"
)

var extensions = []string{".yaml", ".yml", ".json"}

// ParseModule decodes a single module document. Unknown keys are rejected.
func ParseModule(data []byte) (*domain.Module, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc dto.ModuleDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	return compiler.Compile(&doc)
}

// LoadFS parses every module document directly under dir in fsys.
// Files are read in name order; all parse errors are reported together.
func LoadFS(fsys fs.FS, dir string) ([]*domain.Module, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read module dir: %w", err)
	}

	var (
		modules []*domain.Module
		errs    []error
		seen    = make(map[string]string)
	)
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(extensions, strings.ToLower(path.Ext(e.Name()))) {
			continue
		}
		name := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m, err := ParseModule(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if prev, dup := seen[m.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: module %s already defined in %s", name, m.ID, prev))
			continue
		}
		seen[m.ID] = name
		modules = append(modules, m)
	}
	return modules, errors.Join(errs...)
}

// NewLoader reads every module document in dir and serves them from memory.
func NewLoader(dir string) (*memory.Loader, error) {
	modules, err := LoadFS(os.DirFS(dir), ".")
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(modules...), nil
}
