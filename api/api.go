// Package api holds the OpenAPI document of the HTTP adapter.
package api

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var spec []byte

var (
	once    sync.Once
	swagger *openapi3.T
	loadErr error
)

// RawSpec returns the embedded document as written.
func RawSpec() []byte {
	return spec
}

// GetSwagger parses and validates the embedded document. The result is
// shared; callers must not modify it.
func GetSwagger() (*openapi3.T, error) {
	once.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(spec)
		if err != nil {
			loadErr = fmt.Errorf("failed to load OpenAPI document: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			loadErr = fmt.Errorf("invalid OpenAPI document: %w", err)
			return
		}
		swagger = doc
	})
	return swagger, loadErr
}
