package api_test

import (
	"testing"

	"github.com/aretw0/triage/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSwagger(t *testing.T) {
	doc, err := api.GetSwagger()
	require.NoError(t, err)
	require.NotNil(t, doc.Info)
	assert.Equal(t, "1.0.0", doc.Info.Version)

	again, err := api.GetSwagger()
	require.NoError(t, err)
	assert.Same(t, doc, again)

	tests := []struct {
		path   string
		method string
	}{
		{"/sessions", "POST"},
		{"/sessions/{sessionID}/answers", "POST"},
		{"/sessions/{sessionID}/patient-data", "PATCH"},
		{"/outcomes", "GET"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			item := doc.Paths.Find(tt.path)
			require.NotNil(t, item)
			assert.NotNil(t, item.GetOperation(tt.method))
		})
	}
}

func TestRawSpec(t *testing.T) {
	assert.Contains(t, string(api.RawSpec()), "openapi: 3.0.3")
}
