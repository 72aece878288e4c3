package runner_test

import (
	"strings"
	"testing"

	"github.com/aretw0/triage/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "38.5", "38.5"},
		{"accents", "dolor de cabeza, 3 días", "dolor de cabeza, 3 días"},
		{"ansi escape", "\x1b[31mred\x1b[0m", "[31mred[0m"},
		{"bell and nul", "a\x07b\x00c", "abc"},
		{"tabs and newlines", "a\tb\r\nc", "a b  c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runner.SanitizeInput(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput_Rejects(t *testing.T) {
	_, err := runner.SanitizeInput(strings.Repeat("a", runner.DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, runner.ErrInputTooLarge)

	_, err = runner.SanitizeInput(strings.Repeat("a", runner.DefaultMaxInputSize))
	assert.NoError(t, err)

	_, err = runner.SanitizeInput("bad \xff byte")
	assert.ErrorIs(t, err, runner.ErrInvalidUTF8)
}

func TestSanitizeInput_EnvLimit(t *testing.T) {
	t.Setenv(runner.EnvMaxInputSize, "4")
	_, err := runner.SanitizeInput("12345")
	assert.ErrorIs(t, err, runner.ErrInputTooLarge)

	t.Setenv(runner.EnvMaxInputSize, "bogus")
	_, err = runner.SanitizeInput("12345")
	assert.NoError(t, err)
}
