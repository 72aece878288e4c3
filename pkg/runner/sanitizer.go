package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EnvMaxInputSize overrides DefaultMaxInputSize, in bytes.
const EnvMaxInputSize = "TRIAGE_MAX_INPUT_SIZE"

// DefaultMaxInputSize bounds a single reply. Free-text answers end up in
// handoff reports, so they are kept short.
const DefaultMaxInputSize = 2048

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput rejects oversized or malformed replies and strips control
// characters (ANSI escapes, NUL, BEL). Tabs and line breaks become spaces,
// since every answer is a single line.
func SanitizeInput(input string) (string, error) {
	if limit := maxInputSize(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, unicode.IsControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, input), nil
}

func maxInputSize() int {
	if size, err := strconv.Atoi(os.Getenv(EnvMaxInputSize)); err == nil && size > 0 {
		return size
	}
	return DefaultMaxInputSize
}
