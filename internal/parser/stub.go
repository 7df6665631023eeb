//go:build !cgo

package parser

import (
	"context"
	"errors"
)

// ErrNoCGO is returned by every extraction entry point when tree-sitter is
// unavailable.
var ErrNoCGO = errors.New("structural extraction requires CGO (tree-sitter)")

// Parser is a stub used in non-CGO builds.
type Parser struct{}

// NewParser returns nil when CGO is disabled.
func NewParser() *Parser { return nil }

// IsAvailable reports whether tree-sitter parsing is available in this
// build.
func IsAvailable() bool { return false }

// ParseFile always fails in non-CGO builds.
func ParseFile(ctx context.Context, path string, lang Language, source []byte) (*FileResult, error) {
	return nil, ErrNoCGO
}
