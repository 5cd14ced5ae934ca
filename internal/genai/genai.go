// Package genai wraps the external text and video generation providers.
// The Gemini client speaks the REST API directly; Claude and Nova are
// alternative one-shot text generators behind the same interface.
package genai

import (
	"context"
	"errors"
)

// TextGenerator produces a single completion for a prompt. Implementations
// must be safe for concurrent use.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ErrMissingAPIKey is returned by constructors when no credential is
// available for the provider.
var ErrMissingAPIKey = errors.New("missing provider API key")

// ErrDownloadFailed marks an artifact transfer that did not succeed after
// the provider reported the generation itself as done. Callers surface it
// separately from generation failures.
var ErrDownloadFailed = errors.New("video download failed")
