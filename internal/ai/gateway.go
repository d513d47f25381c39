// Package ai defines the contract of the text inference gateway used by matching.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Failure kinds reported by a gateway. Implementations wrap one of these so
// callers can branch with errors.Is.
var (
	ErrGatewayUnavailable       = errors.New("inference gateway unavailable")
	ErrGatewayTimeout           = errors.New("inference gateway timed out")
	ErrGatewayQuotaExceeded     = errors.New("inference gateway quota exceeded")
	ErrGatewayMalformedResponse = errors.New("inference gateway returned a malformed response")
)

// Options tune a single completion.
type Options struct {
	SystemInstruction string
	// Temperature is left to the provider default when nil.
	Temperature     *float32
	MaxOutputTokens int32
	// JSON asks the provider to reply with a JSON document.
	JSON bool
}

// Completer sends one prompt and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Float32 returns a pointer to v.
func Float32(v float32) *float32 { return &v }

// Unavailable is a Completer that always fails. It stands in for a provider
// that could not be configured so the rest of the service keeps working.
type Unavailable struct {
	Reason error
}

func (u Unavailable) Complete(context.Context, string, Options) (string, error) {
	if u.Reason == nil {
		return "", ErrGatewayUnavailable
	}
	return "", fmt.Errorf("%w: %w", ErrGatewayUnavailable, u.Reason)
}
