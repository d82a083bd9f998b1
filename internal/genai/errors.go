package genai

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes generation failures. The kind drives both retry
// decisions (cancellation and capability mismatches never retry) and the
// human-readable message shown after retry exhaustion.
type ErrorKind string

const (
	// KindNetwork is a connection or timeout failure reaching the provider.
	KindNetwork ErrorKind = "NETWORK"

	// KindServer is a provider-side failure (5xx or malformed success).
	KindServer ErrorKind = "SERVER"

	// KindRateLimit is a provider throttling response.
	KindRateLimit ErrorKind = "RATE_LIMIT"

	// KindBadResponse is a response the client could not interpret.
	KindBadResponse ErrorKind = "BAD_RESPONSE"

	// KindCancelled is caller-initiated cancellation. Not a failure:
	// a distinct control-flow signal that must never trigger a retry.
	KindCancelled ErrorKind = "CANCELLED"

	// KindUnsupported is a capability mismatch (e.g. inpainting on a
	// provider without it), detected before any network call.
	KindUnsupported ErrorKind = "UNSUPPORTED"
)

// GenerationError is the typed failure returned by providers and the
// orchestrator.
type GenerationError struct {
	// Kind identifies the failure category.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Provider names the provider involved, if any.
	Provider string

	// Attempt is the attempt number the failure surfaced on (1-based),
	// zero when not applicable.
	Attempt int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (provider=%s)", e.Kind, e.Message, e.Provider)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsCancelled returns true if the error is a cancellation signal.
// Uses errors.As to handle wrapped errors.
func IsCancelled(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind == KindCancelled
	}
	return false
}

// IsUnsupported returns true if the error is a capability mismatch.
func IsUnsupported(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind == KindUnsupported
	}
	return false
}

// kindOf extracts the error kind, defaulting to KindNetwork for plain
// transport errors.
func kindOf(err error) ErrorKind {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindNetwork
}

// describeKind renders an error kind for end users, distinguishing
// network, server, and rate-limit causes where determinable.
func describeKind(kind ErrorKind) string {
	switch kind {
	case KindNetwork:
		return "could not reach the provider"
	case KindServer:
		return "the provider failed to generate"
	case KindRateLimit:
		return "the provider is rate-limiting requests"
	case KindBadResponse:
		return "the provider returned an unusable response"
	default:
		return "generation failed"
	}
}
