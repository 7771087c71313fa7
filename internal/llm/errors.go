package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CallError is a failed provider call. Retryable is set when the provider
// itself flagged the failure as retryable; classification otherwise falls back
// to status codes and message markers.
type CallError struct {
	StatusCode int
	Retryable  bool
	Message    string
}

func (e *CallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider call failed (%d): %s", e.StatusCode, e.Message)
	}
	return "provider call failed: " + e.Message
}

// ExhaustedError reports that a retried provider call ran out of attempts.
// Classification inspects the inner causes: the exhaustion is transient only
// if at least one underlying failure was.
type ExhaustedError struct {
	Attempts int
	Causes   []error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("provider call failed after %d attempts: %v", e.Attempts, errors.Join(e.Causes...))
}

// SchemaError is a structured draft that did not match the expected shape.
// Always permanent: retrying the identical decode cannot succeed, and the
// repair loops handle semantic violations separately.
type SchemaError struct {
	Detail string
}

func (e *SchemaError) Error() string {
	return "draft schema violation: " + e.Detail
}

var transientMarkers = []string{
	"gateway",
	"timeout",
	"timed out",
	"unavailable",
	"overloaded",
	"temporarily",
	"too many requests",
}

// IsTransient reports whether an adapter failure is worth retrying. This is
// the single gate deciding whether a repair loop spends an attempt on the same
// unit of work or aborts the request. An abort requested by the caller is
// never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return false
	}

	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		for _, cause := range exhausted.Causes {
			if IsTransient(cause) {
				return true
			}
		}
		return false
	}

	var call *CallError
	if errors.As(err, &call) {
		if call.Retryable {
			return true
		}
		if call.StatusCode >= 500 && call.StatusCode < 600 {
			return true
		}
		return hasTransientMarker(call.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return hasTransientMarker(err.Error())
}

func hasTransientMarker(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range transientMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
