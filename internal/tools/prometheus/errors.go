package prometheus

import "fmt"

// ResolutionErrorKind classifies tenant resolution failures.
type ResolutionErrorKind string

const (
	UnknownTenant   ResolutionErrorKind = "unknown_tenant"
	AmbiguousTenant ResolutionErrorKind = "ambiguous_tenant"
)

// ResolutionError is returned when a tenant selector cannot be mapped to
// exactly one configured tenant.
type ResolutionError struct {
	Kind     ResolutionErrorKind
	Selector string
	Message  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("tenant resolution failed (%s): %s", e.Kind, e.Message)
}

// DispatchErrorKind classifies outbound request failures.
type DispatchErrorKind string

const (
	// Timeout: the call exceeded the configured per-request timeout.
	Timeout DispatchErrorKind = "timeout"
	// Unreachable: DNS, connection or TLS failure before any response.
	Unreachable DispatchErrorKind = "unreachable"
	// BackendRejected: the backend answered with a non-2xx status or an
	// API-level error envelope.
	BackendRejected DispatchErrorKind = "backend_rejected"
	// MalformedResponse: the response body did not match the expected
	// Prometheus API JSON shape.
	MalformedResponse DispatchErrorKind = "malformed_response"
)

// DispatchError is the failure half of a dispatch result. It never
// escapes the dispatcher as a Go error return; handlers receive it inside
// a ToolResult and serialize it as a tool-level error.
type DispatchError struct {
	Kind    DispatchErrorKind
	Status  int // HTTP status for BackendRejected, zero otherwise
	Message string
}

func (e *DispatchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("dispatch failed (%s, status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("dispatch failed (%s): %s", e.Kind, e.Message)
}

func dispatchErrorf(kind DispatchErrorKind, format string, args ...interface{}) *DispatchError {
	return &DispatchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ToolResult is the outcome of a single dispatch: either a structured
// payload or a typed error, never both.
type ToolResult struct {
	Payload interface{}
	Err     error // *ResolutionError or *DispatchError
}

// IsError reports whether the dispatch failed.
func (r ToolResult) IsError() bool { return r.Err != nil }

func success(payload interface{}) ToolResult { return ToolResult{Payload: payload} }

func failure(err error) ToolResult { return ToolResult{Err: err} }
