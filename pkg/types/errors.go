package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures at the control surface boundary. Probe errors
// are recovered locally into Fail/Degraded results; action errors are recorded
// in the round's action log. Neither aborts the session.
type ErrorKind string

const (
	// KindProbeTimeout means a probe did not complete within its timeout.
	KindProbeTimeout ErrorKind = "ProbeTimeout"

	// KindProbeUnsupported means the platform lacks the capability the
	// probe needs.
	KindProbeUnsupported ErrorKind = "ProbeUnsupported"

	// KindActionPermissionDenied means the action needs privileges the
	// process does not have.
	KindActionPermissionDenied ErrorKind = "ActionPermissionDenied"

	// KindActionUnsupported means the platform lacks the capability the
	// action needs.
	KindActionUnsupported ErrorKind = "ActionUnsupported"

	// KindActionFailed means the action ran but reported failure.
	KindActionFailed ErrorKind = "ActionFailed"
)

// SurfaceError wraps a platform error with its kind and the operation that
// produced it. The control surface never surfaces ambiguous platform errors.
type SurfaceError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Op names the surface call that failed (e.g., "flush_dns_cache").
	Op string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *SurfaceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying error.
func (e *SurfaceError) Unwrap() error { return e.Err }

// NewSurfaceError creates a SurfaceError for the given operation.
func NewSurfaceError(kind ErrorKind, op string, err error) *SurfaceError {
	return &SurfaceError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the ErrorKind from an error chain. It returns
// KindActionFailed for non-nil errors that carry no SurfaceError, and ""
// for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *SurfaceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindActionFailed
}

// NoLinkError is the one fatal condition: no WiFi network is associated, so
// no remediation in this engine can help. It aborts the session before any
// remediation runs.
type NoLinkError struct {
	// Detail describes what the link probe observed.
	Detail string
}

// Error implements the error interface.
func (e *NoLinkError) Error() string {
	if e.Detail == "" {
		return "no WiFi network associated"
	}
	return fmt.Sprintf("no WiFi network associated: %s", e.Detail)
}

// IsNoLink reports whether the error chain contains a NoLinkError.
func IsNoLink(err error) bool {
	var nle *NoLinkError
	return errors.As(err, &nle)
}
