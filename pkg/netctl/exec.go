package netctl

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/supporttools/wifi-doctor/pkg/types"
)

// commandRunner executes platform commands. Implementations must be safe for
// sequential reuse; the engine never runs two commands concurrently.
type commandRunner interface {
	// Run executes a command and returns its combined output, trimmed.
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner is the default runner backed by os/exec.
type execRunner struct{}

func (e *execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

// classifyActionError maps a command failure to a typed surface error for a
// mutating call. Probe-side callers classify their own failures.
func classifyActionError(op, output string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewSurfaceError(types.KindActionFailed, op, err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return types.NewSurfaceError(types.KindActionUnsupported, op, err)
	}

	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "operation not permitted"),
		strings.Contains(lower, "must be run as root"),
		strings.Contains(lower, "requires admin"):
		return types.NewSurfaceError(types.KindActionPermissionDenied, op, err)
	case strings.Contains(lower, "command not found"),
		strings.Contains(lower, "no such file or directory"):
		return types.NewSurfaceError(types.KindActionUnsupported, op, err)
	default:
		return types.NewSurfaceError(types.KindActionFailed, op, err)
	}
}

// classifyProbeError maps a command failure to a typed surface error for a
// query call.
func classifyProbeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewSurfaceError(types.KindProbeTimeout, op, err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return types.NewSurfaceError(types.KindProbeUnsupported, op, err)
	}
	return types.NewSurfaceError(types.KindProbeUnsupported, op, err)
}
