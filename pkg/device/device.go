// Package device is the harness's only route to the emulator: a shell primitive
// plus helpers for the handful of commands evaluators issue.
package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Device executes a shell command on the emulator and returns its raw stdout.
type Device interface {
	Shell(ctx context.Context, args ...string) ([]byte, error)
}

// ErrCommandFailed marks a command that ran but exited with a non-zero status.
var ErrCommandFailed = errors.New("command exited with non-zero status")

// DeviceCommunicationError reports a failed shell round trip. A failure is never
// turned into an empty result.
type DeviceCommunicationError struct {
	Args   []string
	Output string
	Err    error
}

func (e *DeviceCommunicationError) Error() string {
	msg := fmt.Sprintf("device command %q failed: %v", strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *DeviceCommunicationError) Unwrap() error {
	return e.Err
}
