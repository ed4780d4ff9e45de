package device

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/boristopalov/droidbench/pkg/logger"
)

const defaultADBTimeout = 30 * time.Second

// ADB talks to an emulator through the adb client binary.
type ADB struct {
	command     []string
	serial      string
	timeout     time.Duration
	log         logger.Logger
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

type ADBParams struct {
	Command string // e.g. "adb" or "/opt/android/platform-tools/adb -H 10.0.0.2"
	Serial  string
	Timeout time.Duration
	Logger  logger.Logger
}

type ADBOption func(*ADBParams)

func WithCommand(cmdline string) ADBOption {
	return func(p *ADBParams) {
		p.Command = cmdline
	}
}

func WithSerial(serial string) ADBOption {
	return func(p *ADBParams) {
		p.Serial = serial
	}
}

func WithTimeout(d time.Duration) ADBOption {
	return func(p *ADBParams) {
		p.Timeout = d
	}
}

func WithLogger(l logger.Logger) ADBOption {
	return func(p *ADBParams) {
		p.Logger = l
	}
}

func NewADB(opts ...ADBOption) (*ADB, error) {
	params := &ADBParams{
		Command: "adb",
		Timeout: defaultADBTimeout,
		Logger:  logger.GetDefault(),
	}
	for _, opt := range opts {
		opt(params)
	}

	command, err := shlex.Split(params.Command)
	if err != nil {
		return nil, fmt.Errorf("invalid adb command %q: %w", params.Command, err)
	}
	if len(command) == 0 {
		return nil, fmt.Errorf("adb command is empty")
	}
	if params.Timeout <= 0 {
		params.Timeout = defaultADBTimeout
	}

	return &ADB{
		command:     command,
		serial:      params.Serial,
		timeout:     params.Timeout,
		log:         params.Logger,
		execCommand: exec.CommandContext,
	}, nil
}

func (a *ADB) Serial() string {
	return a.serial
}

// Shell runs args on the device. Every argument is quoted for the remote shell,
// so the device sees exactly the argv given here.
func (a *ADB) Shell(ctx context.Context, args ...string) ([]byte, error) {
	if len(args) == 0 {
		return nil, &DeviceCommunicationError{Err: fmt.Errorf("empty command")}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	argv := append([]string{}, a.command[1:]...)
	if a.serial != "" {
		argv = append(argv, "-s", a.serial)
	}
	argv = append(argv, "shell")
	for _, arg := range args {
		argv = append(argv, quote(arg))
	}

	var stdout, stderr bytes.Buffer
	cmd := a.execCommand(ctx, a.command[0], argv...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.log.Debug("adb shell", "args", strings.Join(args, " "), "serial", a.serial)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		} else if _, ok := err.(*exec.ExitError); ok {
			err = fmt.Errorf("%w: %v", ErrCommandFailed, err)
		}
		return nil, &DeviceCommunicationError{
			Args:   args,
			Output: stderr.String() + stdout.String(),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
