package device

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/droidbench/pkg/logger"
)

// helperCommand re-executes the test binary as a stand-in for adb.
func helperCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args[3:]
	for _, arg := range args {
		if arg == "'false'" {
			fmt.Fprintln(os.Stderr, "simulated failure")
			os.Exit(1)
		}
	}
	fmt.Fprint(os.Stdout, strings.Join(args, " "))
	os.Exit(0)
}

func newTestADB(t *testing.T, opts ...ADBOption) *ADB {
	t.Helper()
	opts = append(opts, WithLogger(logger.NewLogger(logger.TestConfig())))
	a, err := NewADB(opts...)
	require.NoError(t, err)
	a.execCommand = helperCommand
	return a
}

func TestADBShell(t *testing.T) {
	t.Run("Should quote every argument and pass the serial", func(t *testing.T) {
		a := newTestADB(t, WithCommand("adb -H 10.0.0.2"), WithSerial("emulator-5554"))

		out, err := a.Shell(context.Background(), "ls", "-1", "/sdcard/it's here")

		require.NoError(t, err)
		assert.Equal(t, `adb -H 10.0.0.2 -s emulator-5554 shell 'ls' '-1' '/sdcard/it'\''s here'`, string(out))
	})

	t.Run("Should surface a non-zero exit as DeviceCommunicationError", func(t *testing.T) {
		a := newTestADB(t)

		out, err := a.Shell(context.Background(), "false")

		assert.Nil(t, out)
		var devErr *DeviceCommunicationError
		require.ErrorAs(t, err, &devErr)
		assert.ErrorIs(t, err, ErrCommandFailed)
		assert.Equal(t, []string{"false"}, devErr.Args)
		assert.Contains(t, devErr.Output, "simulated failure")
	})

	t.Run("Should reject an empty command", func(t *testing.T) {
		a := newTestADB(t)

		_, err := a.Shell(context.Background())

		var devErr *DeviceCommunicationError
		assert.ErrorAs(t, err, &devErr)
	})
}

func TestNewADB(t *testing.T) {
	t.Run("Should split the configured command line", func(t *testing.T) {
		a, err := NewADB(WithCommand(`"/opt/platform tools/adb" -P 5037`), WithTimeout(time.Second))

		require.NoError(t, err)
		assert.Equal(t, []string{"/opt/platform tools/adb", "-P", "5037"}, a.command)
		assert.Equal(t, time.Second, a.timeout)
	})

	t.Run("Should fail on an empty command line", func(t *testing.T) {
		_, err := NewADB(WithCommand("   "))

		assert.Error(t, err)
	})

	t.Run("Should fall back to the default timeout", func(t *testing.T) {
		a, err := NewADB(WithTimeout(0))

		require.NoError(t, err)
		assert.Equal(t, defaultADBTimeout, a.timeout)
	})
}
