package clock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/task"
)

func TestOpenApp(t *testing.T) {
	ctx := context.Background()

	t.Run("Should pass only when the clock is in front", func(t *testing.T) {
		f := device.NewFake()
		f.SetForeground(Package)
		env := environment.NewBaseEnvironment(f)
		ev, err := OpenApp.New(task.Params{})
		require.NoError(t, err)

		require.NoError(t, ev.Initialize(ctx, env))
		score, err := ev.IsSuccessful(ctx, env)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score, "initialize should return to the launcher")

		f.SetForeground(Package)
		score, err = ev.IsSuccessful(ctx, env)
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
	})

	t.Run("Should propagate device failures", func(t *testing.T) {
		f := device.NewFake()
		f.FailOn("dumpsys", errors.New("offline"))
		ev, err := OpenApp.New(task.Params{})
		require.NoError(t, err)

		_, err = ev.IsSuccessful(ctx, environment.NewBaseEnvironment(f))

		var devErr *device.DeviceCommunicationError
		assert.ErrorAs(t, err, &devErr)
	})

	t.Run("Should render a static goal", func(t *testing.T) {
		goal, err := OpenApp.Goal(task.Params{})
		require.NoError(t, err)
		assert.Equal(t, "Open the Clock app.", goal)
	})
}
