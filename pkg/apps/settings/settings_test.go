package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/task"
)

func TestRadio(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		def     *task.Definition
		setting string
		state   string
		value   string
	}{
		{WifiTurnOnOff, "wifi_on", "off", "0"},
		{WifiTurnOnOff, "wifi_on", "on", "1"},
		{BluetoothTurnOnOff, "bluetooth_on", "on", "1"},
	} {
		t.Run("Should score "+tc.def.Name+" "+tc.state, func(t *testing.T) {
			f := device.NewFake()
			env := environment.NewBaseEnvironment(f)
			ev, err := tc.def.New(task.Params{"on_or_off": tc.state})
			require.NoError(t, err)

			require.NoError(t, ev.Initialize(ctx, env))
			assert.NotEqual(t, tc.value, f.Setting(tc.setting), "initialize should set the opposite state")
			score, err := ev.IsSuccessful(ctx, env)
			require.NoError(t, err)
			assert.Equal(t, 0.0, score)

			f.SetSetting(tc.setting, tc.value)
			score, err = ev.IsSuccessful(ctx, env)
			require.NoError(t, err)
			assert.Equal(t, 1.0, score)
		})
	}

	t.Run("Should reject an unknown state", func(t *testing.T) {
		_, err := WifiTurnOnOff.New(task.Params{"on_or_off": "maybe"})

		var invalid *task.InvalidParameterError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("Should render the target state", func(t *testing.T) {
		goal, err := BluetoothTurnOnOff.Goal(task.Params{"on_or_off": "on"})

		require.NoError(t, err)
		assert.Equal(t, "Turn Bluetooth on.", goal)
	})
}
