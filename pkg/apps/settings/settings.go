package settings

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/task"
)

const App = "settings"

var (
	WifiTurnOnOff      = radioDefinition("SystemWifiTurnOnOff", "wifi", "Wi-Fi")
	BluetoothTurnOnOff = radioDefinition("SystemBluetoothTurnOnOff", "bluetooth", "Bluetooth")
)

func radioDefinition(name, service, label string) *task.Definition {
	return &task.Definition{
		Name: name,
		App:  App,
		Schema: task.ObjectSchema(map[string]any{
			"on_or_off": map[string]any{"type": "string", "enum": []any{"on", "off"}},
		}, "on_or_off"),
		Template: task.StaticTemplate(fmt.Sprintf("Turn %s {on_or_off}.", label)),
		GenerateParams: func(r *rand.Rand) task.Params {
			if r.IntN(2) == 0 {
				return task.Params{"on_or_off": "off"}
			}
			return task.Params{"on_or_off": "on"}
		},
		Factory: func(p task.Params) (task.Evaluator, error) {
			state, err := p.OneOf("on_or_off", "on", "off")
			if err != nil {
				return nil, err
			}
			return &radio{service: service, want: state == "on"}, nil
		},
	}
}

// radio flips the service to the opposite of the target so the agent has to act.
type radio struct {
	service string
	want    bool
}

func (r *radio) setting() string {
	return r.service + "_on"
}

func (r *radio) Initialize(ctx context.Context, env environment.Environment) error {
	return device.SetService(ctx, env.Device(), r.service, !r.want)
}

func (r *radio) IsSuccessful(ctx context.Context, env environment.Environment) (float64, error) {
	value, err := device.GetGlobalSetting(ctx, env.Device(), r.setting())
	if err != nil {
		return 0, err
	}
	if (value == "1") == r.want {
		return 1, nil
	}
	return 0, nil
}
