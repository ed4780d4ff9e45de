package clock

import (
	"context"
	"math/rand/v2"

	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/task"
)

const (
	App     = "clock"
	Package = "com.google.android.deskclock"
)

var OpenApp = &task.Definition{
	Name:     "ClockOpenApp",
	App:      App,
	Schema:   task.ObjectSchema(map[string]any{}),
	Template: task.StaticTemplate("Open the Clock app."),
	GenerateParams: func(*rand.Rand) task.Params {
		return task.Params{}
	},
	Factory: func(task.Params) (task.Evaluator, error) {
		return &openApp{pkg: Package}, nil
	},
}

type openApp struct {
	pkg string
}

// Initialize leaves the device on the home screen so an already open clock does not count.
func (o *openApp) Initialize(ctx context.Context, env environment.Environment) error {
	return device.PressHome(ctx, env.Device())
}

func (o *openApp) IsSuccessful(ctx context.Context, env environment.Environment) (float64, error) {
	pkg, err := device.ForegroundPackage(ctx, env.Device())
	if err != nil {
		return 0, err
	}
	if pkg == o.pkg {
		return 1, nil
	}
	return 0, nil
}
