// Package camera scores photo and video capture by counting new media files.
package camera

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/probe"
	"github.com/boristopalov/droidbench/pkg/task"
)

const (
	App     = "camera"
	Package = "com.android.camera2"
	// MediaDir is where the stock camera writes both photos and videos.
	MediaDir = "/sdcard/DCIM/Camera"
)

var (
	TakePhoto       = mediaDefinition("CameraTakePhoto", "Take one photo using the camera app.", probe.PhotoExtensions, 1)
	TakeThreePhotos = mediaDefinition("CameraTakeThreePhotos", "Take three photos using the camera app.", probe.PhotoExtensions, 3)
	TakeVideo       = mediaDefinition("CameraTakeVideo", "Take one video using the camera app.", probe.VideoExtensions, 1)
)

func mediaDefinition(name, template string, exts []string, want int) *task.Definition {
	return &task.Definition{
		Name:     name,
		App:      App,
		Schema:   task.ObjectSchema(map[string]any{}),
		Template: task.StaticTemplate(template),
		GenerateParams: func(*rand.Rand) task.Params {
			return task.Params{}
		},
		Factory: func(task.Params) (task.Evaluator, error) {
			return &MediaCount{Dir: MediaDir, Extensions: exts, Want: want}, nil
		},
	}
}

// MediaCount passes when exactly Want new files with one of Extensions appear in
// Dir after Initialize. Any other count scores 0.
type MediaCount struct {
	Dir        string
	Extensions []string
	Want       int

	baseline    probe.Snapshot
	initialized bool
}

func (m *MediaCount) Initialize(ctx context.Context, env environment.Environment) error {
	if err := device.MakeDir(ctx, env.Device(), m.Dir); err != nil {
		return err
	}
	baseline, err := probe.List(ctx, env.Device(), m.Dir)
	if err != nil {
		return err
	}
	m.baseline = baseline
	m.initialized = true
	return nil
}

func (m *MediaCount) IsSuccessful(ctx context.Context, env environment.Environment) (float64, error) {
	if !m.initialized {
		return 0, task.ErrNotInitialized
	}
	current, err := probe.List(ctx, env.Device(), m.Dir)
	if err != nil {
		return 0, err
	}
	added := probe.Filter(m.baseline.New(current), m.Extensions...)
	if len(added) == m.Want {
		return 1, nil
	}
	return 0, nil
}

func (m *MediaCount) String() string {
	return fmt.Sprintf("MediaCount(%s, want=%d)", m.Dir, m.Want)
}
