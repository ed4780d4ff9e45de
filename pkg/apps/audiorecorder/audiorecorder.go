package audiorecorder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path"
	"slices"

	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/probe"
	"github.com/boristopalov/droidbench/pkg/task"
)

const (
	App           = "audiorecorder"
	Package       = "com.dimowner.audiorecorder"
	RecordingsDir = "/sdcard/Recordings"
	defaultExt    = ".m4a"
)

var fileWords = []string{"meeting", "lecture", "interview", "memo", "podcast", "reminder", "voice", "draft"}

var RecordAudioWithFileName = &task.Definition{
	Name: "AudioRecorderRecordAudioWithFileName",
	App:  App,
	Schema: task.ObjectSchema(map[string]any{
		"file_name": map[string]any{"type": "string"},
	}, "file_name"),
	Template: task.StaticTemplate("Record an audio clip using Audio Recorder app and save it as {file_name}."),
	GenerateParams: func(r *rand.Rand) task.Params {
		a := fileWords[r.IntN(len(fileWords))]
		b := fileWords[r.IntN(len(fileWords))]
		return task.Params{"file_name": fmt.Sprintf("%s_%s_%d", a, b, r.IntN(1000))}
	},
	Factory: func(p task.Params) (task.Evaluator, error) {
		name, err := p.String("file_name")
		if err != nil {
			return nil, err
		}
		if name == "" || path.Base(name) != name {
			return nil, &task.InvalidParameterError{Key: "file_name", Value: name, Reason: "must be a plain file name"}
		}
		return &recordAudio{fileName: RecordingName(name)}, nil
	},
}

// RecordingName appends the recorder's default extension when name has none.
func RecordingName(name string) string {
	if path.Ext(name) == "" {
		return name + defaultExt
	}
	return name
}

type recordAudio struct {
	fileName    string
	baseline    probe.Snapshot
	initialized bool
}

func (r *recordAudio) Initialize(ctx context.Context, env environment.Environment) error {
	if err := device.MakeDir(ctx, env.Device(), RecordingsDir); err != nil {
		return err
	}
	baseline, err := probe.List(ctx, env.Device(), RecordingsDir)
	if err != nil {
		return err
	}
	r.baseline = baseline
	r.initialized = true
	return nil
}

// IsSuccessful passes when the named recording is a new file.
func (r *recordAudio) IsSuccessful(ctx context.Context, env environment.Environment) (float64, error) {
	if !r.initialized {
		return 0, task.ErrNotInitialized
	}
	current, err := probe.List(ctx, env.Device(), RecordingsDir)
	if err != nil {
		return 0, err
	}
	if slices.Contains(r.baseline.New(current), r.fileName) {
		return 1, nil
	}
	return 0, nil
}

func (r *recordAudio) TearDown(ctx context.Context, env environment.Environment) error {
	return device.RemoveAll(ctx, env.Device(), path.Join(RecordingsDir, r.fileName))
}
