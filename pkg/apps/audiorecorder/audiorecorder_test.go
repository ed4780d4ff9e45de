package audiorecorder

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/task"
)

func TestRecordAudioWithFileName(t *testing.T) {
	ctx := context.Background()

	t.Run("Should pass when the named recording appears", func(t *testing.T) {
		f := device.NewFake()
		env := environment.NewBaseEnvironment(f)
		ev, err := RecordAudioWithFileName.New(task.Params{"file_name": "standup"})
		require.NoError(t, err)
		require.NoError(t, ev.Initialize(ctx, env))

		f.AddFile(RecordingsDir+"/other.m4a", "")
		score, err := ev.IsSuccessful(ctx, env)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)

		f.AddFile(RecordingsDir+"/standup.m4a", "")
		score, err = ev.IsSuccessful(ctx, env)
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)

		require.NoError(t, ev.(task.TearDowner).TearDown(ctx, env))
		_, ok := f.File(RecordingsDir + "/standup.m4a")
		assert.False(t, ok)
	})

	t.Run("Should not count a recording that already existed", func(t *testing.T) {
		f := device.NewFake()
		f.AddFile(RecordingsDir+"/standup.m4a", "")
		env := environment.NewBaseEnvironment(f)
		ev, err := RecordAudioWithFileName.New(task.Params{"file_name": "standup.m4a"})
		require.NoError(t, err)
		require.NoError(t, ev.Initialize(ctx, env))

		score, err := ev.IsSuccessful(ctx, env)

		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("Should validate the file name", func(t *testing.T) {
		_, err := RecordAudioWithFileName.New(task.Params{})
		var missing *task.MissingParameterError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "file_name", missing.Key)

		_, err = RecordAudioWithFileName.New(task.Params{"file_name": "../escape"})
		var invalid *task.InvalidParameterError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, RecordAudioWithFileName.Name, invalid.Task)
	})

	t.Run("Should generate renderable parameters", func(t *testing.T) {
		p := RecordAudioWithFileName.RandomParams(rand.New(rand.NewPCG(7, 7)))

		goal, err := RecordAudioWithFileName.Goal(p)

		require.NoError(t, err)
		assert.Contains(t, goal, p["file_name"])
	})
}

func TestRecordingName(t *testing.T) {
	assert.Equal(t, "a.m4a", RecordingName("a"))
	assert.Equal(t, "a.wav", RecordingName("a.wav"))
}
