package registry

import (
	"github.com/boristopalov/droidbench/pkg/apps/audiorecorder"
	"github.com/boristopalov/droidbench/pkg/apps/camera"
	"github.com/boristopalov/droidbench/pkg/apps/clock"
	"github.com/boristopalov/droidbench/pkg/apps/markor"
	"github.com/boristopalov/droidbench/pkg/apps/settings"
	"github.com/boristopalov/droidbench/pkg/task"
)

var (
	CameraTakePhotoAndOpenClock = task.MustComposite("CameraTakePhotoAndOpenClock", []task.Component{
		{Definition: camera.TakePhoto},
		{Definition: clock.OpenApp},
	})

	CameraTakePhotoAndVideo = task.MustComposite("CameraTakePhotoAndVideo", []task.Component{
		{Definition: camera.TakePhoto},
		{Definition: camera.TakeVideo},
	}, task.WithTemplate("Take one photo and then record one video using the camera app."))

	// Only the recording is cleaned up; photos stay in the camera roll.
	AudioRecorderRecordAudioAndTakeThreePhotos = task.MustComposite("AudioRecorderRecordAudioAndTakeThreePhotos", []task.Component{
		{Definition: audiorecorder.RecordAudioWithFileName, TearDown: true},
		{Definition: camera.TakeThreePhotos},
	})

	MarkorCreateNoteAndTakePhoto = task.MustComposite("MarkorCreateNoteAndTakePhoto", []task.Component{
		{Definition: markor.CreateNote, TearDown: true},
		{Definition: camera.TakePhoto},
	}, task.WithClearDirs(markor.DataDir))

	MarkorCreateNoteAndRecordAudio = task.MustComposite("MarkorCreateNoteAndRecordAudio", []task.Component{
		{Definition: markor.CreateNote, TearDown: true},
		{Definition: audiorecorder.RecordAudioWithFileName, Keys: map[string]string{"file_name": "audio_file_name"}},
	}, task.WithClearDirs(markor.DataDir))

	MarkorCreateTwoNotes = task.MustComposite("MarkorCreateTwoNotes", []task.Component{
		{Definition: markor.CreateNote, TearDown: true},
		{Definition: markor.CreateNote, Keys: map[string]string{"file_name": "file_name_2", "text": "text_2"}},
	}, task.WithClearDirs(markor.DataDir))

	SystemWifiTurnOnOffAndOpenClock = task.MustComposite("SystemWifiTurnOnOffAndOpenClock", []task.Component{
		{Definition: settings.WifiTurnOnOff},
		{Definition: clock.OpenApp},
	})

	SystemWifiAndBluetoothTurnOnOff = task.MustComposite("SystemWifiAndBluetoothTurnOnOff", []task.Component{
		{Definition: settings.WifiTurnOnOff, Keys: map[string]string{"on_or_off": "wifi_on_or_off"}},
		{Definition: settings.BluetoothTurnOnOff, Keys: map[string]string{"on_or_off": "bluetooth_on_or_off"}},
	})

	MarkorEditNoteAndBluetoothTurnOnOff = task.MustComposite("MarkorEditNoteAndBluetoothTurnOnOff", []task.Component{
		{Definition: markor.EditNote, TearDown: true},
		{Definition: settings.BluetoothTurnOnOff},
	})

	CameraTakePhotoAndVideoAndOpenClock = task.MustComposite("CameraTakePhotoAndVideoAndOpenClock", []task.Component{
		{Definition: camera.TakePhoto},
		{Definition: camera.TakeVideo},
		{Definition: clock.OpenApp},
	})
)

func Singles() []*task.Definition {
	return []*task.Definition{
		camera.TakePhoto,
		camera.TakeThreePhotos,
		camera.TakeVideo,
		clock.OpenApp,
		audiorecorder.RecordAudioWithFileName,
		markor.CreateNote,
		markor.EditNote,
		settings.WifiTurnOnOff,
		settings.BluetoothTurnOnOff,
	}
}

func Composites() []*task.Definition {
	return []*task.Definition{
		CameraTakePhotoAndOpenClock,
		CameraTakePhotoAndVideo,
		AudioRecorderRecordAudioAndTakeThreePhotos,
		MarkorCreateNoteAndTakePhoto,
		MarkorCreateNoteAndRecordAudio,
		MarkorCreateTwoNotes,
		SystemWifiTurnOnOffAndOpenClock,
		SystemWifiAndBluetoothTurnOnOff,
		MarkorEditNoteAndBluetoothTurnOnOff,
		CameraTakePhotoAndVideoAndOpenClock,
	}
}
