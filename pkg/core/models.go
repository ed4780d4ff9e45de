package core

import (
	"time"
)

// Action is one step an agent took on the device.
type Action struct {
	AgentID   string
	Type      string
	Content   any
	Timestamp time.Time
}

// Observation is what the device returned for an Action.
type Observation struct {
	Type      string
	Content   any
	Timestamp time.Time
	SourceID  string
}

type EventType string

const (
	EventExperimentStarted  EventType = "experiment_started"
	EventRunStarted         EventType = "run_started"
	EventRunScored          EventType = "run_scored"
	EventRunFailed          EventType = "run_failed"
	EventExperimentFinished EventType = "experiment_finished"
)

type Event struct {
	Type      EventType
	RunID     string
	Task      string
	Score     float64
	Err       error
	Timestamp time.Time
}

type ExperimentStatus struct {
	Running   bool
	StartTime time.Time
	EndTime   time.Time
	Completed int
	Total     int
	Errors    []error
}
