package task

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized     = errors.New("task has not been initialized")
	ErrUnknownTask        = errors.New("unknown task")
	ErrParameterCollision = errors.New("parameter key collision")
	ErrMalformedTemplate  = errors.New("malformed template")
	ErrScoreOutOfRange    = errors.New("score outside [0,1]")
)

// MissingParameterError is returned when a required parameter key is absent.
type MissingParameterError struct {
	Task string
	Key  string
}

func (e *MissingParameterError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("missing parameter %q", e.Key)
	}
	return fmt.Sprintf("%s: missing parameter %q", e.Task, e.Key)
}

// InvalidParameterError is returned when a parameter is present but unusable:
// wrong type, or a value outside its enum.
type InvalidParameterError struct {
	Task   string
	Key    string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	prefix := ""
	if e.Task != "" {
		prefix = e.Task + ": "
	}
	return fmt.Sprintf("%sinvalid parameter %q=%v: %s", prefix, e.Key, e.Value, e.Reason)
}
