package core

import (
	"context"
)

// Experiment coordinates the running of a benchmark suite
type Experiment interface {
	// Run executes every configured task run in order
	Run(ctx context.Context) error
	// Stop asks a running experiment to finish after the current run
	Stop() error
	// GetStatus returns current experiment status
	GetStatus() ExperimentStatus
}

// Publisher receives experiment progress events
type Publisher interface {
	PublishEvent(ev Event) error
}
