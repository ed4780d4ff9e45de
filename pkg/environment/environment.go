package environment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boristopalov/droidbench/pkg/device"
)

type State struct {
	Status    string
	Step      uint32
	Timestamp time.Time
}

// Environment is the handle every evaluator receives: the device shell plus
// bookkeeping about where the run is.
type Environment interface {
	// Device returns the shell primitive of the emulator
	Device() device.Device
	// GetState returns the current environment state
	GetState() State
	// Reset returns the device to the home screen and clears the step counter
	Reset(ctx context.Context) error
	// Step advances the environment by one timestep
	Step()
}

type BaseEnvironment struct {
	device device.Device
	state  State
	mu     sync.RWMutex
}

func NewBaseEnvironment(d device.Device) *BaseEnvironment {
	return &BaseEnvironment{
		device: d,
		state: State{
			Status:    "idle",
			Step:      0,
			Timestamp: time.Now(),
		},
	}
}

func (e *BaseEnvironment) Device() device.Device {
	return e.device
}

func (e *BaseEnvironment) GetState() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *BaseEnvironment) Step() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Status = "running"
	e.state.Step++
	e.state.Timestamp = time.Now()
}

func (e *BaseEnvironment) Reset(ctx context.Context) error {
	if err := device.PressHome(ctx, e.device); err != nil {
		return fmt.Errorf("failed to reset environment: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = State{
		Status:    "idle",
		Step:      0,
		Timestamp: time.Now(),
	}
	return nil
}
