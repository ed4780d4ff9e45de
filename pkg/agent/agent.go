// Package agent holds the actors that attempt a task between Initialize and scoring.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/boristopalov/droidbench/pkg/environment"
)

// Agent attempts goal on the environment's device and returns when it is done.
type Agent interface {
	Run(ctx context.Context, env environment.Environment, goal string) error
}

// HumanAgent shows the goal and waits for an operator to press Enter. One
// reader goroutine serves every Run, so input read ahead is kept for later runs.
// readErr is set before lines is closed.
type HumanAgent struct {
	in      *bufio.Reader
	out     io.Writer
	once    sync.Once
	lines   chan struct{}
	readErr error
}

func NewHumanAgent(in io.Reader, out io.Writer) *HumanAgent {
	return &HumanAgent{in: bufio.NewReader(in), out: out, lines: make(chan struct{})}
}

func (h *HumanAgent) read() {
	for {
		if _, err := h.in.ReadString('\n'); err != nil {
			if err != io.EOF {
				h.readErr = err
			}
			close(h.lines)
			return
		}
		h.lines <- struct{}{}
	}
}

func (h *HumanAgent) Run(ctx context.Context, env environment.Environment, goal string) error {
	if _, err := fmt.Fprintf(h.out, "\nGoal: %s\nPress Enter when the task is done...", goal); err != nil {
		return err
	}
	h.once.Do(func() { go h.read() })
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-h.lines:
		env.Step()
		if !ok {
			return h.readErr
		}
		return nil
	}
}

// NoopAgent does nothing, which scores a task's baseline.
type NoopAgent struct{}

func (NoopAgent) Run(ctx context.Context, env environment.Environment, goal string) error {
	return ctx.Err()
}
