package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/google/uuid"

	"github.com/boristopalov/droidbench/pkg/core"
	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/logger"
	"github.com/boristopalov/droidbench/pkg/memory"
	"github.com/boristopalov/droidbench/pkg/providers"
)

const (
	SYSTEM_PROMPT = `You control an Android emulator through adb shell commands. Each turn, reply with exactly one line: either "COMMAND: <shell command>" to run a command on the device, or "DONE" once the goal is complete. Useful commands: "am start -n <package>/<activity>", "monkey -p <package> 1", "input tap <x> <y>", "input text <text>", "input keyevent <KEYCODE>", "ls -1 <dir>", "settings get global <key>", "svc wifi enable|disable".`

	STEP_PROMPT_TEMPLATE = `%s

Goal: %s

This is step %d of %d. Previous commands and their output:
%s

What is your next command?`

	maxObservationLen = 2000
)

// ErrNoAction is returned when a reply holds neither a command nor DONE.
var ErrNoAction = errors.New("no action in response")

var (
	commandPattern = regexp.MustCompile(`(?m)^\s*COMMAND:\s*(.+?)\s*$`)
	donePattern    = regexp.MustCompile(`(?m)^\s*DONE\s*$`)
)

type ModelInfo struct {
	Id     string         // e.g. "gpt-4o-mini"
	Config map[string]any // model-specific configuration
}

// ShellAgent asks an LLM for one shell command per step until it answers DONE
// or runs out of steps.
type ShellAgent struct {
	id       string
	model    ModelInfo
	client   providers.Completer
	memory   *memory.Memory
	maxSteps int
	actions  []core.Action
}

type AgentParams struct {
	Client         providers.Completer
	Model          ModelInfo
	AgentID        string
	MaxSteps       int
	MemoryCapacity int
}

type AgentOption func(*AgentParams)

func WithClient(c providers.Completer) AgentOption {
	return func(p *AgentParams) {
		p.Client = c
	}
}

func WithModel(model ModelInfo) AgentOption {
	return func(p *AgentParams) {
		p.Model = model
	}
}

func WithAgentId(id string) AgentOption {
	return func(p *AgentParams) {
		p.AgentID = id
	}
}

func WithMaxSteps(n int) AgentOption {
	return func(p *AgentParams) {
		p.MaxSteps = n
	}
}

func WithMemoryCapacity(n int) AgentOption {
	return func(p *AgentParams) {
		p.MemoryCapacity = n
	}
}

func defaultAgentParams() *AgentParams {
	return &AgentParams{
		Model: ModelInfo{
			Id:     "gpt-4o-mini",
			Config: make(map[string]any),
		},
		AgentID:        "agent-" + uuid.New().String(),
		MaxSteps:       10,
		MemoryCapacity: 100,
	}
}

func NewShellAgent(opts ...AgentOption) (*ShellAgent, error) {
	params := defaultAgentParams()
	for _, opt := range opts {
		opt(params)
	}
	if params.Client == nil {
		return nil, fmt.Errorf("agent %s: no completion client", params.AgentID)
	}
	if params.MaxSteps < 1 {
		return nil, fmt.Errorf("agent %s: max steps must be positive", params.AgentID)
	}
	return &ShellAgent{
		id:       params.AgentID,
		model:    params.Model,
		client:   params.Client,
		memory:   memory.NewMemory(params.MemoryCapacity),
		maxSteps: params.MaxSteps,
	}, nil
}

func (a *ShellAgent) GetID() string {
	return a.id
}

func (a *ShellAgent) GetModel() ModelInfo {
	return a.model
}

// Actions returns the commands issued during the last Run.
func (a *ShellAgent) Actions() []core.Action {
	return append([]core.Action(nil), a.actions...)
}

func (a *ShellAgent) Run(ctx context.Context, env environment.Environment, goal string) error {
	log := logger.FromContext(ctx).With("agent", a.id)
	a.memory.Reset()
	a.actions = nil

	for step := 1; step <= a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		history := a.memory.Transcript()
		if history == "" {
			history = "(none)"
		}
		prompt := fmt.Sprintf(STEP_PROMPT_TEMPLATE, SYSTEM_PROMPT, goal, step, a.maxSteps, history)
		response, err := a.client.Complete(ctx, a.model.Id, prompt)
		if err != nil {
			return fmt.Errorf("agent %s: step %d: %w", a.id, step, err)
		}

		command, done, err := parseAction(response)
		if err != nil {
			log.Warn("Unusable response", "step", step, "response", response)
			_ = a.memory.Store(fmt.Sprintf("Your reply %q was not understood. Reply with COMMAND: <command> or DONE.", response))
			continue
		}
		if done {
			log.Info("Agent finished", "steps", step-1)
			return nil
		}

		obs, err := a.execute(ctx, env, command)
		if err != nil {
			return err
		}
		log.Debug("Executed command", "step", step, "command", command)
		_ = a.memory.Store("$ " + command)
		_ = a.memory.Store(truncate(fmt.Sprint(obs.Content), maxObservationLen))
	}
	log.Warn("Agent ran out of steps", "max_steps", a.maxSteps)
	return nil
}

// execute runs one command. Failed commands become observations; a lost
// device connection ends the run.
func (a *ShellAgent) execute(ctx context.Context, env environment.Environment, command string) (core.Observation, error) {
	args, err := shlex.Split(command)
	if err != nil || len(args) == 0 {
		return core.Observation{Type: "error", Content: fmt.Sprintf("cannot parse command: %v", err), Timestamp: time.Now()}, nil
	}
	a.actions = append(a.actions, core.Action{AgentID: a.id, Type: "shell", Content: command, Timestamp: time.Now()})
	out, err := env.Device().Shell(ctx, args...)
	env.Step()
	if err != nil {
		if !errors.Is(err, device.ErrCommandFailed) {
			return core.Observation{}, fmt.Errorf("agent %s: %w", a.id, err)
		}
		return core.Observation{Type: "error", Content: err.Error(), Timestamp: time.Now(), SourceID: a.id}, nil
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		text = "(no output)"
	}
	return core.Observation{Type: "output", Content: text, Timestamp: time.Now(), SourceID: a.id}, nil
}

func parseAction(response string) (command string, done bool, err error) {
	if m := commandPattern.FindStringSubmatch(response); len(m) == 2 {
		return strings.Trim(m[1], "`"), false, nil
	}
	if donePattern.MatchString(response) {
		return "", true, nil
	}
	return "", false, ErrNoAction
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
