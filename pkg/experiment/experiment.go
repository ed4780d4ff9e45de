// Package experiment runs a suite of task instances against one device and
// collects their scores.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/boristopalov/droidbench/pkg/agent"
	"github.com/boristopalov/droidbench/pkg/config"
	"github.com/boristopalov/droidbench/pkg/core"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/logger"
	"github.com/boristopalov/droidbench/pkg/registry"
	"github.com/boristopalov/droidbench/pkg/task"
)

// ErrUnstableScore is recorded when scoring the same device state twice disagrees.
var ErrUnstableScore = errors.New("score changed between consecutive checks")

// Run is one scheduled task instance. Params override generated values.
type Run struct {
	Task   string
	Params task.Params
}

type Experiment struct {
	name         string
	registry     *registry.Registry
	env          environment.Environment
	agent        agent.Agent
	runs         []Run
	seed         uint64
	verifyStable bool
	publisher    core.Publisher

	stopped atomic.Bool
	mu      sync.RWMutex
	status  core.ExperimentStatus
	results []Result
}

var _ core.Experiment = (*Experiment)(nil)

type ExperimentOption func(*Experiment)

func WithSeed(seed uint64) ExperimentOption {
	return func(e *Experiment) {
		e.seed = seed
	}
}

func WithRuns(runs ...Run) ExperimentOption {
	return func(e *Experiment) {
		e.runs = append(e.runs, runs...)
	}
}

// WithVerifyStable scores every run twice and flags disagreement.
func WithVerifyStable(v bool) ExperimentOption {
	return func(e *Experiment) {
		e.verifyStable = v
	}
}

func WithPublisher(p core.Publisher) ExperimentOption {
	return func(e *Experiment) {
		e.publisher = p
	}
}

func NewExperiment(name string, reg *registry.Registry, env environment.Environment, a agent.Agent, opts ...ExperimentOption) *Experiment {
	e := &Experiment{
		name:     name,
		registry: reg,
		env:      env,
		agent:    a,
		seed:     1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromConfig schedules the configured tasks, or every registered task when
// the suite lists none. Suite composites must already be in reg.
func FromConfig(cfg *config.ExperimentConfig, reg *registry.Registry, env environment.Environment, a agent.Agent, opts ...ExperimentOption) (*Experiment, error) {
	var runs []Run
	if len(cfg.Tasks) == 0 {
		for _, name := range reg.Names() {
			for range cfg.Repeat {
				runs = append(runs, Run{Task: name})
			}
		}
	}
	for _, t := range cfg.Tasks {
		if _, err := reg.Get(t.Name); err != nil {
			return nil, err
		}
		repeat := t.Repeat
		if repeat == 0 {
			repeat = cfg.Repeat
		}
		for range repeat {
			runs = append(runs, Run{Task: t.Name, Params: task.Params(t.Params)})
		}
	}

	base := []ExperimentOption{WithSeed(cfg.Seed), WithRuns(runs...), WithVerifyStable(cfg.VerifyStable)}
	return NewExperiment(cfg.Name, reg, env, a, append(base, opts...)...), nil
}

func (e *Experiment) Name() string {
	return e.name
}

// Runs returns the scheduled runs in execution order.
func (e *Experiment) Runs() []Run {
	return append([]Run(nil), e.runs...)
}

// Run executes the schedule sequentially. Per-run failures are recorded in the
// results; only cancellation aborts the experiment.
func (e *Experiment) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).With("experiment", e.name)
	e.stopped.Store(false)

	e.mu.Lock()
	e.results = nil
	e.status = core.ExperimentStatus{Running: true, StartTime: time.Now(), Total: len(e.runs)}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.status.Running = false
		e.status.EndTime = time.Now()
		e.mu.Unlock()
		e.publish(ctx, core.Event{Type: core.EventExperimentFinished})
	}()

	e.publish(ctx, core.Event{Type: core.EventExperimentStarted})
	log.Info("Starting experiment", "runs", len(e.runs), "seed", e.seed)

	for i, run := range e.runs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.stopped.Load() {
			log.Info("Experiment stopped", "completed", i)
			return nil
		}

		res := e.runOne(logger.ContextWithLogger(ctx, log), i, run)

		e.mu.Lock()
		e.results = append(e.results, res)
		e.status.Completed++
		if res.Err != nil {
			e.status.Errors = append(e.status.Errors, res.Err)
		}
		e.mu.Unlock()

		if res.Err != nil {
			log.Error("Run failed", "task", run.Task, "run_id", res.RunID, "error", res.Err)
			e.publish(ctx, core.Event{Type: core.EventRunFailed, RunID: res.RunID, Task: run.Task, Err: res.Err})
		} else {
			log.Info("Run scored", "task", run.Task, "run_id", res.RunID, "score", res.Score)
			e.publish(ctx, core.Event{Type: core.EventRunScored, RunID: res.RunID, Task: run.Task, Score: res.Score})
		}
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			return ctx.Err()
		}
	}
	return nil
}

// runSeed derives the parameter stream of the i-th run from the experiment seed.
func (e *Experiment) runSeed(i int) *rand.Rand {
	return rand.New(rand.NewPCG(e.seed, uint64(i)))
}

func (e *Experiment) runOne(ctx context.Context, i int, run Run) (res Result) {
	res = Result{
		RunID:   uuid.New().String(),
		Index:   i,
		Task:    run.Task,
		Seed:    e.seed,
		Started: time.Now(),
	}
	log := logger.FromContext(ctx).With("task", run.Task, "run_id", res.RunID)
	e.publish(ctx, core.Event{Type: core.EventRunStarted, RunID: res.RunID, Task: run.Task})
	defer func() {
		res.Finished = time.Now()
	}()

	def, err := e.registry.Get(run.Task)
	if err != nil {
		res.Err = err
		return res
	}
	params := def.RandomParams(e.runSeed(i)).Merge(run.Params)
	res.Params = params
	if err := def.Schema.Validate(params); err != nil {
		res.Err = err
		return res
	}
	if res.Goal, err = def.Goal(params); err != nil {
		res.Err = err
		return res
	}
	ev, err := def.New(params)
	if err != nil {
		res.Err = err
		return res
	}

	if err := e.env.Reset(ctx); err != nil {
		res.Err = err
		return res
	}
	if err := ev.Initialize(ctx, e.env); err != nil {
		res.Err = errors.Join(err, tearDown(ctx, ev, e.env))
		return res
	}
	log.Debug("Task initialized", "goal", res.Goal)

	res.Err = e.attempt(ctx, ev, &res)
	if err := tearDown(ctx, ev, e.env); err != nil {
		log.Warn("Tear down failed", "error", err)
		res.Err = errors.Join(res.Err, err)
	}
	return res
}

func (e *Experiment) attempt(ctx context.Context, ev task.Evaluator, res *Result) error {
	if err := e.agent.Run(ctx, e.env, res.Goal); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	score, subs, err := evaluate(ctx, ev, e.env)
	if err != nil {
		return err
	}
	res.Score = score
	res.SubScores = subs
	res.Stable = true
	if e.verifyStable {
		again, err := ev.IsSuccessful(ctx, e.env)
		if err != nil {
			return err
		}
		if again != score {
			res.Stable = false
			return fmt.Errorf("%w: %v then %v", ErrUnstableScore, score, again)
		}
	}
	return nil
}

// evaluate scores ev once; composites also report the sub-scores the mean was taken over.
func evaluate(ctx context.Context, ev task.Evaluator, env environment.Environment) (float64, []float64, error) {
	if comp, ok := ev.(*task.CompositeEvaluator); ok {
		return comp.Breakdown(ctx, env)
	}
	score, err := ev.IsSuccessful(ctx, env)
	return score, nil, err
}

func tearDown(ctx context.Context, ev task.Evaluator, env environment.Environment) error {
	if td, ok := ev.(task.TearDowner); ok {
		return td.TearDown(ctx, env)
	}
	return nil
}

func (e *Experiment) publish(ctx context.Context, ev core.Event) {
	if e.publisher == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if err := e.publisher.PublishEvent(ev); err != nil {
		logger.FromContext(ctx).Debug("Dropped experiment event", "type", ev.Type, "error", err)
	}
}

// Stop lets the current run finish and skips the rest.
func (e *Experiment) Stop() error {
	e.stopped.Store(true)
	return nil
}

func (e *Experiment) GetStatus() core.ExperimentStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	status := e.status
	status.Errors = append([]error(nil), e.status.Errors...)
	return status
}

// Results returns the finished runs in execution order.
func (e *Experiment) Results() []Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Result(nil), e.results...)
}
