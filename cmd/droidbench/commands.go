package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/boristopalov/droidbench/pkg/agent"
	"github.com/boristopalov/droidbench/pkg/config"
	"github.com/boristopalov/droidbench/pkg/core"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/experiment"
	"github.com/boristopalov/droidbench/pkg/messaging"
	"github.com/boristopalov/droidbench/pkg/providers"
	"github.com/boristopalov/droidbench/pkg/task"
)

const paraphrasePrompt = `Rewrite the following instruction for an Android phone user in different words. Keep every file name, text and setting exactly as given. Reply with the instruction only.

%s`

func (a *app) listCmd() *cobra.Command {
	var compositesOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TASK\tAPP\tPARAMETERS")
			for _, name := range a.registry.Names() {
				def, err := a.registry.Get(name)
				if err != nil {
					return err
				}
				if compositesOnly && !def.IsComposite() {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Name, def.App, strings.Join(def.Schema.Keys(), ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&compositesOnly, "composites", false, "only list composite tasks")
	return cmd
}

func (a *app) describeCmd() *cobra.Command {
	var seed uint64
	var paraphrase bool
	var providerName string
	cmd := &cobra.Command{
		Use:   "describe TASK",
		Short: "Show a task's schema, components and a generated instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.registry.Get(args[0])
			if err != nil {
				return err
			}
			params := def.RandomParams(rand.New(rand.NewPCG(seed, 0)))
			goal, err := def.Goal(params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task: %s\nApp:  %s\n", def.Name, def.App)
			for i, c := range def.Components() {
				fmt.Fprintf(out, "  [%d] %s tear_down=%t", i, c.Definition.Name, c.TearDown)
				if len(c.Keys) > 0 {
					fmt.Fprintf(out, " keys=%v", c.Keys)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Schema: %s\n", def.Schema)

			doc, err := yaml.Marshal(map[string]any{"params": map[string]any(params), "goal": goal})
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(doc))

			if !paraphrase {
				return nil
			}
			if providerName == "" {
				providerName = a.cfg.Agent.Provider
			}
			ctx := cmd.Context()
			completer, err := providers.ByName(ctx, providerName)
			if err != nil {
				return err
			}
			rewritten, err := providers.WithRetry(completer).Complete(ctx, a.cfg.Agent.Model, fmt.Sprintf(paraphrasePrompt, goal))
			if err != nil {
				return fmt.Errorf("paraphrase: %w", err)
			}
			fmt.Fprintf(out, "paraphrase: %s\n", strings.TrimSpace(rewritten))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed for parameter generation")
	cmd.Flags().BoolVar(&paraphrase, "paraphrase", false, "ask the LLM provider to reword the goal")
	cmd.Flags().StringVar(&providerName, "provider", "", "LLM provider for --paraphrase (openai or gemini)")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	var raw []string
	cmd := &cobra.Command{
		Use:   "validate TASK",
		Short: "Check a parameter set against a task and render its goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.registry.Get(args[0])
			if err != nil {
				return err
			}
			params, err := parseParams(raw)
			if err != nil {
				return err
			}
			if err := def.Schema.Validate(params); err != nil {
				return err
			}
			if _, err := def.New(params); err != nil {
				return err
			}
			goal, err := def.Goal(params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", goal)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&raw, "param", "p", nil, "parameter as key=value (repeatable)")
	return cmd
}

// parseParams reads key=value pairs. Integer-looking values become ints.
func parseParams(pairs []string) (task.Params, error) {
	params := make(task.Params, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", pair)
		}
		if n, err := strconv.Atoi(value); err == nil {
			params[key] = n
			continue
		}
		params[key] = value
	}
	return params, nil
}

func (a *app) runCmd() *cobra.Command {
	var (
		agentType    string
		seed         uint64
		out          string
		format       string
		repeat       int
		tasks        []string
		verifyStable bool
	)
	cmd := &cobra.Command{
		Use:   "run [TASK...]",
		Short: "Run tasks on the emulator and score them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("agent") {
				cfg.Agent.Type = agentType
			}
			if flags.Changed("seed") {
				cfg.Seed = seed
			}
			if flags.Changed("out") {
				cfg.Output.Path = out
			}
			if flags.Changed("format") {
				cfg.Output.Format = format
			}
			if flags.Changed("repeat") {
				cfg.Repeat = repeat
			}
			if flags.Changed("verify-stable") {
				cfg.VerifyStable = verifyStable
			}
			if names := append(tasks, args...); len(names) > 0 {
				cfg.Tasks = nil
				for _, name := range names {
					cfg.Tasks = append(cfg.Tasks, config.TaskConfig{Name: name})
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return a.run(cmd, cfg)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&agentType, "agent", config.AgentHuman, "who attempts the tasks: human, noop or shell")
	flags.Uint64Var(&seed, "seed", 1, "seed for parameter generation")
	flags.StringVarP(&out, "out", "o", "", "results file (defaults to stdout)")
	flags.StringVar(&format, "format", config.FormatCSV, "results format: csv or json")
	flags.IntVar(&repeat, "repeat", 1, "runs per task")
	flags.StringArrayVarP(&tasks, "task", "t", nil, "task to run (repeatable)")
	flags.BoolVar(&verifyStable, "verify-stable", false, "score every run twice")
	return cmd
}

func (a *app) run(cmd *cobra.Command, cfg *config.ExperimentConfig) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	dev, err := a.openDevice()
	if err != nil {
		return err
	}
	env := environment.NewBaseEnvironment(dev)
	actor, err := a.newAgent(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	broker := messaging.NewBroker()
	defer broker.Reset()
	events := make(chan messaging.Message, 64)
	if err := broker.Subscribe("progress", events); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.reportProgress(cmd.ErrOrStderr(), events)
	}()

	exp, err := experiment.FromConfig(cfg, a.registry, env, actor, experiment.WithPublisher(broker))
	if err != nil {
		return err
	}
	runErr := exp.Run(ctx)
	_ = broker.Unsubscribe("progress")
	close(events)
	<-done

	results := exp.Results()
	if err := a.writeResults(cmd.OutOrStdout(), cfg.Output, results); err != nil {
		return err
	}
	if err := experiment.Summarize(results).Print(cmd.ErrOrStderr()); err != nil {
		return err
	}
	return runErr
}

// reportProgress prints one line to w for every scored or failed run.
func (a *app) reportProgress(w io.Writer, events <-chan messaging.Message) {
	n := 0
	for msg := range events {
		ev, ok := msg.Content.(core.Event)
		if !ok {
			continue
		}
		switch ev.Type {
		case core.EventRunStarted:
			a.log.Debug("Run started", "task", ev.Task, "run_id", ev.RunID)
		case core.EventRunScored:
			n++
			fmt.Fprintf(w, "[%d] %s score=%s\n", n, ev.Task, strconv.FormatFloat(ev.Score, 'f', 3, 64))
		case core.EventRunFailed:
			n++
			fmt.Fprintf(w, "[%d] %s failed: %v\n", n, ev.Task, ev.Err)
		case core.EventExperimentFinished:
			a.log.Debug("Experiment finished", "runs", n)
		}
	}
}

func (a *app) newAgent(ctx context.Context, cmd *cobra.Command, cfg *config.ExperimentConfig) (agent.Agent, error) {
	switch cfg.Agent.Type {
	case config.AgentNoop:
		return agent.NoopAgent{}, nil
	case config.AgentShell:
		completer, err := providers.ByName(ctx, cfg.Agent.Provider)
		if err != nil {
			return nil, err
		}
		return agent.NewShellAgent(
			agent.WithClient(providers.WithRetry(completer)),
			agent.WithModel(agent.ModelInfo{Id: cfg.Agent.Model, Config: map[string]any{}}),
			agent.WithMaxSteps(cfg.Agent.MaxSteps),
		)
	default:
		return agent.NewHumanAgent(cmd.InOrStdin(), cmd.ErrOrStderr()), nil
	}
}

func (a *app) writeResults(stdout io.Writer, out config.OutputConfig, results []experiment.Result) error {
	w := stdout
	if out.Path != "" {
		f, err := os.Create(out.Path)
		if err != nil {
			return fmt.Errorf("failed to create results file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if strings.EqualFold(out.Format, config.FormatJSON) {
		return experiment.WriteJSON(w, results)
	}
	return experiment.WriteCSV(w, results)
}
