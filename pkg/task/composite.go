package task

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/environment"
)

const (
	minComponents    = 2
	maxComponents    = 3
	defaultSeparator = " Then, "
)

// Component declares one sub-task of a composite.
type Component struct {
	Definition *Definition
	// Keys renames sub-task parameter keys into the composite namespace,
	// e.g. {"text": "text_draw"}. Keys not listed keep their name.
	Keys map[string]string
	// TearDown marks whether the composite tears this sub-task down.
	TearDown bool
}

func (c Component) target(key string) string {
	if renamed, ok := c.Keys[key]; ok {
		return renamed
	}
	return key
}

func (c Component) subParams(p Params) Params {
	sub := make(Params)
	for _, key := range c.Definition.Schema.Keys() {
		if v, ok := p[c.target(key)]; ok {
			sub[key] = v
		}
	}
	return sub
}

type compositeConfig struct {
	template  string
	separator string
	clearDirs []string
}

type CompositeOption func(*compositeConfig)

// WithTemplate replaces the joined sub-task templates. Slots use composite keys.
func WithTemplate(template string) CompositeOption {
	return func(c *compositeConfig) {
		c.template = template
	}
}

func WithSeparator(sep string) CompositeOption {
	return func(c *compositeConfig) {
		c.separator = sep
	}
}

// WithClearDirs empties app data directories before any sub-task is initialized.
func WithClearDirs(dirs ...string) CompositeOption {
	return func(c *compositeConfig) {
		c.clearDirs = append(c.clearDirs, dirs...)
	}
}

// NewComposite assembles a task from two or three sub-tasks. A key that two
// components both pass through unrenamed is a collision and must be renamed
// explicitly; components that map explicitly to the same key share it.
func NewComposite(name string, components []Component, opts ...CompositeOption) (*Definition, error) {
	if len(components) < minComponents || len(components) > maxComponents {
		return nil, fmt.Errorf("composite %s: needs %d to %d components, got %d", name, minComponents, maxComponents, len(components))
	}
	cfg := &compositeConfig{separator: defaultSeparator}
	for _, opt := range opts {
		opt(cfg)
	}

	type owner struct {
		component int
		explicit  bool
	}
	owners := make(map[string]owner)
	properties := make(map[string]any)
	var required []string
	var apps []string

	for i, c := range components {
		if err := c.Definition.validate(); err != nil {
			return nil, fmt.Errorf("composite %s: component %d: %w", name, i, err)
		}
		keys := c.Definition.Schema.Keys()
		for from := range c.Keys {
			if !slices.Contains(keys, from) {
				return nil, fmt.Errorf("composite %s: %s has no parameter %q to rename", name, c.Definition.Name, from)
			}
		}
		props := c.Definition.Schema.Properties()
		for _, key := range keys {
			_, explicit := c.Keys[key]
			to := c.target(key)
			if prev, taken := owners[to]; taken && (prev.component == i || !(prev.explicit && explicit)) {
				return nil, fmt.Errorf("%w: composite %s: %q from %s clashes with %s",
					ErrParameterCollision, name, to, c.Definition.Name, components[prev.component].Definition.Name)
			}
			owners[to] = owner{component: i, explicit: explicit}
			if prop, ok := props[key]; ok {
				properties[to] = prop
			}
		}
		for _, key := range c.Definition.Schema.Required() {
			if to := c.target(key); !slices.Contains(required, to) {
				required = append(required, to)
			}
		}
		if !slices.Contains(apps, c.Definition.App) {
			apps = append(apps, c.Definition.App)
		}
	}

	comps := append([]Component(nil), components...)
	def := &Definition{
		Name:       name,
		App:        strings.Join(apps, "+"),
		Schema:     ObjectSchema(properties, required...),
		components: comps,
	}

	if cfg.template != "" {
		if _, err := Placeholders(cfg.template); err != nil {
			return nil, fmt.Errorf("composite %s: %w", name, err)
		}
		def.Template = StaticTemplate(cfg.template)
	} else {
		sep := cfg.separator
		def.Template = func(p Params) string {
			parts := make([]string, 0, len(comps))
			for i, c := range comps {
				raw := c.Definition.Template(c.subParams(p))
				t, err := RewritePlaceholders(raw, c.Keys)
				if err != nil {
					// Render reports the same malformation.
					t = raw
				}
				if i > 0 {
					t = lowerFirst(t)
				}
				parts = append(parts, t)
			}
			return strings.Join(parts, sep)
		}
	}

	def.GenerateParams = func(r *rand.Rand) Params {
		merged := make(Params)
		for _, c := range comps {
			for k, v := range c.Definition.GenerateParams(r) {
				merged[c.target(k)] = v
			}
		}
		return merged
	}

	clearDirs := slices.Clone(cfg.clearDirs)
	def.Factory = func(p Params) (Evaluator, error) {
		tasks := make([]Evaluator, len(comps))
		for i, c := range comps {
			ev, err := c.Definition.New(c.subParams(p))
			if err != nil {
				return nil, err
			}
			tasks[i] = ev
		}
		return &CompositeEvaluator{
			name:       name,
			components: comps,
			tasks:      tasks,
			clearDirs:  clearDirs,
		}, nil
	}
	return def, nil
}

// MustComposite is NewComposite for package-level catalogs.
func MustComposite(name string, components []Component, opts ...CompositeOption) *Definition {
	def, err := NewComposite(name, components, opts...)
	if err != nil {
		panic(err)
	}
	return def
}

type CompositeState int

const (
	Unstarted CompositeState = iota
	Initialized
	Scored
)

func (s CompositeState) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Initialized:
		return "initialized"
	case Scored:
		return "scored"
	}
	return fmt.Sprintf("CompositeState(%d)", int(s))
}

// CompositeEvaluator runs its sub-tasks strictly in declaration order and scores
// the unweighted mean of their scores.
type CompositeEvaluator struct {
	name       string
	components []Component
	tasks      []Evaluator
	clearDirs  []string
	state      CompositeState
}

func (c *CompositeEvaluator) State() CompositeState {
	return c.state
}

// Tasks returns the sub-task evaluators in declaration order.
func (c *CompositeEvaluator) Tasks() []Evaluator {
	return append([]Evaluator(nil), c.tasks...)
}

func (c *CompositeEvaluator) Initialize(ctx context.Context, env environment.Environment) error {
	for _, dir := range c.clearDirs {
		if err := device.ClearDir(ctx, env.Device(), dir); err != nil {
			return fmt.Errorf("%s: clear %s: %w", c.name, dir, err)
		}
	}
	for i, t := range c.tasks {
		if err := t.Initialize(ctx, env); err != nil {
			return fmt.Errorf("%s: initialize %s: %w", c.name, c.components[i].Definition.Name, err)
		}
	}
	c.state = Initialized
	return nil
}

// IsSuccessful may be called any number of times once initialized; every call
// re-evaluates each sub-task.
func (c *CompositeEvaluator) IsSuccessful(ctx context.Context, env environment.Environment) (float64, error) {
	score, _, err := c.Breakdown(ctx, env)
	return score, err
}

// Breakdown scores every sub-task once and returns their mean alongside them.
func (c *CompositeEvaluator) Breakdown(ctx context.Context, env environment.Environment) (float64, []float64, error) {
	scores, err := c.Scores(ctx, env)
	if err != nil {
		return 0, nil, err
	}
	c.state = Scored
	return Mean(scores), scores, nil
}

// Scores returns each sub-task's score in declaration order.
func (c *CompositeEvaluator) Scores(ctx context.Context, env environment.Environment) ([]float64, error) {
	if c.state == Unstarted {
		return nil, fmt.Errorf("%s: %w", c.name, ErrNotInitialized)
	}
	scores := make([]float64, len(c.tasks))
	for i, t := range c.tasks {
		sub := c.components[i].Definition.Name
		score, err := t.IsSuccessful(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("%s: score %s: %w", c.name, sub, err)
		}
		if score < 0 || score > 1 {
			return nil, fmt.Errorf("%s: %s returned %v: %w", c.name, sub, score, ErrScoreOutOfRange)
		}
		scores[i] = score
	}
	return scores, nil
}

// TearDown is best effort: it runs every declared tear-down, even when the
// composite was never initialized, and joins the errors. Components declared
// without TearDown are left alone.
func (c *CompositeEvaluator) TearDown(ctx context.Context, env environment.Environment) error {
	var errs []error
	for i, t := range c.tasks {
		if !c.components[i].TearDown {
			continue
		}
		td, ok := t.(TearDowner)
		if !ok {
			continue
		}
		if err := td.TearDown(ctx, env); err != nil {
			errs = append(errs, fmt.Errorf("%s: tear down %s: %w", c.name, c.components[i].Definition.Name, err))
		}
	}
	c.state = Unstarted
	return errors.Join(errs...)
}
