// Package registry is the catalog of task definitions a suite can refer to by name.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/boristopalov/droidbench/pkg/config"
	"github.com/boristopalov/droidbench/pkg/task"
)

var ErrDuplicateTask = errors.New("duplicate task name")

type Registry struct {
	mu   sync.RWMutex
	defs map[string]*task.Definition
}

func New() *Registry {
	return &Registry{defs: make(map[string]*task.Definition)}
}

// Default returns a registry holding every single-app task and the built-in composites.
func Default() *Registry {
	r := New()
	if err := r.Add(Singles()...); err != nil {
		panic(err)
	}
	if err := r.Add(Composites()...); err != nil {
		panic(err)
	}
	return r
}

// Add registers definitions. Names must be unique.
func (r *Registry) Add(defs ...*task.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		if def == nil || def.Name == "" {
			return fmt.Errorf("cannot register unnamed task")
		}
		if _, ok := r.defs[def.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, def.Name)
		}
		r.defs[def.Name] = def
	}
	return nil
}

func (r *Registry) Get(name string) (*task.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", task.ErrUnknownTask, name)
	}
	return def, nil
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// AddComposite builds a composite from a suite declaration. Components must
// already be registered.
func (r *Registry) AddComposite(cfg config.CompositeConfig) (*task.Definition, error) {
	components := make([]task.Component, 0, len(cfg.Components))
	for _, c := range cfg.Components {
		def, err := r.Get(c.Task)
		if err != nil {
			return nil, fmt.Errorf("composite %s: %w", cfg.Name, err)
		}
		components = append(components, task.Component{
			Definition: def,
			Keys:       c.Keys,
			TearDown:   c.TearDown,
		})
	}

	var opts []task.CompositeOption
	if cfg.Template != "" {
		opts = append(opts, task.WithTemplate(cfg.Template))
	}
	if cfg.Separator != "" {
		opts = append(opts, task.WithSeparator(cfg.Separator))
	}
	if len(cfg.ClearDirs) > 0 {
		opts = append(opts, task.WithClearDirs(cfg.ClearDirs...))
	}

	def, err := task.NewComposite(cfg.Name, components, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Add(def); err != nil {
		return nil, err
	}
	return def, nil
}

// AddComposites registers every composite declared in a suite, in order, so
// later entries may build on earlier ones.
func (r *Registry) AddComposites(cfgs []config.CompositeConfig) error {
	for _, c := range cfgs {
		if _, err := r.AddComposite(c); err != nil {
			return err
		}
	}
	return nil
}
