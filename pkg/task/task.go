// Package task defines the evaluator contract shared by every app integration and
// the data-driven composite that averages two or three of them.
package task

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/boristopalov/droidbench/pkg/environment"
)

// Evaluator is one task instance bound to its parameters.
type Evaluator interface {
	// Initialize prepares the device and records whatever baseline scoring needs.
	Initialize(ctx context.Context, env environment.Environment) error
	// IsSuccessful scores the current device state in [0,1].
	IsSuccessful(ctx context.Context, env environment.Environment) (float64, error)
}

// TearDowner is implemented by evaluators that clean up after themselves.
type TearDowner interface {
	TearDown(ctx context.Context, env environment.Environment) error
}

// Definition describes a kind of task: what its parameters look like, how they are
// generated, how the instruction reads, and how to build an instance.
type Definition struct {
	Name   string
	App    string
	Schema Schema
	// Template returns the format string for p. Most tasks ignore p.
	Template       func(p Params) string
	GenerateParams func(r *rand.Rand) Params
	Factory        func(p Params) (Evaluator, error)

	components []Component
}

func StaticTemplate(s string) func(Params) string {
	return func(Params) string { return s }
}

// New checks the schema's required keys and builds an evaluator.
func (d *Definition) New(p Params) (Evaluator, error) {
	if err := d.Schema.CheckRequired(d.Name, p); err != nil {
		return nil, err
	}
	ev, err := d.Factory(p)
	if err != nil {
		return nil, d.annotate(err)
	}
	return ev, nil
}

// Goal renders the natural-language instruction for p.
func (d *Definition) Goal(p Params) (string, error) {
	goal, err := Render(d.Template(p), p)
	if err != nil {
		return "", d.annotate(err)
	}
	return goal, nil
}

// RandomParams calls the definition's generator with r, or a fresh source when r is nil.
func (d *Definition) RandomParams(r *rand.Rand) Params {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return d.GenerateParams(r)
}

func (d *Definition) IsComposite() bool {
	return len(d.components) > 0
}

// Components returns the sub-task declarations of a composite, nil otherwise.
func (d *Definition) Components() []Component {
	return append([]Component(nil), d.components...)
}

func (d *Definition) annotate(err error) error {
	var missing *MissingParameterError
	if errors.As(err, &missing) && missing.Task == "" {
		missing.Task = d.Name
	}
	var invalid *InvalidParameterError
	if errors.As(err, &invalid) && invalid.Task == "" {
		invalid.Task = d.Name
	}
	return err
}

func (d *Definition) validate() error {
	switch {
	case d == nil:
		return fmt.Errorf("nil task definition")
	case d.Name == "":
		return fmt.Errorf("task definition has no name")
	case d.Template == nil || d.GenerateParams == nil || d.Factory == nil:
		return fmt.Errorf("task definition %s is incomplete", d.Name)
	}
	return nil
}

// Mean is the unweighted arithmetic mean; 0 for no scores.
func Mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
