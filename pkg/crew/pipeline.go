// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"

	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/errors"
)

// Pipeline runs an ordered list of templates as separate single-task
// executions. After each stage the produced artifact is appended to the
// context the next template is rendered from.
type Pipeline struct {
	builder *Builder
	crew    *Crew
}

// NewPipeline creates a pipeline over a builder and a crew.
func NewPipeline(builder *Builder, crew *Crew) *Pipeline {
	return &Pipeline{builder: builder, crew: crew}
}

// Run checks up front that every stage can be rendered from inputs plus the
// artifacts of the stages before it, then executes the stages in order.
// A missing key fails the run before any agent is called.
func (p *Pipeline) Run(ctx context.Context, inputs core.Inputs, stages ...core.TaskName) (core.Result, error) {
	if err := p.check(inputs, stages); err != nil {
		return nil, err
	}

	result := make(core.Result, len(stages))
	current := inputs
	for _, name := range stages {
		task, err := p.builder.Build(name, current)
		if err != nil {
			return nil, err
		}
		out, err := p.crew.Execute(ctx, task)
		if err != nil {
			return nil, err
		}
		artifact := task.Artifact()
		result[artifact] = out.Get(artifact)
		current = current.With(artifact, result[artifact])
	}
	return result, nil
}

func (p *Pipeline) check(inputs core.Inputs, stages []core.TaskName) error {
	available := make(map[string]bool, len(inputs)+len(stages))
	for key := range inputs {
		available[key] = true
	}
	for _, name := range stages {
		required, err := p.builder.Requires(name)
		if err != nil {
			return err
		}
		var missing []string
		for _, key := range required {
			if !available[key] {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return errors.MissingInputError(string(name), missing[0], missing)
		}
		available[name.Artifact()] = true
	}
	return nil
}
