// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/errors"
	"github.com/jllopis/scriptcrew/pkg/prompt"
)

// TemplateSource resolves task templates by name.
type TemplateSource interface {
	Get(name core.TaskName) (core.TaskTemplate, error)
	Placeholders(name core.TaskName) ([]string, error)
}

// Builder renders task templates into runnable tasks bound to live agents.
// It holds no per-run state and is safe for concurrent use.
type Builder struct {
	templates TemplateSource
	agents    map[core.AgentRole]core.Agent
}

// NewBuilder binds templates to the agent instances that execute them.
// Every role referenced by a known template must have an agent.
func NewBuilder(templates TemplateSource, agents map[core.AgentRole]core.Agent) (*Builder, error) {
	bound := make(map[core.AgentRole]core.Agent, len(agents))
	for role, a := range agents {
		if a == nil {
			return nil, errors.ConfigurationError("agent instance", string(role))
		}
		bound[role] = a
	}
	b := &Builder{templates: templates, agents: bound}
	for _, name := range core.TaskNames() {
		tmpl, err := templates.Get(name)
		if err != nil {
			return nil, err
		}
		if _, err := b.agent(tmpl.Agent); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Build looks up the named template, checks that inputs cover every
// placeholder and renders a fresh pending task. No agent is called.
func (b *Builder) Build(name core.TaskName, inputs core.Inputs) (*core.Task, error) {
	tmpl, err := b.templates.Get(name)
	if err != nil {
		return nil, err
	}
	a, err := b.agent(tmpl.Agent)
	if err != nil {
		return nil, err
	}
	if missing := prompt.Missing(tmpl.Description, inputs); len(missing) > 0 {
		return nil, errors.MissingInputError(string(name), missing[0], missing)
	}
	description := prompt.Render(tmpl.Description, inputs)
	return core.NewTask(name, description, tmpl.ExpectedOutput, a), nil
}

// Requires returns the input keys the named template needs.
func (b *Builder) Requires(name core.TaskName) ([]string, error) {
	return b.templates.Placeholders(name)
}

func (b *Builder) agent(role core.AgentRole) (core.Agent, error) {
	a, ok := b.agents[role]
	if !ok {
		return nil, errors.ConfigurationError("agent instance", string(role))
	}
	return a, nil
}
