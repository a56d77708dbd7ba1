// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry holds the agent and task-template catalogs.
//
// Both registries are built once from configuration, validated against the
// closed sets of roles and templates in core, and are read-only afterwards.
// They are safe for concurrent use without locking.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jllopis/scriptcrew/pkg/config"
	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/errors"
	"github.com/jllopis/scriptcrew/pkg/prompt"
)

// Agents is the AgentDefinition catalog.
type Agents struct {
	defs map[core.AgentRole]core.AgentDefinition
}

// NewAgents validates the agent catalog. Every known role must be present
// with a non-empty role label, goal and backstory; unknown keys are rejected.
func NewAgents(catalog map[string]config.AgentConfig) (*Agents, error) {
	defs := make(map[core.AgentRole]core.AgentDefinition, len(catalog))
	for _, key := range sortedKeys(catalog) {
		role, err := core.ParseAgentRole(key)
		if err != nil {
			return nil, errors.New(errors.CodeConfiguration, "invalid agent catalog", err).
				WithContext("key", key)
		}
		entry := catalog[key]
		if err := requireFields("agent "+key, map[string]string{
			"role":      entry.Role,
			"goal":      entry.Goal,
			"backstory": entry.Backstory,
		}); err != nil {
			return nil, err
		}
		defs[role] = core.AgentDefinition{
			Role:      role,
			Label:     strings.TrimSpace(entry.Role),
			Goal:      strings.TrimSpace(entry.Goal),
			Backstory: strings.TrimSpace(entry.Backstory),
		}
	}
	for _, role := range core.AgentRoles() {
		if _, ok := defs[role]; !ok {
			return nil, errors.ConfigurationError("agent role", string(role))
		}
	}
	return &Agents{defs: defs}, nil
}

// Get returns the definition for role.
func (a *Agents) Get(role core.AgentRole) (core.AgentDefinition, error) {
	def, ok := a.defs[role]
	if !ok {
		return core.AgentDefinition{}, errors.ConfigurationError("agent role", string(role))
	}
	return def, nil
}

// Templates is the TaskTemplate catalog.
type Templates struct {
	templates map[core.TaskName]core.TaskTemplate
}

// NewTemplates validates the task catalog against the agent registry so a
// template can never reference a role that does not exist. Descriptions with
// malformed placeholders are rejected here rather than when a task is built.
func NewTemplates(catalog map[string]config.TaskConfig, agents *Agents) (*Templates, error) {
	templates := make(map[core.TaskName]core.TaskTemplate, len(catalog))
	for _, key := range sortedKeys(catalog) {
		name, err := core.ParseTaskName(key)
		if err != nil {
			return nil, errors.New(errors.CodeConfiguration, "invalid task catalog", err).
				WithContext("key", key)
		}
		entry := catalog[key]
		if err := requireFields("task "+key, map[string]string{
			"description":     entry.Description,
			"expected_output": entry.ExpectedOutput,
			"agent":           entry.Agent,
		}); err != nil {
			return nil, err
		}
		if err := prompt.Validate(entry.Description); err != nil {
			return nil, errors.New(errors.CodeConfiguration, "invalid task template "+key, err).
				WithContext("template", key)
		}
		role, err := core.ParseAgentRole(entry.Agent)
		if err != nil {
			return nil, errors.ConfigurationError("agent role", entry.Agent).
				WithContext("template", key)
		}
		if _, err := agents.Get(role); err != nil {
			return nil, err
		}
		templates[name] = core.TaskTemplate{
			Name:           name,
			Description:    entry.Description,
			ExpectedOutput: strings.TrimSpace(entry.ExpectedOutput),
			Agent:          role,
		}
	}
	for _, name := range core.TaskNames() {
		if _, ok := templates[name]; !ok {
			return nil, errors.ConfigurationError("task template", string(name))
		}
	}
	return &Templates{templates: templates}, nil
}

// Get returns the template registered under name.
func (t *Templates) Get(name core.TaskName) (core.TaskTemplate, error) {
	tmpl, ok := t.templates[name]
	if !ok {
		return core.TaskTemplate{}, errors.ConfigurationError("task template", string(name))
	}
	return tmpl, nil
}

// Placeholders returns the input keys the named template requires.
func (t *Templates) Placeholders(name core.TaskName) ([]string, error) {
	tmpl, err := t.Get(name)
	if err != nil {
		return nil, err
	}
	return prompt.Placeholders(tmpl.Description), nil
}

// Load builds both registries from a loaded configuration.
func Load(cfg *config.Config) (*Agents, *Templates, error) {
	agents, err := NewAgents(cfg.Agents)
	if err != nil {
		return nil, nil, err
	}
	templates, err := NewTemplates(cfg.Tasks, agents)
	if err != nil {
		return nil, nil, err
	}
	return agents, templates, nil
}

func requireFields(owner string, fields map[string]string) error {
	for _, name := range sortedKeys(fields) {
		if strings.TrimSpace(fields[name]) == "" {
			return errors.New(errors.CodeConfiguration, fmt.Sprintf("%s: %s is required", owner, name), nil)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
