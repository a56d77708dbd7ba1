// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package crewtest provides fixtures for testing pipeline code against the
// built-in catalogs and a deterministic provider.
package crewtest

import (
	"context"
	"sync"
	"testing"

	"github.com/jllopis/scriptcrew/pkg/agent"
	"github.com/jllopis/scriptcrew/pkg/config"
	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/llm"
	"github.com/jllopis/scriptcrew/pkg/registry"
)

// CoffeeBrief is the reference brief used across pipeline tests.
var CoffeeBrief = core.Inputs{
	core.InputNiche:    "coffee",
	core.InputKeywords: "organic, fair-trade",
	core.InputAudience: "young professionals",
}

// Registries loads the embedded default catalogs.
func Registries(tb testing.TB) (*registry.Agents, *registry.Templates) {
	tb.Helper()
	agentCat, err := config.DefaultAgents()
	if err != nil {
		tb.Fatalf("default agents: %v", err)
	}
	taskCat, err := config.DefaultTasks()
	if err != nil {
		tb.Fatalf("default tasks: %v", err)
	}
	defs, templates, err := registry.Load(&config.Config{Agents: agentCat, Tasks: taskCat})
	if err != nil {
		tb.Fatalf("load registries: %v", err)
	}
	return defs, templates
}

// Agents binds every default role to provider and returns them with the
// default template registry.
func Agents(tb testing.TB, provider llm.Provider) (*registry.Templates, map[core.AgentRole]core.Agent) {
	tb.Helper()
	defs, templates := Registries(tb)
	agents := make(map[core.AgentRole]core.Agent, len(core.AgentRoles()))
	for _, role := range core.AgentRoles() {
		def, err := defs.Get(role)
		if err != nil {
			tb.Fatalf("agent %s: %v", role, err)
		}
		a, err := agent.New(def, provider)
		if err != nil {
			tb.Fatalf("agent %s: %v", role, err)
		}
		agents[role] = a
	}
	return templates, agents
}

// EventRecorder collects emitted events. It is safe for concurrent use.
type EventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

// Emit implements core.EventEmitter.
func (r *EventRecorder) Emit(_ context.Context, ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *EventRecorder) Types() []core.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
