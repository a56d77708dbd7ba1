// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent binds an agent persona to a generation backend.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/llm"
)

var ErrMissingProvider = errors.New("agent llm provider is required")

// Agent is a stateless request/response generator for one role.
// It is safe for concurrent use when its provider is.
type Agent struct {
	def         core.AgentDefinition
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int64
	tracer      trace.Tracer
}

// Option configures an Agent instance.
type Option func(*Agent) error

// New creates an Agent for def backed by provider.
func New(def core.AgentDefinition, provider llm.Provider, opts ...Option) (*Agent, error) {
	if def.Role == "" {
		return nil, errors.New("agent role is required")
	}
	if provider == nil {
		return nil, ErrMissingProvider
	}
	a := &Agent{
		def:      def,
		provider: provider,
		tracer:   otel.Tracer("scriptcrew/agent"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// WithModel sets the model name sent with every request.
func WithModel(model string) Option {
	return func(a *Agent) error {
		a.model = model
		return nil
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *Agent) error {
		if t < 0 || t > 2 {
			return fmt.Errorf("temperature %.2f out of range [0,2]", t)
		}
		a.temperature = t
		return nil
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int64) Option {
	return func(a *Agent) error {
		a.maxTokens = n
		return nil
	}
}

// Definition returns the persona this agent generates with.
func (a *Agent) Definition() core.AgentDefinition { return a.def }

// Generate sends one rendered task to the provider and returns its text.
// Output is returned as-is; callers treat it as opaque.
func (a *Agent) Generate(ctx context.Context, description, expectedOutput string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "Agent.Generate",
		trace.WithAttributes(
			attribute.String("agent.role", string(a.def.Role)),
			attribute.String("llm.model", a.model),
		),
	)
	defer span.End()

	resp, err := a.provider.Chat(ctx, llm.ChatRequest{
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt(a.def)},
			{Role: llm.RoleUser, Content: TaskPrompt(description, expectedOutput)},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(
		attribute.Int("llm.tokens.prompt", resp.Usage.PromptTokens),
		attribute.Int("llm.tokens.completion", resp.Usage.CompletionTokens),
	)
	return resp.Content, nil
}

// SystemPrompt renders the persona part of the conversation.
func SystemPrompt(def core.AgentDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n", def.Label, def.Backstory)
	fmt.Fprintf(&b, "Your personal goal is: %s", def.Goal)
	return b.String()
}

// TaskPrompt renders the task part of the conversation. The description
// is embedded verbatim so artifacts threaded into it reach the model intact.
func TaskPrompt(description, expectedOutput string) string {
	var b strings.Builder
	b.WriteString(description)
	if expectedOutput != "" {
		b.WriteString("\n\nThis is the expected criteria for your final answer: ")
		b.WriteString(expectedOutput)
		b.WriteString("\nReturn the complete content as your final answer, not a summary.")
	}
	return b.String()
}

var _ core.Agent = (*Agent)(nil)
