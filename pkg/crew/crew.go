// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package crew builds tasks from templates and executes them sequentially
// against their bound agents.
package crew

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/scriptcrew/pkg/audit"
	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/errors"
	"github.com/jllopis/scriptcrew/pkg/telemetry"
)

// Crew runs tasks one after another. It keeps no state between calls, so a
// single Crew may serve concurrent, independent runs.
type Crew struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	emitter core.EventEmitter
	audit   audit.Store
	metrics *telemetry.PipelineMetrics
}

// Option configures a Crew.
type Option func(*Crew)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crew) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEventEmitter sets the receiver for stage events.
func WithEventEmitter(emitter core.EventEmitter) Option {
	return func(c *Crew) {
		if emitter != nil {
			c.emitter = emitter
		}
	}
}

// WithAuditStore records one audit event per executed stage.
func WithAuditStore(store audit.Store) Option {
	return func(c *Crew) {
		if store != nil {
			c.audit = store
		}
	}
}

// WithMetrics enables stage metrics.
func WithMetrics(metrics *telemetry.PipelineMetrics) Option {
	return func(c *Crew) { c.metrics = metrics }
}

// New creates a Crew.
func New(opts ...Option) *Crew {
	c := &Crew{
		tracer:  otel.Tracer("scriptcrew/crew"),
		logger:  slog.Default(),
		emitter: core.NoopEventEmitter{},
		audit:   audit.Discard{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute invokes each task's agent exactly once, in order, and collects
// every output under the task's artifact key. Later artifacts with the same
// key replace earlier ones.
//
// The first failing stage aborts the run: no later task is started and the
// returned Result is nil.
func (c *Crew) Execute(ctx context.Context, tasks ...*core.Task) (core.Result, error) {
	for i, task := range tasks {
		if task == nil {
			return nil, errors.InvalidInputError("task is nil").WithContext("position", i)
		}
		if task.Agent == nil {
			return nil, errors.ConfigurationError("agent instance", string(task.Name)).
				WithContext("task_id", task.ID)
		}
	}

	result := make(core.Result, len(tasks))
	for _, task := range tasks {
		output, err := c.runStage(ctx, task)
		if err != nil {
			return nil, err
		}
		result[task.Artifact()] = output
	}
	return result, nil
}

func (c *Crew) runStage(ctx context.Context, task *core.Task) (string, error) {
	role := task.Agent.Definition().Role
	runID, _ := core.RunID(ctx)

	ctx, span := c.tracer.Start(ctx, "Crew.Stage",
		trace.WithAttributes(
			attribute.String(telemetry.AttrRunID, runID),
			attribute.String(telemetry.AttrTaskID, task.ID),
			attribute.String(telemetry.AttrTaskName, string(task.Name)),
			attribute.String(telemetry.AttrAgentRole, string(role)),
		),
	)
	defer span.End()

	task.Start()
	c.logger.InfoContext(ctx, "stage started",
		slog.String("task", string(task.Name)),
		slog.String("task_id", task.ID),
		slog.String("agent_role", string(role)),
	)
	c.emitter.Emit(ctx, core.NewEvent(ctx, core.EventStageStarted, task.Name, role, map[string]any{
		"task_id": task.ID,
	}))

	output, err := c.generate(ctx, task, role)
	elapsed := time.Since(task.StartedAt)
	if err != nil {
		task.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(telemetry.AttrErrorCode, string(errors.CodeOf(err))))
		c.logger.ErrorContext(ctx, "stage failed",
			slog.String("task", string(task.Name)),
			slog.String("task_id", task.ID),
			slog.String("agent_role", string(role)),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		c.emitter.Emit(ctx, core.NewEvent(ctx, core.EventStageFailed, task.Name, role, map[string]any{
			"task_id": task.ID,
			"error":   err.Error(),
		}))
	} else {
		task.Complete(output)
		span.SetStatus(codes.Ok, "")
		c.logger.InfoContext(ctx, "stage completed",
			slog.String("task", string(task.Name)),
			slog.String("task_id", task.ID),
			slog.String("agent_role", string(role)),
			slog.Duration("elapsed", elapsed),
			slog.Int("output_len", len(output)),
		)
		c.emitter.Emit(ctx, core.NewEvent(ctx, core.EventStageComplete, task.Name, role, map[string]any{
			"task_id":  task.ID,
			"artifact": task.Artifact(),
		}))
	}
	c.metrics.RecordStage(ctx, string(task.Name), string(role), elapsed, err)
	c.record(ctx, runID, task, role)
	return output, err
}

func (c *Crew) generate(ctx context.Context, task *core.Task, role core.AgentRole) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.New(errors.CodeContextLost, "run cancelled before stage", err).
			WithContext("stage", string(task.Name))
	}
	output, err := task.Agent.Generate(ctx, task.Description, task.ExpectedOutput)
	if err != nil {
		return "", errors.GenerationError(string(task.Name), string(role), err)
	}
	return output, nil
}

func (c *Crew) record(ctx context.Context, runID string, task *core.Task, role core.AgentRole) {
	event := audit.Event{
		RunID:      runID,
		TaskID:     task.ID,
		TaskName:   string(task.Name),
		AgentRole:  string(role),
		Status:     string(task.Status),
		Error:      task.Error,
		StartedAt:  task.StartedAt,
		FinishedAt: task.FinishedAt,
	}
	if err := c.audit.Record(context.WithoutCancel(ctx), event); err != nil {
		c.logger.WarnContext(ctx, "audit record failed",
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()),
		)
	}
}
