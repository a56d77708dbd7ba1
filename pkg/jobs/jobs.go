// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package jobs is the entry point for generating and refining ad scripts.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/crew"
	"github.com/jllopis/scriptcrew/pkg/errors"
	"github.com/jllopis/scriptcrew/pkg/telemetry"
)

const (
	opGenerate = "generate"
	opRefine   = "refine"
)

// Brief is the client request for a new script.
type Brief struct {
	Niche    string `json:"niche"`
	Keywords string `json:"keywords"`
	Audience string `json:"audience"`
}

// Inputs returns the brief as a template context.
func (b Brief) Inputs() core.Inputs {
	return core.Inputs{
		core.InputNiche:    b.Niche,
		core.InputKeywords: b.Keywords,
		core.InputAudience: b.Audience,
	}
}

// GenerateResult holds both artifacts of a generate run.
type GenerateResult struct {
	Script       string `json:"script"`
	ArtDirection string `json:"art_direction"`
}

// RefineResult holds the revised script.
type RefineResult struct {
	Script string `json:"script"`
}

// Manager runs generate and refine jobs. Runs share nothing mutable, so a
// Manager may serve concurrent callers.
type Manager struct {
	pipeline *crew.Pipeline
	logger   *slog.Logger
	metrics  *telemetry.PipelineMetrics
	emitter  core.EventEmitter
	tracer   trace.Tracer
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics enables run metrics.
func WithMetrics(metrics *telemetry.PipelineMetrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithEventEmitter sets the receiver for run events.
func WithEventEmitter(emitter core.EventEmitter) Option {
	return func(m *Manager) {
		if emitter != nil {
			m.emitter = emitter
		}
	}
}

// NewManager creates a Manager over a builder and a long-lived crew.
func NewManager(builder *crew.Builder, c *crew.Crew, opts ...Option) *Manager {
	m := &Manager{
		pipeline: crew.NewPipeline(builder, c),
		logger:   slog.Default(),
		emitter:  core.NoopEventEmitter{},
		tracer:   otel.Tracer("scriptcrew/jobs"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate writes a script for the brief, then art direction for that script.
func (m *Manager) Generate(ctx context.Context, brief Brief) (GenerateResult, error) {
	var out GenerateResult
	err := m.run(ctx, opGenerate, func(ctx context.Context) error {
		result, err := m.pipeline.Run(ctx, brief.Inputs(), core.TaskGenerateScript, core.TaskGenerateArtDirection)
		if err != nil {
			return err
		}
		out = GenerateResult{
			Script:       result.Get(core.ArtifactScript),
			ArtDirection: result.Get(core.ArtifactArtDirection),
		}
		return nil
	}, slog.String("niche", brief.Niche))
	if err != nil {
		return GenerateResult{}, err
	}
	return out, nil
}

// Refine revises script against feedback. original carries the brief the
// script was generated from and is laid over script and feedback, so a
// same-named key in original replaces the explicit argument.
func (m *Manager) Refine(ctx context.Context, script, feedback string, original core.Inputs) (RefineResult, error) {
	var out RefineResult
	err := m.run(ctx, opRefine, func(ctx context.Context) error {
		inputs := core.Inputs{
			core.ArtifactScript: script,
			core.InputFeedback:  feedback,
		}.Merge(original)
		result, err := m.pipeline.Run(ctx, inputs, core.TaskRefineScript)
		if err != nil {
			return err
		}
		out = RefineResult{Script: result.Get(core.ArtifactScript)}
		return nil
	}, slog.Int("script_len", len(script)))
	if err != nil {
		return RefineResult{}, err
	}
	return out, nil
}

func (m *Manager) run(ctx context.Context, op string, fn func(context.Context) error, attrs ...any) error {
	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := m.tracer.Start(ctx, "Jobs."+op,
		trace.WithAttributes(
			attribute.String(telemetry.AttrRunID, runID),
			attribute.String(telemetry.AttrOperation, op),
		),
	)
	defer span.End()

	start := time.Now()
	m.logger.InfoContext(ctx, op+" started", attrs...)
	m.emitter.Emit(ctx, core.NewEvent(ctx, core.EventRunStarted, "", "", map[string]any{"operation": op}))

	err := fn(ctx)
	m.metrics.RecordRun(ctx, op, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.ErrorContext(ctx, op+" failed",
			slog.String("error_code", string(errors.CodeOf(err))),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		m.emitter.Emit(ctx, core.NewEvent(ctx, core.EventRunFailed, "", "", map[string]any{
			"operation": op,
			"error":     err.Error(),
		}))
		return err
	}
	span.SetStatus(codes.Ok, "")
	m.logger.InfoContext(ctx, op+" completed", slog.Duration("elapsed", time.Since(start)))
	m.emitter.Emit(ctx, core.NewEvent(ctx, core.EventRunCompleted, "", "", map[string]any{"operation": op}))
	return nil
}
