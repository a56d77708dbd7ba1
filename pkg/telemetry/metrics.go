// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/scriptcrew/pkg/errors"
)

const meterName = "scriptcrew/pipeline"

// PipelineMetrics tracks runs, stages and failures of the generation pipeline.
// Instruments are resolved against the global meter provider at creation, so
// build it after Init.
type PipelineMetrics struct {
	runCounter    metric.Int64Counter
	stageCounter  metric.Int64Counter
	errorCounter  metric.Int64Counter
	stageDuration metric.Float64Histogram
}

// NewPipelineMetrics creates the pipeline instruments.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter(meterName)

	runCounter, err := meter.Int64Counter(
		"scriptcrew.runs.total",
		metric.WithDescription("Pipeline runs by operation and status"),
	)
	if err != nil {
		return nil, err
	}

	stageCounter, err := meter.Int64Counter(
		"scriptcrew.stages.total",
		metric.WithDescription("Executed stages by task name, agent role and status"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"scriptcrew.errors.total",
		metric.WithDescription("Pipeline errors by code"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"scriptcrew.stage.duration",
		metric.WithDescription("Stage execution time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		runCounter:    runCounter,
		stageCounter:  stageCounter,
		errorCounter:  errorCounter,
		stageDuration: stageDuration,
	}, nil
}

// RecordRun counts a finished facade operation. A nil err counts as completed.
func (m *PipelineMetrics) RecordRun(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	m.runCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperation, operation),
		attribute.String(AttrStatus, statusOf(err)),
	))
	m.RecordError(ctx, err)
}

// RecordStage counts one executed stage and observes its duration.
func (m *PipelineMetrics) RecordStage(ctx context.Context, task, role string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrTaskName, task),
		attribute.String(AttrAgentRole, role),
		attribute.String(AttrStatus, statusOf(err)),
	)
	m.stageCounter.Add(ctx, 1, attrs)
	m.stageDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordError counts err by its error code. Nil errors are ignored.
func (m *PipelineMetrics) RecordError(ctx context.Context, err error) {
	if m == nil || err == nil {
		return
	}
	se := errors.AsScriptError(err)
	m.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrErrorCode, string(se.Code)),
		attribute.Bool("recoverable", se.Recoverable),
	))
}

func statusOf(err error) string {
	if err != nil {
		return "failed"
	}
	return "completed"
}
