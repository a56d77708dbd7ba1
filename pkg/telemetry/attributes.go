// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

// Span, metric and log attribute keys shared across the pipeline.
const (
	AttrRunID     = "scriptcrew.run.id"
	AttrOperation = "scriptcrew.operation"
	AttrTaskID    = "scriptcrew.task.id"
	AttrTaskName  = "scriptcrew.task.name"
	AttrAgentRole = "scriptcrew.agent.role"
	AttrErrorCode = "error.code"
	AttrStatus    = "status"
)
