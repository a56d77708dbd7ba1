// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/llm"
)

var writer = core.AgentDefinition{
	Role:      core.RoleScriptGenerator,
	Label:     "Ad Script Writer",
	Goal:      "Write persuasive scripts.",
	Backstory: "You have written hundreds of ads.",
}

func TestNewValidation(t *testing.T) {
	_, err := New(core.AgentDefinition{}, &llm.MockProvider{})
	assert.Error(t, err)

	_, err = New(writer, nil)
	assert.ErrorIs(t, err, ErrMissingProvider)

	_, err = New(writer, &llm.MockProvider{}, WithTemperature(3))
	assert.Error(t, err)
}

func TestGenerateBuildsConversation(t *testing.T) {
	mock := llm.NewScriptedMockProvider("Coffee that cares.")
	a, err := New(writer, mock, WithModel("llama3.1"), WithTemperature(0.4), WithMaxTokens(300))
	require.NoError(t, err)

	out, err := a.Generate(context.Background(), "Write an ad for coffee.\n", "A 30 second script.")
	require.NoError(t, err)
	assert.Equal(t, "Coffee that cares.", out)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "llama3.1", req.Model)
	assert.Equal(t, 0.4, req.Temperature)
	assert.EqualValues(t, 300, req.MaxTokens)
	assert.Contains(t, req.System(), "Ad Script Writer")
	assert.Contains(t, req.System(), "Write persuasive scripts.")
	assert.Contains(t, req.LastUser(), "Write an ad for coffee.")
	assert.Contains(t, req.LastUser(), "A 30 second script.")
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	boom := stderrors.New("model offline")
	a, err := New(writer, &llm.FailingMockProvider{Err: boom})
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), "d", "e")
	assert.ErrorIs(t, err, boom)
}

func TestDefinition(t *testing.T) {
	a, err := New(writer, &llm.MockProvider{})
	require.NoError(t, err)
	assert.Equal(t, writer, a.Definition())
}

func TestTaskPromptWithoutExpectedOutput(t *testing.T) {
	assert.Equal(t, "  just do it\n", TaskPrompt("  just do it\n", ""))
}
