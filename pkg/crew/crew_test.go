// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/scriptcrew/pkg/audit"
	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/crewtest"
	"github.com/jllopis/scriptcrew/pkg/errors"
	"github.com/jllopis/scriptcrew/pkg/llm"
)

var coffeeBrief = crewtest.CoffeeBrief

type fixture struct {
	provider *llm.ScriptedMockProvider
	builder  *Builder
	crew     *Crew
	audit    *audit.MemoryStore
	events   *crewtest.EventRecorder
}

func newFixture(t *testing.T, provider *llm.ScriptedMockProvider) *fixture {
	t.Helper()
	templates, agents := crewtest.Agents(t, provider)
	builder, err := NewBuilder(templates, agents)
	require.NoError(t, err)

	store := audit.NewMemoryStore()
	events := &crewtest.EventRecorder{}
	return &fixture{
		provider: provider,
		builder:  builder,
		crew:     New(WithAuditStore(store), WithEventEmitter(events)),
		audit:    store,
		events:   events,
	}
}

func TestBuildRendersTemplate(t *testing.T) {
	f := newFixture(t, llm.NewScriptedMockProvider())

	task, err := f.builder.Build(core.TaskGenerateScript, coffeeBrief)
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, core.TaskStatusPending, task.Status)
	assert.Equal(t, core.RoleScriptGenerator, task.Agent.Definition().Role)
	assert.Contains(t, task.Description, "coffee")
	assert.Contains(t, task.Description, "organic, fair-trade")
	assert.Contains(t, task.Description, "young professionals")
	assert.NotContains(t, task.Description, "{niche}")
	assert.NotEmpty(t, task.ExpectedOutput)
	assert.Zero(t, f.provider.CallCount())
}

func TestBuildIgnoresExtraInputs(t *testing.T) {
	f := newFixture(t, llm.NewScriptedMockProvider())

	task, err := f.builder.Build(core.TaskGenerateScript, coffeeBrief.With("tone", "playful"))
	require.NoError(t, err)
	assert.NotContains(t, task.Description, "playful")
}

func TestBuildMissingInput(t *testing.T) {
	f := newFixture(t, llm.NewScriptedMockProvider("unused"))

	_, err := f.builder.Build(core.TaskGenerateScript, core.Inputs{core.InputNiche: "coffee"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeMissingInput))

	se := errors.AsScriptError(err)
	assert.Equal(t, "audience", se.Context["key"])
	assert.Equal(t, []string{"audience", "keywords"}, se.Context["missing"])
	assert.Zero(t, f.provider.CallCount())
}

func TestBuildArtDirectionRequiresScript(t *testing.T) {
	f := newFixture(t, llm.NewScriptedMockProvider())

	_, err := f.builder.Build(core.TaskGenerateArtDirection, coffeeBrief)
	require.Error(t, err)
	assert.Equal(t, "script", errors.AsScriptError(err).Context["key"])
}

func TestBuildIsDeterministic(t *testing.T) {
	f := newFixture(t, llm.NewScriptedMockProvider())
	inputs := coffeeBrief.With(core.ArtifactScript, "Wake up to {fresh} coffee.")

	for _, name := range []core.TaskName{core.TaskGenerateScript, core.TaskGenerateArtDirection} {
		first, err := f.builder.Build(name, inputs)
		require.NoError(t, err)
		second, err := f.builder.Build(name, inputs)
		require.NoError(t, err)
		assert.Equal(t, first.Description, second.Description)
		assert.NotEqual(t, first.ID, second.ID)
	}
}

func TestBuildUnknownTemplate(t *testing.T) {
	f := newFixture(t, llm.NewScriptedMockProvider())

	_, err := f.builder.Build(core.TaskName("write_jingle"), coffeeBrief)
	assert.True(t, errors.Is(err, errors.CodeConfiguration))
}

func TestNewBuilderRequiresEveryAgent(t *testing.T) {
	f := newFixture(t, llm.NewScriptedMockProvider())

	_, err := NewBuilder(f.builder.templates, map[core.AgentRole]core.Agent{
		core.RoleScriptGenerator: f.builder.agents[core.RoleScriptGenerator],
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConfiguration))
}

func TestExecuteRunsTasksInOrder(t *testing.T) {
	f := newFixture(t, llm.NewScriptedMockProvider("SCRIPT", "VISUALS"))

	script, err := f.builder.Build(core.TaskGenerateScript, coffeeBrief)
	require.NoError(t, err)
	art, err := f.builder.Build(core.TaskGenerateArtDirection, coffeeBrief.With(core.ArtifactScript, "draft"))
	require.NoError(t, err)

	ctx := core.WithRunID(context.Background(), "run-order")
	result, err := f.crew.Execute(ctx, script, art)
	require.NoError(t, err)

	assert.Equal(t, core.Result{core.ArtifactScript: "SCRIPT", core.ArtifactArtDirection: "VISUALS"}, result)
	reqs := f.provider.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].LastUser(), "Write an advertising script")
	assert.Contains(t, reqs[1].LastUser(), "Create art direction")
	assert.Equal(t, core.TaskStatusCompleted, script.Status)
	assert.Equal(t, "VISUALS", art.Output)

	assert.Equal(t, []core.EventType{
		core.EventStageStarted, core.EventStageComplete,
		core.EventStageStarted, core.EventStageComplete,
	}, f.events.Types())

	events, err := f.audit.List(ctx, audit.Filter{RunID: "run-order"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "generate_script", events[0].TaskName)
	assert.Equal(t, "art_director", events[1].AgentRole)
	assert.Equal(t, "completed", events[1].Status)
}

func TestExecuteAbortsOnFirstFailure(t *testing.T) {
	provider := llm.NewScriptedMockProvider("never used").FailOn(0, stderrors.New("model offline"))
	f := newFixture(t, provider)

	script, err := f.builder.Build(core.TaskGenerateScript, coffeeBrief)
	require.NoError(t, err)
	art, err := f.builder.Build(core.TaskGenerateArtDirection, coffeeBrief.With(core.ArtifactScript, "draft"))
	require.NoError(t, err)

	result, err := f.crew.Execute(core.WithRunID(context.Background(), "run-fail"), script, art)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, errors.CodeGeneration))
	assert.Contains(t, err.Error(), "model offline")

	assert.Equal(t, 1, provider.CallCount())
	assert.Equal(t, core.TaskStatusFailed, script.Status)
	assert.Equal(t, core.TaskStatusPending, art.Status)
	assert.Equal(t, []core.EventType{core.EventStageStarted, core.EventStageFailed}, f.events.Types())

	events, err := f.audit.List(context.Background(), audit.Filter{Status: "failed"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "run-fail", events[0].RunID)
	assert.Contains(t, events[0].Error, "model offline")
}

func TestExecuteRejectsNilTask(t *testing.T) {
	f := newFixture(t, llm.NewScriptedMockProvider("x"))

	_, err := f.crew.Execute(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
	assert.Zero(t, f.provider.CallCount())
}

func TestExecuteCancelledContext(t *testing.T) {
	f := newFixture(t, llm.NewScriptedMockProvider("x"))
	task, err := f.builder.Build(core.TaskGenerateScript, coffeeBrief)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.crew.Execute(ctx, task)
	assert.True(t, errors.Is(err, errors.CodeContextLost))
	assert.Zero(t, f.provider.CallCount())
}

func TestExecuteConcurrentRuns(t *testing.T) {
	provider := llm.NewScriptedMockProvider()
	for i := 0; i < 8; i++ {
		provider.AddResponse("SCRIPT")
	}
	f := newFixture(t, provider)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task, err := f.builder.Build(core.TaskGenerateScript, coffeeBrief)
			if !assert.NoError(t, err) {
				return
			}
			result, err := f.crew.Execute(context.Background(), task)
			assert.NoError(t, err)
			assert.Equal(t, "SCRIPT", result.Get(core.ArtifactScript))
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, provider.CallCount())
}
