// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/scriptcrew/pkg/config"
	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/errors"
	"github.com/jllopis/scriptcrew/pkg/prompt"
)

func defaultCatalogs(t *testing.T) (map[string]config.AgentConfig, map[string]config.TaskConfig) {
	t.Helper()
	agents, err := config.DefaultAgents()
	require.NoError(t, err)
	tasks, err := config.DefaultTasks()
	require.NoError(t, err)
	return agents, tasks
}

func TestLoadDefaultCatalog(t *testing.T) {
	agentCat, taskCat := defaultCatalogs(t)

	agents, templates, err := Load(&config.Config{Agents: agentCat, Tasks: taskCat})
	require.NoError(t, err)

	def, err := agents.Get(core.RoleArtDirector)
	require.NoError(t, err)
	assert.Equal(t, "Art Director", def.Label)
	assert.NotEmpty(t, def.Goal)

	tmpl, err := templates.Get(core.TaskGenerateArtDirection)
	require.NoError(t, err)
	assert.Equal(t, core.RoleArtDirector, tmpl.Agent)

	keys, err := templates.Placeholders(core.TaskRefineScript)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"script", "feedback", "niche", "audience", "keywords"}, keys)
}

func TestGetUnknownIsConfigurationError(t *testing.T) {
	agentCat, taskCat := defaultCatalogs(t)
	agents, templates, err := Load(&config.Config{Agents: agentCat, Tasks: taskCat})
	require.NoError(t, err)

	_, err = agents.Get(core.AgentRole("copywriter"))
	assert.True(t, errors.Is(err, errors.CodeConfiguration))

	_, err = templates.Get(core.TaskName("translate"))
	assert.True(t, errors.Is(err, errors.CodeConfiguration))
}

func TestNewAgentsValidation(t *testing.T) {
	agentCat, _ := defaultCatalogs(t)

	t.Run("missing role", func(t *testing.T) {
		cat := map[string]config.AgentConfig{}
		for k, v := range agentCat {
			if k != "script_refiner" {
				cat[k] = v
			}
		}
		_, err := NewAgents(cat)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeConfiguration))
		assert.Contains(t, err.Error(), "script_refiner")
	})

	t.Run("unknown role", func(t *testing.T) {
		cat := map[string]config.AgentConfig{"copywriter": {Role: "x", Goal: "y", Backstory: "z"}}
		for k, v := range agentCat {
			cat[k] = v
		}
		_, err := NewAgents(cat)
		assert.True(t, errors.Is(err, errors.CodeConfiguration))
	})

	t.Run("empty goal", func(t *testing.T) {
		cat := map[string]config.AgentConfig{}
		for k, v := range agentCat {
			cat[k] = v
		}
		cat["art_director"] = config.AgentConfig{Role: "AD", Goal: "  ", Backstory: "b"}
		_, err := NewAgents(cat)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "goal")
	})
}

func TestNewTemplatesValidation(t *testing.T) {
	agentCat, taskCat := defaultCatalogs(t)
	agents, err := NewAgents(agentCat)
	require.NoError(t, err)

	clone := func() map[string]config.TaskConfig {
		out := make(map[string]config.TaskConfig, len(taskCat))
		for k, v := range taskCat {
			out[k] = v
		}
		return out
	}

	t.Run("unknown agent reference", func(t *testing.T) {
		cat := clone()
		entry := cat["generate_script"]
		entry.Agent = "copywriter"
		cat["generate_script"] = entry
		_, err := NewTemplates(cat, agents)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeConfiguration))
	})

	t.Run("missing template", func(t *testing.T) {
		cat := clone()
		delete(cat, "refine_script")
		_, err := NewTemplates(cat, agents)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "refine_script")
	})

	t.Run("unknown template", func(t *testing.T) {
		cat := clone()
		cat["translate_script"] = config.TaskConfig{Description: "d", ExpectedOutput: "e", Agent: "script_refiner"}
		_, err := NewTemplates(cat, agents)
		assert.True(t, errors.Is(err, errors.CodeConfiguration))
	})

	t.Run("malformed placeholder", func(t *testing.T) {
		for _, description := range []string{
			"Feature {key words} for {niche}",
			"About {niche }",
			"Item {1st}",
			"Stray } brace",
		} {
			cat := clone()
			entry := cat["generate_script"]
			entry.Description = description
			cat["generate_script"] = entry
			_, err := NewTemplates(cat, agents)
			require.Error(t, err, description)
			assert.True(t, errors.Is(err, errors.CodeConfiguration), description)
			assert.ErrorIs(t, err, prompt.ErrInvalidPlaceholder)
			assert.Contains(t, err.Error(), "generate_script")
		}
	})

	t.Run("escaped braces accepted", func(t *testing.T) {
		cat := clone()
		entry := cat["generate_script"]
		entry.Description = "Reply as {{\"script\": ...}} about {niche}"
		cat["generate_script"] = entry
		templates, err := NewTemplates(cat, agents)
		require.NoError(t, err)
		keys, err := templates.Placeholders(core.TaskGenerateScript)
		require.NoError(t, err)
		assert.Equal(t, []string{"niche"}, keys)
	})
}
