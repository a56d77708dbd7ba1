// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/errors"
	"github.com/jllopis/scriptcrew/pkg/jobs"
)

// inputsEnv holds the JSON input. When set it takes priority over the
// positional argument.
const inputsEnv = "CREW_INPUTS"

// Input fields are pointers so an absent field can be told apart from an
// empty string, which is accepted.
type briefInput struct {
	Niche    *string `json:"niche"`
	Keywords *string `json:"keywords"`
	Audience *string `json:"audience"`
}

func (in briefInput) brief() (jobs.Brief, error) {
	if err := requirePresent(map[string]bool{
		core.InputNiche:    in.Niche != nil,
		core.InputKeywords: in.Keywords != nil,
		core.InputAudience: in.Audience != nil,
	}); err != nil {
		return jobs.Brief{}, err
	}
	return jobs.Brief{Niche: *in.Niche, Keywords: *in.Keywords, Audience: *in.Audience}, nil
}

type refineInput struct {
	Script         *string        `json:"script"`
	Feedback       *string        `json:"feedback"`
	OriginalInputs map[string]any `json:"original_inputs"`
}

func (in refineInput) validate() error {
	return requirePresent(map[string]bool{
		core.ArtifactScript: in.Script != nil,
		core.InputFeedback:  in.Feedback != nil,
		"original_inputs":  in.OriginalInputs != nil,
	})
}

// requirePresent reports the first absent field in name order.
func requirePresent(present map[string]bool) error {
	for _, name := range slices.Sorted(maps.Keys(present)) {
		if !present[name] {
			return errors.InvalidInputError(name + " is required").WithContext("field", name)
		}
	}
	return nil
}

func newRunCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run [brief-json]",
		Short: "Generate a script and art direction once and print them as JSON",
		Long: `Generate a script and art direction from a JSON brief:

  scriptcrew run '{"niche":"coffee","keywords":"organic, fair-trade","audience":"young professionals"}'

When the CREW_INPUTS environment variable is set it is used instead of the argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := payload(args, os.Getenv(inputsEnv))
			if err != nil {
				return err
			}
			var in briefInput
			if err := json.Unmarshal([]byte(raw), &in); err != nil {
				return errors.InvalidInputError("brief is not valid JSON").WithContext("cause", err.Error())
			}
			brief, err := in.brief()
			if err != nil {
				return err
			}
			cfg, err := root.load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			out, err := a.manager.Generate(cmd.Context(), brief)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newRefineCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refine [request-json]",
		Short: "Refine a script against feedback and print the result as JSON",
		Long: `Refine a script from a JSON request:

  scriptcrew refine '{"script":"Buy now!","feedback":"make it warmer","original_inputs":{"niche":"coffee","keywords":"organic","audience":"young professionals"}}'

When the CREW_INPUTS environment variable is set it is used instead of the argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := payload(args, os.Getenv(inputsEnv))
			if err != nil {
				return err
			}
			var in refineInput
			if err := json.Unmarshal([]byte(raw), &in); err != nil {
				return errors.InvalidInputError("refine request is not valid JSON").WithContext("cause", err.Error())
			}
			if err := in.validate(); err != nil {
				return err
			}
			cfg, err := root.load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			out, err := a.manager.Refine(cmd.Context(), *in.Script, *in.Feedback, core.InputsFromJSON(in.OriginalInputs))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

// payload prefers the environment over the positional argument.
func payload(args []string, env string) (string, error) {
	if strings.TrimSpace(env) != "" {
		return env, nil
	}
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	return "", errors.InvalidInputError(fmt.Sprintf("no input: pass JSON as an argument or set %s", inputsEnv))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
