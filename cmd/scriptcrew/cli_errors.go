// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"

	"github.com/jllopis/scriptcrew/pkg/errors"
)

// hintFor suggests a next step for the common failure codes.
func hintFor(se *errors.ScriptError) string {
	switch se.Code {
	case errors.CodeMissingInput:
		if key, ok := se.Context["key"].(string); ok {
			return fmt.Sprintf("add %q to the JSON input", key)
		}
		return "check the JSON input covers every template placeholder"
	case errors.CodeInvalidInput:
		return "run with --help to see the expected input"
	case errors.CodeConfiguration:
		return "check the agents and tasks catalogs and the llm/audit settings in --config"
	case errors.CodeGeneration, errors.CodeTimeout:
		return "check that the llm provider is reachable, or raise resilience.max_attempts"
	default:
		return ""
	}
}

// printError writes err with its code and a hint when one applies.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if hint := hintFor(errors.AsScriptError(err)); hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", hint)
	}
}
