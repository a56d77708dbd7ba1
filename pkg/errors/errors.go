// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for scriptcrew.
//
// Every failure surfaced by the orchestration core carries an ErrorCode so the
// boundary layers (HTTP, CLI) can log and translate it without inspecting text.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies scriptcrew errors for monitoring and translation.
type ErrorCode string

const (
	// CodeConfiguration indicates a missing agent role or task template.
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// CodeMissingInput indicates a template placeholder had no value.
	CodeMissingInput ErrorCode = "MISSING_INPUT"

	// CodeGeneration indicates the generation capability failed for a stage.
	CodeGeneration ErrorCode = "GENERATION_ERROR"

	// CodeInvalidInput indicates the caller supplied an unusable request.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeContextLost indicates the caller context ended mid-operation.
	CodeContextLost ErrorCode = "CONTEXT_LOST"

	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// ScriptError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type ScriptError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *ScriptError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *ScriptError) MarshalJSON() ([]byte, error) {
	out := struct {
		Message     string                 `json:"message"`
		Code        string                 `json:"code"`
		Err         string                 `json:"error,omitempty"`
		Recoverable bool                   `json:"recoverable"`
		Context     map[string]interface{} `json:"context,omitempty"`
		Attributes  map[string]string      `json:"attributes,omitempty"`
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Recoverable: e.Recoverable,
		Context:     e.Context,
		Attributes:  e.Attributes,
	}
	if e.Err != nil {
		out.Err = e.Err.Error()
	}
	return json.Marshal(out)
}

// New creates a new ScriptError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *ScriptError {
	return &ScriptError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *ScriptError) WithContext(key string, value interface{}) *ScriptError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *ScriptError) WithAttribute(key, value string) *ScriptError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *ScriptError) WithRecoverable(recoverable bool) *ScriptError {
	e.Recoverable = recoverable
	return e
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *ScriptError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// AsScriptError finds the first ScriptError in err's chain.
// Errors of any other type are wrapped as CodeInternal.
func AsScriptError(err error) *ScriptError {
	if err == nil {
		return nil
	}
	var se *ScriptError
	if stderrors.As(err, &se) {
		return se
	}
	return New(CodeInternal, "wrapped error", err)
}

// CodeOf returns the code of the first ScriptError in err's chain,
// or CodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return AsScriptError(err).Code
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	var se *ScriptError
	if !stderrors.As(err, &se) {
		return false
	}
	return se.Code == code
}

// ConfigurationError reports a registry lookup that referenced an unknown name.
func ConfigurationError(kind, name string) *ScriptError {
	return New(CodeConfiguration, fmt.Sprintf("%s %q is not configured", kind, name), nil).
		WithContext("kind", kind).
		WithContext("name", name).
		WithRecoverable(false)
}

// MissingInputError reports a template placeholder absent from the input mapping.
func MissingInputError(template, key string, missing []string) *ScriptError {
	return New(CodeMissingInput, fmt.Sprintf("template %q requires input %q", template, key), nil).
		WithContext("template", template).
		WithContext("key", key).
		WithContext("missing", missing).
		WithAttribute("task.template", template).
		WithRecoverable(false)
}

// GenerationError wraps a failure of the generation capability for one stage.
func GenerationError(stage, role string, cause error) *ScriptError {
	return New(CodeGeneration, fmt.Sprintf("generation failed for stage %q", stage), cause).
		WithContext("stage", stage).
		WithContext("agent_role", role).
		WithAttribute("task.name", stage).
		WithAttribute("agent.role", role).
		WithRecoverable(true)
}

// InvalidInputError reports an unusable caller request.
func InvalidInputError(msg string) *ScriptError {
	return New(CodeInvalidInput, msg, nil).WithRecoverable(false)
}
