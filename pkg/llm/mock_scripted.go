package llm

import (
	"context"
	"errors"
	"sync"
)

// ScriptedMockProvider returns a pre-defined sequence of responses and
// records every request it receives, in order.
type ScriptedMockProvider struct {
	mu        sync.Mutex
	Responses []string
	// Errors maps a zero-based call index to the error that call returns.
	Errors   map[int]error
	requests []ChatRequest
}

// NewScriptedMockProvider creates a new ScriptedMockProvider.
func NewScriptedMockProvider(responses ...string) *ScriptedMockProvider {
	return &ScriptedMockProvider{
		Responses: responses,
	}
}

// FailOn makes the call with the given zero-based index fail with err.
func (s *ScriptedMockProvider) FailOn(call int, err error) *ScriptedMockProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Errors == nil {
		s.Errors = make(map[int]error)
	}
	s.Errors[call] = err
	return s
}

// Chat pops the next scripted response or returns the configured error.
func (s *ScriptedMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := len(s.requests)
	s.requests = append(s.requests, req)

	if err, ok := s.Errors[call]; ok {
		return nil, err
	}
	if len(s.Responses) == 0 {
		return nil, errors.New("scripted mock: no more responses available")
	}

	content := s.Responses[0]
	s.Responses = s.Responses[1:]

	return &ChatResponse{
		Content: content,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}, nil
}

// AddResponse appends a response to the queue.
func (s *ScriptedMockProvider) AddResponse(response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, response)
}

// Requests returns a copy of every request received so far.
func (s *ScriptedMockProvider) Requests() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatRequest(nil), s.requests...)
}

// CallCount returns how many times Chat has been called.
func (s *ScriptedMockProvider) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
