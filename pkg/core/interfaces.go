package core

import "context"

// Generator is the text-generation capability every agent delegates to.
type Generator interface {
	Generate(ctx context.Context, description, expectedOutput string) (string, error)
}

// Agent is a persona bound to a generation capability.
type Agent interface {
	Generator
	Definition() AgentDefinition
}
