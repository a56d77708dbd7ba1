package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskName identifies a task template.
type TaskName string

const (
	TaskGenerateScript       TaskName = "generate_script"
	TaskGenerateArtDirection TaskName = "generate_art_direction"
	TaskRefineScript         TaskName = "refine_script"
)

// TaskNames lists every known task template, in catalog order.
func TaskNames() []TaskName {
	return []TaskName{TaskGenerateScript, TaskGenerateArtDirection, TaskRefineScript}
}

// ParseTaskName converts a catalog key into a TaskName.
func ParseTaskName(s string) (TaskName, error) {
	for _, n := range TaskNames() {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown task template %q", s)
}

// Artifact returns the result key the task's output is stored under.
func (n TaskName) Artifact() string {
	switch n {
	case TaskGenerateArtDirection:
		return ArtifactArtDirection
	default:
		return ArtifactScript
	}
}

// TaskTemplate is the static, unrendered form of a task.
type TaskTemplate struct {
	Name           TaskName
	Description    string
	ExpectedOutput string
	Agent          AgentRole
}

// TaskStatus describes the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task is a rendered template bound to the agent that must execute it.
// A Task belongs to exactly one pipeline run and is never reused.
type Task struct {
	ID             string
	Name           TaskName
	Description    string
	ExpectedOutput string
	Agent          Agent
	Status         TaskStatus
	Output         string
	Error          string
	CreatedAt      time.Time
	StartedAt      time.Time
	FinishedAt     time.Time
}

// NewTask creates a pending task with a generated ID.
func NewTask(name TaskName, description, expectedOutput string, agent Agent) *Task {
	return &Task{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    description,
		ExpectedOutput: expectedOutput,
		Agent:          agent,
		Status:         TaskStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
}

// Artifact returns the result key for this task's output.
func (t *Task) Artifact() string { return t.Name.Artifact() }

// Start marks the task as running.
func (t *Task) Start() {
	t.Status = TaskStatusRunning
	t.StartedAt = time.Now().UTC()
}

// Complete records the produced text.
func (t *Task) Complete(output string) {
	t.Status = TaskStatusCompleted
	t.Output = output
	t.FinishedAt = time.Now().UTC()
}

// Fail records the failure reason.
func (t *Task) Fail(err error) {
	t.Status = TaskStatusFailed
	if err != nil {
		t.Error = err.Error()
	}
	t.FinishedAt = time.Now().UTC()
}
