package coordinator

import (
	"context"

	"ideascope/pkg/agent"
	"ideascope/pkg/tasks"
	"ideascope/pkg/telemetry"
)

// TaskRunner is a type-erased view of one task's executor. The coordinator
// holds one runner per registered task.
type TaskRunner interface {
	TaskID() string
	// DependsOn names upstream tasks whose results feed this one. An
	// extension point; the built-in tasks are all independent.
	DependsOn() []string
	Run(ctx context.Context, idea tasks.BusinessIdea, ectx agent.ExecutionContext, onStatus agent.StatusFunc) agent.AgentResult[any]
	Collector() *telemetry.Collector
}

type runner[Out any] struct {
	executor *agent.Executor[tasks.BusinessIdea, Out]
	taskID   string
	deps     []string
}

// RunnerFor adapts a typed executor into a TaskRunner.
func RunnerFor[Out any](executor *agent.Executor[tasks.BusinessIdea, Out], deps ...string) TaskRunner {
	return &runner[Out]{
		executor: executor,
		taskID:   executor.Config().TaskID,
		deps:     deps,
	}
}

func (r *runner[Out]) TaskID() string                  { return r.taskID }
func (r *runner[Out]) DependsOn() []string             { return r.deps }
func (r *runner[Out]) Collector() *telemetry.Collector { return r.executor.Collector() }

func (r *runner[Out]) Run(ctx context.Context, idea tasks.BusinessIdea, ectx agent.ExecutionContext, onStatus agent.StatusFunc) agent.AgentResult[any] {
	return agent.Erase(r.executor.ExecuteObserved(ctx, idea, ectx, onStatus))
}
