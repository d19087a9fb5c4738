// Package coordinator fans one analysis request out to the enabled tasks,
// isolates their failures from one another, and aggregates the results.
package coordinator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ideascope/pkg/agent"
	"ideascope/pkg/logx"
	"ideascope/pkg/tasks"
	"ideascope/pkg/telemetry"
)

// CompositeAnalysisInput is the caller-facing request.
type CompositeAnalysisInput struct {
	Idea          tasks.BusinessIdea  `json:"idea"`
	EnabledTasks  map[string]bool     `json:"enabledTasks"`
	AnalysisDepth string              `json:"analysisDepth,omitempty"`
	UserID        string              `json:"userId,omitempty"`
	UserProfile   map[string]string   `json:"userProfile,omitempty"`
	DataFreshness agent.DataFreshness `json:"dataFreshness,omitempty"`
}

// QualityMetrics are derived across all task results.
type QualityMetrics struct {
	Completeness  float64 `json:"completeness"`
	Consistency   float64 `json:"consistency"`
	Actionability float64 `json:"actionability"`
	Reliability   float64 `json:"reliability"`
}

// CompositeAnalysisOutput aggregates one result per enabled task plus
// orchestration metadata. Successful task results are always present, even
// when the composite as a whole failed.
type CompositeAnalysisOutput struct {
	Success           bool                              `json:"success"`
	RequestID         string                            `json:"requestId"`
	Results           map[string]agent.AgentResult[any] `json:"results"`
	AgentsExecuted    []string                          `json:"agentsExecuted"`
	AgentsFailed      []string                          `json:"agentsFailed"`
	OverallConfidence float64                           `json:"overallConfidence"`
	DataFreshness     agent.DataFreshness               `json:"dataFreshness"`
	QualityMetrics    QualityMetrics                    `json:"qualityMetrics"`
	Error             *agent.AgentError                 `json:"error,omitempty"`
}

// Options configures a Coordinator.
type Options struct {
	// PrimaryTask feeds the reliability quality metric. Defaults to
	// market research.
	PrimaryTask string
}

// Coordinator owns a fixed set of task runners. One coordinator serves many
// concurrent requests; runners, cache, and telemetry are shared.
type Coordinator struct {
	runners     map[string]TaskRunner
	primaryTask string
	registry    *registry
	logger      *logx.Logger
}

// New creates a coordinator over an explicit set of runners.
func New(opts Options, runners ...TaskRunner) *Coordinator {
	byID := make(map[string]TaskRunner, len(runners))
	for _, r := range runners {
		byID[r.TaskID()] = r
	}
	primary := opts.PrimaryTask
	if primary == "" {
		primary = tasks.TaskMarketResearch
	}
	return &Coordinator{
		runners:     byID,
		primaryTask: primary,
		registry:    newRegistry(),
		logger:      logx.NewLogger("coordinator"),
	}
}

// Analyze runs the enabled tasks for one request and aggregates their
// results. It always returns a structured output, never an error.
func (c *Coordinator) Analyze(ctx context.Context, input CompositeAnalysisInput) CompositeAnalysisOutput {
	if orchErr := c.validateRequest(input); orchErr != nil {
		return CompositeAnalysisOutput{
			Success: false,
			Results: map[string]agent.AgentResult[any]{},
			Error:   orchErr,
		}
	}

	depth := input.AnalysisDepth
	if depth == "" {
		depth = agent.DepthStandard
	}
	ectx := agent.ExecutionContext{
		RequestID:     uuid.NewString(),
		UserID:        input.UserID,
		AnalysisDepth: depth,
		UserProfile:   input.UserProfile,
		DataFreshness: input.DataFreshness,
	}

	enabled := c.enabledTaskIDs(input)
	c.registry.add(ectx.RequestID, enabled)
	defer c.registry.remove(ectx.RequestID)

	results := c.runAll(ctx, input.Idea, ectx, enabled)

	return c.aggregate(ectx, results)
}

// validateRequest checks the composite request schema. Per-task input
// validation happens inside each executor.
func (c *Coordinator) validateRequest(input CompositeAnalysisInput) *agent.AgentError {
	if len(input.EnabledTasks) == 0 {
		return &agent.AgentError{
			Code:    "ORCHESTRATION_ERROR",
			Message: "no tasks enabled",
		}
	}
	anyEnabled := false
	for taskID, enabled := range input.EnabledTasks {
		if !enabled {
			continue
		}
		anyEnabled = true
		if _, ok := c.runners[taskID]; !ok {
			return &agent.AgentError{
				Code:    "ORCHESTRATION_ERROR",
				Message: fmt.Sprintf("unknown task %q", taskID),
			}
		}
	}
	if !anyEnabled {
		return &agent.AgentError{
			Code:    "ORCHESTRATION_ERROR",
			Message: "no tasks enabled",
		}
	}
	switch input.AnalysisDepth {
	case "", agent.DepthBasic, agent.DepthStandard, agent.DepthComprehensive:
	default:
		return &agent.AgentError{
			Code:    "ORCHESTRATION_ERROR",
			Message: fmt.Sprintf("unknown analysis depth %q", input.AnalysisDepth),
		}
	}
	return nil
}

func (c *Coordinator) enabledTaskIDs(input CompositeAnalysisInput) []string {
	ids := make([]string, 0, len(input.EnabledTasks))
	for taskID, enabled := range input.EnabledTasks {
		if enabled {
			ids = append(ids, taskID)
		}
	}
	sort.Strings(ids)
	return ids
}

// runAll executes tasks in dependency waves. Tasks with no unfinished
// upstream run concurrently; each is isolated behind its own recover.
func (c *Coordinator) runAll(ctx context.Context, idea tasks.BusinessIdea, ectx agent.ExecutionContext, enabled []string) map[string]agent.AgentResult[any] {
	results := make(map[string]agent.AgentResult[any], len(enabled))
	var resultsMu sync.Mutex

	pending := make(map[string]bool, len(enabled))
	for _, id := range enabled {
		pending[id] = true
	}

	for len(pending) > 0 {
		wave := c.nextWave(pending, results)
		if len(wave) == 0 {
			// Remaining tasks have unsatisfiable dependencies.
			for id := range pending {
				results[id] = c.syntheticFailure(ectx, id, "dependency never completed")
				delete(pending, id)
			}
			break
		}

		var wg sync.WaitGroup
		for _, taskID := range wave {
			delete(pending, taskID)
			wg.Add(1)
			go func(taskID string) {
				defer wg.Done()
				result := c.runOne(ctx, taskID, idea, ectx)
				resultsMu.Lock()
				results[taskID] = result
				resultsMu.Unlock()
			}(taskID)
		}
		wg.Wait()
	}

	return results
}

// nextWave picks pending tasks whose dependencies are all resolved.
func (c *Coordinator) nextWave(pending map[string]bool, results map[string]agent.AgentResult[any]) []string {
	var wave []string
	for taskID := range pending {
		ready := true
		for _, dep := range c.runners[taskID].DependsOn() {
			if _, done := results[dep]; !done {
				ready = false
				break
			}
		}
		if ready {
			wave = append(wave, taskID)
		}
	}
	sort.Strings(wave)
	return wave
}

// runOne isolates a single task invocation. A panic outside the executor's
// own boundary (e.g. in the runner adapter) is converted to a synthetic
// failed result and never aborts sibling tasks.
func (c *Coordinator) runOne(ctx context.Context, taskID string, idea tasks.BusinessIdea, ectx agent.ExecutionContext) (result agent.AgentResult[any]) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("task %s panicked outside executor boundary: %v", taskID, r)
			result = c.syntheticFailure(ectx, taskID, fmt.Sprintf("orchestration panic: %v", r))
		}
	}()

	onStatus := func(id string, status agent.Status) {
		c.registry.setStatus(ectx.RequestID, id, status)
	}
	return c.runners[taskID].Run(ctx, idea, ectx, onStatus)
}

func (c *Coordinator) syntheticFailure(ectx agent.ExecutionContext, taskID, message string) agent.AgentResult[any] {
	c.registry.setStatus(ectx.RequestID, taskID, agent.StatusFailed)
	return agent.AgentResult[any]{
		Success: false,
		Error: &agent.AgentError{
			Code:    agent.ErrCodeInternalError,
			Message: message,
		},
		Metadata: agent.ResultMetadata{
			TaskID:    taskID,
			Timestamp: time.Now().UTC(),
		},
	}
}

func (c *Coordinator) aggregate(ectx agent.ExecutionContext, results map[string]agent.AgentResult[any]) CompositeAnalysisOutput {
	output := CompositeAnalysisOutput{
		RequestID:     ectx.RequestID,
		Results:       results,
		DataFreshness: ectx.DataFreshness,
	}

	var confidenceSum float64
	for _, taskID := range sortedKeys(results) {
		result := results[taskID]
		if result.Success {
			output.AgentsExecuted = append(output.AgentsExecuted, taskID)
			confidenceSum += result.Metadata.Confidence
		} else {
			output.AgentsFailed = append(output.AgentsFailed, taskID)
		}
	}

	// Failed tasks contribute nothing, not zero: one failure must not
	// drag down the confidence of the tasks that succeeded.
	if n := len(output.AgentsExecuted); n > 0 {
		output.OverallConfidence = confidenceSum / float64(n)
	}

	output.QualityMetrics = c.qualityMetrics(results)
	output.Success = len(output.AgentsFailed) == 0
	return output
}

// HealthStatus reports per-task health from the runners' collectors.
func (c *Coordinator) HealthStatus() map[string]telemetry.HealthReport {
	reports := make(map[string]telemetry.HealthReport, len(c.runners))
	for taskID, r := range c.runners {
		reports[taskID] = r.Collector().Health()
	}
	return reports
}

// ActiveExecutions lists in-flight requests for observability.
func (c *Coordinator) ActiveExecutions() []ActiveExecution {
	return c.registry.list()
}

func sortedKeys(m map[string]agent.AgentResult[any]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
