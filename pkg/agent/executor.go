package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ideascope/pkg/cache"
	"ideascope/pkg/llm"
	"ideascope/pkg/logx"
	"ideascope/pkg/telemetry"
)

// Task is one analysis unit behind the uniform execution contract.
type Task[In, Out any] interface {
	// Config returns the task's immutable configuration.
	Config() TaskConfig
	// ValidateInput checks the input against the task's schema.
	ValidateInput(input In) ValidationResult
	// Process produces the task's output. Provider usage is reported
	// through the invocation handle.
	Process(ctx context.Context, input In, ectx ExecutionContext, inv *Invocation) (Out, error)
	// ValidateOutput checks the produced output against its schema.
	ValidateOutput(output Out) ValidationResult
	// Quality scores the output's reliability in [0,100].
	Quality(output Out) float64
}

// Invocation tracks provider usage during one execution. Safe for use from
// concurrent provider calls within the same task.
type Invocation struct {
	mu         sync.Mutex
	apiCalls   int
	tokensUsed int
}

// RecordProviderCall accumulates one provider call's token usage.
func (inv *Invocation) RecordProviderCall(tokens int) {
	inv.mu.Lock()
	inv.apiCalls++
	inv.tokensUsed += tokens
	inv.mu.Unlock()
}

func (inv *Invocation) usage() (calls, tokens int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.apiCalls, inv.tokensUsed
}

// StatusFunc observes status transitions during an execution.
type StatusFunc func(taskID string, status Status)

// ExecutorOptions wires shared infrastructure into an executor.
type ExecutorOptions struct {
	Cache         cache.Store
	Collector     *telemetry.Collector
	Recorder      *telemetry.PrometheusRecorder
	MinConfidence float64
	OnStatus      StatusFunc
}

// Executor runs one task through the full pipeline. A single executor
// serves many concurrent executions.
type Executor[In, Out any] struct {
	task          Task[In, Out]
	cache         cache.Store
	collector     *telemetry.Collector
	recorder      *telemetry.PrometheusRecorder
	minConfidence float64
	onStatus      StatusFunc
	logger        *logx.Logger
	now           func() time.Time
}

// NewExecutor builds an executor around a task. A nil cache disables
// caching via the no-op store.
func NewExecutor[In, Out any](task Task[In, Out], opts ExecutorOptions) *Executor[In, Out] {
	store := opts.Cache
	if store == nil {
		store = cache.NewNoopStore()
	}
	collector := opts.Collector
	if collector == nil {
		collector = telemetry.NewCollector(task.Config().TaskID, 0)
	}
	minConfidence := opts.MinConfidence
	if minConfidence <= 0 {
		minConfidence = 70
	}

	return &Executor[In, Out]{
		task:          task,
		cache:         store,
		collector:     collector,
		recorder:      opts.Recorder,
		minConfidence: minConfidence,
		onStatus:      opts.OnStatus,
		logger:        logx.NewLogger("executor-" + task.Config().TaskID),
		now:           time.Now,
	}
}

// Collector returns the telemetry collector observing this executor.
func (e *Executor[In, Out]) Collector() *telemetry.Collector { return e.collector }

// Config returns the underlying task's configuration.
func (e *Executor[In, Out]) Config() TaskConfig { return e.task.Config() }

// execution carries the mutable state of one pipeline run.
type execution struct {
	status   Status
	metrics  AgentMetrics
	started  time.Time
	onStatus StatusFunc
}

func (e *Executor[In, Out]) advance(exec *execution, to Status) {
	if !IsValidTransition(exec.status, to) {
		e.logger.Warn("invalid status transition %s -> %s", exec.status, to)
		return
	}
	exec.status = to
	taskID := e.task.Config().TaskID
	if e.onStatus != nil {
		e.onStatus(taskID, to)
	}
	if exec.onStatus != nil {
		exec.onStatus(taskID, to)
	}
}

// Execute runs the task pipeline. It never returns an error and never
// panics; every failure mode becomes a structured failed result.
func (e *Executor[In, Out]) Execute(ctx context.Context, input In, ectx ExecutionContext) AgentResult[Out] {
	return e.ExecuteObserved(ctx, input, ectx, nil)
}

// ExecuteObserved is Execute with a per-call status observer, used by the
// coordinator to feed its active-executions registry.
func (e *Executor[In, Out]) ExecuteObserved(ctx context.Context, input In, ectx ExecutionContext, onStatus StatusFunc) (result AgentResult[Out]) {
	cfg := e.task.Config()
	exec := &execution{status: StatusIdle, started: e.now(), onStatus: onStatus}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic during %s execution: %v", cfg.TaskID, r)
			exec.metrics.ErrorCount++
			result = e.fail(exec, StatusFailed, &AgentError{
				Code:    ErrCodeInternalError,
				Message: fmt.Sprintf("internal error: %v", r),
			})
		}
	}()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	e.advance(exec, StatusInitializing)
	if validation := e.task.ValidateInput(input); !validation.IsValid {
		exec.metrics.ErrorCount++
		return e.fail(exec, StatusFailed, validationError(ErrCodeValidationFailed, validation))
	}

	key, err := CacheKey(cfg, input, ectx)
	if err != nil {
		exec.metrics.ErrorCount++
		return e.fail(exec, StatusFailed, &AgentError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("cache key derivation failed: %v", err),
		})
	}

	if !ectx.DataFreshness.ForceRefresh {
		if output, ok := e.cacheLookup(ctx, key); ok {
			exec.metrics.CacheHits++
			e.advance(exec, StatusCompleted)
			return e.complete(exec, output, 100)
		}
	}
	exec.metrics.CacheMisses++

	e.advance(exec, StatusProcessing)
	inv := &Invocation{}
	output, err := e.task.Process(ctx, input, ectx, inv)
	exec.metrics.APICalls, exec.metrics.TokensUsed = inv.usage()
	if err != nil {
		exec.metrics.ErrorCount++
		if isTimeout(err) {
			return e.fail(exec, StatusTimeout, &AgentError{
				Code:    ErrCodeTimeout,
				Message: fmt.Sprintf("%s timed out: %v", cfg.TaskID, err),
			})
		}
		return e.fail(exec, StatusFailed, &AgentError{
			Code:    ErrCodeProviderError,
			Message: fmt.Sprintf("%s processing failed: %v", cfg.TaskID, err),
		})
	}

	e.advance(exec, StatusValidating)
	if validation := e.task.ValidateOutput(output); !validation.IsValid {
		exec.metrics.ErrorCount++
		return e.fail(exec, StatusFailed, validationError(ErrCodeOutputValidationFailed, validation))
	}

	confidence := clampConfidence(e.task.Quality(output))
	if confidence < e.minConfidence {
		e.logger.Warn("%s quality %.1f below minimum %.1f, returning degraded result",
			cfg.TaskID, confidence, e.minConfidence)
	}

	e.cacheWrite(ctx, key, output, ectx.CacheTTL(cfg.CacheTTL))

	e.advance(exec, StatusCompleted)
	return e.complete(exec, output, confidence)
}

// cacheLookup degrades read failures to a miss.
func (e *Executor[In, Out]) cacheLookup(ctx context.Context, key string) (Out, bool) {
	var output Out
	raw, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("cache read failed, treating as miss: %v", err)
		return output, false
	}
	if !ok {
		return output, false
	}
	if err := json.Unmarshal(raw, &output); err != nil {
		e.logger.Warn("cache entry undecodable, treating as miss: %v", err)
		return output, false
	}
	return output, true
}

// cacheWrite swallows failures; a missed write never fails the execution.
func (e *Executor[In, Out]) cacheWrite(ctx context.Context, key string, output Out, ttl time.Duration) {
	raw, err := json.Marshal(output)
	if err != nil {
		e.logger.Warn("cache write skipped, output not serializable: %v", err)
		return
	}
	if err := e.cache.Set(ctx, key, raw, ttl); err != nil {
		e.logger.Warn("cache write failed: %v", err)
	}
}

func (e *Executor[In, Out]) complete(exec *execution, output Out, confidence float64) AgentResult[Out] {
	cfg := e.task.Config()
	exec.metrics.ExecutionTime = e.now().Sub(exec.started)
	exec.metrics.QualityScore = confidence

	e.report(exec, true, "")

	return AgentResult[Out]{
		Success: true,
		Data:    output,
		Metadata: ResultMetadata{
			TaskID:     cfg.TaskID,
			Version:    cfg.Version,
			Timestamp:  e.now().UTC(),
			Metrics:    exec.metrics,
			Confidence: confidence,
		},
	}
}

func (e *Executor[In, Out]) fail(exec *execution, status Status, agentErr *AgentError) AgentResult[Out] {
	cfg := e.task.Config()
	e.advance(exec, status)
	exec.metrics.ExecutionTime = e.now().Sub(exec.started)

	e.report(exec, false, agentErr.Code)
	e.collector.RecordError(telemetry.ErrorEvent{
		Code:    agentErr.Code,
		Message: agentErr.Message,
	})

	return AgentResult[Out]{
		Success: false,
		Error:   agentErr,
		Metadata: ResultMetadata{
			TaskID:     cfg.TaskID,
			Version:    cfg.Version,
			Timestamp:  e.now().UTC(),
			Metrics:    exec.metrics,
			Confidence: 0,
		},
	}
}

func (e *Executor[In, Out]) report(exec *execution, success bool, errorCode string) {
	cfg := e.task.Config()
	e.collector.RecordExecution(telemetry.ExecutionEvent{
		Duration:     exec.metrics.ExecutionTime,
		TokensUsed:   exec.metrics.TokensUsed,
		QualityScore: exec.metrics.QualityScore,
		CacheHit:     exec.metrics.CacheHits > 0,
		Success:      success,
	})
	if e.recorder != nil {
		e.recorder.ObserveExecution(cfg.TaskID, success, errorCode, exec.metrics.ExecutionTime, exec.metrics.QualityScore)
		if exec.metrics.TokensUsed > 0 {
			e.recorder.ObserveTokens(cfg.TaskID, cfg.Provider, exec.metrics.TokensUsed)
		}
		if exec.metrics.CacheHits+exec.metrics.CacheMisses > 0 {
			e.recorder.ObserveCacheLookup(cfg.TaskID, exec.metrics.CacheHits > 0)
		}
	}
}

func validationError(code string, validation ValidationResult) *AgentError {
	details := make(map[string]string, len(validation.Errors))
	for _, issue := range validation.Errors {
		details[issue.Field] = issue.Message
	}
	return &AgentError{
		Code:    code,
		Message: fmt.Sprintf("validation failed with %d issue(s)", len(validation.Errors)),
		Details: details,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return llm.TypeOf(err) == llm.ErrorTypeTimeout
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
