package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideascope/pkg/cache"
)

type echoInput struct {
	Text string `json:"text"`
}

type echoOutput struct {
	Summary string `json:"summary"`
}

// echoTask is a configurable test task.
type echoTask struct {
	cfg           TaskConfig
	processErr    error
	panicMessage  string
	rejectInput   bool
	rejectOutput  bool
	quality       float64
	tokensPerCall int
	processed     int
}

func newEchoTask() *echoTask {
	return &echoTask{
		cfg: TaskConfig{
			TaskID:   "echo",
			Version:  "1.0.0",
			Provider: "mock",
			CacheTTL: time.Hour,
		},
		quality:       85,
		tokensPerCall: 42,
	}
}

func (t *echoTask) Config() TaskConfig { return t.cfg }

func (t *echoTask) ValidateInput(input echoInput) ValidationResult {
	if t.rejectInput || input.Text == "" {
		return Invalid(ValidationIssue{Field: "text", Message: "must not be empty", Severity: "error"})
	}
	return Valid()
}

func (t *echoTask) Process(_ context.Context, input echoInput, _ ExecutionContext, inv *Invocation) (echoOutput, error) {
	t.processed++
	if t.panicMessage != "" {
		panic(t.panicMessage)
	}
	if t.processErr != nil {
		return echoOutput{}, t.processErr
	}
	inv.RecordProviderCall(t.tokensPerCall)
	return echoOutput{Summary: "analysis of " + input.Text}, nil
}

func (t *echoTask) ValidateOutput(output echoOutput) ValidationResult {
	if t.rejectOutput || output.Summary == "" {
		return Invalid(ValidationIssue{Field: "summary", Message: "missing", Severity: "error"})
	}
	return Valid()
}

func (t *echoTask) Quality(echoOutput) float64 { return t.quality }

func testContext() ExecutionContext {
	return ExecutionContext{
		RequestID:     "req-1",
		AnalysisDepth: DepthStandard,
	}
}

func TestExecuteSuccess(t *testing.T) {
	task := newEchoTask()
	executor := NewExecutor(task, ExecutorOptions{Cache: cache.NewMemoryStore(0)})

	result := executor.Execute(context.Background(), echoInput{Text: "solar panels"}, testContext())

	require.True(t, result.Success)
	require.Nil(t, result.Error)
	assert.Equal(t, "analysis of solar panels", result.Data.Summary)
	assert.Equal(t, "echo", result.Metadata.TaskID)
	assert.Equal(t, 85.0, result.Metadata.Confidence)
	assert.Equal(t, 1, result.Metadata.Metrics.APICalls)
	assert.Equal(t, 42, result.Metadata.Metrics.TokensUsed)
	assert.Equal(t, 1, result.Metadata.Metrics.CacheMisses)
	assert.GreaterOrEqual(t, result.Metadata.Metrics.ExecutionTime, time.Duration(0))
}

func TestExecuteCacheHitIsIdempotent(t *testing.T) {
	task := newEchoTask()
	executor := NewExecutor(task, ExecutorOptions{Cache: cache.NewMemoryStore(0)})
	ctx := context.Background()
	input := echoInput{Text: "meal kits"}

	first := executor.Execute(ctx, input, testContext())
	require.True(t, first.Success)
	require.Equal(t, 1, task.processed)

	second := executor.Execute(ctx, input, testContext())
	require.True(t, second.Success)

	// The second call is served from cache: same data, full confidence,
	// and no additional provider call.
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, 100.0, second.Metadata.Confidence)
	assert.Equal(t, 1, second.Metadata.Metrics.CacheHits)
	assert.Equal(t, 0, second.Metadata.Metrics.APICalls)
	assert.Equal(t, 1, task.processed)
}

func TestExecuteForceRefreshBypassesCache(t *testing.T) {
	task := newEchoTask()
	executor := NewExecutor(task, ExecutorOptions{Cache: cache.NewMemoryStore(0)})
	ctx := context.Background()
	input := echoInput{Text: "meal kits"}

	executor.Execute(ctx, input, testContext())

	refresh := testContext()
	refresh.DataFreshness.ForceRefresh = true
	result := executor.Execute(ctx, input, refresh)

	require.True(t, result.Success)
	assert.Equal(t, 2, task.processed)
	assert.Equal(t, 0, result.Metadata.Metrics.CacheHits)
}

func TestExecuteInputValidationShortCircuits(t *testing.T) {
	task := newEchoTask()
	executor := NewExecutor(task, ExecutorOptions{})

	result := executor.Execute(context.Background(), echoInput{}, testContext())

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, ErrCodeValidationFailed, result.Error.Code)
	assert.Equal(t, 0.0, result.Metadata.Confidence)
	assert.Equal(t, "must not be empty", result.Error.Details["text"])
	assert.Zero(t, task.processed, "provider must not be called for invalid input")
}

func TestExecuteOutputValidationFails(t *testing.T) {
	task := newEchoTask()
	task.rejectOutput = true
	executor := NewExecutor(task, ExecutorOptions{})

	result := executor.Execute(context.Background(), echoInput{Text: "x"}, testContext())

	require.False(t, result.Success)
	assert.Equal(t, ErrCodeOutputValidationFailed, result.Error.Code)
	assert.Equal(t, 0.0, result.Metadata.Confidence)
}

func TestExecuteProviderError(t *testing.T) {
	task := newEchoTask()
	task.processErr = errors.New("upstream exploded")
	executor := NewExecutor(task, ExecutorOptions{})

	result := executor.Execute(context.Background(), echoInput{Text: "x"}, testContext())

	require.False(t, result.Success)
	assert.Equal(t, ErrCodeProviderError, result.Error.Code)
	assert.Equal(t, 1, result.Metadata.Metrics.ErrorCount)
}

func TestExecuteTimeout(t *testing.T) {
	task := newEchoTask()
	task.processErr = fmt.Errorf("generation: %w", context.DeadlineExceeded)
	executor := NewExecutor(task, ExecutorOptions{})

	var statuses []Status
	executor.onStatus = func(_ string, s Status) { statuses = append(statuses, s) }

	result := executor.Execute(context.Background(), echoInput{Text: "x"}, testContext())

	require.False(t, result.Success)
	assert.Equal(t, ErrCodeTimeout, result.Error.Code)
	assert.Equal(t, StatusTimeout, statuses[len(statuses)-1])
}

func TestExecuteContainsPanics(t *testing.T) {
	task := newEchoTask()
	task.panicMessage = "nil map write"
	executor := NewExecutor(task, ExecutorOptions{})

	result := executor.Execute(context.Background(), echoInput{Text: "x"}, testContext())

	require.False(t, result.Success)
	assert.Equal(t, ErrCodeInternalError, result.Error.Code)
	assert.Contains(t, result.Error.Message, "nil map write")
	assert.Equal(t, 0.0, result.Metadata.Confidence)
}

func TestExecuteQualityGateWarnsButReturns(t *testing.T) {
	task := newEchoTask()
	task.quality = 30
	executor := NewExecutor(task, ExecutorOptions{MinConfidence: 70})

	result := executor.Execute(context.Background(), echoInput{Text: "x"}, testContext())

	require.True(t, result.Success, "degraded results are still returned")
	assert.Equal(t, 30.0, result.Metadata.Confidence)
}

func TestExecuteStatusTransitionsAreMonotonic(t *testing.T) {
	task := newEchoTask()
	var statuses []Status
	executor := NewExecutor(task, ExecutorOptions{
		Cache:    cache.NewMemoryStore(0),
		OnStatus: func(_ string, s Status) { statuses = append(statuses, s) },
	})

	executor.Execute(context.Background(), echoInput{Text: "x"}, testContext())

	require.Equal(t, []Status{StatusInitializing, StatusProcessing, StatusValidating, StatusCompleted}, statuses)
	prev := StatusIdle
	for _, s := range statuses {
		assert.True(t, IsValidTransition(prev, s), "%s -> %s", prev, s)
		prev = s
	}
}

func TestExecuteCacheWriteFailureIsSwallowed(t *testing.T) {
	task := newEchoTask()
	executor := NewExecutor(task, ExecutorOptions{Cache: &failingStore{}})

	result := executor.Execute(context.Background(), echoInput{Text: "x"}, testContext())
	require.True(t, result.Success, "cache failures must never fail the execution")
}

func TestExecuteReportsToCollector(t *testing.T) {
	task := newEchoTask()
	executor := NewExecutor(task, ExecutorOptions{Cache: cache.NewMemoryStore(0)})

	executor.Execute(context.Background(), echoInput{Text: "x"}, testContext())

	agg := executor.Collector().Aggregate(time.Hour)
	assert.Equal(t, 1, agg.TotalExecutions)
	assert.Equal(t, 1.0, agg.SuccessRate)
}

// failingStore errors on every operation.
type failingStore struct{}

func (f *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store offline")
}
func (f *failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store offline")
}
func (f *failingStore) Delete(context.Context, string) error { return errors.New("store offline") }
func (f *failingStore) Clear(context.Context) error          { return errors.New("store offline") }
func (f *failingStore) Exists(context.Context, string) (bool, error) {
	return false, errors.New("store offline")
}
func (f *failingStore) Close() error { return nil }
