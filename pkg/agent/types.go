// Package agent implements the uniform task execution pipeline: input
// validation, cache lookup, processing, output validation, quality gating,
// and cache write-back, with all failures converted to structured results.
package agent

import (
	"time"

	"ideascope/pkg/llm"
)

// Analysis depths supported by ExecutionContext.
const (
	DepthBasic         = "basic"
	DepthStandard      = "standard"
	DepthComprehensive = "comprehensive"
)

// Error codes carried by failed results.
const (
	ErrCodeValidationFailed       = "VALIDATION_FAILED"
	ErrCodeOutputValidationFailed = "OUTPUT_VALIDATION_FAILED"
	ErrCodeProviderError          = "PROVIDER_ERROR"
	ErrCodeTimeout                = "TIMEOUT"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

// DefaultCacheTTL applies when neither the request nor the task set one.
const DefaultCacheTTL = time.Hour

// TaskConfig is the immutable per-task configuration.
type TaskConfig struct {
	TaskID      string
	Version     string
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	CacheTTL    time.Duration
	Retry       llm.RetryConfig
}

// DataFreshness controls how stale cached data a request will accept.
type DataFreshness struct {
	MaxAge       time.Duration `json:"maxAge"`
	ForceRefresh bool          `json:"forceRefresh"`
}

// ExecutionContext is created once per request and shared read-only by all
// tasks in that request.
type ExecutionContext struct {
	RequestID     string            `json:"requestId"`
	UserID        string            `json:"userId,omitempty"`
	AnalysisDepth string            `json:"analysisDepth"`
	UserProfile   map[string]string `json:"userProfile,omitempty"`
	DataFreshness DataFreshness     `json:"dataFreshness"`
}

// CacheTTL resolves the effective TTL for cache writes: the request's
// freshness policy wins, then the task default, then DefaultCacheTTL.
func (c ExecutionContext) CacheTTL(taskDefault time.Duration) time.Duration {
	if c.DataFreshness.MaxAge > 0 {
		return c.DataFreshness.MaxAge
	}
	if taskDefault > 0 {
		return taskDefault
	}
	return DefaultCacheTTL
}

// AgentMetrics accumulates during one execution and is frozen into the
// result.
type AgentMetrics struct {
	ExecutionTime time.Duration `json:"executionTime"`
	TokensUsed    int           `json:"tokensUsed"`
	APICalls      int           `json:"apiCalls"`
	CacheHits     int           `json:"cacheHits"`
	CacheMisses   int           `json:"cacheMisses"`
	ErrorCount    int           `json:"errorCount"`
	QualityScore  float64       `json:"qualityScore"`
}

// AgentError describes why an execution failed.
type AgentError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ResultMetadata identifies and scores one execution.
type ResultMetadata struct {
	TaskID     string       `json:"taskId"`
	Version    string       `json:"version"`
	Timestamp  time.Time    `json:"timestamp"`
	Metrics    AgentMetrics `json:"metrics"`
	Confidence float64      `json:"confidence"`
}

// AgentResult is the uniform outcome of one execution. Exactly one of Data
// and Error is meaningful, selected by Success.
type AgentResult[T any] struct {
	Success  bool           `json:"success"`
	Data     T              `json:"data,omitempty"`
	Error    *AgentError    `json:"error,omitempty"`
	Metadata ResultMetadata `json:"metadata"`
}

// Erase converts a typed result to its any-typed form for aggregation.
func Erase[T any](r AgentResult[T]) AgentResult[any] {
	out := AgentResult[any]{
		Success:  r.Success,
		Error:    r.Error,
		Metadata: r.Metadata,
	}
	if r.Success {
		out.Data = r.Data
	}
	return out
}

// ValidationIssue is one field-level problem found during validation.
type ValidationIssue struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ValidationResult is shared by input and output validation.
type ValidationResult struct {
	IsValid     bool              `json:"isValid"`
	Errors      []ValidationIssue `json:"errors,omitempty"`
	Confidence  float64           `json:"confidence"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

// Valid is a passing validation result.
func Valid() ValidationResult {
	return ValidationResult{IsValid: true, Confidence: 100}
}

// Invalid builds a failing validation result from field issues.
func Invalid(issues ...ValidationIssue) ValidationResult {
	return ValidationResult{IsValid: false, Errors: issues}
}
