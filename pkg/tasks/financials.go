package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"ideascope/pkg/agent"
	"ideascope/pkg/llm"
	"ideascope/pkg/logx"
)

// TaskFinancialProjection identifies the financial projection task.
const TaskFinancialProjection = "financial-projection"

// YearProjection is one projected operating year.
type YearProjection struct {
	Year    int     `json:"year"`
	Revenue float64 `json:"revenue"`
	Costs   float64 `json:"costs"`
}

// FinancialProjectionOutput estimates the idea's economics.
type FinancialProjectionOutput struct {
	RevenueModel    string           `json:"revenueModel"`
	StartupCosts    float64          `json:"startupCosts"`
	Projections     []YearProjection `json:"projections"`
	BreakEvenMonths int              `json:"breakEvenMonths"`
	FundingAdvice   []string         `json:"fundingAdvice"`
	Summary         string           `json:"summary"`
}

// Sections implements Assessable.
func (o FinancialProjectionOutput) Sections() map[string]bool {
	return map[string]bool{
		"revenueModel":  o.RevenueModel != "",
		"startupCosts":  o.StartupCosts > 0,
		"projections":   len(o.Projections) > 0,
		"breakEven":     o.BreakEvenMonths > 0,
		"fundingAdvice": len(o.FundingAdvice) > 0,
		"summary":       o.Summary != "",
	}
}

// ActionableFields implements Assessable.
func (o FinancialProjectionOutput) ActionableFields() int {
	count := len(o.Projections) + len(o.FundingAdvice)
	if o.StartupCosts > 0 {
		count++
	}
	if o.BreakEvenMonths > 0 {
		count++
	}
	return count
}

// FinancialProjectionTask estimates revenue model, costs, and break-even.
type FinancialProjectionTask struct {
	cfg    agent.TaskConfig
	gen    llm.TextGenerator
	logger *logx.Logger
}

// NewFinancialProjection creates the financial projection task.
func NewFinancialProjection(cfg agent.TaskConfig, gen llm.TextGenerator) *FinancialProjectionTask {
	if cfg.TaskID == "" {
		cfg.TaskID = TaskFinancialProjection
	}
	return &FinancialProjectionTask{
		cfg:    cfg,
		gen:    gen,
		logger: logx.NewLogger(TaskFinancialProjection),
	}
}

// Config implements agent.Task.
func (t *FinancialProjectionTask) Config() agent.TaskConfig { return t.cfg }

// ValidateInput implements agent.Task.
func (t *FinancialProjectionTask) ValidateInput(idea BusinessIdea) agent.ValidationResult {
	return idea.Validate()
}

// Process implements agent.Task.
func (t *FinancialProjectionTask) Process(ctx context.Context, idea BusinessIdea, ectx agent.ExecutionContext, inv *agent.Invocation) (FinancialProjectionOutput, error) {
	years := 3
	if ectx.AnalysisDepth == agent.DepthComprehensive {
		years = 5
	}

	resp, err := t.gen.Generate(ctx, llm.Request{
		System:      "You are a startup financial analyst. Respond with a single JSON object. All monetary figures are USD numbers, not strings.",
		Prompt:      financialPrompt(idea, years),
		Temperature: t.cfg.Temperature,
		MaxTokens:   t.cfg.MaxTokens,
		Format:      llm.FormatJSON,
	})
	if err != nil {
		return FinancialProjectionOutput{}, err
	}
	inv.RecordProviderCall(resp.TokensUsed)

	var output FinancialProjectionOutput
	if err := json.Unmarshal([]byte(resp.Text), &output); err != nil {
		return FinancialProjectionOutput{}, fmt.Errorf("undecodable financial projection response: %w", err)
	}
	return output, nil
}

// ValidateOutput implements agent.Task.
func (t *FinancialProjectionTask) ValidateOutput(output FinancialProjectionOutput) agent.ValidationResult {
	var issues []agent.ValidationIssue
	if output.RevenueModel == "" {
		issues = append(issues, agent.ValidationIssue{
			Field: "revenueModel", Message: "must not be empty", Severity: "error",
		})
	}
	for i, p := range output.Projections {
		if p.Revenue < 0 || p.Costs < 0 {
			issues = append(issues, agent.ValidationIssue{
				Field:    fmt.Sprintf("projections[%d]", i),
				Message:  "revenue and costs must be non-negative",
				Severity: "error",
			})
		}
	}
	if len(issues) > 0 {
		return agent.Invalid(issues...)
	}
	return agent.Valid()
}

// Quality implements agent.Task. Placeholder heuristic rewarding quantified
// projections.
func (t *FinancialProjectionTask) Quality(output FinancialProjectionOutput) float64 {
	score := sectionScore(output.Sections(), map[string]float64{
		"revenueModel":  20,
		"startupCosts":  15,
		"projections":   25,
		"breakEven":     15,
		"fundingAdvice": 10,
		"summary":       10,
	})
	if len(output.Projections) >= 3 {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

func financialPrompt(idea BusinessIdea, years int) string {
	return fmt.Sprintf(`Estimate the economics of this business idea over %d years.

Title: %s
Category: %s
Description: %s

Respond with JSON using exactly these keys:
{"revenueModel": "...", "startupCosts": 0, "projections": [{"year": 1, "revenue": 0, "costs": 0}], "breakEvenMonths": 0, "fundingAdvice": [...], "summary": "..."}`,
		years, idea.Title, idea.Category, idea.Description)
}
