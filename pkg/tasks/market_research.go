package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"ideascope/pkg/agent"
	"ideascope/pkg/llm"
	"ideascope/pkg/logx"
	"ideascope/pkg/tokens"
)

// TaskMarketResearch identifies the market research task.
const TaskMarketResearch = "market-research"

// MarketResearchOutput is the structured market assessment for one idea.
type MarketResearchOutput struct {
	MarketSize     string   `json:"marketSize"`
	GrowthRate     string   `json:"growthRate"`
	TargetSegments []string `json:"targetSegments"`
	Trends         []string `json:"trends"`
	Opportunities  []string `json:"opportunities"`
	Risks          []string `json:"risks"`
	Summary        string   `json:"summary"`
}

// Sections implements Assessable.
func (o MarketResearchOutput) Sections() map[string]bool {
	return map[string]bool{
		"marketSize":     o.MarketSize != "",
		"growthRate":     o.GrowthRate != "",
		"targetSegments": len(o.TargetSegments) > 0,
		"trends":         len(o.Trends) > 0,
		"opportunities":  len(o.Opportunities) > 0,
		"risks":          len(o.Risks) > 0,
		"summary":        o.Summary != "",
	}
}

// ActionableFields implements Assessable.
func (o MarketResearchOutput) ActionableFields() int {
	count := 0
	if o.MarketSize != "" {
		count++
	}
	if o.GrowthRate != "" {
		count++
	}
	count += len(o.TargetSegments)
	count += len(o.Opportunities)
	return count
}

// promptBudget caps how many tokens of the idea description make it into
// the prompt.
const promptBudget = 1500

// MarketResearchTask sizes the market for a business idea.
type MarketResearchTask struct {
	cfg     agent.TaskConfig
	gen     llm.TextGenerator
	counter *tokens.Counter
	logger  *logx.Logger
}

// NewMarketResearch creates the market research task.
func NewMarketResearch(cfg agent.TaskConfig, gen llm.TextGenerator) *MarketResearchTask {
	if cfg.TaskID == "" {
		cfg.TaskID = TaskMarketResearch
	}
	counter, err := tokens.NewCounter(cfg.Model)
	if err != nil {
		counter = nil // Count falls back to a byte estimate
	}
	return &MarketResearchTask{
		cfg:     cfg,
		gen:     gen,
		counter: counter,
		logger:  logx.NewLogger(TaskMarketResearch),
	}
}

// Config implements agent.Task.
func (t *MarketResearchTask) Config() agent.TaskConfig { return t.cfg }

// ValidateInput implements agent.Task.
func (t *MarketResearchTask) ValidateInput(idea BusinessIdea) agent.ValidationResult {
	return idea.Validate()
}

// Process implements agent.Task.
func (t *MarketResearchTask) Process(ctx context.Context, idea BusinessIdea, ectx agent.ExecutionContext, inv *agent.Invocation) (MarketResearchOutput, error) {
	description := idea.Description
	if t.counter != nil {
		description = t.counter.Truncate(description, promptBudget)
	}

	resp, err := t.gen.Generate(ctx, llm.Request{
		System:      "You are a market research analyst. Respond with a single JSON object.",
		Prompt:      marketResearchPrompt(idea.Title, description, idea.Category, ectx.AnalysisDepth),
		Temperature: t.cfg.Temperature,
		MaxTokens:   t.cfg.MaxTokens,
		Format:      llm.FormatJSON,
	})
	if err != nil {
		return MarketResearchOutput{}, err
	}
	inv.RecordProviderCall(resp.TokensUsed)

	var output MarketResearchOutput
	if err := json.Unmarshal([]byte(resp.Text), &output); err != nil {
		return MarketResearchOutput{}, fmt.Errorf("undecodable market research response: %w", err)
	}
	return output, nil
}

// ValidateOutput implements agent.Task.
func (t *MarketResearchTask) ValidateOutput(output MarketResearchOutput) agent.ValidationResult {
	var issues []agent.ValidationIssue
	if output.Summary == "" {
		issues = append(issues, agent.ValidationIssue{
			Field: "summary", Message: "must not be empty", Severity: "error",
		})
	}
	if output.MarketSize == "" {
		issues = append(issues, agent.ValidationIssue{
			Field: "marketSize", Message: "must not be empty", Severity: "error",
		})
	}
	if len(issues) > 0 {
		return agent.Invalid(issues...)
	}
	return agent.Valid()
}

// Quality implements agent.Task. Placeholder heuristic: weighted section
// presence with a bonus for segment coverage.
func (t *MarketResearchTask) Quality(output MarketResearchOutput) float64 {
	score := sectionScore(output.Sections(), map[string]float64{
		"marketSize":     20,
		"growthRate":     15,
		"targetSegments": 15,
		"trends":         10,
		"opportunities":  15,
		"risks":          10,
		"summary":        10,
	})
	if len(output.TargetSegments) >= 3 {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

func marketResearchPrompt(title, description, category, depth string) string {
	detail := "Give a concise assessment."
	switch depth {
	case agent.DepthBasic:
		detail = "Keep every field brief: one sentence or a short phrase each."
	case agent.DepthComprehensive:
		detail = "Be thorough: cover niche segments, adjacent markets, and second-order trends."
	}

	return fmt.Sprintf(`Assess the market for this business idea.

Title: %s
Category: %s
Description: %s

%s

Respond with JSON using exactly these keys:
{"marketSize": "...", "growthRate": "...", "targetSegments": [...], "trends": [...], "opportunities": [...], "risks": [...], "summary": "..."}`,
		title, category, description, detail)
}
