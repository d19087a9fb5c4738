package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"ideascope/pkg/agent"
	"ideascope/pkg/datasource"
	"ideascope/pkg/llm"
	"ideascope/pkg/logx"
	"ideascope/pkg/tokens"
)

// TaskCompetitorAnalysis identifies the competitor analysis task.
const TaskCompetitorAnalysis = "competitor-analysis"

// Competitor is one identified competitor.
type Competitor struct {
	Name        string   `json:"name"`
	Positioning string   `json:"positioning"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
}

// CompetitorAnalysisOutput maps the competitive landscape for one idea.
type CompetitorAnalysisOutput struct {
	Competitors     []Competitor `json:"competitors"`
	MarketGaps      []string     `json:"marketGaps"`
	Differentiation []string     `json:"differentiation"`
	Summary         string       `json:"summary"`
}

// Sections implements Assessable.
func (o CompetitorAnalysisOutput) Sections() map[string]bool {
	return map[string]bool{
		"competitors":     len(o.Competitors) > 0,
		"marketGaps":      len(o.MarketGaps) > 0,
		"differentiation": len(o.Differentiation) > 0,
		"summary":         o.Summary != "",
	}
}

// ActionableFields implements Assessable.
func (o CompetitorAnalysisOutput) ActionableFields() int {
	return len(o.MarketGaps) + len(o.Differentiation)
}

// CompetitorAnalysisTask maps the competitive landscape, enriching the
// prompt with external lookup data when a source is available.
type CompetitorAnalysisTask struct {
	cfg    agent.TaskConfig
	gen    llm.TextGenerator
	source datasource.Source
	logger *logx.Logger
}

// NewCompetitorAnalysis creates the competitor analysis task. source may be
// nil; the task then relies on the generator alone.
func NewCompetitorAnalysis(cfg agent.TaskConfig, gen llm.TextGenerator, source datasource.Source) *CompetitorAnalysisTask {
	if cfg.TaskID == "" {
		cfg.TaskID = TaskCompetitorAnalysis
	}
	return &CompetitorAnalysisTask{
		cfg:    cfg,
		gen:    gen,
		source: source,
		logger: logx.NewLogger(TaskCompetitorAnalysis),
	}
}

// Config implements agent.Task.
func (t *CompetitorAnalysisTask) Config() agent.TaskConfig { return t.cfg }

// ValidateInput implements agent.Task.
func (t *CompetitorAnalysisTask) ValidateInput(idea BusinessIdea) agent.ValidationResult {
	return idea.Validate()
}

// Process implements agent.Task.
func (t *CompetitorAnalysisTask) Process(ctx context.Context, idea BusinessIdea, ectx agent.ExecutionContext, inv *agent.Invocation) (CompetitorAnalysisOutput, error) {
	marketData := t.lookup(ctx, idea, inv)

	resp, err := t.gen.Generate(ctx, llm.Request{
		System:      "You are a competitive intelligence analyst. Respond with a single JSON object.",
		Prompt:      competitorPrompt(idea, marketData, ectx.AnalysisDepth),
		Temperature: t.cfg.Temperature,
		MaxTokens:   t.cfg.MaxTokens,
		Format:      llm.FormatJSON,
	})
	if err != nil {
		return CompetitorAnalysisOutput{}, err
	}
	inv.RecordProviderCall(resp.TokensUsed)

	var output CompetitorAnalysisOutput
	if err := json.Unmarshal([]byte(resp.Text), &output); err != nil {
		return CompetitorAnalysisOutput{}, fmt.Errorf("undecodable competitor analysis response: %w", err)
	}
	return output, nil
}

// lookupBudget caps how many tokens of lookup data are folded into the
// prompt; oversized payloads are dropped rather than blowing the budget.
const lookupBudget = 2000

// lookup fetches competitor data; lookup failures degrade to an empty
// enrichment rather than failing the task. A successful non-memoized
// fetch is a provider call and counts toward apiCalls (zero tokens).
func (t *CompetitorAnalysisTask) lookup(ctx context.Context, idea BusinessIdea, inv *agent.Invocation) string {
	if t.source == nil {
		return ""
	}
	query := fmt.Sprintf("competitors %s %s", idea.Category, idea.Title)
	result, err := t.source.FetchData(ctx, query)
	if err != nil {
		t.logger.Warn("competitor lookup failed, continuing without external data: %v", err)
		return ""
	}
	if !result.Metadata.Cached {
		inv.RecordProviderCall(0)
	}
	if tokens.Estimate(string(result.Data)) > lookupBudget {
		t.logger.Warn("competitor lookup payload too large, skipping enrichment")
		return ""
	}
	return string(result.Data)
}

// ValidateOutput implements agent.Task.
func (t *CompetitorAnalysisTask) ValidateOutput(output CompetitorAnalysisOutput) agent.ValidationResult {
	if output.Summary == "" {
		return agent.Invalid(agent.ValidationIssue{
			Field: "summary", Message: "must not be empty", Severity: "error",
		})
	}
	for i, c := range output.Competitors {
		if c.Name == "" {
			return agent.Invalid(agent.ValidationIssue{
				Field:    fmt.Sprintf("competitors[%d].name", i),
				Message:  "must not be empty",
				Severity: "error",
			})
		}
	}
	return agent.Valid()
}

// Quality implements agent.Task. Placeholder heuristic rewarding landscape
// coverage.
func (t *CompetitorAnalysisTask) Quality(output CompetitorAnalysisOutput) float64 {
	score := sectionScore(output.Sections(), map[string]float64{
		"competitors":     35,
		"marketGaps":      25,
		"differentiation": 25,
		"summary":         15,
	})
	if len(output.Competitors) >= 3 {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

func competitorPrompt(idea BusinessIdea, marketData, depth string) string {
	enrichment := ""
	if marketData != "" {
		enrichment = fmt.Sprintf("\nKnown market data (JSON):\n%s\n", marketData)
	}

	count := "3-5"
	if depth == agent.DepthComprehensive {
		count = "5-8"
	}

	return fmt.Sprintf(`Map the competitive landscape for this business idea. Identify %s competitors.

Title: %s
Category: %s
Description: %s
%s
Respond with JSON using exactly these keys:
{"competitors": [{"name": "...", "positioning": "...", "strengths": [...], "weaknesses": [...]}], "marketGaps": [...], "differentiation": [...], "summary": "..."}`,
		count, idea.Title, idea.Category, idea.Description, enrichment)
}
