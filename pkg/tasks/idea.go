// Package tasks implements the concrete analysis tasks: market research,
// competitor analysis, and financial projection.
package tasks

import (
	"strings"

	"ideascope/pkg/agent"
)

// BusinessIdea is the shared input for every analysis task.
type BusinessIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

const maxTitleLength = 200

// Validate checks the idea against the shared input schema.
func (i BusinessIdea) Validate() agent.ValidationResult {
	var issues []agent.ValidationIssue

	if strings.TrimSpace(i.Title) == "" {
		issues = append(issues, agent.ValidationIssue{
			Field: "title", Message: "must not be empty", Severity: "error",
		})
	} else if len(i.Title) > maxTitleLength {
		issues = append(issues, agent.ValidationIssue{
			Field: "title", Message: "must be at most 200 characters", Severity: "error",
		})
	}
	if strings.TrimSpace(i.Description) == "" {
		issues = append(issues, agent.ValidationIssue{
			Field: "description", Message: "must not be empty", Severity: "error",
		})
	}

	if len(issues) > 0 {
		return agent.Invalid(issues...)
	}
	return agent.Valid()
}

// Assessable lets the coordinator derive quality metrics from any task
// output without knowing its concrete type.
type Assessable interface {
	// Sections reports which expected sub-sections are present.
	Sections() map[string]bool
	// ActionableFields counts quantified, decision-relevant fields.
	ActionableFields() int
}

// sectionScore sums weights of present sections, capped at 100.
func sectionScore(sections map[string]bool, weights map[string]float64) float64 {
	score := 0.0
	for name, present := range sections {
		if present {
			score += weights[name]
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}
