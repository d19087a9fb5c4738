package coordinator

import (
	"ideascope/pkg/agent"
	"ideascope/pkg/tasks"
)

// consistencyPlaceholder stands in until cross-task agreement checks land.
// A stable hook: the metric is always populated so downstream consumers do
// not need schema changes when real scoring arrives.
const consistencyPlaceholder = 75.0

// qualityMetrics derives composite quality scores from the task results.
func (c *Coordinator) qualityMetrics(results map[string]agent.AgentResult[any]) QualityMetrics {
	metrics := QualityMetrics{
		Consistency: consistencyPlaceholder,
	}

	var (
		completenessSum  float64
		actionableFields int
		assessed         int
	)
	for _, result := range results {
		if !result.Success {
			continue
		}
		report, ok := result.Data.(tasks.Assessable)
		if !ok {
			continue
		}
		assessed++
		completenessSum += sectionCompleteness(report.Sections())
		actionableFields += report.ActionableFields()
	}

	if assessed > 0 {
		metrics.Completeness = completenessSum / float64(assessed)
	}
	metrics.Actionability = actionabilityScore(actionableFields)

	if primary, ok := results[c.primaryTask]; ok && primary.Success {
		metrics.Reliability = primary.Metadata.Confidence
	}

	return metrics
}

// sectionCompleteness scores one output by its fraction of present
// sections, on the 0-100 scale.
func sectionCompleteness(sections map[string]bool) float64 {
	if len(sections) == 0 {
		return 0
	}
	present := 0
	for _, ok := range sections {
		if ok {
			present++
		}
	}
	return float64(present) / float64(len(sections)) * 100
}

// actionabilityScore rewards quantified, decision-relevant fields, capped
// at 100.
func actionabilityScore(fields int) float64 {
	score := float64(fields) * 10
	if score > 100 {
		score = 100
	}
	return score
}
