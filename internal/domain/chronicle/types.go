// Package chronicle provides domain types for the aggregate-analytics
// evidence source: historical statistics over similar projects produced by
// the external chronicle service.
package chronicle

import (
	"github.com/sprintforge/sprintforge-go/internal/shared"
)

// SimilarProject is one historically similar project with its aggregate
// delivery statistics.
type SimilarProject struct {
	// ProjectID identifies the project.
	ProjectID string `json:"projectId"`

	// SimilarityScore is the similarity to the reference project in [0,1].
	SimilarityScore float64 `json:"similarityScore"`

	// TeamSize is the project's team size.
	TeamSize int `json:"teamSize"`

	// CompletionRate is the fraction of committed work completed, in [0,1].
	CompletionRate float64 `json:"completionRate"`

	// AvgSprintDurationWeeks is the average sprint duration.
	AvgSprintDurationWeeks float64 `json:"avgSprintDurationWeeks"`

	// OptimalTaskCount is the task count that worked best for the project.
	OptimalTaskCount float64 `json:"optimalTaskCount"`

	// KeySuccessFactors are free-form success factor descriptions.
	KeySuccessFactors []string `json:"keySuccessFactors,omitempty"`
}

// VelocityTrend summarizes velocity movement across recent sprints.
type VelocityTrend struct {
	// PeriodWeeks is the observation window.
	PeriodWeeks int `json:"periodWeeks"`

	// AvgTasksPerSprint is the mean completed tasks per sprint.
	AvgTasksPerSprint float64 `json:"avgTasksPerSprint"`

	// Direction is "improving", "stable", or "declining".
	Direction string `json:"direction"`

	// Confidence is the trend confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// Impediment is one recurring impediment category.
type Impediment struct {
	// Category names the impediment class.
	Category string `json:"category"`

	// Frequency is how often it occurred.
	Frequency int `json:"frequency"`

	// AvgResolutionDays is the mean time to resolve.
	AvgResolutionDays float64 `json:"avgResolutionDays"`

	// Description is free-form text.
	Description string `json:"description,omitempty"`
}

// Analysis aggregates the chronicle evidence the combiner consumes. A nil
// Analysis means the chronicle source is unavailable.
type Analysis struct {
	// SimilarProjects are the historically similar projects found.
	SimilarProjects []SimilarProject `json:"similarProjects,omitempty"`

	// Velocity is the velocity trend, if available.
	Velocity *VelocityTrend `json:"velocity,omitempty"`

	// Impediments are recurring impediments, if available.
	Impediments []Impediment `json:"impediments,omitempty"`

	// RecommendedTaskCount is the similarity-weighted optimal task count;
	// 0 when no similar projects exist.
	RecommendedTaskCount float64 `json:"recommendedTaskCount"`

	// TaskCountConfidence is the confidence in RecommendedTaskCount.
	TaskCountConfidence float64 `json:"taskCountConfidence"`

	// RecommendedSprintDurationWeeks is the similarity-weighted sprint
	// duration; 0 when no similar projects exist.
	RecommendedSprintDurationWeeks float64 `json:"recommendedSprintDurationWeeks"`

	// SprintDurationConfidence is the confidence in the duration.
	SprintDurationConfidence float64 `json:"sprintDurationConfidence"`

	// AvgCompletionRate is the mean completion rate of similar projects.
	AvgCompletionRate float64 `json:"avgCompletionRate"`
}

// BuildAnalysis derives an Analysis from raw chronicle query results.
// Recommendations are similarity-weighted means over the similar projects;
// confidence grows with the number of projects and their average similarity.
func BuildAnalysis(projects []SimilarProject, velocity *VelocityTrend, impediments []Impediment) *Analysis {
	analysis := &Analysis{
		SimilarProjects: projects,
		Velocity:        velocity,
		Impediments:     impediments,
	}

	if len(projects) == 0 {
		return analysis
	}

	var weightSum, taskSum, durationSum, completionSum, similaritySum float64
	for _, p := range projects {
		weight := shared.Clamp01(p.SimilarityScore)
		if weight == 0 {
			weight = 0.01
		}
		weightSum += weight
		taskSum += weight * p.OptimalTaskCount
		durationSum += weight * p.AvgSprintDurationWeeks
		completionSum += shared.Clamp01(p.CompletionRate)
		similaritySum += shared.Clamp01(p.SimilarityScore)
	}

	analysis.RecommendedTaskCount = taskSum / weightSum
	analysis.RecommendedSprintDurationWeeks = durationSum / weightSum
	analysis.AvgCompletionRate = completionSum / float64(len(projects))

	avgSimilarity := similaritySum / float64(len(projects))
	countFactor := float64(len(projects)) / 5.0
	if countFactor > 1 {
		countFactor = 1
	}
	confidence := shared.Clamp01(0.5*countFactor + 0.3*avgSimilarity + 0.2*analysis.AvgCompletionRate)
	analysis.TaskCountConfidence = confidence
	analysis.SprintDurationConfidence = confidence

	return analysis
}
