// Package pattern provides the decision pattern domain model: mined
// regularities, the episode-based decision context, and combined pattern
// results produced by the fusion engine.
package pattern

// Type discriminates what a pattern recommends.
type Type string

const (
	// TypeTaskCount recommends how many tasks to assign.
	TypeTaskCount Type = "task_count"
	// TypeSprintDuration recommends the sprint duration in weeks.
	TypeSprintDuration Type = "sprint_duration"
	// TypeTeamSizeCorrelation correlates team size with outcome quality.
	TypeTeamSizeCorrelation Type = "team_size_correlation"
	// TypeTechnologyCorrelation correlates technology overlap with outcome
	// quality.
	TypeTechnologyCorrelation Type = "technology_correlation"
)

// SourceEpisode and SourceChronicle name the two independent evidence
// sources fused by the combiner.
const (
	SourceEpisode   = "episode"
	SourceChronicle = "chronicle"
)

// DecisionPattern is one mined regularity linking context to a recommended
// decision value with measured success.
type DecisionPattern struct {
	// Type discriminates the pattern.
	Type Type `json:"patternType"`

	// Value is the recommended scalar.
	Value float64 `json:"patternValue"`

	// SuccessRate is the measured success rate in [0,1].
	SuccessRate float64 `json:"successRate"`

	// EpisodeCount is the supporting evidence size.
	EpisodeCount int `json:"episodeCount"`

	// Confidence is the pattern confidence in [0,1]. It is never reported
	// above what the evidence count and success rate jointly justify.
	Confidence float64 `json:"confidence"`
}

// Insight is a human-readable derived observation. Purely presentational;
// never used in quantitative decisions.
type Insight struct {
	// Text is the observation.
	Text string `json:"text"`

	// Confidence is the insight confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// EpisodeCount is the supporting evidence size.
	EpisodeCount int `json:"episodeCount"`

	// SuccessCorrelation is the signed correlation to outcome quality.
	SuccessCorrelation float64 `json:"successCorrelation"`
}

// EpisodeSummary summarizes one contributing episode for explainability.
type EpisodeSummary struct {
	// EpisodeID identifies the episode.
	EpisodeID string `json:"episodeId"`

	// Similarity is the retrieval similarity in [0,1].
	Similarity float64 `json:"similarity"`

	// OutcomeQuality is the recorded outcome quality; nil if unrecorded.
	OutcomeQuality *float64 `json:"outcomeQuality,omitempty"`

	// DecisionSummary describes the decision that was taken.
	DecisionSummary string `json:"decisionSummary"`

	// KeyLearning is the main learning extracted from the episode.
	KeyLearning string `json:"keyLearning"`
}

// EpisodeBasedDecisionContext is the memory bridge's output: the structured
// translation of retrieved episodes into decision evidence. All numeric
// fields are zero and all lists empty when no usable episodes exist.
type EpisodeBasedDecisionContext struct {
	// SimilarEpisodesAnalyzed counts the episodes given to the bridge.
	SimilarEpisodesAnalyzed int `json:"similarEpisodesAnalyzed"`

	// EpisodesUsedForContext counts the episodes that survived filtering.
	EpisodesUsedForContext int `json:"episodesUsedForContext"`

	// AverageEpisodeSimilarity is the mean similarity of used episodes.
	AverageEpisodeSimilarity float64 `json:"averageEpisodeSimilarity"`

	// ContextQualityScore measures how much the evidence should be trusted.
	ContextQualityScore float64 `json:"contextQualityScore"`

	// AverageSuccessRate is the mean outcome quality of used episodes.
	AverageSuccessRate float64 `json:"averageSuccessRate"`

	// SuccessRateConfidence scales with how many episodes had outcome data.
	SuccessRateConfidence float64 `json:"successRateConfidence"`

	// IdentifiedPatterns are the patterns mined from the used episodes.
	IdentifiedPatterns []DecisionPattern `json:"identifiedPatterns,omitempty"`

	// RecommendedTaskCount is the task count of the best task-count pattern,
	// 0 when no such pattern exists.
	RecommendedTaskCount int `json:"recommendedTaskCount"`

	// RecommendedSprintDurationWeeks is the duration of the best
	// sprint-duration pattern, 0 when no such pattern exists.
	RecommendedSprintDurationWeeks int `json:"recommendedSprintDurationWeeks"`

	// OverallRecommendationConfidence is the confidence in the
	// recommendations, in [0,1].
	OverallRecommendationConfidence float64 `json:"overallRecommendationConfidence"`

	// PatternConfidenceWeight is the mean confidence of mined patterns.
	PatternConfidenceWeight float64 `json:"patternConfidenceWeight"`

	// KeyInsights, SuccessFactors, and RiskFactors are narrative text.
	KeyInsights    []string `json:"keyInsights,omitempty"`
	SuccessFactors []string `json:"successFactors,omitempty"`
	RiskFactors    []string `json:"riskFactors,omitempty"`

	// ContributingEpisodes summarizes the used episodes.
	ContributingEpisodes []EpisodeSummary `json:"contributingEpisodes,omitempty"`

	// ProcessingDurationMs is the wall-clock duration of the translation.
	ProcessingDurationMs float64 `json:"processingDurationMs"`
}

// SourceContribution records one source's input to a combined pattern.
type SourceContribution struct {
	// Value is the value the source proposed.
	Value float64 `json:"value"`

	// SuccessRate is the source's measured success rate.
	SuccessRate float64 `json:"successRate"`

	// Confidence is the source's own confidence.
	Confidence float64 `json:"confidence"`

	// EvidenceCount is the source's supporting evidence size.
	EvidenceCount int `json:"evidenceCount"`
}

// CombinedPattern is one fused recommendation produced by the combiner.
type CombinedPattern struct {
	// Type discriminates the pattern.
	Type Type `json:"patternType"`

	// Value is the fused recommended scalar.
	Value float64 `json:"patternValue"`

	// SuccessRate is the fused success rate.
	SuccessRate float64 `json:"successRate"`

	// Confidence is the fused confidence.
	Confidence float64 `json:"confidence"`

	// EpisodeSourceWeight and ChronicleSourceWeight are the per-pattern
	// source weights; they sum to 1.0.
	EpisodeSourceWeight   float64 `json:"episodeSourceWeight"`
	ChronicleSourceWeight float64 `json:"chronicleSourceWeight"`

	// TotalEvidenceCount sums evidence from all contributing sources.
	TotalEvidenceCount int `json:"totalEvidenceCount"`

	// SourceBreakdown maps source name to its contribution.
	SourceBreakdown map[string]SourceContribution `json:"sourceBreakdown,omitempty"`
}

// CombinationResult is the combiner's output.
type CombinationResult struct {
	// CombinedPatterns are all fused patterns, including ones below the
	// recommendation confidence threshold.
	CombinedPatterns []CombinedPattern `json:"combinedPatterns"`

	// OverallConfidence summarizes the result confidence in [0,1].
	OverallConfidence float64 `json:"overallConfidence"`

	// PatternSourceInfluence maps source name to its overall weight.
	PatternSourceInfluence map[string]float64 `json:"patternSourceInfluence"`

	// Reasoning is the ordered trace of fusion decisions taken.
	Reasoning []string `json:"reasoning,omitempty"`

	// Metadata carries free-form annotations, including per-source error
	// descriptions for degraded inputs.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
