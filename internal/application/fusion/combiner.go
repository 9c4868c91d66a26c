// Package fusion provides the pattern combiner: the engine that merges
// episode-based decision context with chronicle aggregate analytics into a
// single weighted, confidence-scored set of recommendations.
package fusion

import (
	"fmt"
	"math"

	"github.com/sprintforge/sprintforge-go/internal/domain/chronicle"
	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
	"github.com/sprintforge/sprintforge-go/internal/domain/pattern"
	"github.com/sprintforge/sprintforge-go/internal/shared"
)

// RecommendedTaskCountKey and RecommendedSprintDurationKey are the keys of
// the recommended-values mapping consumed by the decision engine.
const (
	RecommendedTaskCountKey      = "recommended_task_count"
	RecommendedSprintDurationKey = "recommended_sprint_duration_weeks"
)

// fusedTypes are the pattern types the combiner fuses, in output order.
var fusedTypes = []pattern.Type{pattern.TypeTaskCount, pattern.TypeSprintDuration}

// Config configures the combiner.
type Config struct {
	// EpisodeBaseWeight is the base weight of the episode source when both
	// sources are present.
	EpisodeBaseWeight float64 `json:"episodeBaseWeight" yaml:"episode_base_weight"`

	// ChronicleBaseWeight is the base weight of the chronicle source.
	ChronicleBaseWeight float64 `json:"chronicleBaseWeight" yaml:"chronicle_base_weight"`

	// MinPatternConfidence is the confidence a combined pattern needs to be
	// exposed as a recommendation.
	MinPatternConfidence float64 `json:"minPatternConfidence" yaml:"min_pattern_confidence"`
}

// DefaultConfig returns the default combiner configuration.
func DefaultConfig() Config {
	return Config{
		EpisodeBaseWeight:    0.4,
		ChronicleBaseWeight:  0.6,
		MinPatternConfidence: 0.3,
	}
}

// Combiner fuses the two evidence sources. Pure and stateless apart from
// immutable configuration; CombinePatterns never panics and never returns
// an error — degraded input is annotated in the result instead.
type Combiner struct {
	config Config
}

// NewCombiner creates a combiner, filling zero config fields with defaults.
func NewCombiner(config Config) *Combiner {
	defaults := DefaultConfig()
	if config.EpisodeBaseWeight <= 0 {
		config.EpisodeBaseWeight = defaults.EpisodeBaseWeight
	}
	if config.ChronicleBaseWeight <= 0 {
		config.ChronicleBaseWeight = defaults.ChronicleBaseWeight
	}
	if config.MinPatternConfidence <= 0 {
		config.MinPatternConfidence = defaults.MinPatternConfidence
	}
	return &Combiner{config: config}
}

// sourcePattern is one source's proposal for a pattern type.
type sourcePattern struct {
	value       float64
	successRate float64
	confidence  float64
	evidence    int
}

// sourceEvidence is the boundary-validated view of one evidence source:
// either present with patterns, or absent (missing or degraded).
type sourceEvidence struct {
	present  bool
	patterns map[pattern.Type]sourcePattern

	// Episode source quality signals.
	contextQuality   float64
	episodesUsed     int
	recommendationOK float64

	// Chronicle source quality signals.
	similarProjects int
	avgCompletion   float64
}

// CombinePatterns fuses the episode-based context with the chronicle
// analysis. Either source may be nil; with both absent the result is empty
// with confidence zero, which is valid output, not an error.
func (c *Combiner) CombinePatterns(episodeCtx *pattern.EpisodeBasedDecisionContext, analysis *chronicle.Analysis, current episode.ProjectContext) *pattern.CombinationResult {
	result := &pattern.CombinationResult{
		PatternSourceInfluence: map[string]float64{
			pattern.SourceEpisode:   0,
			pattern.SourceChronicle: 0,
		},
		Metadata: map[string]interface{}{},
	}

	episodeSrc := c.episodeEvidence(episodeCtx, result)
	chronicleSrc := c.chronicleEvidence(analysis, result)

	if !episodeSrc.present && !chronicleSrc.present {
		result.Reasoning = append(result.Reasoning, "no evidence sources available; returning empty result")
		return result
	}

	episodeWeight, chronicleWeight := c.sourceWeights(episodeSrc, chronicleSrc)
	result.PatternSourceInfluence[pattern.SourceEpisode] = episodeWeight
	result.PatternSourceInfluence[pattern.SourceChronicle] = chronicleWeight
	result.Reasoning = append(result.Reasoning, fmt.Sprintf(
		"source weights: episode %.2f, chronicle %.2f", episodeWeight, chronicleWeight))

	for _, patternType := range fusedTypes {
		fromEpisode, hasEpisode := episodeSrc.patterns[patternType]
		fromChronicle, hasChronicle := chronicleSrc.patterns[patternType]

		switch {
		case hasEpisode && hasChronicle:
			result.CombinedPatterns = append(result.CombinedPatterns,
				c.fuseBoth(patternType, fromEpisode, fromChronicle, episodeWeight, chronicleWeight, result))
		case hasEpisode:
			result.CombinedPatterns = append(result.CombinedPatterns,
				c.carrySingle(patternType, fromEpisode, pattern.SourceEpisode, result))
		case hasChronicle:
			result.CombinedPatterns = append(result.CombinedPatterns,
				c.carrySingle(patternType, fromChronicle, pattern.SourceChronicle, result))
		}
	}

	result.OverallConfidence = overallConfidence(result.CombinedPatterns)
	return result
}

// GetRecommendedValues extracts the recommendation mapping, exposing only
// combined patterns whose confidence meets the configured threshold.
func (c *Combiner) GetRecommendedValues(result *pattern.CombinationResult) map[string]float64 {
	values := make(map[string]float64)
	if result == nil {
		return values
	}
	for _, p := range result.CombinedPatterns {
		if p.Confidence < c.config.MinPatternConfidence {
			continue
		}
		switch p.Type {
		case pattern.TypeTaskCount:
			values[RecommendedTaskCountKey] = p.Value
		case pattern.TypeSprintDuration:
			values[RecommendedSprintDurationKey] = p.Value
		}
	}
	return values
}

// episodeEvidence validates the episode source at the boundary. Malformed
// input degrades the source to absent with an explanatory annotation.
func (c *Combiner) episodeEvidence(ctx *pattern.EpisodeBasedDecisionContext, result *pattern.CombinationResult) sourceEvidence {
	if ctx == nil {
		result.Reasoning = append(result.Reasoning, "episode source absent")
		return sourceEvidence{}
	}

	if reason := malformedEpisodeContext(ctx); reason != "" {
		c.degradeSource(result, pattern.SourceEpisode, reason)
		return sourceEvidence{}
	}

	evidence := sourceEvidence{
		present:          true,
		patterns:         make(map[pattern.Type]sourcePattern),
		contextQuality:   ctx.ContextQualityScore,
		episodesUsed:     ctx.EpisodesUsedForContext,
		recommendationOK: ctx.OverallRecommendationConfidence,
	}

	for _, p := range ctx.IdentifiedPatterns {
		if p.Type != pattern.TypeTaskCount && p.Type != pattern.TypeSprintDuration {
			continue
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) || p.EpisodeCount < 0 {
			c.degradeSource(result, pattern.SourceEpisode,
				fmt.Sprintf("skipping malformed %s pattern", p.Type))
			continue
		}
		existing, exists := evidence.patterns[p.Type]
		if !exists || p.SuccessRate > existing.successRate {
			evidence.patterns[p.Type] = sourcePattern{
				value:       p.Value,
				successRate: shared.Clamp01(p.SuccessRate),
				confidence:  shared.Clamp01(p.Confidence),
				evidence:    p.EpisodeCount,
			}
		}
	}

	// Recommended values stand in when the pattern list was filtered away.
	if _, ok := evidence.patterns[pattern.TypeTaskCount]; !ok && ctx.RecommendedTaskCount > 0 {
		evidence.patterns[pattern.TypeTaskCount] = sourcePattern{
			value:       float64(ctx.RecommendedTaskCount),
			successRate: ctx.AverageSuccessRate,
			confidence:  ctx.OverallRecommendationConfidence,
			evidence:    ctx.EpisodesUsedForContext,
		}
	}
	if _, ok := evidence.patterns[pattern.TypeSprintDuration]; !ok && ctx.RecommendedSprintDurationWeeks > 0 {
		evidence.patterns[pattern.TypeSprintDuration] = sourcePattern{
			value:       float64(ctx.RecommendedSprintDurationWeeks),
			successRate: ctx.AverageSuccessRate,
			confidence:  ctx.OverallRecommendationConfidence,
			evidence:    ctx.EpisodesUsedForContext,
		}
	}

	result.Reasoning = append(result.Reasoning, fmt.Sprintf(
		"episode source: %d episodes used, context quality %.2f, %d fusable patterns",
		evidence.episodesUsed, evidence.contextQuality, len(evidence.patterns)))
	return evidence
}

// malformedEpisodeContext returns a non-empty reason when the context
// violates its own documented ranges.
func malformedEpisodeContext(ctx *pattern.EpisodeBasedDecisionContext) string {
	switch {
	case ctx.EpisodesUsedForContext < 0 || ctx.SimilarEpisodesAnalyzed < 0:
		return "episode context reports negative episode counts"
	case !shared.IsFraction(ctx.ContextQualityScore):
		return "episode context quality score outside [0,1]"
	case !shared.IsFraction(ctx.OverallRecommendationConfidence):
		return "episode recommendation confidence outside [0,1]"
	case !shared.IsFraction(ctx.AverageSuccessRate):
		return "episode average success rate outside [0,1]"
	case !shared.IsFraction(ctx.AverageEpisodeSimilarity):
		return "episode average similarity outside [0,1]"
	default:
		return ""
	}
}

// chronicleEvidence validates the chronicle source at the boundary.
func (c *Combiner) chronicleEvidence(analysis *chronicle.Analysis, result *pattern.CombinationResult) sourceEvidence {
	if analysis == nil {
		result.Reasoning = append(result.Reasoning, "chronicle source absent")
		return sourceEvidence{}
	}

	if reason := malformedAnalysis(analysis); reason != "" {
		c.degradeSource(result, pattern.SourceChronicle, reason)
		return sourceEvidence{}
	}

	evidence := sourceEvidence{
		present:         true,
		patterns:        make(map[pattern.Type]sourcePattern),
		similarProjects: len(analysis.SimilarProjects),
		avgCompletion:   shared.Clamp01(analysis.AvgCompletionRate),
	}

	if analysis.RecommendedTaskCount > 0 {
		evidence.patterns[pattern.TypeTaskCount] = sourcePattern{
			value:       analysis.RecommendedTaskCount,
			successRate: shared.Clamp01(analysis.AvgCompletionRate),
			confidence:  shared.Clamp01(analysis.TaskCountConfidence),
			evidence:    len(analysis.SimilarProjects),
		}
	}
	if analysis.RecommendedSprintDurationWeeks > 0 {
		evidence.patterns[pattern.TypeSprintDuration] = sourcePattern{
			value:       analysis.RecommendedSprintDurationWeeks,
			successRate: shared.Clamp01(analysis.AvgCompletionRate),
			confidence:  shared.Clamp01(analysis.SprintDurationConfidence),
			evidence:    len(analysis.SimilarProjects),
		}
	}

	result.Reasoning = append(result.Reasoning, fmt.Sprintf(
		"chronicle source: %d similar projects, %.0f%% average completion, %d fusable patterns",
		evidence.similarProjects, evidence.avgCompletion*100, len(evidence.patterns)))
	return evidence
}

// malformedAnalysis returns a non-empty reason when the analysis violates
// its own documented ranges.
func malformedAnalysis(analysis *chronicle.Analysis) string {
	switch {
	case math.IsNaN(analysis.RecommendedTaskCount) || math.IsInf(analysis.RecommendedTaskCount, 0):
		return "chronicle recommended task count is not a number"
	case math.IsNaN(analysis.RecommendedSprintDurationWeeks) || math.IsInf(analysis.RecommendedSprintDurationWeeks, 0):
		return "chronicle recommended sprint duration is not a number"
	case analysis.RecommendedTaskCount < 0 || analysis.RecommendedSprintDurationWeeks < 0:
		return "chronicle recommendations are negative"
	case !shared.IsFraction(analysis.AvgCompletionRate):
		return "chronicle completion rate outside [0,1]"
	default:
		return ""
	}
}

// degradeSource records that a source was treated as absent because its
// input was malformed.
func (c *Combiner) degradeSource(result *pattern.CombinationResult, source, reason string) {
	entry := fmt.Sprintf("%s source degraded: %s", source, reason)
	result.Reasoning = append(result.Reasoning, entry)
	if existing, ok := result.Metadata["error"].(string); ok && existing != "" {
		result.Metadata["error"] = existing + "; " + entry
	} else {
		result.Metadata["error"] = entry
	}
}

// sourceWeights computes the dynamic per-source weights. With one source
// present that source takes 1.0; with both, the base weights are adjusted
// by evidence quality and normalized to sum to 1.0.
func (c *Combiner) sourceWeights(episodeSrc, chronicleSrc sourceEvidence) (float64, float64) {
	switch {
	case episodeSrc.present && !chronicleSrc.present:
		return 1.0, 0.0
	case !episodeSrc.present && chronicleSrc.present:
		return 0.0, 1.0
	case !episodeSrc.present && !chronicleSrc.present:
		return 0.0, 0.0
	}

	episodeWeight := c.config.EpisodeBaseWeight
	episodeWeight += 0.1 * episodeSrc.contextQuality
	episodeWeight += 0.1 * episodeSrc.recommendationOK
	if episodeSrc.episodesUsed >= 5 {
		episodeWeight += 0.05
	}

	chronicleWeight := c.config.ChronicleBaseWeight
	projectFactor := float64(chronicleSrc.similarProjects) / 5.0
	if projectFactor > 1 {
		projectFactor = 1
	}
	chronicleWeight += 0.1 * projectFactor
	chronicleWeight += 0.1 * chronicleSrc.avgCompletion

	total := episodeWeight + chronicleWeight
	return episodeWeight / total, chronicleWeight / total
}

// fuseBoth merges proposals from both sources for one pattern type.
// Numerically equal values are agreement: independent evidence converging
// on the same decision is stronger than either source alone, so the fused
// confidence is lifted above both individual confidences.
func (c *Combiner) fuseBoth(patternType pattern.Type, fromEpisode, fromChronicle sourcePattern, episodeWeight, chronicleWeight float64, result *pattern.CombinationResult) pattern.CombinedPattern {
	combined := pattern.CombinedPattern{
		Type:                  patternType,
		Value:                 episodeWeight*fromEpisode.value + chronicleWeight*fromChronicle.value,
		SuccessRate:           episodeWeight*fromEpisode.successRate + chronicleWeight*fromChronicle.successRate,
		EpisodeSourceWeight:   episodeWeight,
		ChronicleSourceWeight: chronicleWeight,
		TotalEvidenceCount:    fromEpisode.evidence + fromChronicle.evidence,
		SourceBreakdown: map[string]pattern.SourceContribution{
			pattern.SourceEpisode:   contributionOf(fromEpisode),
			pattern.SourceChronicle: contributionOf(fromChronicle),
		},
	}

	if math.Abs(fromEpisode.value-fromChronicle.value) < 1e-6 {
		maxConfidence := math.Max(fromEpisode.confidence, fromChronicle.confidence)
		combined.Confidence = shared.Clamp01(maxConfidence + (1-maxConfidence)*0.5)
		result.Reasoning = append(result.Reasoning, fmt.Sprintf(
			"%s: both sources agree on %.1f; confidence boosted %.2f -> %.2f",
			patternType, combined.Value, maxConfidence, combined.Confidence))
	} else {
		combined.Confidence = shared.Clamp01(
			episodeWeight*fromEpisode.confidence + chronicleWeight*fromChronicle.confidence)
		result.Reasoning = append(result.Reasoning, fmt.Sprintf(
			"%s: fused episode %.1f and chronicle %.1f into %.1f (confidence %.2f)",
			patternType, fromEpisode.value, fromChronicle.value, combined.Value, combined.Confidence))
	}

	if combined.Confidence < c.config.MinPatternConfidence {
		result.Reasoning = append(result.Reasoning, fmt.Sprintf(
			"%s: confidence %.2f below %.2f threshold; excluded from recommendations",
			patternType, combined.Confidence, c.config.MinPatternConfidence))
	}

	return combined
}

// carrySingle carries a pattern proposed by only one source, at full weight
// for that source and without inflating its confidence.
func (c *Combiner) carrySingle(patternType pattern.Type, from sourcePattern, source string, result *pattern.CombinationResult) pattern.CombinedPattern {
	combined := pattern.CombinedPattern{
		Type:               patternType,
		Value:              from.value,
		SuccessRate:        from.successRate,
		Confidence:         from.confidence,
		TotalEvidenceCount: from.evidence,
		SourceBreakdown: map[string]pattern.SourceContribution{
			source: contributionOf(from),
		},
	}
	if source == pattern.SourceEpisode {
		combined.EpisodeSourceWeight = 1.0
	} else {
		combined.ChronicleSourceWeight = 1.0
	}

	result.Reasoning = append(result.Reasoning, fmt.Sprintf(
		"%s: carried from %s source only (value %.1f, confidence %.2f)",
		patternType, source, from.value, from.confidence))
	if combined.Confidence < c.config.MinPatternConfidence {
		result.Reasoning = append(result.Reasoning, fmt.Sprintf(
			"%s: confidence %.2f below %.2f threshold; excluded from recommendations",
			patternType, combined.Confidence, c.config.MinPatternConfidence))
	}
	return combined
}

func contributionOf(p sourcePattern) pattern.SourceContribution {
	return pattern.SourceContribution{
		Value:         p.value,
		SuccessRate:   p.successRate,
		Confidence:    p.confidence,
		EvidenceCount: p.evidence,
	}
}

// overallConfidence is the evidence-weighted mean confidence of the
// combined patterns.
func overallConfidence(patterns []pattern.CombinedPattern) float64 {
	if len(patterns) == 0 {
		return 0
	}
	var weighted, total float64
	for _, p := range patterns {
		weight := float64(p.TotalEvidenceCount)
		if weight <= 0 {
			weight = 1
		}
		weighted += weight * p.Confidence
		total += weight
	}
	return shared.Clamp01(weighted / total)
}
