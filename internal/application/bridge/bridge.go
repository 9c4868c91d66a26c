// Package bridge provides the memory bridge: translation of
// similarity-retrieved episodes into a structured episode-based decision
// context for the pattern combiner.
package bridge

import (
	"fmt"
	"time"

	"github.com/sprintforge/sprintforge-go/internal/application/analysis"
	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
	"github.com/sprintforge/sprintforge-go/internal/domain/pattern"
	"github.com/sprintforge/sprintforge-go/internal/shared"
)

// Config configures the memory bridge.
type Config struct {
	// MinSimilarity is the minimum retrieval similarity an episode needs to
	// contribute to the context.
	MinSimilarity float64 `json:"minSimilarity" yaml:"min_similarity"`

	// SuccessThreshold is the outcome quality at or above which an episode
	// outcome is judged successful.
	SuccessThreshold float64 `json:"successThreshold" yaml:"success_threshold"`

	// Analyzer configures the embedded pattern analyzer.
	Analyzer analysis.Config `json:"analyzer" yaml:"analyzer"`
}

// DefaultConfig returns the default bridge configuration.
func DefaultConfig() Config {
	return Config{
		MinSimilarity:    0.6,
		SuccessThreshold: 0.7,
		Analyzer:         analysis.DefaultConfig(),
	}
}

// Bridge translates retrieved episodes into decision context. Pure and
// stateless apart from immutable configuration.
type Bridge struct {
	config   Config
	analyzer *analysis.Analyzer
}

// NewBridge creates a bridge, filling zero config fields with defaults.
func NewBridge(config Config) *Bridge {
	defaults := DefaultConfig()
	if config.MinSimilarity <= 0 {
		config.MinSimilarity = defaults.MinSimilarity
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	return &Bridge{
		config:   config,
		analyzer: analysis.NewAnalyzer(config.Analyzer),
	}
}

// TranslateEpisodesToContext filters the episodes, mines patterns from the
// survivors, and assembles the episode-based decision context. With no
// usable episodes it returns an all-zero context, never an error.
func (b *Bridge) TranslateEpisodesToContext(episodes []*episode.Episode, current episode.ProjectContext) *pattern.EpisodeBasedDecisionContext {
	start := time.Now()

	ctx := &pattern.EpisodeBasedDecisionContext{
		SimilarEpisodesAnalyzed: len(episodes),
	}

	used := b.filterUsable(episodes)
	ctx.EpisodesUsedForContext = len(used)
	if len(used) == 0 {
		ctx.ProcessingDurationMs = elapsedMs(start)
		return ctx
	}

	ctx.AverageEpisodeSimilarity = averageSimilarity(used)
	ctx.ContextQualityScore = b.contextQuality(used, ctx.AverageEpisodeSimilarity)

	patterns, insights := b.analyzer.AnalyzePatterns(used, current)
	patterns, insights = b.analyzer.FilterSignificantPatterns(patterns, insights)
	ctx.IdentifiedPatterns = patterns

	b.fillSuccessRate(ctx, used)
	b.fillRecommendations(ctx, patterns)
	b.fillNarratives(ctx, used, insights)

	for _, ep := range used {
		ctx.ContributingEpisodes = append(ctx.ContributingEpisodes, b.summarizeEpisode(ep, current))
	}

	ctx.ProcessingDurationMs = elapsedMs(start)
	return ctx
}

// filterUsable keeps episodes that are complete and similar enough to the
// current context.
func (b *Bridge) filterUsable(episodes []*episode.Episode) []*episode.Episode {
	var used []*episode.Episode
	for _, ep := range episodes {
		if ep == nil || !ep.IsComplete() {
			continue
		}
		if ep.Similarity < b.config.MinSimilarity {
			continue
		}
		used = append(used, ep)
	}
	return used
}

// contextQuality blends episode count, average similarity, and average
// per-episode confidence into a [0,1] trust score for the evidence.
func (b *Bridge) contextQuality(used []*episode.Episode, avgSimilarity float64) float64 {
	countFactor := float64(len(used)) / 5.0
	if countFactor > 1 {
		countFactor = 1
	}

	confidences := make([]float64, 0, len(used))
	for _, ep := range used {
		confidences = append(confidences, b.episodeConfidence(ep))
	}

	return shared.Clamp01(0.4*countFactor + 0.3*avgSimilarity + 0.3*shared.Mean(confidences))
}

// episodeConfidence weighs an episode's completeness and outcome evidence.
// A complete episode with a high recorded outcome scores above 0.7.
func (b *Bridge) episodeConfidence(ep *episode.Episode) float64 {
	var confidence float64
	if len(ep.Perception) > 0 {
		confidence += 0.25
	}
	if len(ep.Action) > 0 {
		confidence += 0.25
	}
	if ep.HasOutcome() {
		confidence += 0.2
	}
	if ep.OutcomeQuality != nil {
		confidence += 0.3 * shared.Clamp01(*ep.OutcomeQuality)
	}
	return shared.Clamp01(confidence)
}

// fillSuccessRate computes the aggregate success rate and its confidence.
// Confidence scales with how many episodes actually carried outcome data.
func (b *Bridge) fillSuccessRate(ctx *pattern.EpisodeBasedDecisionContext, used []*episode.Episode) {
	var qualities []float64
	for _, ep := range used {
		if ep.OutcomeQuality != nil {
			qualities = append(qualities, shared.Clamp01(*ep.OutcomeQuality))
		}
	}
	if len(qualities) == 0 {
		return
	}

	ctx.AverageSuccessRate = shared.Mean(qualities)
	coverage := float64(len(qualities)) / float64(len(used))
	depth := float64(len(qualities)) / 3.0
	if depth > 1 {
		depth = 1
	}
	ctx.SuccessRateConfidence = shared.Clamp01(coverage * depth)
}

// fillRecommendations derives the specific recommended values from the
// highest-success-rate pattern of each recommending type.
func (b *Bridge) fillRecommendations(ctx *pattern.EpisodeBasedDecisionContext, patterns []pattern.DecisionPattern) {
	var bestTask, bestDuration *pattern.DecisionPattern
	for i := range patterns {
		p := &patterns[i]
		switch p.Type {
		case pattern.TypeTaskCount:
			if bestTask == nil || p.SuccessRate > bestTask.SuccessRate {
				bestTask = p
			}
		case pattern.TypeSprintDuration:
			if bestDuration == nil || p.SuccessRate > bestDuration.SuccessRate {
				bestDuration = p
			}
		}
	}

	var confidences []float64
	for _, p := range patterns {
		confidences = append(confidences, p.Confidence)
	}
	ctx.PatternConfidenceWeight = shared.Mean(confidences)

	if bestTask != nil {
		ctx.RecommendedTaskCount = int(bestTask.Value)
	}
	if bestDuration != nil {
		ctx.RecommendedSprintDurationWeeks = int(bestDuration.Value)
	}

	ctx.OverallRecommendationConfidence = shared.Clamp01(
		0.5*ctx.ContextQualityScore + 0.5*ctx.PatternConfidenceWeight)
}

// fillNarratives generates the human-readable insight, success-factor, and
// risk-factor strings.
func (b *Bridge) fillNarratives(ctx *pattern.EpisodeBasedDecisionContext, used []*episode.Episode, insights []pattern.Insight) {
	ctx.KeyInsights = append(ctx.KeyInsights, fmt.Sprintf(
		"analyzed %d similar episodes (of %d retrieved) with %.0f%% average success rate",
		ctx.EpisodesUsedForContext, ctx.SimilarEpisodesAnalyzed, ctx.AverageSuccessRate*100))
	for _, in := range insights {
		ctx.KeyInsights = append(ctx.KeyInsights, in.Text)
	}

	successes := 0
	withOutcome := 0
	for _, ep := range used {
		if ep.OutcomeQuality == nil {
			continue
		}
		withOutcome++
		if *ep.OutcomeQuality >= b.config.SuccessThreshold {
			successes++
		}
	}

	if successes > 0 {
		ctx.SuccessFactors = append(ctx.SuccessFactors, fmt.Sprintf(
			"%d of %d episodes with recorded outcomes met the %.0f%% success bar",
			successes, withOutcome, b.config.SuccessThreshold*100))
	}
	if withOutcome < len(used) {
		ctx.RiskFactors = append(ctx.RiskFactors, fmt.Sprintf(
			"%d of %d episodes have no recorded outcome yet",
			len(used)-withOutcome, len(used)))
	}
	if withOutcome > 0 && ctx.AverageSuccessRate < 0.5 {
		ctx.RiskFactors = append(ctx.RiskFactors, fmt.Sprintf(
			"average success rate of %.0f%% is below even odds", ctx.AverageSuccessRate*100))
	}
}

// summarizeEpisode produces the per-episode summary used for explainability.
func (b *Bridge) summarizeEpisode(ep *episode.Episode, current episode.ProjectContext) pattern.EpisodeSummary {
	summary := pattern.EpisodeSummary{
		EpisodeID:      ep.ID,
		Similarity:     ep.Similarity,
		OutcomeQuality: ep.OutcomeQuality,
	}
	summary.DecisionSummary = b.summarizeDecision(ep, current)
	summary.KeyLearning = b.extractKeyLearning(ep)
	return summary
}

// summarizeDecision describes what the episode decided, mentioning the task
// count, the outcome judgment, and the team size when it matches the
// current context.
func (b *Bridge) summarizeDecision(ep *episode.Episode, current episode.ProjectContext) string {
	text := "orchestration decision"
	if tasks, ok := ep.TasksAssigned(); ok {
		text = fmt.Sprintf("assigned %d tasks", tasks)
	}
	if weeks, ok := ep.SprintDurationWeeks(); ok {
		text += fmt.Sprintf(" for a %d-week sprint", weeks)
	}
	if size, ok := ep.TeamSize(); ok && size == current.TeamSize {
		text += fmt.Sprintf(" with a matching team of %d", size)
	}

	switch {
	case ep.OutcomeQuality != nil && *ep.OutcomeQuality >= b.config.SuccessThreshold:
		text += "; outcome was successful"
	case ep.OutcomeQuality != nil:
		text += "; outcome fell short"
	default:
		text += "; outcome pending"
	}
	return text
}

// extractKeyLearning derives a one-line learning from the episode.
func (b *Bridge) extractKeyLearning(ep *episode.Episode) string {
	tasks, hasTasks := ep.TasksAssigned()
	switch {
	case hasTasks && ep.OutcomeQuality != nil && *ep.OutcomeQuality >= b.config.SuccessThreshold:
		return fmt.Sprintf("%d tasks proved a successful load (quality %.2f)", tasks, *ep.OutcomeQuality)
	case hasTasks && ep.OutcomeQuality != nil:
		return fmt.Sprintf("%d tasks underdelivered (quality %.2f)", tasks, *ep.OutcomeQuality)
	case hasTasks:
		return fmt.Sprintf("%d tasks assigned; outcome not yet known", tasks)
	default:
		return "no task assignment recorded"
	}
}

func averageSimilarity(episodes []*episode.Episode) float64 {
	similarities := make([]float64, 0, len(episodes))
	for _, ep := range episodes {
		similarities = append(similarities, shared.Clamp01(ep.Similarity))
	}
	return shared.Mean(similarities)
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
