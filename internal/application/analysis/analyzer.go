// Package analysis provides the episode pattern analyzer: extraction of
// discrete decision patterns and narrative insights from quality-filtered,
// similarity-ranked episodes.
package analysis

import (
	"fmt"
	"sort"

	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
	"github.com/sprintforge/sprintforge-go/internal/domain/pattern"
	"github.com/sprintforge/sprintforge-go/internal/shared"
)

// Config configures the analyzer.
type Config struct {
	// MinEpisodes is the minimum episode count before any analysis runs.
	MinEpisodes int `json:"minEpisodes" yaml:"min_episodes"`

	// MinPatternSupport is the minimum occurrences of a decision value
	// before it becomes a pattern.
	MinPatternSupport int `json:"minPatternSupport" yaml:"min_pattern_support"`

	// MinSubgroupSize is the minimum subgroup size before a correlation
	// insight may be reported. Correlations must not be fabricated from
	// one-episode subgroups.
	MinSubgroupSize int `json:"minSubgroupSize" yaml:"min_subgroup_size"`

	// CorrelationMargin is the outcome-quality divergence a subgroup must
	// show against the population before an insight is emitted.
	CorrelationMargin float64 `json:"correlationMargin" yaml:"correlation_margin"`

	// MinConfidence is the confidence floor applied by
	// FilterSignificantPatterns.
	MinConfidence float64 `json:"minConfidence" yaml:"min_confidence"`

	// MinSuccessRate is the success-rate floor applied by
	// FilterSignificantPatterns.
	MinSuccessRate float64 `json:"minSuccessRate" yaml:"min_success_rate"`

	// RatioInsightConfidence is the fixed confidence of the purely
	// descriptive task/team ratio insight.
	RatioInsightConfidence float64 `json:"ratioInsightConfidence" yaml:"ratio_insight_confidence"`
}

// DefaultConfig returns the default analyzer configuration.
func DefaultConfig() Config {
	return Config{
		MinEpisodes:            2,
		MinPatternSupport:      2,
		MinSubgroupSize:        2,
		CorrelationMargin:      0.1,
		MinConfidence:          0.3,
		MinSuccessRate:         0.4,
		RatioInsightConfidence: 0.6,
	}
}

// Analyzer extracts decision patterns from episodes. It is pure and
// stateless: the same input always yields the same output.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an analyzer, filling zero config fields with defaults.
func NewAnalyzer(config Config) *Analyzer {
	defaults := DefaultConfig()
	if config.MinEpisodes <= 0 {
		config.MinEpisodes = defaults.MinEpisodes
	}
	if config.MinPatternSupport <= 0 {
		config.MinPatternSupport = defaults.MinPatternSupport
	}
	if config.MinSubgroupSize <= 0 {
		config.MinSubgroupSize = defaults.MinSubgroupSize
	}
	if config.CorrelationMargin <= 0 {
		config.CorrelationMargin = defaults.CorrelationMargin
	}
	if config.MinConfidence <= 0 {
		config.MinConfidence = defaults.MinConfidence
	}
	if config.MinSuccessRate <= 0 {
		config.MinSuccessRate = defaults.MinSuccessRate
	}
	if config.RatioInsightConfidence <= 0 {
		config.RatioInsightConfidence = defaults.RatioInsightConfidence
	}
	return &Analyzer{config: config}
}

// AnalyzePatterns extracts decision patterns and insights from the given
// episodes against the current context. Fewer than MinEpisodes episodes is
// insufficient data, not an error: both results are nil.
func (a *Analyzer) AnalyzePatterns(episodes []*episode.Episode, current episode.ProjectContext) ([]pattern.DecisionPattern, []pattern.Insight) {
	if len(episodes) < a.config.MinEpisodes {
		return nil, nil
	}

	var patterns []pattern.DecisionPattern
	var insights []pattern.Insight

	taskPatterns, taskInsight := a.valuePatterns(episodes, pattern.TypeTaskCount, func(ep *episode.Episode) (int, bool) {
		return ep.TasksAssigned()
	})
	patterns = append(patterns, taskPatterns...)
	if taskInsight != nil {
		insights = append(insights, *taskInsight)
	}

	durationPatterns, durationInsight := a.valuePatterns(episodes, pattern.TypeSprintDuration, func(ep *episode.Episode) (int, bool) {
		return ep.SprintDurationWeeks()
	})
	patterns = append(patterns, durationPatterns...)
	if durationInsight != nil {
		insights = append(insights, *durationInsight)
	}

	if teamPattern, teamInsight := a.teamSizeCorrelation(episodes, current); teamInsight != nil {
		patterns = append(patterns, *teamPattern)
		insights = append(insights, *teamInsight)
	}

	if techInsight := a.technologyCorrelation(episodes, current); techInsight != nil {
		insights = append(insights, *techInsight)
	}

	if ratioInsight := a.taskTeamRatio(episodes, current); ratioInsight != nil {
		insights = append(insights, *ratioInsight)
	}

	if backlogInsight := a.backlogCorrelation(episodes); backlogInsight != nil {
		insights = append(insights, *backlogInsight)
	}

	return patterns, insights
}

// FilterSignificantPatterns drops patterns and insights below the configured
// confidence and success-rate floors. Callers must apply this before acting
// on analysis results.
func (a *Analyzer) FilterSignificantPatterns(patterns []pattern.DecisionPattern, insights []pattern.Insight) ([]pattern.DecisionPattern, []pattern.Insight) {
	var keptPatterns []pattern.DecisionPattern
	for _, p := range patterns {
		if p.Confidence >= a.config.MinConfidence && p.SuccessRate >= a.config.MinSuccessRate {
			keptPatterns = append(keptPatterns, p)
		}
	}

	var keptInsights []pattern.Insight
	for _, in := range insights {
		if in.Confidence >= a.config.MinConfidence {
			keptInsights = append(keptInsights, in)
		}
	}

	return keptPatterns, keptInsights
}

// valueGroup is one distinct decision value and its supporting episodes.
type valueGroup struct {
	value    int
	episodes []*episode.Episode
}

// valuePatterns groups episodes by a discrete decision value and turns each
// sufficiently-supported group into a pattern. Episodes where the value is
// absent contribute no signal.
func (a *Analyzer) valuePatterns(episodes []*episode.Episode, patternType pattern.Type, extract func(*episode.Episode) (int, bool)) ([]pattern.DecisionPattern, *pattern.Insight) {
	groups := make(map[int]*valueGroup)
	total := 0
	for _, ep := range episodes {
		value, ok := extract(ep)
		if !ok {
			continue
		}
		total++
		g, exists := groups[value]
		if !exists {
			g = &valueGroup{value: value}
			groups[value] = g
		}
		g.episodes = append(g.episodes, ep)
	}
	if total == 0 {
		return nil, nil
	}

	var patterns []pattern.DecisionPattern
	for _, g := range groups {
		if len(g.episodes) < a.config.MinPatternSupport {
			continue
		}
		successRate := groupSuccessRate(g.episodes)
		patterns = append(patterns, pattern.DecisionPattern{
			Type:         patternType,
			Value:        float64(g.value),
			SuccessRate:  successRate,
			EpisodeCount: len(g.episodes),
			Confidence:   a.patternConfidence(len(g.episodes), total, groupSimilarity(g.episodes), successRate),
		})
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	// Highest success rate first; larger support breaks ties.
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].SuccessRate != patterns[j].SuccessRate {
			return patterns[i].SuccessRate > patterns[j].SuccessRate
		}
		return patterns[i].EpisodeCount > patterns[j].EpisodeCount
	})

	best := patterns[0]
	noun := "tasks per sprint"
	if patternType == pattern.TypeSprintDuration {
		noun = "week sprints"
	}
	insight := &pattern.Insight{
		Text: fmt.Sprintf("%d %s achieved a %.0f%% success rate across %d similar episodes",
			int(best.Value), noun, best.SuccessRate*100, best.EpisodeCount),
		Confidence:         best.Confidence,
		EpisodeCount:       best.EpisodeCount,
		SuccessCorrelation: best.SuccessRate,
	}

	return patterns, insight
}

// patternConfidence bounds pattern confidence by the evidence behind it:
// the fraction of episodes supporting the pattern, the mean similarity of
// the contributing episodes to the current context, and the pattern's own
// measured success rate. Monotonic in each input.
func (a *Analyzer) patternConfidence(support, total int, avgSimilarity, successRate float64) float64 {
	if total == 0 {
		return 0
	}
	supportFraction := float64(support) / float64(total)
	return shared.Clamp01(0.35*supportFraction + 0.35*avgSimilarity + 0.30*successRate)
}

// groupSuccessRate is the mean outcome quality across episodes that have an
// outcome; episodes without one contribute no signal.
func groupSuccessRate(episodes []*episode.Episode) float64 {
	var qualities []float64
	for _, ep := range episodes {
		if ep.OutcomeQuality != nil {
			qualities = append(qualities, shared.Clamp01(*ep.OutcomeQuality))
		}
	}
	return shared.Mean(qualities)
}

// groupSimilarity is the mean retrieval similarity across episodes.
func groupSimilarity(episodes []*episode.Episode) float64 {
	similarities := make([]float64, 0, len(episodes))
	for _, ep := range episodes {
		similarities = append(similarities, shared.Clamp01(ep.Similarity))
	}
	return shared.Mean(similarities)
}

// teamSizeCorrelation compares outcome quality of episodes whose team size
// exactly matches the current context against the full population.
func (a *Analyzer) teamSizeCorrelation(episodes []*episode.Episode, current episode.ProjectContext) (*pattern.DecisionPattern, *pattern.Insight) {
	if current.TeamSize <= 0 {
		return nil, nil
	}

	var matched []*episode.Episode
	for _, ep := range episodes {
		if size, ok := ep.TeamSize(); ok && size == current.TeamSize {
			matched = append(matched, ep)
		}
	}
	if len(matched) < a.config.MinSubgroupSize {
		return nil, nil
	}

	matchedRate := groupSuccessRate(matched)
	populationRate := groupSuccessRate(episodes)
	divergence := matchedRate - populationRate
	if divergence < a.config.CorrelationMargin && divergence > -a.config.CorrelationMargin {
		return nil, nil
	}

	direction := "outperformed"
	if divergence < 0 {
		direction = "trailed"
	}
	confidence := a.patternConfidence(len(matched), len(episodes), groupSimilarity(matched), matchedRate)

	p := &pattern.DecisionPattern{
		Type:         pattern.TypeTeamSizeCorrelation,
		Value:        float64(current.TeamSize),
		SuccessRate:  matchedRate,
		EpisodeCount: len(matched),
		Confidence:   confidence,
	}
	in := &pattern.Insight{
		Text: fmt.Sprintf("teams of %d %s the population average by %.0f points across %d episodes",
			current.TeamSize, direction, divergence*100, len(matched)),
		Confidence:         confidence,
		EpisodeCount:       len(matched),
		SuccessCorrelation: divergence,
	}
	return p, in
}

// technologyCorrelation compares outcome quality of episodes sharing at
// least one technology with the current stack against those sharing none.
func (a *Analyzer) technologyCorrelation(episodes []*episode.Episode, current episode.ProjectContext) *pattern.Insight {
	if len(current.TechnologyStack) == 0 {
		return nil
	}

	var sharing, disjoint []*episode.Episode
	for _, ep := range episodes {
		if ep.SharesTechnology(current) {
			sharing = append(sharing, ep)
		} else if len(ep.TechnologyStack()) > 0 {
			disjoint = append(disjoint, ep)
		}
	}
	if len(sharing) < a.config.MinSubgroupSize || len(disjoint) < a.config.MinSubgroupSize {
		return nil
	}

	divergence := groupSuccessRate(sharing) - groupSuccessRate(disjoint)
	if divergence < a.config.CorrelationMargin && divergence > -a.config.CorrelationMargin {
		return nil
	}

	direction := "higher"
	if divergence < 0 {
		direction = "lower"
	}
	confidence := a.patternConfidence(len(sharing), len(sharing)+len(disjoint), groupSimilarity(sharing), groupSuccessRate(sharing))

	return &pattern.Insight{
		Text: fmt.Sprintf("episodes sharing the current technology stack showed %.0f points %s outcome quality (%d vs %d episodes)",
			absFloat(divergence)*100, direction, len(sharing), len(disjoint)),
		Confidence:         confidence,
		EpisodeCount:       len(sharing),
		SuccessCorrelation: divergence,
	}
}

// taskTeamRatio derives a purely descriptive insight about the ratio of
// average assigned tasks to the current team size.
func (a *Analyzer) taskTeamRatio(episodes []*episode.Episode, current episode.ProjectContext) *pattern.Insight {
	if current.TeamSize <= 0 {
		return nil
	}

	var counts []float64
	for _, ep := range episodes {
		if n, ok := ep.TasksAssigned(); ok {
			counts = append(counts, float64(n))
		}
	}
	if len(counts) == 0 {
		return nil
	}

	avgTasks := shared.Mean(counts)
	ratio := avgTasks / float64(current.TeamSize)

	return &pattern.Insight{
		Text: fmt.Sprintf("historical average of %.1f tasks per sprint is %.1f tasks per member for the current team of %d",
			avgTasks, ratio, current.TeamSize),
		Confidence:   a.config.RatioInsightConfidence,
		EpisodeCount: len(counts),
	}
}

// backlogCorrelation buckets episodes by backlog size around the median and
// compares outcome quality between the buckets.
func (a *Analyzer) backlogCorrelation(episodes []*episode.Episode) *pattern.Insight {
	type sized struct {
		ep   *episode.Episode
		size int
	}
	var withBacklog []sized
	for _, ep := range episodes {
		if size, ok := ep.BacklogSize(); ok {
			withBacklog = append(withBacklog, sized{ep: ep, size: size})
		}
	}
	if len(withBacklog) < 2*a.config.MinSubgroupSize {
		return nil
	}

	sort.Slice(withBacklog, func(i, j int) bool { return withBacklog[i].size < withBacklog[j].size })
	median := withBacklog[len(withBacklog)/2].size

	var below, above []*episode.Episode
	for _, s := range withBacklog {
		if s.size < median {
			below = append(below, s.ep)
		} else {
			above = append(above, s.ep)
		}
	}
	if len(below) < a.config.MinSubgroupSize || len(above) < a.config.MinSubgroupSize {
		return nil
	}

	divergence := groupSuccessRate(below) - groupSuccessRate(above)
	if divergence < a.config.CorrelationMargin && divergence > -a.config.CorrelationMargin {
		return nil
	}

	favored, other := "smaller", "larger"
	if divergence < 0 {
		favored, other = "larger", "smaller"
	}
	confidence := a.patternConfidence(len(withBacklog), len(episodes), groupSimilarity(episodes), groupSuccessRate(episodes))

	return &pattern.Insight{
		Text: fmt.Sprintf("sprints started with %s backlogs (median %d items) outperformed %s ones by %.0f points",
			favored, median, other, absFloat(divergence)*100),
		Confidence:         confidence,
		EpisodeCount:       len(withBacklog),
		SuccessCorrelation: divergence,
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
