package bridge

import (
	"strings"
	"testing"

	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
)

func bridgeEpisode(id string, tasks int, quality *float64, similarity float64) *episode.Episode {
	ep := &episode.Episode{
		ID: id,
		Perception: map[string]interface{}{
			"team_size": 5,
		},
		Action: map[string]interface{}{
			"tasks_to_assign":       tasks,
			"sprint_duration_weeks": 2,
		},
		OutcomeQuality: quality,
		Similarity:     similarity,
	}
	return ep
}

func quality(q float64) *float64 { return &q }

func TestTranslateNoEpisodes(t *testing.T) {
	b := NewBridge(DefaultConfig())

	ctx := b.TranslateEpisodesToContext(nil, episode.ProjectContext{TeamSize: 5})
	if ctx == nil {
		t.Fatal("expected a context, got nil")
	}
	if ctx.SimilarEpisodesAnalyzed != 0 || ctx.EpisodesUsedForContext != 0 {
		t.Errorf("expected zero counts, got %d/%d", ctx.SimilarEpisodesAnalyzed, ctx.EpisodesUsedForContext)
	}
	if ctx.ContextQualityScore != 0 || ctx.AverageSuccessRate != 0 {
		t.Error("empty context should carry zero scores")
	}
	if ctx.ProcessingDurationMs < 0 {
		t.Error("processing duration should be non-negative")
	}
}

func TestTranslateSingleEpisode(t *testing.T) {
	b := NewBridge(DefaultConfig())

	ep := bridgeEpisode("e1", 6, quality(0.92), 0.85)
	ctx := b.TranslateEpisodesToContext([]*episode.Episode{ep}, episode.ProjectContext{TeamSize: 5})

	if ctx.SimilarEpisodesAnalyzed != 1 {
		t.Errorf("expected 1 analyzed, got %d", ctx.SimilarEpisodesAnalyzed)
	}
	if ctx.EpisodesUsedForContext != 1 {
		t.Errorf("expected 1 used, got %d", ctx.EpisodesUsedForContext)
	}
	if ctx.AverageEpisodeSimilarity != 0.85 {
		t.Errorf("expected average similarity 0.85, got %v", ctx.AverageEpisodeSimilarity)
	}
	if ctx.AverageSuccessRate != 0.92 {
		t.Errorf("expected average success rate 0.92, got %v", ctx.AverageSuccessRate)
	}
	// A single episode never clears the analyzer's minimum, so no patterns.
	if len(ctx.IdentifiedPatterns) != 0 {
		t.Errorf("one episode should yield no patterns, got %d", len(ctx.IdentifiedPatterns))
	}
	if ctx.ContextQualityScore <= 0 || ctx.ContextQualityScore >= 1 {
		t.Errorf("context quality should be in (0,1), got %v", ctx.ContextQualityScore)
	}
	if len(ctx.ContributingEpisodes) != 1 {
		t.Fatalf("expected 1 contributing episode, got %d", len(ctx.ContributingEpisodes))
	}
	summary := ctx.ContributingEpisodes[0]
	if summary.EpisodeID != "e1" || summary.Similarity != 0.85 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if !strings.Contains(summary.DecisionSummary, "6 tasks") {
		t.Errorf("summary should mention the task count: %s", summary.DecisionSummary)
	}
}

func TestTranslateFiltersIncompleteAndDissimilar(t *testing.T) {
	b := NewBridge(DefaultConfig())

	incomplete := &episode.Episode{
		ID:         "incomplete",
		Perception: map[string]interface{}{"team_size": 5},
		Similarity: 0.95,
	}
	dissimilar := bridgeEpisode("far", 6, quality(0.9), 0.4)
	good := bridgeEpisode("good", 6, quality(0.9), 0.8)

	ctx := b.TranslateEpisodesToContext(
		[]*episode.Episode{incomplete, dissimilar, good, nil},
		episode.ProjectContext{TeamSize: 5})

	if ctx.SimilarEpisodesAnalyzed != 4 {
		t.Errorf("expected 4 analyzed, got %d", ctx.SimilarEpisodesAnalyzed)
	}
	if ctx.EpisodesUsedForContext != 1 {
		t.Errorf("expected only the complete, similar episode to survive, got %d", ctx.EpisodesUsedForContext)
	}
	if len(ctx.ContributingEpisodes) != 1 || ctx.ContributingEpisodes[0].EpisodeID != "good" {
		t.Errorf("unexpected contributing episodes: %+v", ctx.ContributingEpisodes)
	}
}

func TestTranslateRecommendationsFromPatterns(t *testing.T) {
	b := NewBridge(DefaultConfig())

	episodes := []*episode.Episode{
		bridgeEpisode("e1", 6, quality(0.85), 0.9),
		bridgeEpisode("e2", 6, quality(0.92), 0.8),
		bridgeEpisode("e3", 6, quality(0.88), 0.85),
	}

	ctx := b.TranslateEpisodesToContext(episodes, episode.ProjectContext{TeamSize: 5})

	if ctx.RecommendedTaskCount != 6 {
		t.Errorf("expected recommended task count 6, got %d", ctx.RecommendedTaskCount)
	}
	if ctx.RecommendedSprintDurationWeeks != 2 {
		t.Errorf("expected recommended duration 2, got %d", ctx.RecommendedSprintDurationWeeks)
	}
	if ctx.OverallRecommendationConfidence <= 0 {
		t.Error("expected positive recommendation confidence")
	}
	if len(ctx.IdentifiedPatterns) == 0 {
		t.Error("expected identified patterns")
	}
}

func TestTranslateSuccessRateConfidence(t *testing.T) {
	b := NewBridge(DefaultConfig())

	// Three episodes, only one with outcome data: confidence reflects the
	// thin coverage.
	episodes := []*episode.Episode{
		bridgeEpisode("e1", 6, quality(0.9), 0.9),
		bridgeEpisode("e2", 6, nil, 0.9),
		bridgeEpisode("e3", 6, nil, 0.9),
	}

	ctx := b.TranslateEpisodesToContext(episodes, episode.ProjectContext{TeamSize: 5})

	if ctx.AverageSuccessRate != 0.9 {
		t.Errorf("expected success rate from the one recorded outcome, got %v", ctx.AverageSuccessRate)
	}
	full := b.TranslateEpisodesToContext([]*episode.Episode{
		bridgeEpisode("f1", 6, quality(0.9), 0.9),
		bridgeEpisode("f2", 6, quality(0.9), 0.9),
		bridgeEpisode("f3", 6, quality(0.9), 0.9),
	}, episode.ProjectContext{TeamSize: 5})

	if ctx.SuccessRateConfidence >= full.SuccessRateConfidence {
		t.Errorf("thin outcome coverage should lower confidence: %v vs %v",
			ctx.SuccessRateConfidence, full.SuccessRateConfidence)
	}
}

func TestTranslateNarratives(t *testing.T) {
	b := NewBridge(DefaultConfig())

	episodes := []*episode.Episode{
		bridgeEpisode("e1", 6, quality(0.9), 0.9),
		bridgeEpisode("e2", 6, nil, 0.9),
	}

	ctx := b.TranslateEpisodesToContext(episodes, episode.ProjectContext{TeamSize: 5})

	if len(ctx.KeyInsights) == 0 {
		t.Fatal("expected key insights")
	}
	if !strings.Contains(ctx.KeyInsights[0], "2 similar episodes") {
		t.Errorf("headline insight should count the used episodes: %s", ctx.KeyInsights[0])
	}
	if len(ctx.SuccessFactors) == 0 {
		t.Error("expected a success factor for the successful outcome")
	}

	foundPending := false
	for _, risk := range ctx.RiskFactors {
		if strings.Contains(risk, "no recorded outcome") {
			foundPending = true
		}
	}
	if !foundPending {
		t.Errorf("expected a risk factor about missing outcomes, got %v", ctx.RiskFactors)
	}
}

func TestTranslateLowSuccessRiskFactor(t *testing.T) {
	b := NewBridge(DefaultConfig())

	episodes := []*episode.Episode{
		bridgeEpisode("e1", 6, quality(0.3), 0.9),
		bridgeEpisode("e2", 6, quality(0.2), 0.9),
	}

	ctx := b.TranslateEpisodesToContext(episodes, episode.ProjectContext{TeamSize: 5})

	found := false
	for _, risk := range ctx.RiskFactors {
		if strings.Contains(risk, "below even odds") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a low success rate warning, got %v", ctx.RiskFactors)
	}
}

func TestEpisodeConfidence(t *testing.T) {
	b := NewBridge(DefaultConfig())

	complete := bridgeEpisode("e1", 6, quality(0.92), 0.85)
	if got := b.episodeConfidence(complete); got <= 0.7 {
		t.Errorf("complete episode with a strong outcome should score above 0.7, got %v", got)
	}

	bare := &episode.Episode{ID: "bare"}
	if got := b.episodeConfidence(bare); got != 0 {
		t.Errorf("bare episode should score 0, got %v", got)
	}

	noOutcome := bridgeEpisode("e2", 6, nil, 0.85)
	if got := b.episodeConfidence(noOutcome); got != 0.5 {
		t.Errorf("complete episode without outcome should score 0.5, got %v", got)
	}
}

func TestSummarizeDecisionMentionsOutcome(t *testing.T) {
	b := NewBridge(DefaultConfig())

	tests := []struct {
		name     string
		quality  *float64
		expected string
	}{
		{"successful", quality(0.9), "successful"},
		{"failed", quality(0.4), "fell short"},
		{"pending", nil, "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := bridgeEpisode("e", 6, tt.quality, 0.8)
			text := b.summarizeDecision(ep, episode.ProjectContext{TeamSize: 5})
			if !strings.Contains(text, tt.expected) {
				t.Errorf("expected %q in %q", tt.expected, text)
			}
		})
	}
}

func TestNewBridgeFillsDefaults(t *testing.T) {
	b := NewBridge(Config{})
	if b.config.MinSimilarity != 0.6 {
		t.Errorf("expected default min similarity 0.6, got %v", b.config.MinSimilarity)
	}
	if b.config.SuccessThreshold != 0.7 {
		t.Errorf("expected default success threshold 0.7, got %v", b.config.SuccessThreshold)
	}
}
