package fusion

import (
	"math"
	"strings"
	"testing"

	"github.com/sprintforge/sprintforge-go/internal/domain/chronicle"
	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
	"github.com/sprintforge/sprintforge-go/internal/domain/pattern"
)

func episodeContext() *pattern.EpisodeBasedDecisionContext {
	return &pattern.EpisodeBasedDecisionContext{
		SimilarEpisodesAnalyzed:  3,
		EpisodesUsedForContext:   3,
		AverageEpisodeSimilarity: 0.85,
		ContextQualityScore:      0.8,
		AverageSuccessRate:       0.88,
		SuccessRateConfidence:    0.9,
		IdentifiedPatterns: []pattern.DecisionPattern{
			{Type: pattern.TypeTaskCount, Value: 6, SuccessRate: 0.88, Confidence: 0.75, EpisodeCount: 3},
			{Type: pattern.TypeSprintDuration, Value: 2, SuccessRate: 0.88, Confidence: 0.7, EpisodeCount: 3},
		},
		RecommendedTaskCount:            6,
		RecommendedSprintDurationWeeks:  2,
		OverallRecommendationConfidence: 0.78,
	}
}

func chronicleAnalysis() *chronicle.Analysis {
	return &chronicle.Analysis{
		SimilarProjects: []chronicle.SimilarProject{
			{ProjectID: "p1", SimilarityScore: 0.8},
			{ProjectID: "p2", SimilarityScore: 0.75},
		},
		RecommendedTaskCount:           8,
		TaskCountConfidence:            0.65,
		RecommendedSprintDurationWeeks: 2,
		SprintDurationConfidence:       0.6,
		AvgCompletionRate:              0.82,
	}
}

func TestCombineBothSourcesAbsent(t *testing.T) {
	c := NewCombiner(DefaultConfig())

	result := c.CombinePatterns(nil, nil, episode.ProjectContext{})
	if result == nil {
		t.Fatal("expected a result, got nil")
	}
	if len(result.CombinedPatterns) != 0 {
		t.Errorf("expected no patterns, got %d", len(result.CombinedPatterns))
	}
	if result.OverallConfidence != 0 {
		t.Errorf("expected confidence 0, got %v", result.OverallConfidence)
	}
	if result.PatternSourceInfluence[pattern.SourceEpisode] != 0 ||
		result.PatternSourceInfluence[pattern.SourceChronicle] != 0 {
		t.Errorf("expected zero influence, got %v", result.PatternSourceInfluence)
	}
	if len(result.Reasoning) == 0 {
		t.Error("expected reasoning explaining the empty result")
	}
}

func TestCombineEpisodeOnly(t *testing.T) {
	c := NewCombiner(DefaultConfig())

	result := c.CombinePatterns(episodeContext(), nil, episode.ProjectContext{TeamSize: 5})

	if result.PatternSourceInfluence[pattern.SourceEpisode] != 1.0 {
		t.Errorf("expected episode influence 1.0, got %v", result.PatternSourceInfluence[pattern.SourceEpisode])
	}
	if result.PatternSourceInfluence[pattern.SourceChronicle] != 0.0 {
		t.Errorf("expected chronicle influence 0.0, got %v", result.PatternSourceInfluence[pattern.SourceChronicle])
	}
	if len(result.CombinedPatterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(result.CombinedPatterns))
	}

	taskPattern := result.CombinedPatterns[0]
	if taskPattern.Type != pattern.TypeTaskCount || taskPattern.Value != 6 {
		t.Errorf("unexpected task pattern: %+v", taskPattern)
	}
	// A single-source pattern keeps its own confidence, unboosted.
	if taskPattern.Confidence != 0.75 {
		t.Errorf("expected carried confidence 0.75, got %v", taskPattern.Confidence)
	}
	if taskPattern.EpisodeSourceWeight != 1.0 || taskPattern.ChronicleSourceWeight != 0.0 {
		t.Errorf("unexpected weights: %+v", taskPattern)
	}
}

func TestCombineChronicleOnly(t *testing.T) {
	c := NewCombiner(DefaultConfig())

	result := c.CombinePatterns(nil, chronicleAnalysis(), episode.ProjectContext{})

	if result.PatternSourceInfluence[pattern.SourceChronicle] != 1.0 {
		t.Errorf("expected chronicle influence 1.0, got %v", result.PatternSourceInfluence[pattern.SourceChronicle])
	}
	if len(result.CombinedPatterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(result.CombinedPatterns))
	}
	if result.CombinedPatterns[0].Value != 8 {
		t.Errorf("expected chronicle task count 8, got %v", result.CombinedPatterns[0].Value)
	}
}

func TestCombineBothSourcesWeightedValue(t *testing.T) {
	c := NewCombiner(DefaultConfig())

	result := c.CombinePatterns(episodeContext(), chronicleAnalysis(), episode.ProjectContext{TeamSize: 5})

	episodeWeight := result.PatternSourceInfluence[pattern.SourceEpisode]
	chronicleWeight := result.PatternSourceInfluence[pattern.SourceChronicle]
	if math.Abs(episodeWeight+chronicleWeight-1.0) > 1e-9 {
		t.Errorf("influences should sum to 1, got %v + %v", episodeWeight, chronicleWeight)
	}
	if episodeWeight <= 0 || chronicleWeight <= 0 {
		t.Errorf("both sources present: both influences should be positive, got %v/%v", episodeWeight, chronicleWeight)
	}

	var taskPattern *pattern.CombinedPattern
	for i := range result.CombinedPatterns {
		if result.CombinedPatterns[i].Type == pattern.TypeTaskCount {
			taskPattern = &result.CombinedPatterns[i]
		}
	}
	if taskPattern == nil {
		t.Fatal("expected a task count pattern")
	}

	// Sources disagree (6 vs 8): the fused value is the weighted blend.
	expected := episodeWeight*6 + chronicleWeight*8
	if math.Abs(taskPattern.Value-expected) > 1e-9 {
		t.Errorf("expected blended value %v, got %v", expected, taskPattern.Value)
	}
	if taskPattern.Value <= 6 || taskPattern.Value >= 8 {
		t.Errorf("blended value should lie between the sources, got %v", taskPattern.Value)
	}
	if taskPattern.TotalEvidenceCount != 5 {
		t.Errorf("expected 3+2 evidence, got %d", taskPattern.TotalEvidenceCount)
	}
	if len(taskPattern.SourceBreakdown) != 2 {
		t.Errorf("expected both sources in the breakdown, got %v", taskPattern.SourceBreakdown)
	}
}

func TestCombineAgreementBoostsConfidence(t *testing.T) {
	c := NewCombiner(DefaultConfig())

	// Both sources recommend a 2-week sprint.
	result := c.CombinePatterns(episodeContext(), chronicleAnalysis(), episode.ProjectContext{TeamSize: 5})

	var durationPattern *pattern.CombinedPattern
	for i := range result.CombinedPatterns {
		if result.CombinedPatterns[i].Type == pattern.TypeSprintDuration {
			durationPattern = &result.CombinedPatterns[i]
		}
	}
	if durationPattern == nil {
		t.Fatal("expected a sprint duration pattern")
	}

	if math.Abs(durationPattern.Value-2) > 1e-9 {
		t.Errorf("agreement should preserve the value, got %v", durationPattern.Value)
	}
	// Episode confidence 0.7, chronicle 0.6: the boost must exceed both.
	if durationPattern.Confidence <= 0.7 {
		t.Errorf("agreement should boost confidence above both sources, got %v", durationPattern.Confidence)
	}
	expected := 0.7 + (1-0.7)*0.5
	if math.Abs(durationPattern.Confidence-expected) > 1e-9 {
		t.Errorf("expected boosted confidence %v, got %v", expected, durationPattern.Confidence)
	}

	found := false
	for _, line := range result.Reasoning {
		if strings.Contains(line, "both sources agree") {
			found = true
		}
	}
	if !found {
		t.Error("expected agreement to be explained in the reasoning")
	}
}

func TestCombineMalformedEpisodeContextDegrades(t *testing.T) {
	c := NewCombiner(DefaultConfig())

	bad := episodeContext()
	bad.ContextQualityScore = math.NaN()

	result := c.CombinePatterns(bad, chronicleAnalysis(), episode.ProjectContext{TeamSize: 5})

	// Episode source degraded to absent: chronicle carries everything.
	if result.PatternSourceInfluence[pattern.SourceChronicle] != 1.0 {
		t.Errorf("expected chronicle influence 1.0, got %v", result.PatternSourceInfluence[pattern.SourceChronicle])
	}
	errText, ok := result.Metadata["error"].(string)
	if !ok || !strings.Contains(errText, "episode source degraded") {
		t.Errorf("expected degradation recorded in metadata, got %v", result.Metadata["error"])
	}
}

func TestCombineMalformedAnalysisDegrades(t *testing.T) {
	c := NewCombiner(DefaultConfig())

	tests := []struct {
		name   string
		mutate func(*chronicle.Analysis)
	}{
		{"NaN task count", func(a *chronicle.Analysis) { a.RecommendedTaskCount = math.NaN() }},
		{"negative duration", func(a *chronicle.Analysis) { a.RecommendedSprintDurationWeeks = -2 }},
		{"completion rate above 1", func(a *chronicle.Analysis) { a.AvgCompletionRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := chronicleAnalysis()
			tt.mutate(bad)

			result := c.CombinePatterns(episodeContext(), bad, episode.ProjectContext{TeamSize: 5})
			if result.PatternSourceInfluence[pattern.SourceEpisode] != 1.0 {
				t.Errorf("expected fallback to episode source, got %v", result.PatternSourceInfluence)
			}
			if _, ok := result.Metadata["error"]; !ok {
				t.Error("expected degradation recorded in metadata")
			}
		})
	}
}

func TestCombineFallsBackToRecommendedValues(t *testing.T) {
	c := NewCombiner(DefaultConfig())

	// Pattern list filtered away upstream but recommendations survive.
	ctx := episodeContext()
	ctx.IdentifiedPatterns = nil

	result := c.CombinePatterns(ctx, nil, episode.ProjectContext{TeamSize: 5})
	if len(result.CombinedPatterns) != 2 {
		t.Fatalf("expected recommendations to stand in for patterns, got %d", len(result.CombinedPatterns))
	}
	if result.CombinedPatterns[0].Value != 6 {
		t.Errorf("expected recommended task count 6, got %v", result.CombinedPatterns[0].Value)
	}
}

func TestGetRecommendedValues(t *testing.T) {
	c := NewCombiner(DefaultConfig())

	result := c.CombinePatterns(episodeContext(), chronicleAnalysis(), episode.ProjectContext{TeamSize: 5})
	values := c.GetRecommendedValues(result)

	if _, ok := values[RecommendedTaskCountKey]; !ok {
		t.Error("expected a recommended task count")
	}
	if _, ok := values[RecommendedSprintDurationKey]; !ok {
		t.Error("expected a recommended sprint duration")
	}
}

func TestGetRecommendedValuesFiltersLowConfidence(t *testing.T) {
	c := NewCombiner(DefaultConfig())

	result := &pattern.CombinationResult{
		CombinedPatterns: []pattern.CombinedPattern{
			{Type: pattern.TypeTaskCount, Value: 6, Confidence: 0.8},
			{Type: pattern.TypeSprintDuration, Value: 2, Confidence: 0.1},
		},
	}

	values := c.GetRecommendedValues(result)
	if values[RecommendedTaskCountKey] != 6 {
		t.Errorf("expected task count 6, got %v", values[RecommendedTaskCountKey])
	}
	if _, ok := values[RecommendedSprintDurationKey]; ok {
		t.Error("low-confidence pattern should be filtered out")
	}
}

func TestGetRecommendedValuesNilResult(t *testing.T) {
	c := NewCombiner(DefaultConfig())
	values := c.GetRecommendedValues(nil)
	if len(values) != 0 {
		t.Errorf("expected empty map, got %v", values)
	}
}

func TestOverallConfidenceEvidenceWeighted(t *testing.T) {
	patterns := []pattern.CombinedPattern{
		{Confidence: 0.9, TotalEvidenceCount: 9},
		{Confidence: 0.1, TotalEvidenceCount: 1},
	}
	got := overallConfidence(patterns)
	expected := (9*0.9 + 1*0.1) / 10
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestNewCombinerFillsDefaults(t *testing.T) {
	c := NewCombiner(Config{})
	if c.config.EpisodeBaseWeight != 0.4 || c.config.ChronicleBaseWeight != 0.6 {
		t.Errorf("unexpected default weights: %+v", c.config)
	}
	if c.config.MinPatternConfidence != 0.3 {
		t.Errorf("unexpected default threshold: %+v", c.config)
	}
}
