// Package sprintforge provides the public API for sprintforge-go.
//
// This package provides a high-level interface to the hybrid pattern
// combination engine: episode quality validation, pattern analysis, memory
// bridging, and source-weighted pattern fusion.
//
// Example:
//
//	engine := sprintforge.NewEngine(sprintforge.DefaultEngineConfig())
//	ctx := engine.TranslateEpisodesToContext(episodes, current)
//	result := engine.CombinePatterns(ctx, chronicleAnalysis, current)
//	values := engine.GetRecommendedValues(result)
package sprintforge

import (
	"github.com/sprintforge/sprintforge-go/internal/application/analysis"
	"github.com/sprintforge/sprintforge-go/internal/application/bridge"
	"github.com/sprintforge/sprintforge-go/internal/application/decision"
	"github.com/sprintforge/sprintforge-go/internal/application/fusion"
	"github.com/sprintforge/sprintforge-go/internal/domain/chronicle"
	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
	"github.com/sprintforge/sprintforge-go/internal/domain/pattern"
)

// Re-export types for the public API.
type (
	// Episode types
	Episode        = episode.Episode
	ProjectContext = episode.ProjectContext

	// Validation types
	ValidatorConfig  = episode.ValidatorConfig
	ValidationResult = episode.ValidationResult

	// Pattern types
	PatternType                 = pattern.Type
	DecisionPattern             = pattern.DecisionPattern
	Insight                     = pattern.Insight
	EpisodeBasedDecisionContext = pattern.EpisodeBasedDecisionContext
	CombinedPattern             = pattern.CombinedPattern
	CombinationResult           = pattern.CombinationResult

	// Chronicle types
	ChronicleAnalysis = chronicle.Analysis
	SimilarProject    = chronicle.SimilarProject
	VelocityTrend     = chronicle.VelocityTrend
	Impediment        = chronicle.Impediment

	// Service types
	Recommendation = decision.Recommendation
)

// Pattern type constants.
const (
	PatternTypeTaskCount      = pattern.TypeTaskCount
	PatternTypeSprintDuration = pattern.TypeSprintDuration
)

// Recommended-values mapping keys.
const (
	RecommendedTaskCountKey      = fusion.RecommendedTaskCountKey
	RecommendedSprintDurationKey = fusion.RecommendedSprintDurationKey
)

// EngineConfig configures the fusion engine.
type EngineConfig struct {
	// Validator configures episode quality validation.
	Validator episode.ValidatorConfig `json:"validator"`

	// Bridge configures episode-to-context translation, including the
	// embedded pattern analyzer.
	Bridge bridge.Config `json:"bridge"`

	// Combiner configures pattern fusion.
	Combiner fusion.Config `json:"combiner"`
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Validator: episode.DefaultValidatorConfig(),
		Bridge:    bridge.DefaultConfig(),
		Combiner:  fusion.DefaultConfig(),
	}
}

// Engine bundles the four core components behind one interface. It is pure
// computation over already-fetched data: safe for concurrent use.
type Engine struct {
	validator *episode.Validator
	analyzer  *analysis.Analyzer
	bridge    *bridge.Bridge
	combiner  *fusion.Combiner
}

// NewEngine creates an engine.
func NewEngine(config EngineConfig) *Engine {
	return &Engine{
		validator: episode.NewValidator(config.Validator),
		analyzer:  analysis.NewAnalyzer(config.Bridge.Analyzer),
		bridge:    bridge.NewBridge(config.Bridge),
		combiner:  fusion.NewCombiner(config.Combiner),
	}
}

// Validate scores an episode for completeness and trustworthiness.
func (e *Engine) Validate(ep *Episode) ValidationResult {
	return e.validator.Validate(ep)
}

// AnalyzePatterns mines decision patterns and insights from episodes.
func (e *Engine) AnalyzePatterns(episodes []*Episode, current ProjectContext) ([]DecisionPattern, []Insight) {
	return e.analyzer.AnalyzePatterns(episodes, current)
}

// FilterSignificantPatterns drops patterns and insights below the
// configured significance thresholds.
func (e *Engine) FilterSignificantPatterns(patterns []DecisionPattern, insights []Insight) ([]DecisionPattern, []Insight) {
	return e.analyzer.FilterSignificantPatterns(patterns, insights)
}

// TranslateEpisodesToContext assembles the episode-based decision context.
func (e *Engine) TranslateEpisodesToContext(episodes []*Episode, current ProjectContext) *EpisodeBasedDecisionContext {
	return e.bridge.TranslateEpisodesToContext(episodes, current)
}

// CombinePatterns fuses episode context with chronicle analysis.
func (e *Engine) CombinePatterns(episodeCtx *EpisodeBasedDecisionContext, analysis *ChronicleAnalysis, current ProjectContext) *CombinationResult {
	return e.combiner.CombinePatterns(episodeCtx, analysis, current)
}

// GetRecommendedValues extracts the confidence-filtered recommendations.
func (e *Engine) GetRecommendedValues(result *CombinationResult) map[string]float64 {
	return e.combiner.GetRecommendedValues(result)
}
