package episode

import (
	"fmt"

	"github.com/sprintforge/sprintforge-go/internal/shared"
)

// Component weights for the overall quality score.
const (
	perceptionWeight = 0.30
	reasoningWeight  = 0.30
	actionWeight     = 0.25
	outcomeWeight    = 0.15

	// outcomeAbsentScore is the outcome component score for episodes whose
	// sprint has not concluded yet. A missing outcome is expected for young
	// episodes, not a defect.
	outcomeAbsentScore = 0.3

	// highOutcomeQuality is the outcome quality above which extra credit is
	// given.
	highOutcomeQuality = 0.8
)

// ValidatorConfig configures the quality validator.
type ValidatorConfig struct {
	// MinQualityScore is the minimum quality score for an episode to be
	// considered valid.
	MinQualityScore float64 `json:"minQualityScore" yaml:"min_quality_score"`
}

// DefaultValidatorConfig returns the default configuration.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MinQualityScore: 0.7,
	}
}

// ValidationResult is the outcome of validating a single episode.
type ValidationResult struct {
	// Valid reports whether the episode may enter pattern analysis.
	Valid bool `json:"valid"`

	// QualityScore is the weighted completeness score in [0,1].
	QualityScore float64 `json:"qualityScore"`

	// Issues lists every missing or weak component found.
	Issues []string `json:"issues,omitempty"`
}

// Validator scores raw episodes for completeness and trustworthiness. It is
// the gate before any episode enters pattern analysis.
type Validator struct {
	config ValidatorConfig
}

// NewValidator creates a validator.
func NewValidator(config ValidatorConfig) *Validator {
	if config.MinQualityScore <= 0 {
		config.MinQualityScore = DefaultValidatorConfig().MinQualityScore
	}
	return &Validator{config: config}
}

// Validate scores an episode. Absent or malformed fields degrade the score;
// they never fail the evaluation.
func (v *Validator) Validate(ep *Episode) ValidationResult {
	result := ValidationResult{}
	if ep == nil {
		result.Issues = append(result.Issues, "episode is nil")
		return result
	}

	perception := v.scorePerception(ep, &result)
	reasoning := v.scoreReasoning(ep, &result)
	action := v.scoreAction(ep, &result)
	outcome := v.scoreOutcome(ep, &result)

	result.QualityScore = shared.Clamp01(
		perceptionWeight*perception +
			reasoningWeight*reasoning +
			actionWeight*action +
			outcomeWeight*outcome)
	result.Valid = result.QualityScore >= v.config.MinQualityScore

	return result
}

// essentialPerceptionFields are the context observations a well-formed
// episode is expected to carry.
var essentialPerceptionFields = []string{
	"project_data",
	"backlog_summary",
	"team_availability",
	"sprint_status",
}

func (v *Validator) scorePerception(ep *Episode, result *ValidationResult) float64 {
	if len(ep.Perception) == 0 {
		result.Issues = append(result.Issues, "perception data missing")
		return 0
	}

	var score float64
	for _, field := range essentialPerceptionFields {
		if _, ok := ep.Perception[field]; ok {
			score += 0.2
		} else {
			result.Issues = append(result.Issues, fmt.Sprintf("perception missing %s", field))
		}
	}

	// Richness bonuses: detailed project data and a resolvable team size.
	if projectData, ok := mapField(ep.Perception, "project_data"); ok && len(projectData) > 3 {
		score += 0.1
	}
	if _, ok := ep.TeamSize(); ok {
		score += 0.1
	}

	return shared.Clamp01(score)
}

var essentialReasoningFields = []string{
	"analysis",
	"identified_patterns",
	"confidence_scores",
	"rationale",
}

func (v *Validator) scoreReasoning(ep *Episode, result *ValidationResult) float64 {
	if len(ep.Reasoning) == 0 {
		result.Issues = append(result.Issues, "reasoning data missing")
		return 0
	}

	var score float64
	for _, field := range essentialReasoningFields {
		if _, ok := ep.Reasoning[field]; ok {
			score += 0.2
		} else {
			result.Issues = append(result.Issues, fmt.Sprintf("reasoning missing %s", field))
		}
	}

	if scores, ok := mapField(ep.Reasoning, "confidence_scores"); ok && len(scores) > 0 {
		score += 0.1
	}
	if patterns := stringSliceField(ep.Reasoning, "identified_patterns"); len(patterns) > 0 {
		score += 0.1
	}

	return shared.Clamp01(score)
}

var essentialActionFields = []string{
	"sprint_created",
	"tasks_to_assign",
	"adjustments",
	"cronjob_created",
}

func (v *Validator) scoreAction(ep *Episode, result *ValidationResult) float64 {
	if len(ep.Action) == 0 {
		result.Issues = append(result.Issues, "action data missing")
		return 0
	}

	var score float64
	for _, field := range essentialActionFields {
		if _, ok := ep.Action[field]; ok {
			score += 0.2
		} else {
			result.Issues = append(result.Issues, fmt.Sprintf("action missing %s", field))
		}
	}

	// Structured detail beyond scalar flags.
	for _, value := range ep.Action {
		switch value.(type) {
		case map[string]interface{}, []interface{}:
			score += 0.1
		default:
			continue
		}
		break
	}

	// An explicit success or completion flag.
	if _, ok := ep.Action["success"]; ok {
		score += 0.1
	} else if _, ok := ep.Action["completed"]; ok {
		score += 0.1
	}

	return shared.Clamp01(score)
}

func (v *Validator) scoreOutcome(ep *Episode, result *ValidationResult) float64 {
	if !ep.HasOutcome() {
		result.Issues = append(result.Issues, "outcome not yet recorded")
		return outcomeAbsentScore
	}

	score := 0.4
	if _, ok := ep.Outcome["success"]; ok {
		score += 0.15
	} else {
		result.Issues = append(result.Issues, "outcome missing success flag")
	}
	if _, ok := ep.Outcome["metrics"]; ok {
		score += 0.15
	}
	if _, ok := ep.Outcome["feedback"]; ok {
		score += 0.15
	}
	if ep.OutcomeQuality != nil && *ep.OutcomeQuality >= highOutcomeQuality {
		score += 0.15
	}

	return shared.Clamp01(score)
}
