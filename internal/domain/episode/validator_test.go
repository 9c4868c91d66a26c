package episode

import "testing"

// richEpisode builds an episode with every component the validator credits,
// minus outcome data.
func richEpisode() *Episode {
	return &Episode{
		ID: "episode-rich",
		Perception: map[string]interface{}{
			"project_data": map[string]interface{}{
				"name": "checkout", "phase": "delivery", "domain": "payments", "priority": "high",
			},
			"backlog_summary":   map[string]interface{}{"total_items": 24},
			"team_availability": map[string]interface{}{"team_size": 5},
			"sprint_status":     "none_active",
		},
		Reasoning: map[string]interface{}{
			"analysis":            "backlog ready, team at full capacity",
			"identified_patterns": []string{"steady_velocity"},
			"confidence_scores":   map[string]interface{}{"velocity": 0.8},
			"rationale":           "standard sprint sizing",
		},
		Action: map[string]interface{}{
			"sprint_created":  true,
			"tasks_to_assign": 6,
			"adjustments":     map[string]interface{}{"scope": "trimmed"},
			"cronjob_created": false,
			"completed":       true,
		},
	}
}

func TestNewValidatorDefaults(t *testing.T) {
	v := NewValidator(ValidatorConfig{})
	if v.config.MinQualityScore != 0.7 {
		t.Errorf("expected default threshold 0.7, got %v", v.config.MinQualityScore)
	}
}

func TestValidateNilEpisode(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig())
	result := v.Validate(nil)
	if result.Valid {
		t.Error("nil episode should not be valid")
	}
	if result.QualityScore != 0 {
		t.Errorf("expected score 0, got %v", result.QualityScore)
	}
	if len(result.Issues) == 0 {
		t.Error("expected issues")
	}
}

func TestValidateMissingOutcomeGetsPartialCredit(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig())

	ep := richEpisode()
	result := v.Validate(ep)

	// Perception, reasoning, action are all fully scored; outcome absence
	// contributes its fixed partial score rather than zero.
	expected := 0.30*1.0 + 0.30*1.0 + 0.25*1.0 + 0.15*0.3
	if diff := result.QualityScore - expected; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected score %.4f, got %.4f", expected, result.QualityScore)
	}
	if !result.Valid {
		t.Error("episode without outcome should still pass the gate")
	}

	found := false
	for _, issue := range result.Issues {
		if issue == "outcome not yet recorded" {
			found = true
		}
	}
	if !found {
		t.Error("expected outcome issue to be reported")
	}
}

func TestValidateHighQualityOutcome(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig())

	ep := richEpisode()
	quality := 0.9
	ep.Outcome = map[string]interface{}{
		"success":  true,
		"metrics":  map[string]interface{}{"completed_tasks": 6},
		"feedback": "smooth sprint",
	}
	ep.OutcomeQuality = &quality

	result := v.Validate(ep)
	expected := 0.30 + 0.30 + 0.25 + 0.15*1.0
	if diff := result.QualityScore - expected; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected score %.4f, got %.4f", expected, result.QualityScore)
	}
}

func TestValidateMonotonicInPerceptionFields(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig())

	without := richEpisode()
	delete(without.Perception, "sprint_status")

	with := richEpisode()

	scoreWithout := v.Validate(without).QualityScore
	scoreWith := v.Validate(with).QualityScore
	if scoreWith < scoreWithout {
		t.Errorf("adding an essential field decreased the score: %.4f -> %.4f", scoreWithout, scoreWith)
	}
}

func TestValidateEmptyEpisodeDoesNotPanic(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig())

	result := v.Validate(&Episode{})
	if result.Valid {
		t.Error("empty episode should not be valid")
	}
	// Outcome absence still earns the partial component score.
	expected := 0.15 * 0.3
	if diff := result.QualityScore - expected; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected score %.4f, got %.4f", expected, result.QualityScore)
	}
}

func TestValidateMalformedFieldTypes(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig())

	// Wrongly-typed fields count as present but earn no richness bonuses.
	ep := &Episode{
		Perception: map[string]interface{}{
			"project_data":      "not a map",
			"backlog_summary":   42,
			"team_availability": true,
			"sprint_status":     nil,
		},
		Reasoning: map[string]interface{}{
			"confidence_scores":   "not a map",
			"identified_patterns": 3,
		},
		Action: map[string]interface{}{
			"tasks_to_assign": "six",
		},
	}

	result := v.Validate(ep)
	if result.QualityScore <= 0 || result.QualityScore >= 1 {
		t.Errorf("expected degraded mid-range score, got %.4f", result.QualityScore)
	}
}

func TestValidateConfigurableThreshold(t *testing.T) {
	strict := NewValidator(ValidatorConfig{MinQualityScore: 0.95})
	result := strict.Validate(richEpisode())
	if result.Valid {
		t.Error("strict threshold should reject an episode without outcome")
	}
}
