// Package episode provides the episode domain model for sprint orchestration
// decisions and their recorded outcomes.
package episode

import (
	"time"

	"github.com/sprintforge/sprintforge-go/internal/shared"
)

// Episode represents one past orchestration decision and, once the sprint
// concludes, its outcome. The perception, reasoning, action, and outcome
// field bags are open-ended key/value structures; only the keys this core
// reads have typed accessors, and absent or wrongly-typed keys yield a
// neutral value rather than a failure.
type Episode struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// ProjectID is the owning project.
	ProjectID string `json:"projectId"`

	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`

	// Perception holds contextual observations at decision time.
	Perception map[string]interface{} `json:"perception,omitempty"`

	// Reasoning describes the analysis that led to the decision.
	Reasoning map[string]interface{} `json:"reasoning,omitempty"`

	// Action describes what was actually decided and executed.
	Action map[string]interface{} `json:"action,omitempty"`

	// Outcome describes what happened afterward; nil until recorded.
	Outcome map[string]interface{} `json:"outcome,omitempty"`

	// OutcomeQuality summarizes outcome goodness in [0,1]; nil until recorded.
	OutcomeQuality *float64 `json:"outcomeQuality,omitempty"`

	// Similarity is the vector similarity to the current query context in
	// [0,1], attached at retrieval time. Not part of the episode's identity.
	Similarity float64 `json:"similarity,omitempty"`
}

// New creates an episode with a generated ID and deep-copied field bags.
func New(projectID string, perception, reasoning, action map[string]interface{}) *Episode {
	return &Episode{
		ID:         shared.GenerateID("episode"),
		ProjectID:  projectID,
		Timestamp:  time.Now(),
		Perception: shared.CloneStringInterfaceMap(perception),
		Reasoning:  shared.CloneStringInterfaceMap(reasoning),
		Action:     shared.CloneStringInterfaceMap(action),
	}
}

// RecordOutcome records the episode's outcome. An episode is mutated exactly
// once: recording a second outcome is a caller bug.
func (e *Episode) RecordOutcome(outcome map[string]interface{}, quality float64) error {
	if e.Outcome != nil || e.OutcomeQuality != nil {
		return shared.ErrOutcomeAlreadyRecorded
	}
	q := shared.Clamp01(quality)
	e.Outcome = shared.CloneStringInterfaceMap(outcome)
	e.OutcomeQuality = &q
	return nil
}

// IsComplete reports whether the episode carries both perception and action
// data. Incomplete episodes never enter pattern analysis.
func (e *Episode) IsComplete() bool {
	return len(e.Perception) > 0 && len(e.Action) > 0
}

// HasOutcome reports whether any outcome information was recorded.
func (e *Episode) HasOutcome() bool {
	return len(e.Outcome) > 0 || e.OutcomeQuality != nil
}

// TeamSize returns the team size observed at decision time. It checks the
// top-level team_size key first, then the team_availability sub-map.
func (e *Episode) TeamSize() (int, bool) {
	if n, ok := intField(e.Perception, "team_size"); ok {
		return n, true
	}
	if sub, ok := mapField(e.Perception, "team_availability"); ok {
		return intField(sub, "team_size")
	}
	return 0, false
}

// BacklogSize returns the backlog size observed at decision time.
func (e *Episode) BacklogSize() (int, bool) {
	if n, ok := intField(e.Perception, "backlog_size"); ok {
		return n, true
	}
	if sub, ok := mapField(e.Perception, "backlog_summary"); ok {
		return intField(sub, "total_items")
	}
	return 0, false
}

// TechnologyStack returns the technology stack observed at decision time.
func (e *Episode) TechnologyStack() []string {
	return stringSliceField(e.Perception, "technology_stack")
}

// TasksAssigned returns the number of tasks the decision assigned.
func (e *Episode) TasksAssigned() (int, bool) {
	return intField(e.Action, "tasks_to_assign")
}

// SprintDurationWeeks returns the sprint duration the decision chose.
func (e *Episode) SprintDurationWeeks() (int, bool) {
	return intField(e.Action, "sprint_duration_weeks")
}

// OutcomeSuccess returns the recorded success flag, if any.
func (e *Episode) OutcomeSuccess() (bool, bool) {
	if e.Outcome == nil {
		return false, false
	}
	b, ok := e.Outcome["success"].(bool)
	return b, ok
}

// ProjectContext is the current decision context a query is made against.
type ProjectContext struct {
	// ProjectID is the project the decision is being made for.
	ProjectID string `json:"projectId"`

	// TeamSize is the current team size.
	TeamSize int `json:"teamSize"`

	// BacklogSize is the current backlog size.
	BacklogSize int `json:"backlogSize"`

	// TechnologyStack is the project's technology stack.
	TechnologyStack []string `json:"technologyStack,omitempty"`
}

// SharesTechnology reports whether the episode shares at least one
// technology with the given context.
func (e *Episode) SharesTechnology(ctx ProjectContext) bool {
	stack := e.TechnologyStack()
	if len(stack) == 0 || len(ctx.TechnologyStack) == 0 {
		return false
	}
	current := make(map[string]bool, len(ctx.TechnologyStack))
	for _, t := range ctx.TechnologyStack {
		current[t] = true
	}
	for _, t := range stack {
		if current[t] {
			return true
		}
	}
	return false
}

// ============================================================================
// Field bag accessors
// ============================================================================

// intField reads a numeric field from a bag, tolerating the numeric types
// JSON decoding and direct construction produce.
func intField(bag map[string]interface{}, key string) (int, bool) {
	if bag == nil {
		return 0, false
	}
	switch v := bag[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// mapField reads a nested map from a bag.
func mapField(bag map[string]interface{}, key string) (map[string]interface{}, bool) {
	if bag == nil {
		return nil, false
	}
	m, ok := bag[key].(map[string]interface{})
	return m, ok
}

// stringSliceField reads a string list from a bag, accepting both []string
// and the []interface{} JSON decoding produces.
func stringSliceField(bag map[string]interface{}, key string) []string {
	if bag == nil {
		return nil
	}
	switch v := bag[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
