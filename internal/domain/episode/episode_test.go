package episode

import (
	"testing"
)

func TestNewClonesFieldBags(t *testing.T) {
	perception := map[string]interface{}{
		"team_size": 5,
		"project_data": map[string]interface{}{
			"name": "checkout",
		},
	}
	action := map[string]interface{}{"tasks_to_assign": 6}

	ep := New("project-1", perception, nil, action)

	if ep.ID == "" {
		t.Error("ID should be generated")
	}
	if ep.ProjectID != "project-1" {
		t.Errorf("expected project-1, got %s", ep.ProjectID)
	}

	// Mutating the caller's maps must not affect the episode.
	perception["team_size"] = 99
	perception["project_data"].(map[string]interface{})["name"] = "mutated"

	if size, _ := ep.TeamSize(); size != 5 {
		t.Errorf("expected team size 5, got %d", size)
	}
	if ep.Perception["project_data"].(map[string]interface{})["name"] != "checkout" {
		t.Error("nested perception mutated through caller's map")
	}
}

func TestRecordOutcomeOnce(t *testing.T) {
	ep := New("project-1", map[string]interface{}{"team_size": 5}, nil, map[string]interface{}{"tasks_to_assign": 6})

	if ep.HasOutcome() {
		t.Error("new episode should have no outcome")
	}

	err := ep.RecordOutcome(map[string]interface{}{"success": true}, 0.9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ep.HasOutcome() {
		t.Error("outcome should be recorded")
	}
	if ep.OutcomeQuality == nil || *ep.OutcomeQuality != 0.9 {
		t.Errorf("expected outcome quality 0.9, got %v", ep.OutcomeQuality)
	}

	err = ep.RecordOutcome(map[string]interface{}{"success": false}, 0.1)
	if err == nil {
		t.Error("second outcome recording should fail")
	}
	if *ep.OutcomeQuality != 0.9 {
		t.Error("second recording should not overwrite the outcome")
	}
}

func TestRecordOutcomeClampsQuality(t *testing.T) {
	ep := New("project-1", nil, nil, nil)
	if err := ep.RecordOutcome(map[string]interface{}{"success": true}, 1.4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *ep.OutcomeQuality != 1.0 {
		t.Errorf("expected clamped quality 1.0, got %v", *ep.OutcomeQuality)
	}
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name       string
		perception map[string]interface{}
		action     map[string]interface{}
		expected   bool
	}{
		{"both present", map[string]interface{}{"team_size": 5}, map[string]interface{}{"tasks_to_assign": 6}, true},
		{"missing perception", nil, map[string]interface{}{"tasks_to_assign": 6}, false},
		{"missing action", map[string]interface{}{"team_size": 5}, nil, false},
		{"both empty", map[string]interface{}{}, map[string]interface{}{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := &Episode{Perception: tt.perception, Action: tt.action}
			if got := ep.IsComplete(); got != tt.expected {
				t.Errorf("IsComplete() = %t, want %t", got, tt.expected)
			}
		})
	}
}

func TestTeamSizeFallback(t *testing.T) {
	tests := []struct {
		name       string
		perception map[string]interface{}
		expected   int
		ok         bool
	}{
		{"top level int", map[string]interface{}{"team_size": 5}, 5, true},
		{"top level float from JSON", map[string]interface{}{"team_size": float64(7)}, 7, true},
		{"nested in team_availability", map[string]interface{}{
			"team_availability": map[string]interface{}{"team_size": 4},
		}, 4, true},
		{"absent", map[string]interface{}{"other": 1}, 0, false},
		{"wrong type", map[string]interface{}{"team_size": "five"}, 0, false},
		{"nil perception", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := &Episode{Perception: tt.perception}
			got, ok := ep.TeamSize()
			if got != tt.expected || ok != tt.ok {
				t.Errorf("TeamSize() = (%d, %t), want (%d, %t)", got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestTechnologyStack(t *testing.T) {
	ep := &Episode{Perception: map[string]interface{}{
		"technology_stack": []interface{}{"go", "postgres", 42},
	}}
	stack := ep.TechnologyStack()
	if len(stack) != 2 || stack[0] != "go" || stack[1] != "postgres" {
		t.Errorf("unexpected stack: %v", stack)
	}
}

func TestSharesTechnology(t *testing.T) {
	ep := &Episode{Perception: map[string]interface{}{
		"technology_stack": []string{"go", "redis"},
	}}

	if !ep.SharesTechnology(ProjectContext{TechnologyStack: []string{"redis", "python"}}) {
		t.Error("expected shared technology")
	}
	if ep.SharesTechnology(ProjectContext{TechnologyStack: []string{"rust"}}) {
		t.Error("expected no shared technology")
	}
	if ep.SharesTechnology(ProjectContext{}) {
		t.Error("empty context stack shares nothing")
	}
}
