// Package commands provides CLI command implementations.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sprintforge/sprintforge-go/internal/config"
	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
)

// configPath is shared by all commands via the --config flag.
var configPath string

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = "sprintforge.yaml"
	}
	return config.Load(path)
}

// readEpisodesFile loads a JSON array of episodes.
func readEpisodesFile(path string) ([]*episode.Episode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read episodes file: %w", err)
	}
	var episodes []*episode.Episode
	if err := json.Unmarshal(data, &episodes); err != nil {
		return nil, fmt.Errorf("failed to parse episodes file: %w", err)
	}
	return episodes, nil
}

// printJSON writes a value as indented JSON to stdout.
func printJSON(value interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// episodeText renders an episode's context as embedding input text.
func episodeText(ep *episode.Episode) string {
	text := "project " + ep.ProjectID
	if size, ok := ep.TeamSize(); ok {
		text += fmt.Sprintf(" team %d", size)
	}
	if size, ok := ep.BacklogSize(); ok {
		text += fmt.Sprintf(" backlog %d", size)
	}
	for _, tech := range ep.TechnologyStack() {
		text += " " + tech
	}
	return text
}

// contextFromFlags builds the current project context from command flags.
func contextFromFlags(projectID string, teamSize, backlogSize int, stack []string) episode.ProjectContext {
	return episode.ProjectContext{
		ProjectID:       projectID,
		TeamSize:        teamSize,
		BacklogSize:     backlogSize,
		TechnologyStack: stack,
	}
}
