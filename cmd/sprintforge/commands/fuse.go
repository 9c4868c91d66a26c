package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprintforge/sprintforge-go/internal/application/bridge"
	"github.com/sprintforge/sprintforge-go/internal/application/fusion"
	domainChronicle "github.com/sprintforge/sprintforge-go/internal/domain/chronicle"
	"github.com/sprintforge/sprintforge-go/internal/domain/pattern"
)

var (
	fuseEpisodesFile  string
	fuseChronicleFile string
	fuseProjectID     string
	fuseTeamSize      int
	fuseBacklogSize   int
	fuseStack         []string
	fuseVerbose       bool
)

// FuseCmd runs the full fusion pipeline over local JSON evidence.
var FuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Fuse episode and chronicle evidence into recommendations",
	Long: `Fuse translates a JSON file of retrieved episodes into decision context,
combines it with a chronicle analysis JSON file, and prints the combined
patterns, recommended values, and reasoning trace.

Either evidence file may be omitted; the remaining source then carries
full weight.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		current := contextFromFlags(fuseProjectID, fuseTeamSize, fuseBacklogSize, fuseStack)

		var episodeCtx *pattern.EpisodeBasedDecisionContext
		if fuseEpisodesFile != "" {
			episodes, err := readEpisodesFile(fuseEpisodesFile)
			if err != nil {
				return err
			}
			b := bridge.NewBridge(cfg.Decision.Bridge)
			episodeCtx = b.TranslateEpisodesToContext(episodes, current)
		}

		var analysis *domainChronicle.Analysis
		if fuseChronicleFile != "" {
			data, err := os.ReadFile(fuseChronicleFile)
			if err != nil {
				return fmt.Errorf("failed to read chronicle file: %w", err)
			}
			analysis = &domainChronicle.Analysis{}
			if err := json.Unmarshal(data, analysis); err != nil {
				return fmt.Errorf("failed to parse chronicle file: %w", err)
			}
		}

		combiner := fusion.NewCombiner(cfg.Decision.Combiner)
		result := combiner.CombinePatterns(episodeCtx, analysis, current)
		values := combiner.GetRecommendedValues(result)

		if fuseVerbose {
			return printJSON(map[string]interface{}{
				"result":         result,
				"values":         values,
				"episodeContext": episodeCtx,
			})
		}

		fmt.Printf("overall confidence: %.2f\n", result.OverallConfidence)
		fmt.Printf("source influence: episode %.2f, chronicle %.2f\n",
			result.PatternSourceInfluence[pattern.SourceEpisode],
			result.PatternSourceInfluence[pattern.SourceChronicle])
		for key, value := range values {
			fmt.Printf("%s: %.1f\n", key, value)
		}
		for _, line := range result.Reasoning {
			fmt.Printf("  %s\n", line)
		}
		return nil
	},
}

func init() {
	FuseCmd.Flags().StringVar(&fuseEpisodesFile, "episodes", "", "episodes JSON file")
	FuseCmd.Flags().StringVar(&fuseChronicleFile, "chronicle", "", "chronicle analysis JSON file")
	FuseCmd.Flags().StringVar(&fuseProjectID, "project", "", "current project ID")
	FuseCmd.Flags().IntVar(&fuseTeamSize, "team-size", 0, "current team size")
	FuseCmd.Flags().IntVar(&fuseBacklogSize, "backlog-size", 0, "current backlog size")
	FuseCmd.Flags().StringSliceVar(&fuseStack, "tech", nil, "current technology stack")
	FuseCmd.Flags().BoolVarP(&fuseVerbose, "verbose", "v", false, "print full JSON result")
	FuseCmd.Flags().StringVar(&configPath, "config", "", "config file path")
}
