package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sprintforge/sprintforge-go/internal/application/analysis"
)

var (
	analyzeFile        string
	analyzeProjectID   string
	analyzeTeamSize    int
	analyzeBacklogSize int
	analyzeStack       []string
	analyzeFormat      string
	analyzeAll         bool
)

// AnalyzeCmd mines decision patterns from episodes.
var AnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Mine decision patterns from episodes",
	Long: `Analyze extracts decision patterns (task count, sprint duration,
correlations) and narrative insights from a JSON file of retrieved
episodes, against the current project context.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		episodes, err := readEpisodesFile(analyzeFile)
		if err != nil {
			return err
		}

		analyzer := analysis.NewAnalyzer(cfg.Decision.Bridge.Analyzer)
		current := contextFromFlags(analyzeProjectID, analyzeTeamSize, analyzeBacklogSize, analyzeStack)

		patterns, insights := analyzer.AnalyzePatterns(episodes, current)
		if !analyzeAll {
			patterns, insights = analyzer.FilterSignificantPatterns(patterns, insights)
		}

		if analyzeFormat == "json" {
			return printJSON(map[string]interface{}{
				"patterns": patterns,
				"insights": insights,
			})
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tVALUE\tSUCCESS\tEPISODES\tCONFIDENCE")
		for _, p := range patterns {
			fmt.Fprintf(w, "%s\t%.1f\t%.2f\t%d\t%.2f\n", p.Type, p.Value, p.SuccessRate, p.EpisodeCount, p.Confidence)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		for _, in := range insights {
			fmt.Printf("- %s (confidence %.2f)\n", in.Text, in.Confidence)
		}
		return nil
	},
}

func init() {
	AnalyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "episodes JSON file (required)")
	AnalyzeCmd.Flags().StringVar(&analyzeProjectID, "project", "", "current project ID")
	AnalyzeCmd.Flags().IntVar(&analyzeTeamSize, "team-size", 0, "current team size")
	AnalyzeCmd.Flags().IntVar(&analyzeBacklogSize, "backlog-size", 0, "current backlog size")
	AnalyzeCmd.Flags().StringSliceVar(&analyzeStack, "tech", nil, "current technology stack")
	AnalyzeCmd.Flags().StringVar(&analyzeFormat, "format", "table", "output format (table, json)")
	AnalyzeCmd.Flags().BoolVar(&analyzeAll, "all", false, "include patterns below significance thresholds")
	AnalyzeCmd.Flags().StringVar(&configPath, "config", "", "config file path")
	AnalyzeCmd.MarkFlagRequired("file")
}
