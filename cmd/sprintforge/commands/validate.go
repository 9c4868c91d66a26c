package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
)

var (
	validateFile   string
	validateFormat string
)

// ValidateCmd scores episode quality.
var ValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate episode quality",
	Long: `Validate scores each episode in a JSON file for completeness and
trustworthiness, and reports which episodes pass the quality gate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		episodes, err := readEpisodesFile(validateFile)
		if err != nil {
			return err
		}

		validator := episode.NewValidator(cfg.Validator)

		type report struct {
			EpisodeID string                   `json:"episodeId"`
			Result    episode.ValidationResult `json:"result"`
		}
		reports := make([]report, 0, len(episodes))
		for _, ep := range episodes {
			reports = append(reports, report{EpisodeID: ep.ID, Result: validator.Validate(ep)})
		}

		if validateFormat == "json" {
			return printJSON(reports)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EPISODE\tVALID\tQUALITY\tISSUES")
		for _, r := range reports {
			fmt.Fprintf(w, "%s\t%t\t%.2f\t%d\n", r.EpisodeID, r.Result.Valid, r.Result.QualityScore, len(r.Result.Issues))
		}
		return w.Flush()
	},
}

func init() {
	ValidateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "episodes JSON file (required)")
	ValidateCmd.Flags().StringVar(&validateFormat, "format", "table", "output format (table, json)")
	ValidateCmd.Flags().StringVar(&configPath, "config", "", "config file path")
	ValidateCmd.MarkFlagRequired("file")
}
