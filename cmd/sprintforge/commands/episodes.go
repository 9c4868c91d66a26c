package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sprintforge/sprintforge-go/internal/infrastructure/embeddings"
	"github.com/sprintforge/sprintforge-go/internal/infrastructure/episodestore"
)

var (
	episodesAddFile      string
	episodesSearchText   string
	episodesSearchLimit  int
	episodesSearchFormat string
	episodesProjectID    string
)

// EpisodesCmd is the parent command for episode store operations.
var EpisodesCmd = &cobra.Command{
	Use:   "episodes",
	Short: "Episode store operations",
	Long:  `Commands for storing episodes locally and searching them by similarity.`,
}

var episodesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add episodes from a JSON file to the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		episodes, err := readEpisodesFile(episodesAddFile)
		if err != nil {
			return err
		}

		store := episodestore.NewSQLiteStore(cfg.Store.Path)
		if err := store.Initialize(); err != nil {
			return err
		}
		defer store.Close()

		generator := embeddings.NewGenerator(cfg.EmbeddingDimensions)
		for _, ep := range episodes {
			embedding := generator.Generate(episodeText(ep))
			if err := store.Save(ep, embedding); err != nil {
				return fmt.Errorf("failed to save episode %s: %w", ep.ID, err)
			}
		}

		fmt.Printf("stored %d episodes\n", len(episodes))
		return nil
	},
}

var episodesSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored episodes by similarity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store := episodestore.NewSQLiteStore(cfg.Store.Path)
		if err := store.Initialize(); err != nil {
			return err
		}
		defer store.Close()

		generator := embeddings.NewGenerator(cfg.EmbeddingDimensions)
		query := generator.Generate(episodesSearchText)

		results, err := store.SearchSimilarEpisodes(context.Background(), query, episodesProjectID, episodesSearchLimit)
		if err != nil {
			return err
		}

		if episodesSearchFormat == "json" {
			return printJSON(results)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EPISODE\tPROJECT\tSIMILARITY\tOUTCOME")
		for _, ep := range results {
			outcome := "pending"
			if ep.OutcomeQuality != nil {
				outcome = fmt.Sprintf("%.2f", *ep.OutcomeQuality)
			}
			fmt.Fprintf(w, "%s\t%s\t%.3f\t%s\n", ep.ID, ep.ProjectID, ep.Similarity, outcome)
		}
		return w.Flush()
	},
}

func init() {
	episodesAddCmd.Flags().StringVarP(&episodesAddFile, "file", "f", "", "episodes JSON file (required)")
	episodesAddCmd.MarkFlagRequired("file")

	episodesSearchCmd.Flags().StringVarP(&episodesSearchText, "query", "q", "", "query text (required)")
	episodesSearchCmd.Flags().StringVar(&episodesProjectID, "project", "", "restrict to a project")
	episodesSearchCmd.Flags().IntVar(&episodesSearchLimit, "limit", 10, "maximum results")
	episodesSearchCmd.Flags().StringVar(&episodesSearchFormat, "format", "table", "output format (table, json)")
	episodesSearchCmd.MarkFlagRequired("query")

	EpisodesCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	EpisodesCmd.AddCommand(episodesAddCmd)
	EpisodesCmd.AddCommand(episodesSearchCmd)
}
