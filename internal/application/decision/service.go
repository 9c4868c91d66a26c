// Package decision provides the decision support service: the calling layer
// that fetches both evidence sources concurrently and invokes the pure
// fusion core on the retrieved data.
package decision

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sprintforge/sprintforge-go/internal/application/bridge"
	"github.com/sprintforge/sprintforge-go/internal/application/fusion"
	domainChronicle "github.com/sprintforge/sprintforge-go/internal/domain/chronicle"
	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
	"github.com/sprintforge/sprintforge-go/internal/domain/pattern"
)

// EpisodeSearcher finds episodes similar to a query embedding, ordered by
// descending similarity with similarity attached.
type EpisodeSearcher interface {
	SearchSimilarEpisodes(ctx context.Context, queryEmbedding []float32, projectID string, limit int) ([]*episode.Episode, error)
}

// ChronicleFetcher queries the aggregate analytics service.
type ChronicleFetcher interface {
	GetSimilarProjects(ctx context.Context, referenceProjectID string, similarityThreshold float64) ([]domainChronicle.SimilarProject, error)
	GetVelocityTrends(ctx context.Context, projectID string) (*domainChronicle.VelocityTrend, error)
	GetProjectImpediments(ctx context.Context, projectID string) ([]domainChronicle.Impediment, error)
}

// Embedder turns a context description into a query embedding.
type Embedder interface {
	Generate(text string) []float32
}

// Config configures the decision support service.
type Config struct {
	// EpisodeLimit is the maximum episodes retrieved per query.
	EpisodeLimit int `json:"episodeLimit" yaml:"episode_limit"`

	// SimilarityThreshold is passed to the chronicle similar-projects query.
	SimilarityThreshold float64 `json:"similarityThreshold" yaml:"similarity_threshold"`

	// Bridge and Combiner configure the fusion core.
	Bridge   bridge.Config `json:"bridge" yaml:"bridge"`
	Combiner fusion.Config `json:"combiner" yaml:"combiner"`
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		EpisodeLimit:        20,
		SimilarityThreshold: 0.7,
		Bridge:              bridge.DefaultConfig(),
		Combiner:            fusion.DefaultConfig(),
	}
}

// Recommendation is the service's output for one sprint-planning request.
type Recommendation struct {
	// Result is the full combination result with reasoning trace.
	Result *pattern.CombinationResult `json:"result"`

	// Values maps recommendation keys to values, filtered by confidence.
	Values map[string]float64 `json:"values"`

	// EpisodeContext is the bridge output that fed the combiner.
	EpisodeContext *pattern.EpisodeBasedDecisionContext `json:"episodeContext,omitempty"`
}

// Service orchestrates evidence retrieval and fusion. All collaborators are
// injected; the service holds no process-wide state.
type Service struct {
	config   Config
	searcher EpisodeSearcher
	fetcher  ChronicleFetcher
	embedder Embedder
	bridge   *bridge.Bridge
	combiner *fusion.Combiner
}

// NewService creates a decision support service. The searcher, fetcher, and
// embedder may each be nil, in which case the corresponding evidence source
// is treated as unavailable.
func NewService(config Config, searcher EpisodeSearcher, fetcher ChronicleFetcher, embedder Embedder) *Service {
	if config.EpisodeLimit <= 0 {
		config.EpisodeLimit = DefaultConfig().EpisodeLimit
	}
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}
	return &Service{
		config:   config,
		searcher: searcher,
		fetcher:  fetcher,
		embedder: embedder,
		bridge:   bridge.NewBridge(config.Bridge),
		combiner: fusion.NewCombiner(config.Combiner),
	}
}

// Recommend fetches both evidence sources concurrently and fuses them. A
// failed or missing source degrades to absent; with zero usable evidence
// the result is empty with confidence zero, never an error. The only error
// returned is context cancellation of the overall request.
func (s *Service) Recommend(ctx context.Context, current episode.ProjectContext) (*Recommendation, error) {
	var (
		episodes []*episode.Episode
		analysis *domainChronicle.Analysis
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		episodes = s.fetchEpisodes(groupCtx, current)
		return nil
	})
	group.Go(func() error {
		analysis = s.fetchChronicle(groupCtx, current)
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("decision request cancelled: %w", err)
	}

	var episodeCtx *pattern.EpisodeBasedDecisionContext
	if episodes != nil {
		episodeCtx = s.bridge.TranslateEpisodesToContext(episodes, current)
	}

	result := s.combiner.CombinePatterns(episodeCtx, analysis, current)
	return &Recommendation{
		Result:         result,
		Values:         s.combiner.GetRecommendedValues(result),
		EpisodeContext: episodeCtx,
	}, nil
}

// fetchEpisodes retrieves similar episodes; failures yield a nil source.
func (s *Service) fetchEpisodes(ctx context.Context, current episode.ProjectContext) []*episode.Episode {
	if s.searcher == nil || s.embedder == nil {
		return nil
	}

	query := s.embedder.Generate(contextQueryText(current))
	episodes, err := s.searcher.SearchSimilarEpisodes(ctx, query, current.ProjectID, s.config.EpisodeLimit)
	if err != nil {
		return nil
	}
	return episodes
}

// fetchChronicle retrieves aggregate analytics; failures of individual
// queries degrade to partial or nil analysis.
func (s *Service) fetchChronicle(ctx context.Context, current episode.ProjectContext) *domainChronicle.Analysis {
	if s.fetcher == nil {
		return nil
	}

	projects, err := s.fetcher.GetSimilarProjects(ctx, current.ProjectID, s.config.SimilarityThreshold)
	if err != nil {
		return nil
	}

	// Velocity and impediments enrich the analysis but are optional.
	velocity, err := s.fetcher.GetVelocityTrends(ctx, current.ProjectID)
	if err != nil {
		velocity = nil
	}
	impediments, err := s.fetcher.GetProjectImpediments(ctx, current.ProjectID)
	if err != nil {
		impediments = nil
	}

	return domainChronicle.BuildAnalysis(projects, velocity, impediments)
}

// contextQueryText renders the current context as retrieval query text.
func contextQueryText(current episode.ProjectContext) string {
	text := fmt.Sprintf("project %s team %d backlog %d", current.ProjectID, current.TeamSize, current.BacklogSize)
	for _, tech := range current.TechnologyStack {
		text += " " + tech
	}
	return text
}
