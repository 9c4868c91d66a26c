// Package episodestore provides episode persistence with vector similarity
// search over stored context embeddings.
package episodestore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
	"github.com/sprintforge/sprintforge-go/internal/infrastructure/embeddings"
	"github.com/sprintforge/sprintforge-go/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements episode storage using SQLite, with an in-memory
// fallback when no database is available.
type SQLiteStore struct {
	mu          sync.RWMutex
	dbPath      string
	db          *sql.DB
	episodes    map[string]*storedEpisode // In-memory fallback
	initialized bool
	useInMemory bool
}

type storedEpisode struct {
	episode   *episode.Episode
	embedding []float32
}

// Option configures the SQLiteStore.
type Option func(*SQLiteStore)

// WithInMemoryFallback forces in-memory storage.
func WithInMemoryFallback() Option {
	return func(s *SQLiteStore) {
		s.useInMemory = true
	}
}

// NewSQLiteStore creates a new episode store.
func NewSQLiteStore(dbPath string, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{
		dbPath:   dbPath,
		episodes: make(map[string]*storedEpisode),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize opens the database and creates the schema. Failure to open
// falls back to in-memory storage.
func (s *SQLiteStore) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if s.useInMemory || s.dbPath == "" || s.dbPath == ":memory:" {
		s.useInMemory = true
		s.initialized = true
		return nil
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		s.useInMemory = true
		s.initialized = true
		return nil
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			perception TEXT,
			reasoning TEXT,
			action TEXT,
			outcome TEXT,
			outcome_quality REAL,
			embedding BLOB
		);
		CREATE INDEX IF NOT EXISTS idx_episodes_project_id ON episodes(project_id);
		CREATE INDEX IF NOT EXISTS idx_episodes_timestamp ON episodes(timestamp);
	`)
	if err != nil {
		db.Close()
		s.useInMemory = true
		s.initialized = true
		return nil
	}

	s.db = db
	s.initialized = true
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.initialized = false
		return err
	}

	s.episodes = make(map[string]*storedEpisode)
	s.initialized = false
	return nil
}

// Save stores an episode with its context embedding.
func (s *SQLiteStore) Save(ep *episode.Episode, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return shared.ErrStoreClosed
	}

	if s.useInMemory {
		s.episodes[ep.ID] = &storedEpisode{episode: ep, embedding: embedding}
		return nil
	}

	perception, reasoning, action, outcome, err := marshalBags(ep)
	if err != nil {
		return err
	}

	var quality interface{}
	if ep.OutcomeQuality != nil {
		quality = *ep.OutcomeQuality
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO episodes
			(id, project_id, timestamp, perception, reasoning, action, outcome, outcome_quality, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ep.ID, ep.ProjectID, ep.Timestamp.UnixMilli(),
		perception, reasoning, action, outcome, quality, encodeEmbedding(embedding))
	if err != nil {
		return fmt.Errorf("failed to save episode: %w", err)
	}
	return nil
}

// Get retrieves an episode by ID.
func (s *SQLiteStore) Get(id string) (*episode.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, shared.ErrStoreClosed
	}

	if s.useInMemory {
		stored, ok := s.episodes[id]
		if !ok {
			return nil, shared.ErrEpisodeNotFound
		}
		return stored.episode, nil
	}

	row := s.db.QueryRow(`
		SELECT id, project_id, timestamp, perception, reasoning, action, outcome, outcome_quality
		FROM episodes WHERE id = ?`, id)
	ep, _, err := scanEpisode(row)
	return ep, err
}

// RecordOutcome records an episode's outcome.
func (s *SQLiteStore) RecordOutcome(id string, outcome map[string]interface{}, quality float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return shared.ErrStoreClosed
	}

	if s.useInMemory {
		stored, ok := s.episodes[id]
		if !ok {
			return shared.ErrEpisodeNotFound
		}
		return stored.episode.RecordOutcome(outcome, quality)
	}

	encoded, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE episodes SET outcome = ?, outcome_quality = ?
		WHERE id = ? AND outcome IS NULL`,
		string(encoded), shared.Clamp01(quality), id)
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		if err := s.db.QueryRow(`SELECT COUNT(1) FROM episodes WHERE id = ?`, id).Scan(&exists); err == nil && exists > 0 {
			return shared.ErrOutcomeAlreadyRecorded
		}
		return shared.ErrEpisodeNotFound
	}
	return nil
}

// SearchSimilarEpisodes returns up to limit episodes for the project,
// ordered by descending similarity to the query embedding. Similarity is
// attached to each returned episode in [0,1].
func (s *SQLiteStore) SearchSimilarEpisodes(ctx context.Context, queryEmbedding []float32, projectID string, limit int) ([]*episode.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, shared.ErrStoreClosed
	}
	if limit <= 0 {
		limit = 10
	}

	var candidates []*storedEpisode
	if s.useInMemory {
		for _, stored := range s.episodes {
			if projectID == "" || stored.episode.ProjectID == projectID {
				candidates = append(candidates, stored)
			}
		}
	} else {
		loaded, err := s.loadCandidates(ctx, projectID)
		if err != nil {
			return nil, err
		}
		candidates = loaded
	}

	results := make([]*episode.Episode, 0, len(candidates))
	for _, stored := range candidates {
		// Returned episodes carry a per-query similarity; copy so the
		// stored record stays untouched.
		ep := *stored.episode
		ep.Similarity = embeddings.UnitSimilarity(queryEmbedding, stored.embedding)
		results = append(results, &ep)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of stored episodes.
func (s *SQLiteStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.useInMemory {
		return len(s.episodes)
	}
	if s.db == nil {
		return 0
	}
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM episodes`).Scan(&count); err != nil {
		return 0
	}
	return count
}

func (s *SQLiteStore) loadCandidates(ctx context.Context, projectID string) ([]*storedEpisode, error) {
	query := `
		SELECT id, project_id, timestamp, perception, reasoning, action, outcome, outcome_quality, embedding
		FROM episodes`
	args := []interface{}{}
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var candidates []*storedEpisode
	for rows.Next() {
		ep, embedding, err := scanEpisodeWithEmbedding(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, &storedEpisode{episode: ep, embedding: embedding})
	}
	return candidates, rows.Err()
}

// ============================================================================
// Row scanning and encoding
// ============================================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(row rowScanner) (*episode.Episode, []float32, error) {
	var (
		ep             episode.Episode
		timestamp      int64
		perception     sql.NullString
		reasoning      sql.NullString
		action         sql.NullString
		outcome        sql.NullString
		outcomeQuality sql.NullFloat64
	)
	err := row.Scan(&ep.ID, &ep.ProjectID, &timestamp, &perception, &reasoning, &action, &outcome, &outcomeQuality)
	if err == sql.ErrNoRows {
		return nil, nil, shared.ErrEpisodeNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan episode: %w", err)
	}
	return assembleEpisode(&ep, timestamp, perception, reasoning, action, outcome, outcomeQuality)
}

func scanEpisodeWithEmbedding(row rowScanner) (*episode.Episode, []float32, error) {
	var (
		ep             episode.Episode
		timestamp      int64
		perception     sql.NullString
		reasoning      sql.NullString
		action         sql.NullString
		outcome        sql.NullString
		outcomeQuality sql.NullFloat64
		embedding      []byte
	)
	err := row.Scan(&ep.ID, &ep.ProjectID, &timestamp, &perception, &reasoning, &action, &outcome, &outcomeQuality, &embedding)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan episode: %w", err)
	}
	assembled, _, err := assembleEpisode(&ep, timestamp, perception, reasoning, action, outcome, outcomeQuality)
	if err != nil {
		return nil, nil, err
	}
	return assembled, decodeEmbedding(embedding), nil
}

func assembleEpisode(ep *episode.Episode, timestamp int64, perception, reasoning, action, outcome sql.NullString, outcomeQuality sql.NullFloat64) (*episode.Episode, []float32, error) {
	ep.Timestamp = time.UnixMilli(timestamp)
	var err error
	if ep.Perception, err = unmarshalBag(perception); err != nil {
		return nil, nil, err
	}
	if ep.Reasoning, err = unmarshalBag(reasoning); err != nil {
		return nil, nil, err
	}
	if ep.Action, err = unmarshalBag(action); err != nil {
		return nil, nil, err
	}
	if ep.Outcome, err = unmarshalBag(outcome); err != nil {
		return nil, nil, err
	}
	if outcomeQuality.Valid {
		q := outcomeQuality.Float64
		ep.OutcomeQuality = &q
	}
	return ep, nil, nil
}

func marshalBags(ep *episode.Episode) (perception, reasoning, action, outcome interface{}, err error) {
	encode := func(bag map[string]interface{}) (interface{}, error) {
		if bag == nil {
			return nil, nil
		}
		data, err := json.Marshal(bag)
		if err != nil {
			return nil, fmt.Errorf("failed to encode episode field bag: %w", err)
		}
		return string(data), nil
	}

	if perception, err = encode(ep.Perception); err != nil {
		return
	}
	if reasoning, err = encode(ep.Reasoning); err != nil {
		return
	}
	if action, err = encode(ep.Action); err != nil {
		return
	}
	outcome, err = encode(ep.Outcome)
	return
}

func unmarshalBag(value sql.NullString) (map[string]interface{}, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var bag map[string]interface{}
	if err := json.Unmarshal([]byte(value.String), &bag); err != nil {
		return nil, fmt.Errorf("failed to decode episode field bag: %w", err)
	}
	return bag, nil
}

func encodeEmbedding(embedding []float32) []byte {
	if embedding == nil {
		return nil
	}
	buf := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	embedding := make([]float32, len(buf)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return embedding
}
