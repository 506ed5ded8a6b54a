package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/domain/ports"
)

// Default oracle-call tuning. Overridable via ScorerOptions.
const (
	DefaultMaxConcurrency = 4
	DefaultOracleTimeout  = 30 * time.Second
	DefaultRetryAttempts  = 3
	DefaultRetryBackoff   = 500 * time.Millisecond
)

// ScorerOptions controls oracle-call concurrency and retry behavior.
type ScorerOptions struct {
	MaxConcurrency int
	OracleTimeout  time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration
}

func (o ScorerOptions) withDefaults() ScorerOptions {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.OracleTimeout <= 0 {
		o.OracleTimeout = DefaultOracleTimeout
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = DefaultRetryAttempts
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	return o
}

// ScoreResult is the scoring outcome for one candidate pair. Err is
// non-nil when the pair could not be scored; the score is then
// meaningless and the pair counts as unresolved.
type ScoreResult struct {
	Pair  entities.CandidatePair
	Score float64
	Err   error
}

// SimilarityScorer computes semantic similarity between the two sides
// of a candidate pair via the embedding oracle. Embeddings are cached
// per harmonized_id for the lifetime of the scorer (the same entity
// participates in many pairs) and, when a vector cache is configured,
// across runs.
type SimilarityScorer struct {
	embedder ports.Embedder
	cache    ports.VectorCache
	opts     ScorerOptions

	mu  sync.Mutex
	mem map[string][]float32
}

// NewSimilarityScorer creates a scorer. cache may be nil, in which
// case only the in-run memory cache is used.
func NewSimilarityScorer(embedder ports.Embedder, cache ports.VectorCache, opts ScorerOptions) *SimilarityScorer {
	return &SimilarityScorer{
		embedder: embedder,
		cache:    cache,
		opts:     opts.withDefaults(),
		mem:      make(map[string][]float32),
	}
}

// Score returns the cosine similarity between the pair's description
// embeddings, rounded to 4 decimal places. Scores outside [0,1] are
// surfaced as-is so calibration drift stays visible. Embeddings that
// cannot produce a meaningful cosine fail the pair instead of scoring
// it 0, which would silently discard it below the review threshold.
func (s *SimilarityScorer) Score(ctx context.Context, pair entities.CandidatePair) (float64, error) {
	v1, err := s.embeddingFor(ctx, pair.Entity1)
	if err != nil {
		return 0, err
	}
	v2, err := s.embeddingFor(ctx, pair.Entity2)
	if err != nil {
		return 0, err
	}
	if err := checkEmbeddings(v1, v2); err != nil {
		return 0, fmt.Errorf("scoring %s: %w", pair.Key(), err)
	}
	return RoundScore(CosineSimilarity(v1, v2)), nil
}

// checkEmbeddings rejects vector pairs with no defined cosine: a
// dimension mismatch (typically a reconfigured embedder against stale
// cached vectors) or a zero-magnitude vector.
func checkEmbeddings(v1, v2 []float32) error {
	if len(v1) != len(v2) {
		return fmt.Errorf("%w: embedding dimensions differ (%d vs %d)",
			entities.ErrScoringUnavailable, len(v1), len(v2))
	}
	if zeroVector(v1) || zeroVector(v2) {
		return fmt.Errorf("%w: zero-magnitude embedding", entities.ErrScoringUnavailable)
	}
	return nil
}

func zeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// ScorePairs scores all pairs with bounded oracle concurrency.
// Per-pair failures are isolated into their ScoreResult; one stuck
// pair never stalls the batch. Results are positionally aligned with
// the input.
func (s *SimilarityScorer) ScorePairs(ctx context.Context, pairs []entities.CandidatePair) []ScoreResult {
	results := make([]ScoreResult, len(pairs))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrency)

	for i, pair := range pairs {
		results[i].Pair = pair
		if err := ctx.Err(); err != nil {
			// Run-level cancellation: stop issuing new oracle calls.
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			score, err := s.Score(ctx, pair)
			results[i].Score = score
			results[i].Err = err
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// embeddingFor resolves an entity's description embedding: in-run
// memory first, then the cross-run vector cache, then the oracle.
func (s *SimilarityScorer) embeddingFor(ctx context.Context, e entities.HarmonizedEntity) ([]float32, error) {
	s.mu.Lock()
	if v, ok := s.mem[e.HarmonizedID]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	if s.cache != nil {
		if v, err := s.cache.Get(ctx, e.HarmonizedID); err == nil && len(v) > 0 {
			s.remember(e.HarmonizedID, v)
			return v, nil
		}
	}

	v, err := s.embedWithRetry(ctx, e.Description())
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", e.HarmonizedID, err)
	}

	s.remember(e.HarmonizedID, v)
	if s.cache != nil {
		// Upsert-by-key; overwriting with the same value is safe, and a
		// cache write failure must not fail the scoring itself.
		_ = s.cache.Put(ctx, e, v)
	}
	return v, nil
}

func (s *SimilarityScorer) remember(id string, v []float32) {
	s.mu.Lock()
	s.mem[id] = v
	s.mu.Unlock()
}

// embedWithRetry calls the oracle with a per-attempt timeout and
// exponential backoff. On exhaustion the caller marks the pair
// unresolved rather than guessing a score.
func (s *SimilarityScorer) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 0; attempt < s.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := s.opts.RetryBackoff * (1 << (attempt - 1))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", entities.ErrScoringUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.OracleTimeout)
		v, err := s.embedder.Embed(attemptCtx, text)
		cancel()

		if err == nil && len(v) == 0 {
			err = errors.New("oracle returned empty embedding")
		}
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", entities.ErrScoringUnavailable, s.opts.RetryAttempts, lastErr)
}

// CosineSimilarity computes the cosine of the angle between two
// vectors. Returns 0 when either vector has zero magnitude or the
// dimensions differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RoundScore rounds a similarity to 4 decimal places.
func RoundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
