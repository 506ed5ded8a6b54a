package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ersonp/secmatch/internal/application/handlers"
	"github.com/ersonp/secmatch/internal/domain/ports"
	"github.com/ersonp/secmatch/internal/domain/services"
	"github.com/ersonp/secmatch/internal/infrastructure/config"
	embedder "github.com/ersonp/secmatch/internal/infrastructure/embedder/openai"
	llm "github.com/ersonp/secmatch/internal/infrastructure/llm/openai"
	"github.com/ersonp/secmatch/internal/infrastructure/logging"
	"github.com/ersonp/secmatch/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/secmatch/internal/infrastructure/vectordb/qdrant"
)

// storeDeps holds the dependencies that need no oracle credentials.
// Listing commands use these directly.
type storeDeps struct {
	Config *config.Config
	Store  *sqlite.Repository
	Log    zerolog.Logger
}

// oracleDeps extends storeDeps with the oracle clients and the vector
// cache for pipeline commands.
type oracleDeps struct {
	storeDeps
	Cache    *qdrant.Repository
	Embedder *embedder.Embedder
	Reasoner *llm.Client
}

// withStore loads config, opens the resolution store, and calls fn.
// Cleanup is handled automatically.
func withStore(fn func(*storeDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	store, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	return fn(&storeDeps{
		Config: cfg,
		Store:  store,
		Log:    log,
	})
}

// withOracles builds the full dependency set including both oracle
// clients and the Qdrant embedding cache.
func withOracles(fn func(*oracleDeps) error) error {
	return withStore(func(sd *storeDeps) error {
		cache, err := qdrant.NewRepository(sd.Config.Qdrant)
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer cache.Close()

		emb, err := embedder.NewEmbedder(sd.Config.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		reasoner, err := llm.NewClient(sd.Config.LLM)
		if err != nil {
			return fmt.Errorf("creating llm client: %w", err)
		}

		return fn(&oracleDeps{
			storeDeps: *sd,
			Cache:     cache,
			Embedder:  emb,
			Reasoner:  reasoner,
		})
	})
}

// scorerOptions maps the resolution config onto scorer tuning.
func scorerOptions(cfg config.ResolutionConfig) services.ScorerOptions {
	return services.ScorerOptions{
		MaxConcurrency: cfg.MaxConcurrency,
		OracleTimeout:  cfg.OracleTimeout(),
		RetryAttempts:  cfg.RetryAttempts,
		RetryBackoff:   cfg.RetryBackoff(),
	}
}

// adjudicatorOptions maps the resolution config onto adjudicator
// tuning.
func adjudicatorOptions(cfg config.ResolutionConfig) services.AdjudicatorOptions {
	return services.AdjudicatorOptions{
		MaxConcurrency: cfg.MaxConcurrency,
		OracleTimeout:  cfg.OracleTimeout(),
		RetryAttempts:  cfg.RetryAttempts,
		RetryBackoff:   cfg.RetryBackoff(),
	}
}

// newResolveHandler wires the resolution pipeline from the full
// dependency set.
func newResolveHandler(d *oracleDeps) (*handlers.ResolveHandler, error) {
	engine, err := services.NewDecisionEngine(
		d.Config.Resolution.ApproveThreshold,
		d.Config.Resolution.ReviewThreshold,
	)
	if err != nil {
		return nil, err
	}

	var cache ports.VectorCache = d.Cache
	return handlers.NewResolveHandler(
		d.Embedder,
		cache,
		engine,
		d.Store,
		scorerOptions(d.Config.Resolution),
		d.Log,
	), nil
}

// ensureCollection makes sure the Qdrant collection exists before a
// pipeline command touches it.
func ensureCollection(ctx context.Context, d *oracleDeps) error {
	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return d.Cache.EnsureCollection(ensureCtx, uint64(d.Embedder.Dimensions()))
}
