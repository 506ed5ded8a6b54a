// Package handlers contains application-level orchestration between
// the CLI and the domain services.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/domain/ports"
	"github.com/ersonp/secmatch/internal/domain/services"
	"github.com/ersonp/secmatch/internal/infrastructure/parsers"
)

// IngestHandler loads one feed file, harmonizes its rows, and stores
// the surviving entities.
type IngestHandler struct {
	normalizer *services.Normalizer
	store      ports.ResolutionStore
	log        zerolog.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(normalizer *services.Normalizer, store ports.ResolutionStore, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		normalizer: normalizer,
		store:      store,
		log:        log,
	}
}

// IngestResult contains the result of ingesting one feed file.
type IngestResult struct {
	FilePath  string
	Source    entities.Source
	Processed int
	Dropped   int
}

// Handle parses and harmonizes a feed file. Malformed rows are dropped
// and logged; sibling rows in the same batch still process. A batch
// where nothing survives normalization is a structural failure and
// aborts.
func (h *IngestHandler) Handle(ctx context.Context, filePath string, source entities.Source) (*IngestResult, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("unknown source %q", source)
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	parser := parsers.ForFile(absPath)
	if parser == nil {
		return nil, fmt.Errorf("unsupported file format: %s", absPath)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	records, err := parser.Parse(file, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", absPath, err)
	}

	started := time.Now()
	batch := make([]entities.HarmonizedEntity, 0, len(records))
	dropped := 0

	for _, rec := range records {
		entity, err := h.normalizer.Normalize(rec)
		if err != nil {
			var malformed *entities.MalformedRecordError
			if errors.As(err, &malformed) {
				dropped++
				h.log.Warn().
					Str("source", string(malformed.Source)).
					Str("field", malformed.Field).
					Int("line", malformed.Line).
					Msg("dropping malformed record")
				continue
			}
			return nil, fmt.Errorf("normalizing record at line %d: %w", rec.Line, err)
		}
		batch = append(batch, entity)
	}

	if len(batch) == 0 {
		return nil, fmt.Errorf("no records survived normalization in %s", absPath)
	}

	if err := h.store.SaveEntities(ctx, batch); err != nil {
		return nil, fmt.Errorf("saving entities: %w", err)
	}

	run := &entities.ResolutionRun{
		RunID: uuid.New().String(),
		Kind:  entities.RunKindIngest,
		Summary: entities.RunSummary{
			Processed:        len(batch),
			DroppedMalformed: dropped,
		},
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := h.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}

	h.log.Info().
		Str("source", string(source)).
		Int("processed", len(batch)).
		Int("dropped", dropped).
		Msg("ingest complete")

	return &IngestResult{
		FilePath:  absPath,
		Source:    source,
		Processed: len(batch),
		Dropped:   dropped,
	}, nil
}
