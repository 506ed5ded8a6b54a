// Package sqlite provides a SQLite implementation of the
// ResolutionStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.ResolutionStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Canonical post-normalization securities, one row per source record
	CREATE TABLE IF NOT EXISTS harmonized_entities (
		harmonized_id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		native_id TEXT NOT NULL,
		name_clean TEXT NOT NULL,
		issuer_clean TEXT NOT NULL,
		asset_type TEXT NOT NULL,
		isin TEXT,
		sedol TEXT,
		ticker TEXT,
		currency TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source, native_id)
	);
	CREATE INDEX IF NOT EXISTS idx_entities_source ON harmonized_entities(source);
	CREATE INDEX IF NOT EXISTS idx_entities_asset_type ON harmonized_entities(asset_type);

	-- Match decisions, at most one per unordered entity pair
	CREATE TABLE IF NOT EXISTS match_decisions (
		match_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		source_1 TEXT NOT NULL,
		id_1 TEXT NOT NULL,
		source_2 TEXT NOT NULL,
		id_2 TEXT NOT NULL,
		similarity_score REAL NOT NULL,
		method TEXT NOT NULL,
		status TEXT NOT NULL,
		rationale TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(id_1, id_2)
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_status ON match_decisions(status);
	CREATE INDEX IF NOT EXISTS idx_decisions_run ON match_decisions(run_id);

	-- Per-run summary counters
	CREATE TABLE IF NOT EXISTS resolution_runs (
		run_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		processed INTEGER NOT NULL DEFAULT 0,
		dropped_malformed INTEGER NOT NULL DEFAULT 0,
		candidates INTEGER NOT NULL DEFAULT 0,
		scored INTEGER NOT NULL DEFAULT 0,
		unresolved_scoring INTEGER NOT NULL DEFAULT 0,
		approved INTEGER NOT NULL DEFAULT 0,
		pending INTEGER NOT NULL DEFAULT 0,
		rejected INTEGER NOT NULL DEFAULT 0,
		inconclusive INTEGER NOT NULL DEFAULT 0,
		out_of_range INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON resolution_runs(started_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveEntity inserts or fully replaces a harmonized entity.
// Re-harmonization replaces, never patches.
func (r *Repository) SaveEntity(ctx context.Context, entity *entities.HarmonizedEntity) error {
	query := `
		INSERT INTO harmonized_entities
			(harmonized_id, source, native_id, name_clean, issuer_clean, asset_type, isin, sedol, ticker, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(harmonized_id) DO UPDATE SET
			source = excluded.source,
			native_id = excluded.native_id,
			name_clean = excluded.name_clean,
			issuer_clean = excluded.issuer_clean,
			asset_type = excluded.asset_type,
			isin = excluded.isin,
			sedol = excluded.sedol,
			ticker = excluded.ticker,
			currency = excluded.currency
	`
	_, err := r.db.ExecContext(ctx, query,
		entity.HarmonizedID,
		string(entity.Source),
		entity.NativeID,
		entity.NameClean,
		entity.IssuerClean,
		entity.AssetType,
		entity.ISIN,
		entity.SEDOL,
		entity.Ticker,
		entity.Currency,
		entity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving entity: %w", err)
	}
	return nil
}

// SaveEntities saves a batch of harmonized entities in one
// transaction.
func (r *Repository) SaveEntities(ctx context.Context, batch []entities.HarmonizedEntity) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range batch {
		e := &batch[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO harmonized_entities
				(harmonized_id, source, native_id, name_clean, issuer_clean, asset_type, isin, sedol, ticker, currency, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(harmonized_id) DO UPDATE SET
				source = excluded.source,
				native_id = excluded.native_id,
				name_clean = excluded.name_clean,
				issuer_clean = excluded.issuer_clean,
				asset_type = excluded.asset_type,
				isin = excluded.isin,
				sedol = excluded.sedol,
				ticker = excluded.ticker,
				currency = excluded.currency
		`,
			e.HarmonizedID, string(e.Source), e.NativeID, e.NameClean, e.IssuerClean,
			e.AssetType, e.ISIN, e.SEDOL, e.Ticker, e.Currency, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("saving entity %s: %w", e.HarmonizedID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entities: %w", err)
	}
	return nil
}

const entityColumns = `harmonized_id, source, native_id, name_clean, issuer_clean, asset_type,
	COALESCE(isin, ''), COALESCE(sedol, ''), COALESCE(ticker, ''), COALESCE(currency, ''), created_at`

func scanEntity(row interface{ Scan(...any) error }) (*entities.HarmonizedEntity, error) {
	var e entities.HarmonizedEntity
	var source string
	err := row.Scan(
		&e.HarmonizedID,
		&source,
		&e.NativeID,
		&e.NameClean,
		&e.IssuerClean,
		&e.AssetType,
		&e.ISIN,
		&e.SEDOL,
		&e.Ticker,
		&e.Currency,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Source = entities.Source(source)
	return &e, nil
}

// FindEntityByID finds an entity by its harmonized ID.
func (r *Repository) FindEntityByID(ctx context.Context, harmonizedID string) (*entities.HarmonizedEntity, error) {
	query := `SELECT ` + entityColumns + ` FROM harmonized_entities WHERE harmonized_id = ?`
	row := r.db.QueryRowContext(ctx, query, harmonizedID)

	entity, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity: %w", err)
	}
	return entity, nil
}

// noLimit tells SQLite to return every row.
const noLimit = -1

// normalizeLimit maps the port convention (limit <= 0 means all rows)
// onto SQLite's negative-limit form.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return noLimit
	}
	return limit
}

// ListEntities lists entities ordered by harmonized ID with
// pagination.
func (r *Repository) ListEntities(ctx context.Context, limit, offset int) ([]entities.HarmonizedEntity, error) {
	query := `SELECT ` + entityColumns + ` FROM harmonized_entities ORDER BY harmonized_id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, normalizeLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	return collectEntities(rows)
}

// ListEntitiesBySource lists entities from one feed.
func (r *Repository) ListEntitiesBySource(ctx context.Context, source entities.Source, limit int) ([]entities.HarmonizedEntity, error) {
	query := `SELECT ` + entityColumns + ` FROM harmonized_entities WHERE source = ? ORDER BY harmonized_id LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, string(source), normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing entities by source: %w", err)
	}
	defer rows.Close()

	return collectEntities(rows)
}

func collectEntities(rows *sql.Rows) ([]entities.HarmonizedEntity, error) {
	var result []entities.HarmonizedEntity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		result = append(result, *entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return result, nil
}

// CountEntities returns the total number of harmonized entities.
func (r *Repository) CountEntities(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM harmonized_entities`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting entities: %w", err)
	}
	return count, nil
}

// SaveDecisions persists new match decisions in one transaction.
// Existing rows for the same unordered pair are left untouched so that
// re-running the decision stage never disturbs adjudicated state. The
// pair is the only ignorable conflict: a match_id collision means two
// distinct pairs were assigned the same identifier and fails the batch
// rather than silently dropping a decision.
func (r *Repository) SaveDecisions(ctx context.Context, decisions []entities.MatchDecision) (int, error) {
	if len(decisions) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for i := range decisions {
		d := &decisions[i]
		res, err := tx.ExecContext(ctx, `
			INSERT INTO match_decisions
				(match_id, run_id, source_1, id_1, source_2, id_2, similarity_score, method, status, rationale, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id_1, id_2) DO NOTHING
		`,
			d.MatchID, d.RunID, string(d.Source1), d.ID1, string(d.Source2), d.ID2,
			d.SimilarityScore, string(d.Method), string(d.Status), d.Rationale,
			d.CreatedAt, d.UpdatedAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("saving decision %s: %w", d.MatchID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("saving decision %s: %w", d.MatchID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing decisions: %w", err)
	}
	return inserted, nil
}

const decisionColumns = `match_id, run_id, source_1, id_1, source_2, id_2,
	similarity_score, method, status, COALESCE(rationale, ''), created_at, updated_at`

func scanDecision(row interface{ Scan(...any) error }) (*entities.MatchDecision, error) {
	var d entities.MatchDecision
	var source1, source2, method, status string
	err := row.Scan(
		&d.MatchID,
		&d.RunID,
		&source1,
		&d.ID1,
		&source2,
		&d.ID2,
		&d.SimilarityScore,
		&method,
		&status,
		&d.Rationale,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Source1 = entities.Source(source1)
	d.Source2 = entities.Source(source2)
	d.Method = entities.MatchMethod(method)
	d.Status = entities.MatchStatus(status)
	return &d, nil
}

// FindDecision finds a decision by match ID.
func (r *Repository) FindDecision(ctx context.Context, matchID string) (*entities.MatchDecision, error) {
	query := `SELECT ` + decisionColumns + ` FROM match_decisions WHERE match_id = ?`
	row := r.db.QueryRowContext(ctx, query, matchID)

	decision, err := scanDecision(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning decision: %w", err)
	}
	return decision, nil
}

// ListDecisions lists decisions ordered by match ID.
func (r *Repository) ListDecisions(ctx context.Context, limit int) ([]entities.MatchDecision, error) {
	query := `SELECT ` + decisionColumns + ` FROM match_decisions ORDER BY match_id LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing decisions: %w", err)
	}
	defer rows.Close()

	return collectDecisions(rows)
}

// ListDecisionsByStatus lists decisions with the given status.
func (r *Repository) ListDecisionsByStatus(ctx context.Context, status entities.MatchStatus, limit int) ([]entities.MatchDecision, error) {
	query := `SELECT ` + decisionColumns + ` FROM match_decisions WHERE status = ? ORDER BY match_id LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, string(status), normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing decisions by status: %w", err)
	}
	defer rows.Close()

	return collectDecisions(rows)
}

func collectDecisions(rows *sql.Rows) ([]entities.MatchDecision, error) {
	var result []entities.MatchDecision
	for rows.Next() {
		decision, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		result = append(result, *decision)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decisions: %w", err)
	}
	return result, nil
}

// FinalizeDecision applies an adjudication verdict. The guarded UPDATE
// only lands while the row is still PENDING, which serializes
// concurrent adjudicators on the same decision and makes repeat calls
// no-ops.
func (r *Repository) FinalizeDecision(ctx context.Context, matchID string, status entities.MatchStatus, rationale string) (bool, error) {
	if status != entities.StatusApproved && status != entities.StatusRejected {
		return false, fmt.Errorf("invalid terminal status %q", status)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE match_decisions
		SET status = ?, method = ?, rationale = ?, updated_at = ?
		WHERE match_id = ? AND status = ?
	`,
		string(status), string(entities.MethodOracleValidated), rationale, timeNow(),
		matchID, string(entities.StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("finalizing decision: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("finalizing decision: %w", err)
	}
	return n > 0, nil
}

// SaveRun persists a run record and its summary counters.
func (r *Repository) SaveRun(ctx context.Context, run *entities.ResolutionRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resolution_runs
			(run_id, kind, processed, dropped_malformed, candidates, scored, unresolved_scoring,
			 approved, pending, rejected, inconclusive, out_of_range, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID, string(run.Kind),
		run.Summary.Processed, run.Summary.DroppedMalformed, run.Summary.Candidates,
		run.Summary.Scored, run.Summary.UnresolvedScoring,
		run.Summary.Approved, run.Summary.Pending, run.Summary.Rejected,
		run.Summary.Inconclusive, run.Summary.OutOfRange,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// ListRuns lists run records, most recent first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]entities.ResolutionRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, kind, processed, dropped_malformed, candidates, scored, unresolved_scoring,
		       approved, pending, rejected, inconclusive, out_of_range, started_at, finished_at
		FROM resolution_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var result []entities.ResolutionRun
	for rows.Next() {
		var run entities.ResolutionRun
		var kind string
		err := rows.Scan(
			&run.RunID, &kind,
			&run.Summary.Processed, &run.Summary.DroppedMalformed, &run.Summary.Candidates,
			&run.Summary.Scored, &run.Summary.UnresolvedScoring,
			&run.Summary.Approved, &run.Summary.Pending, &run.Summary.Rejected,
			&run.Summary.Inconclusive, &run.Summary.OutOfRange,
			&run.StartedAt, &run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Kind = entities.RunKind(kind)
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return result, nil
}
