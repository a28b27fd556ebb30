package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/2020visiontrader/competitorscan/internal/model"
)

// CrawlDB provides SQLite-based storage for competitors, crawl runs,
// page nodes, and IA signatures.
//
// Design decision: We use one database file for all competitors rather
// than a file per competitor. Insights queries join runs across
// competitors, and a single file keeps backup/restore trivial.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "competitorscan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple connections buy nothing here
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Competitor profiles with last-crawl metadata
	CREATE TABLE IF NOT EXISTS competitors (
		id TEXT PRIMARY KEY,
		brand_id TEXT,
		seed_url TEXT NOT NULL UNIQUE,
		name TEXT,
		single_sku INTEGER NOT NULL DEFAULT 0,
		is_primary INTEGER NOT NULL DEFAULT 0,
		emulate_notes TEXT,
		avoid_notes TEXT,
		last_crawled_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_competitors_seed ON competitors(seed_url);

	-- One row per crawl attempt
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		competitor_id TEXT NOT NULL,
		seed_url TEXT NOT NULL,
		strategy TEXT,
		status TEXT NOT NULL,
		max_pages INTEGER NOT NULL,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		pages_skipped INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME,
		finished_at DATETIME,
		failure_reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_competitor ON crawl_runs(competitor_id);
	CREATE INDEX IF NOT EXISTS idx_runs_seed ON crawl_runs(seed_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- Individual page fetches, kept for audit and change detection
	CREATE TABLE IF NOT EXISTS page_nodes (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		outcome TEXT NOT NULL,
		status_code INTEGER,
		page_type TEXT,
		title TEXT,
		h1 TEXT,
		metadata TEXT,
		depth INTEGER NOT NULL DEFAULT 0,
		hash TEXT,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON page_nodes(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_type ON page_nodes(page_type);

	-- IA signatures stored as JSON, one per run
	CREATE TABLE IF NOT EXISTS ia_signatures (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL UNIQUE,
		signature_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_signatures_run ON ia_signatures(run_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertCompetitor inserts a competitor profile or updates the mutable
// fields of the existing row keyed by seed URL. The stored row's ID wins
// on conflict so runs keep pointing at one competitor identity; the
// returned profile carries the effective ID.
func (cdb *CrawlDB) UpsertCompetitor(ctx context.Context, competitor *model.CompetitorProfile) (*model.CompetitorProfile, error) {
	query := `
	INSERT INTO competitors (id, brand_id, seed_url, name, single_sku, is_primary, emulate_notes, avoid_notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(seed_url) DO UPDATE SET
		brand_id = excluded.brand_id,
		name = excluded.name,
		single_sku = excluded.single_sku,
		is_primary = excluded.is_primary,
		emulate_notes = excluded.emulate_notes,
		avoid_notes = excluded.avoid_notes
	`

	_, err := cdb.db.ExecContext(ctx, query,
		competitor.ID,
		competitor.BrandID,
		competitor.SeedURL,
		competitor.Name,
		boolToInt(competitor.SingleSKU),
		boolToInt(competitor.IsPrimary),
		competitor.EmulateNotes,
		competitor.AvoidNotes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert competitor: %w", err)
	}

	return cdb.GetCompetitor(ctx, competitor.SeedURL)
}

// GetCompetitor retrieves a competitor profile by seed URL.
// Returns nil without error when no profile exists.
func (cdb *CrawlDB) GetCompetitor(ctx context.Context, seedURL string) (*model.CompetitorProfile, error) {
	query := `
	SELECT id, brand_id, seed_url, name, single_sku, is_primary, emulate_notes, avoid_notes, last_crawled_at
	FROM competitors
	WHERE seed_url = ?
	`

	var competitor model.CompetitorProfile
	var singleSKU, isPrimary int
	var brandID, name, emulate, avoid sql.NullString
	var lastCrawled sql.NullString

	err := cdb.db.QueryRowContext(ctx, query, seedURL).Scan(
		&competitor.ID,
		&brandID,
		&competitor.SeedURL,
		&name,
		&singleSKU,
		&isPrimary,
		&emulate,
		&avoid,
		&lastCrawled,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor: %w", err)
	}

	competitor.BrandID = brandID.String
	competitor.Name = name.String
	competitor.SingleSKU = singleSKU != 0
	competitor.IsPrimary = isPrimary != 0
	competitor.EmulateNotes = emulate.String
	competitor.AvoidNotes = avoid.String
	if lastCrawled.Valid {
		competitor.LastCrawledAt = parseTimestamp(lastCrawled.String)
	}

	return &competitor, nil
}

// ListCompetitors returns all stored competitor profiles ordered by seed URL.
func (cdb *CrawlDB) ListCompetitors(ctx context.Context) ([]*model.CompetitorProfile, error) {
	query := `SELECT seed_url FROM competitors ORDER BY seed_url`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		seeds = append(seeds, seed)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	competitors := make([]*model.CompetitorProfile, 0, len(seeds))
	for _, seed := range seeds {
		competitor, err := cdb.GetCompetitor(ctx, seed)
		if err != nil {
			return nil, err
		}
		competitors = append(competitors, competitor)
	}
	return competitors, nil
}

// HasRecentCrawl reports whether the competitor's seed URL had a run start
// within the given window. Only terminal SUCCEEDED/PARTIAL runs count;
// failed attempts never suppress a re-crawl.
func (cdb *CrawlDB) HasRecentCrawl(ctx context.Context, seedURL string, window time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM crawl_runs
	WHERE seed_url = ?
	  AND status IN ('SUCCEEDED', 'PARTIAL')
	  AND started_at > datetime('now', ?)
	`

	modifier := fmt.Sprintf("-%d seconds", int(window.Seconds()))

	var count int
	err := cdb.db.QueryRowContext(ctx, query, seedURL, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent crawl: %w", err)
	}

	return count > 0, nil
}

// execer lets save helpers run inside or outside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// touchLastCrawled records the start time of a competitor's latest run.
func (cdb *CrawlDB) touchLastCrawled(ctx context.Context, ex execer, competitorID string, at time.Time) error {
	query := `UPDATE competitors SET last_crawled_at = ? WHERE id = ?`

	if _, err := ex.ExecContext(ctx, query, formatTimestamp(at), competitorID); err != nil {
		return fmt.Errorf("failed to update last crawl time: %w", err)
	}
	return nil
}

func (cdb *CrawlDB) saveRun(ctx context.Context, ex execer, run *model.CrawlRun) error {
	query := `
	INSERT INTO crawl_runs (id, competitor_id, seed_url, strategy, status, max_pages,
		pages_crawled, pages_skipped, started_at, finished_at, failure_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		strategy = excluded.strategy,
		status = excluded.status,
		pages_crawled = excluded.pages_crawled,
		pages_skipped = excluded.pages_skipped,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		failure_reason = excluded.failure_reason
	`

	_, err := ex.ExecContext(ctx, query,
		run.ID,
		run.CompetitorID,
		run.SeedURL,
		string(run.Strategy),
		run.Status.String(),
		run.MaxPages,
		run.PagesCrawled,
		run.PagesSkipped,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		run.FailureReason,
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl run: %w", err)
	}
	return nil
}

// pageMetadata is the JSON blob stored per page node for fields that do
// not need their own columns.
type pageMetadata struct {
	H2s             []string `json:"h2,omitempty"`
	H3s             []string `json:"h3,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	InternalLinks   []string `json:"internal_links,omitempty"`
}

func (cdb *CrawlDB) savePageNodes(ctx context.Context, ex execer, nodes []*model.PageNode) error {
	query := `
	INSERT INTO page_nodes (id, run_id, url, outcome, status_code, page_type, title, h1, metadata, depth, hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO NOTHING
	`

	for _, node := range nodes {
		meta, err := json.Marshal(pageMetadata{
			H2s:             node.H2s,
			H3s:             node.H3s,
			MetaDescription: node.MetaDescription,
			InternalLinks:   node.InternalLinks,
		})
		if err != nil {
			return fmt.Errorf("failed to serialize page metadata: %w", err)
		}

		_, err = ex.ExecContext(ctx, query,
			node.ID,
			node.RunID,
			node.URL,
			node.Outcome.String(),
			node.StatusCode,
			string(node.Type),
			node.Title,
			node.H1,
			string(meta),
			node.Depth,
			node.Hash,
		)
		if err != nil {
			return fmt.Errorf("failed to save page node %s: %w", node.URL, err)
		}
	}
	return nil
}

func (cdb *CrawlDB) saveSignature(ctx context.Context, ex execer, sig *model.IASignature) error {
	sigJSON, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("failed to serialize signature: %w", err)
	}

	query := `
	INSERT INTO ia_signatures (id, run_id, signature_json)
	VALUES (?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		signature_json = excluded.signature_json
	`

	if _, err := ex.ExecContext(ctx, query, sig.ID, sig.RunID, string(sigJSON)); err != nil {
		return fmt.Errorf("failed to save signature: %w", err)
	}
	return nil
}

// SaveResult persists a complete crawl result atomically: the run row,
// its page nodes, its signature (when present), and the competitor's
// last-crawl timestamp.
func (cdb *CrawlDB) SaveResult(ctx context.Context, result *model.CrawlResult) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := cdb.saveRun(ctx, tx, result.Run); err != nil {
		return err
	}
	if err := cdb.savePageNodes(ctx, tx, result.Pages); err != nil {
		return err
	}
	if result.Signature != nil {
		if err := cdb.saveSignature(ctx, tx, result.Signature); err != nil {
			return err
		}
	}

	if !result.Run.StartedAt.IsZero() {
		if err := cdb.touchLastCrawled(ctx, tx, result.Run.CompetitorID, result.Run.StartedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit result: %w", err)
	}
	return nil
}

// GetRun retrieves one crawl run by ID. Returns nil without error when
// the run does not exist.
func (cdb *CrawlDB) GetRun(ctx context.Context, runID string) (*model.CrawlRun, error) {
	query := `
	SELECT id, competitor_id, seed_url, strategy, status, max_pages,
		pages_crawled, pages_skipped, started_at, finished_at, failure_reason
	FROM crawl_runs
	WHERE id = ?
	`

	run, err := scanRun(cdb.db.QueryRowContext(ctx, query, runID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// GetLatestRun retrieves the most recent run for a seed URL.
// Returns nil without error when the competitor has never been crawled.
func (cdb *CrawlDB) GetLatestRun(ctx context.Context, seedURL string) (*model.CrawlRun, error) {
	query := `
	SELECT id, competitor_id, seed_url, strategy, status, max_pages,
		pages_crawled, pages_skipped, started_at, finished_at, failure_reason
	FROM crawl_runs
	WHERE seed_url = ?
	ORDER BY started_at DESC
	LIMIT 1
	`

	run, err := scanRun(cdb.db.QueryRowContext(ctx, query, seedURL))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// GetRunHistory retrieves all runs for a seed URL, newest first.
func (cdb *CrawlDB) GetRunHistory(ctx context.Context, seedURL string) ([]*model.CrawlRun, error) {
	query := `
	SELECT id, competitor_id, seed_url, strategy, status, max_pages,
		pages_crawled, pages_skipped, started_at, finished_at, failure_reason
	FROM crawl_runs
	WHERE seed_url = ?
	ORDER BY started_at DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, seedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var runs []*model.CrawlRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetPageNodes retrieves the page nodes of a run in insertion order.
func (cdb *CrawlDB) GetPageNodes(ctx context.Context, runID string) ([]*model.PageNode, error) {
	query := `
	SELECT id, run_id, url, outcome, status_code, page_type, title, h1, metadata, depth, hash
	FROM page_nodes
	WHERE run_id = ?
	ORDER BY rowid
	`

	rows, err := cdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*model.PageNode
	for rows.Next() {
		var node model.PageNode
		var outcome, pageType string
		var title, h1, metaJSON, hash sql.NullString
		var statusCode sql.NullInt64

		err := rows.Scan(
			&node.ID,
			&node.RunID,
			&node.URL,
			&outcome,
			&statusCode,
			&pageType,
			&title,
			&h1,
			&metaJSON,
			&node.Depth,
			&hash,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page node: %w", err)
		}

		node.Outcome = model.ParseFetchOutcome(outcome)
		node.StatusCode = int(statusCode.Int64)
		node.Type = model.PageType(pageType)
		node.Title = title.String
		node.H1 = h1.String
		node.Hash = hash.String

		if metaJSON.Valid && metaJSON.String != "" {
			var meta pageMetadata
			if err := json.Unmarshal([]byte(metaJSON.String), &meta); err == nil {
				node.H2s = meta.H2s
				node.H3s = meta.H3s
				node.MetaDescription = meta.MetaDescription
				node.InternalLinks = meta.InternalLinks
			}
		}

		nodes = append(nodes, &node)
	}
	return nodes, rows.Err()
}

// GetSignature retrieves the IA signature of a run.
// Returns nil without error when the run produced no signature.
func (cdb *CrawlDB) GetSignature(ctx context.Context, runID string) (*model.IASignature, error) {
	query := `SELECT signature_json FROM ia_signatures WHERE run_id = ?`

	var sigJSON string
	err := cdb.db.QueryRowContext(ctx, query, runID).Scan(&sigJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signature: %w", err)
	}

	var sig model.IASignature
	if err := json.Unmarshal([]byte(sigJSON), &sig); err != nil {
		return nil, fmt.Errorf("failed to parse signature: %w", err)
	}
	return &sig, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanRun.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.CrawlRun, error) {
	var run model.CrawlRun
	var strategy, status string
	var startedAt, finishedAt, failureReason sql.NullString

	err := row.Scan(
		&run.ID,
		&run.CompetitorID,
		&run.SeedURL,
		&strategy,
		&status,
		&run.MaxPages,
		&run.PagesCrawled,
		&run.PagesSkipped,
		&startedAt,
		&finishedAt,
		&failureReason,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan crawl run: %w", err)
	}

	run.Strategy = model.Strategy(strategy)
	run.Status = model.ParseStatus(status)
	run.FailureReason = failureReason.String
	if startedAt.Valid {
		run.StartedAt = parseTimestamp(startedAt.String)
	}
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// formatTimestamp renders a time in SQLite's default datetime format.
// Zero times are stored as NULL.
func formatTimestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
