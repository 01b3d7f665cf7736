package quizimages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a run or selection does not exist
var ErrNotFound = errors.New("not found")

// Review statuses for stored selections
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// Store keeps the Commons search cache and the run history in SQLite or Postgres
type Store struct {
	db       *sql.DB
	postgres bool
}

// RunRecord is one stored run
type RunRecord struct {
	ID         string
	CreatedAt  time.Time
	QuizPath   string
	QuizTitle  string
	Subject    string
	Chapter    string
	Provider   string
	Version    string
	ReplaceAll bool
	Applied    bool
	Summary    RunSummary
}

// SelectionRecord is one stored question result plus its review status
type SelectionRecord struct {
	RunID        string
	QuestionID   string
	Position     int
	Result       SelectionResult
	ReviewStatus string
	ReviewedBy   string
	ReviewedAt   *time.Time
}

// OpenStore opens and migrates the database. driver is sqlite3 (or sqlite) or pgx (or postgres).
func OpenStore(ctx context.Context, driver, dsn string) (*Store, error) {
	name, postgres, err := normalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	tunePool(db, postgres)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if !postgres {
		if err := applySQLitePragmas(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &Store{db: db, postgres: postgres}
	if err := s.CreateTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func normalizeDriver(d string) (string, bool, error) {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "", "sqlite", "sqlite3":
		return "sqlite3", false, nil
	case "pgx", "postgres", "postgresql", "pg":
		return "pgx", true, nil
	}
	return "", false, fmt.Errorf("unsupported database driver %q", d)
}

func tunePool(db *sql.DB, postgres bool) {
	if !postgres {
		// single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(45 * time.Minute)
	db.SetConnMaxIdleTime(15 * time.Minute)
}

func applySQLitePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for Postgres
func (s *Store) rebind(q string) string {
	if !s.postgres {
		return q
	}
	var sb strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(q[i])
	}
	return sb.String()
}

// CreateTables creates the necessary tables if they don't exist
func (s *Store) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS search_cache (
			cache_key TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			query TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			quiz_path TEXT NOT NULL,
			quiz_title TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL,
			chapter TEXT NOT NULL DEFAULT '',
			provider TEXT NOT NULL DEFAULT '',
			version TEXT NOT NULL,
			replace_all BOOLEAN NOT NULL,
			applied BOOLEAN NOT NULL,
			summary_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS selections (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			question_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			success BOOLEAN NOT NULL,
			skipped BOOLEAN NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL,
			result_json TEXT NOT NULL,
			review_status TEXT NOT NULL DEFAULT 'pending',
			reviewed_by TEXT NOT NULL DEFAULT '',
			reviewed_at TIMESTAMP,
			PRIMARY KEY (run_id, question_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// GetCachedSearch returns cached candidates for key; entries older than maxAge miss
func (s *Store) GetCachedSearch(ctx context.Context, key string, maxAge time.Duration) ([]Candidate, bool, error) {
	var (
		payload string
		created time.Time
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT payload, created_at FROM search_cache WHERE cache_key = ?"), key,
	).Scan(&payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read search cache: %w", err)
	}
	if maxAge > 0 && time.Since(created) > maxAge {
		return nil, false, nil
	}
	var cands []Candidate
	if err := json.Unmarshal([]byte(payload), &cands); err != nil {
		// broken rows count as a miss and get overwritten
		return nil, false, nil
	}
	return cands, true, nil
}

// PutCachedSearch stores or replaces a cache entry
func (s *Store) PutCachedSearch(ctx context.Context, key, kind, query string, cands []Candidate) error {
	payload, err := json.Marshal(cands)
	if err != nil {
		return fmt.Errorf("failed to marshal candidates: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO search_cache (cache_key, kind, query, payload, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`),
		key, kind, query, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write search cache: %w", err)
	}
	return nil
}

// PurgeSearchCache deletes cache entries older than maxAge
func (s *Store) PurgeSearchCache(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM search_cache WHERE created_at < ?"), time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to purge search cache: %w", err)
	}
	return res.RowsAffected()
}

// SaveRun stores a run and all of its question results in one transaction
func (s *Store) SaveRun(ctx context.Context, r *Report) error {
	summary, err := json.Marshal(r.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO runs (id, created_at, quiz_path, quiz_title, subject, chapter, provider, version, replace_all, applied, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.RunID, r.CreatedAt.UTC(), r.QuizPath, r.QuizTitle, r.Subject, r.Chapter, r.Provider, r.Version, r.ReplaceAll, r.Applied, string(summary),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	insert := s.rebind(`
		INSERT INTO selections (run_id, question_id, position, success, skipped, image_url, score, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, res := range r.Results {
		js, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to marshal result %s: %w", res.QuestionID, err)
		}
		imageURL := ""
		if res.Image != nil {
			imageURL = res.Image.ImageURL
		}
		if _, err := tx.ExecContext(ctx, insert,
			r.RunID, res.QuestionID, i, res.Success, res.Skipped, imageURL, res.Score, string(js),
		); err != nil {
			return fmt.Errorf("failed to store selection %s: %w", res.QuestionID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

const runColumns = "id, created_at, quiz_path, quiz_title, subject, chapter, provider, version, replace_all, applied, summary_json"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		r       RunRecord
		summary string
	)
	if err := row.Scan(&r.ID, &r.CreatedAt, &r.QuizPath, &r.QuizTitle, &r.Subject, &r.Chapter,
		&r.Provider, &r.Version, &r.ReplaceAll, &r.Applied, &summary); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(summary), &r.Summary); err != nil {
		return r, fmt.Errorf("failed to parse summary of run %s: %w", r.ID, err)
	}
	return r, nil
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+runColumns+" FROM runs WHERE id = ?"), id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// ListRuns returns the newest runs first, optionally limited by count
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// ListSelections returns a run's results in quiz order
func (s *Store) ListSelections(ctx context.Context, runID string) ([]SelectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT run_id, question_id, position, result_json, review_status, reviewed_by, reviewed_at
		FROM selections WHERE run_id = ? ORDER BY position`), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get selections: %w", err)
	}
	defer rows.Close()

	var out []SelectionRecord
	for rows.Next() {
		var (
			rec        SelectionRecord
			js         string
			reviewedAt sql.NullTime
		)
		if err := rows.Scan(&rec.RunID, &rec.QuestionID, &rec.Position, &js, &rec.ReviewStatus, &rec.ReviewedBy, &reviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		if err := json.Unmarshal([]byte(js), &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to parse selection %s: %w", rec.QuestionID, err)
		}
		if reviewedAt.Valid {
			t := reviewedAt.Time
			rec.ReviewedAt = &t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating selections: %w", err)
	}
	return out, nil
}

// SetReviewStatus records a reviewer decision for one selection
func (s *Store) SetReviewStatus(ctx context.Context, runID, questionID, status, reviewer string) error {
	switch status {
	case ReviewPending, ReviewApproved, ReviewRejected:
	default:
		return fmt.Errorf("invalid review status %q", status)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE selections SET review_status = ?, reviewed_by = ?, reviewed_at = ?
		WHERE run_id = ? AND question_id = ?`),
		status, reviewer, time.Now().UTC(), runID, questionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("selection %s/%s: %w", runID, questionID, ErrNotFound)
	}
	return nil
}

// Report rebuilds a report from a stored run and its selections
func (r RunRecord) Report(sels []SelectionRecord) *Report {
	rep := &Report{
		RunID:      r.ID,
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
		QuizPath:   r.QuizPath,
		QuizTitle:  r.QuizTitle,
		Subject:    r.Subject,
		Chapter:    r.Chapter,
		Provider:   r.Provider,
		ReplaceAll: r.ReplaceAll,
		Applied:    r.Applied,
		Summary:    r.Summary,
	}
	for _, s := range sels {
		rep.Results = append(rep.Results, s.Result)
	}
	return rep
}
