// Package store persists one report row per (project_id, path) pair in
// Postgres. Writers race last-write-wins; there is no locking.
package store

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	_ "github.com/lib/pq"

	"github.com/sqlreview/pkg/models"
)

// ErrNotFound is returned by Get when no row exists for the key.
var ErrNotFound = errors.New("report not found")

// ReportRow is the persisted state of one reviewed (project, path) pair:
// the raw workflow text, the exchange transcript, and the three sanitized
// report blobs.
type ReportRow struct {
	ProjectID      string                 `json:"project_id"`
	Path           string                 `json:"path"`
	RawReport      string                 `json:"raw_report"`
	Chunks         []string               `json:"chunks"`
	Segments       []models.SegmentResult `json:"segments"`
	ConversationID string                 `json:"conversation_id"`
	UserID         string                 `json:"user_id"`
	GeneratedAt    time.Time              `json:"generated_at"`
	Combined       models.CombinedReport  `json:"combined_report"`
	StaticOnly     models.IssueList       `json:"static_report"`
	AIOnly         models.IssueList       `json:"ai_report"`
}

// Open connects to Postgres. With an empty URL the DATABASE_URL environment
// variable is consulted, then a .env file found walking up from the working
// directory.
func Open(databaseURL string) (*sql.DB, error) {
	url, err := ResolveDatabaseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get database URL: %w", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return db, nil
}

// ResolveDatabaseURL returns the effective database URL: the explicit value
// when set, otherwise DATABASE_URL from the environment or from a .env file
// found walking up from the working directory.
func ResolveDatabaseURL(explicit string) (string, error) {
	if url := strings.TrimSpace(explicit); url != "" {
		return url, nil
	}
	return loadDatabaseURL()
}

func loadDatabaseURL() (string, error) {
	if direct := strings.TrimSpace(os.Getenv("DATABASE_URL")); direct != "" {
		return direct, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	envPath, err := findEnvFile(wd)
	if err != nil {
		return "", err
	}

	file, err := os.Open(envPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", envPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eqIdx := strings.IndexRune(line, '=')
		if eqIdx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:eqIdx])
		if key != "DATABASE_URL" {
			continue
		}

		value := strings.TrimSpace(line[eqIdx+1:])
		value = strings.Trim(value, "\"'")
		value = strings.TrimFunc(value, unicode.IsSpace)
		if value == "" {
			return "", errors.New("DATABASE_URL is empty in .env")
		}
		return value, nil
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", envPath, err)
	}

	return "", errors.New("DATABASE_URL not found in environment or .env")
}

func findEnvFile(start string) (string, error) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf(".env not found starting from %s", start)
}

// Store handles database operations for report rows.
type Store struct {
	db *sql.DB
}

// New creates a new report store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the reports table when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS sql_reports (
			project_id      TEXT        NOT NULL,
			path            TEXT        NOT NULL,
			raw_report      TEXT        NOT NULL DEFAULT '',
			chunks          JSONB       NOT NULL DEFAULT '[]',
			segments        JSONB       NOT NULL DEFAULT '[]',
			conversation_id TEXT        NOT NULL DEFAULT '',
			user_id         TEXT        NOT NULL DEFAULT '',
			generated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			combined_report JSONB,
			static_report   JSONB,
			ai_report       JSONB,
			PRIMARY KEY (project_id, path)
		)
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure reports schema: %w", err)
	}
	return nil
}

// Upsert writes the row, replacing any previous report for the same key.
func (s *Store) Upsert(ctx context.Context, row *ReportRow) error {
	if row.GeneratedAt.IsZero() {
		row.GeneratedAt = time.Now().UTC()
	}

	chunks, err := marshalList(row.Chunks)
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	segments, err := marshalList(row.Segments)
	if err != nil {
		return fmt.Errorf("failed to marshal segments: %w", err)
	}
	combined, err := json.Marshal(row.Combined)
	if err != nil {
		return fmt.Errorf("failed to marshal combined report: %w", err)
	}
	staticOnly, err := json.Marshal(row.StaticOnly)
	if err != nil {
		return fmt.Errorf("failed to marshal static report: %w", err)
	}
	aiOnly, err := json.Marshal(row.AIOnly)
	if err != nil {
		return fmt.Errorf("failed to marshal ai report: %w", err)
	}

	query := `
		INSERT INTO sql_reports (
			project_id, path, raw_report, chunks, segments,
			conversation_id, user_id, generated_at,
			combined_report, static_report, ai_report
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (project_id, path) DO UPDATE SET
			raw_report      = EXCLUDED.raw_report,
			chunks          = EXCLUDED.chunks,
			segments        = EXCLUDED.segments,
			conversation_id = EXCLUDED.conversation_id,
			user_id         = EXCLUDED.user_id,
			generated_at    = EXCLUDED.generated_at,
			combined_report = EXCLUDED.combined_report,
			static_report   = EXCLUDED.static_report,
			ai_report       = EXCLUDED.ai_report
	`

	// JSONB parameters go over the wire as text; a []byte argument would be
	// sent as bytea and rejected by the column type.
	_, err = s.db.ExecContext(
		ctx, query,
		row.ProjectID,
		row.Path,
		row.RawReport,
		string(chunks),
		string(segments),
		row.ConversationID,
		row.UserID,
		row.GeneratedAt,
		string(combined),
		string(staticOnly),
		string(aiOnly),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert report row: %w", err)
	}
	return nil
}

// Get returns the stored row for the key or ErrNotFound.
func (s *Store) Get(ctx context.Context, projectID, path string) (*ReportRow, error) {
	query := `
		SELECT project_id, path, raw_report, chunks, segments,
		       conversation_id, user_id, generated_at,
		       combined_report, static_report, ai_report
		FROM sql_reports
		WHERE project_id = $1 AND path = $2
	`

	row := &ReportRow{}
	var chunks, segments, combined, staticOnly, aiOnly []byte
	err := s.db.QueryRowContext(ctx, query, projectID, path).Scan(
		&row.ProjectID,
		&row.Path,
		&row.RawReport,
		&chunks,
		&segments,
		&row.ConversationID,
		&row.UserID,
		&row.GeneratedAt,
		&combined,
		&staticOnly,
		&aiOnly,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report row: %w", err)
	}

	if err := unmarshalInto(chunks, &row.Chunks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chunks: %w", err)
	}
	if err := unmarshalInto(segments, &row.Segments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal segments: %w", err)
	}
	if err := unmarshalInto(combined, &row.Combined); err != nil {
		return nil, fmt.Errorf("failed to unmarshal combined report: %w", err)
	}
	if err := unmarshalInto(staticOnly, &row.StaticOnly); err != nil {
		return nil, fmt.Errorf("failed to unmarshal static report: %w", err)
	}
	if err := unmarshalInto(aiOnly, &row.AIOnly); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ai report: %w", err)
	}

	return row, nil
}

// Delete removes the stored row for the key. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, projectID, path string) error {
	query := `DELETE FROM sql_reports WHERE project_id = $1 AND path = $2`
	if _, err := s.db.ExecContext(ctx, query, projectID, path); err != nil {
		return fmt.Errorf("failed to delete report row: %w", err)
	}
	return nil
}

// marshalList keeps empty collections as JSON arrays so the stored blob never
// reads back as null.
func marshalList(v interface{}) ([]byte, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(out) == "null" {
		return []byte("[]"), nil
	}
	return out, nil
}

func unmarshalInto(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
