// Package sqlite persists assessments in a local SQLite database so they can
// be listed and reopened for chat context or reports.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/crop-risk-service/internal/domain"
)

// ErrNotFound is returned when no assessment has the requested ID.
var ErrNotFound = domain.ErrAssessmentNotFound

// timeLayout is fixed-width so processed_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS assessments (
	id            TEXT PRIMARY KEY,
	disease_class TEXT NOT NULL,
	city          TEXT NOT NULL,
	risk          TEXT,
	outlook       TEXT,
	processed_at  TEXT NOT NULL,
	body          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assessments_processed_at ON assessments(processed_at);
CREATE INDEX IF NOT EXISTS idx_assessments_city ON assessments(city);`

const upsert = `
INSERT INTO assessments(id, disease_class, city, risk, outlook, processed_at, body)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	risk=excluded.risk,
	outlook=excluded.outlook,
	processed_at=excluded.processed_at,
	body=excluded.body`

// Repository stores assessments keyed by their deterministic ID. Saving the
// same detection twice overwrites the earlier row.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the database at path. ":memory:" opens an
// in-memory database limited to a single connection.
func NewRepository(path string) (*Repository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Repository{db: db}, nil
}

// Save stores one assessment.
func (r *Repository) Save(ctx context.Context, a domain.Assessment) error {
	return r.LoadBatch(ctx, []domain.Assessment{a})
}

// LoadBatch stores assessments in a single transaction.
func (r *Repository) LoadBatch(ctx context.Context, assessments []domain.Assessment) error {
	if len(assessments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range assessments {
		body, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal assessment %s: %w", a.ID, err)
		}
		risk, outlook := labels(a)
		if _, err := stmt.ExecContext(ctx,
			a.ID, a.Detection.DiseaseClass, a.City, risk, outlook,
			a.ProcessedAt.UTC().Format(timeLayout), string(body),
		); err != nil {
			return fmt.Errorf("save assessment %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get returns the assessment with the given ID.
func (r *Repository) Get(ctx context.Context, id string) (domain.Assessment, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM assessments WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Assessment{}, ErrNotFound
	}
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("query assessment %s: %w", id, err)
	}
	return decode(body)
}

// ListRecent returns up to limit assessments, newest first. A non-empty city
// filters case-insensitively.
func (r *Repository) ListRecent(ctx context.Context, city string, limit int) ([]domain.Assessment, error) {
	query := `SELECT body FROM assessments ORDER BY processed_at DESC, id LIMIT ?`
	args := []any{limit}
	if city != "" {
		query = `SELECT body FROM assessments WHERE city = ? COLLATE NOCASE ORDER BY processed_at DESC, id LIMIT ?`
		args = []any{city, limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Assessment{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a, err := decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}

// Ping verifies the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

func decode(body string) (domain.Assessment, error) {
	var a domain.Assessment
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return domain.Assessment{}, fmt.Errorf("decode assessment: %w", err)
	}
	return a, nil
}

func labels(a domain.Assessment) (risk, outlook sql.NullString) {
	if a.Risk != nil {
		risk = sql.NullString{String: string(a.Risk.Level), Valid: true}
	}
	if a.Survival != nil {
		outlook = sql.NullString{String: string(a.Survival.Outlook), Valid: true}
	}
	return risk, outlook
}
