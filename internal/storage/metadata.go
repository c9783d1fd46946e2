package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

// ErrNotFound is returned when no analysis has the requested ID.
var ErrNotFound = errors.New("analysis not found")

// MetadataDB handles SQLite database operations
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB opens (or creates) the database at dbPath
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_id TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		source_type TEXT NOT NULL,
		transcript TEXT NOT NULL,
		summary TEXT NOT NULL,
		suggestions TEXT NOT NULL,
		language TEXT,
		duration REAL,
		word_count INTEGER,
		local_path TEXT,
		gdrive_url TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveAnalysis stores a finished analysis
func (mdb *MetadataDB) SaveAnalysis(ctx context.Context, r *types.AnalysisResult) error {
	query := `
	INSERT INTO analyses (analysis_id, filename, source_type, transcript, summary, suggestions,
		language, duration, word_count, local_path, gdrive_url, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := r.ProcessedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := mdb.db.ExecContext(ctx, query, r.ID, r.Filename, r.Source, r.Transcript, r.Summary,
		r.Suggestions, r.Language, r.Duration, r.WordCount, r.LocalPath, r.GDriveURL, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", r.ID, err)
	}
	return nil
}

const selectColumns = `
	SELECT analysis_id, filename, source_type, transcript, summary, suggestions,
		COALESCE(language, ''), COALESCE(duration, 0), COALESCE(word_count, 0),
		COALESCE(local_path, ''), COALESCE(gdrive_url, ''), created_at
	FROM analyses`

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scanner) (*types.AnalysisResult, error) {
	var r types.AnalysisResult
	err := row.Scan(&r.ID, &r.Filename, &r.Source, &r.Transcript, &r.Summary, &r.Suggestions,
		&r.Language, &r.Duration, &r.WordCount, &r.LocalPath, &r.GDriveURL, &r.ProcessedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetAnalysis retrieves an analysis by its ID
func (mdb *MetadataDB) GetAnalysis(ctx context.Context, id string) (*types.AnalysisResult, error) {
	row := mdb.db.QueryRowContext(ctx, selectColumns+` WHERE analysis_id = ?`, id)

	r, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return r, nil
}

// ListAnalyses returns the most recent analyses first
func (mdb *MetadataDB) ListAnalyses(ctx context.Context, limit int) ([]*types.AnalysisResult, error) {
	rows, err := mdb.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	analyses := []*types.AnalysisResult{}
	for rows.Next() {
		r, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, r)
	}
	return analyses, rows.Err()
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
