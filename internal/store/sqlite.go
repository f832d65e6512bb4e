package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/donexus/lease-extract/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS extractions (
	id                 TEXT PRIMARY KEY,
	filename           TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'processing',
	record             TEXT,
	report             TEXT,
	processing_time_ms INTEGER NOT NULL DEFAULT 0,
	error_message      TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_extractions_status ON extractions(status);
CREATE INDEX IF NOT EXISTS idx_extractions_filename ON extractions(filename);
CREATE INDEX IF NOT EXISTS idx_extractions_created_at ON extractions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateExtraction(ctx context.Context, filename string) (*model.ExtractionResult, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (id, filename, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, filename, string(model.StatusProcessing), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert extraction")
	}

	return &model.ExtractionResult{
		ID:        id,
		Filename:  filename,
		Status:    model.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateExtraction(ctx context.Context, result *model.ExtractionResult) error {
	recordJSON, reportJSON, err := marshalPayload(result)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE extractions SET status = ?, record = ?, report = ?, processing_time_ms = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(result.Status), recordJSON, reportJSON,
		result.ProcessingTimeMs, result.ErrorMessage, time.Now().UTC(), result.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update extraction %s", result.ID)
	}
	return checkRowsAffected(res, "extraction", result.ID)
}

func (s *SQLiteStore) GetExtraction(ctx context.Context, id string) (*model.ExtractionResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, status, record, report, processing_time_ms, error_message, created_at, updated_at
		 FROM extractions WHERE id = ?`,
		id,
	)
	return scanExtraction(row)
}

func (s *SQLiteStore) ListExtractions(ctx context.Context, filter ExtractionFilter) ([]model.ExtractionResult, error) {
	query := `SELECT id, filename, status, record, report, processing_time_ms, error_message, created_at, updated_at
		 FROM extractions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Filename != "" {
		query += ` AND filename = ?`
		args = append(args, filter.Filename)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list extractions")
	}
	defer rows.Close()

	var results []model.ExtractionResult
	for rows.Next() {
		r, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list extractions iterate")
}

func (s *SQLiteStore) DeleteExtraction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM extractions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete extraction %s", id)
	}
	return checkRowsAffected(res, "extraction", id)
}

func (s *SQLiteStore) CountExtractions(ctx context.Context, status model.ExtractionStatus) (int, error) {
	query := `SELECT COUNT(*) FROM extractions`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count extractions")
	}
	return n, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

// marshalPayload serializes the nullable record and report columns.
func marshalPayload(result *model.ExtractionResult) (record, report any, err error) {
	record, report = nil, nil
	if result.Record != nil {
		b, err := json.Marshal(result.Record)
		if err != nil {
			return nil, nil, eris.Wrap(err, "store: marshal record")
		}
		record = string(b)
	}
	if result.Report != nil {
		b, err := json.Marshal(result.Report)
		if err != nil {
			return nil, nil, eris.Wrap(err, "store: marshal report")
		}
		report = string(b)
	}
	return record, report, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanExtraction(row scannable) (*model.ExtractionResult, error) {
	var r model.ExtractionResult
	var recordJSON, reportJSON sql.NullString

	err := row.Scan(&r.ID, &r.Filename, &r.Status, &recordJSON, &reportJSON,
		&r.ProcessingTimeMs, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan extraction")
	}

	if recordJSON.Valid {
		r.Record = &model.Record{}
		if err := json.Unmarshal([]byte(recordJSON.String), r.Record); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record")
		}
	}
	if reportJSON.Valid {
		r.Report = &model.QualityReport{}
		if err := json.Unmarshal([]byte(reportJSON.String), r.Report); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal report")
		}
	}
	return &r, nil
}
