package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/donexus/lease-extract/internal/db"
	"github.com/donexus/lease-extract/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest journal operations.
var preparedStatements = map[string]string{
	"insert_extraction": `INSERT INTO extractions (id, filename, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_extraction": `UPDATE extractions SET status = $1, record = $2, report = $3, processing_time_ms = $4, error_message = $5, updated_at = $6 WHERE id = $7`,
	"get_extraction":    `SELECT id, filename, status, record, report, processing_time_ms, error_message, created_at, updated_at FROM extractions WHERE id = $1`,
	"delete_extraction": `DELETE FROM extractions WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS extractions (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	filename           TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'processing',
	record             JSONB,
	report             JSONB,
	processing_time_ms BIGINT NOT NULL DEFAULT 0,
	error_message      TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_extractions_status ON extractions(status);
CREATE INDEX IF NOT EXISTS idx_extractions_filename ON extractions(filename);
CREATE INDEX IF NOT EXISTS idx_extractions_created_at ON extractions(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateExtraction(ctx context.Context, filename string) (*model.ExtractionResult, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO extractions (id, filename, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, filename, string(model.StatusProcessing), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert extraction")
	}

	return &model.ExtractionResult{
		ID:        id,
		Filename:  filename,
		Status:    model.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateExtraction(ctx context.Context, result *model.ExtractionResult) error {
	recordJSON, reportJSON, err := marshalPayload(result)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE extractions SET status = $1, record = $2, report = $3, processing_time_ms = $4, error_message = $5, updated_at = $6 WHERE id = $7`,
		string(result.Status), recordJSON, reportJSON,
		result.ProcessingTimeMs, result.ErrorMessage, time.Now().UTC(), result.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update extraction %s", result.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "extraction %s", result.ID)
	}
	return nil
}

func (s *PostgresStore) GetExtraction(ctx context.Context, id string) (*model.ExtractionResult, error) {
	var r model.ExtractionResult
	var recordJSON, reportJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, status, record, report, processing_time_ms, error_message, created_at, updated_at FROM extractions WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Filename, &r.Status, &recordJSON, &reportJSON,
		&r.ProcessingTimeMs, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "extraction %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get extraction %s", id)
	}

	if err := unmarshalPayload(&r, recordJSON, reportJSON); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) ListExtractions(ctx context.Context, filter ExtractionFilter) ([]model.ExtractionResult, error) {
	query := `SELECT id, filename, status, record, report, processing_time_ms, error_message, created_at, updated_at FROM extractions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Filename != "" {
		query += fmt.Sprintf(` AND filename = $%d`, argIdx)
		args = append(args, filter.Filename)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list extractions")
	}
	defer rows.Close()

	var results []model.ExtractionResult
	for rows.Next() {
		var r model.ExtractionResult
		var recordJSON, reportJSON []byte

		if err := rows.Scan(&r.ID, &r.Filename, &r.Status, &recordJSON, &reportJSON,
			&r.ProcessingTimeMs, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan extraction")
		}
		if err := unmarshalPayload(&r, recordJSON, reportJSON); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list extractions iterate")
}

func (s *PostgresStore) DeleteExtraction(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM extractions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete extraction %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "extraction %s", id)
	}
	return nil
}

func (s *PostgresStore) CountExtractions(ctx context.Context, status model.ExtractionStatus) (int, error) {
	query := `SELECT COUNT(*) FROM extractions`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}

	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count extractions")
	}
	return n, nil
}

func unmarshalPayload(r *model.ExtractionResult, recordJSON, reportJSON []byte) error {
	if len(recordJSON) > 0 {
		r.Record = &model.Record{}
		if err := json.Unmarshal(recordJSON, r.Record); err != nil {
			return eris.Wrap(err, "postgres: unmarshal record")
		}
	}
	if len(reportJSON) > 0 {
		r.Report = &model.QualityReport{}
		if err := json.Unmarshal(reportJSON, r.Report); err != nil {
			return eris.Wrap(err, "postgres: unmarshal report")
		}
	}
	return nil
}
