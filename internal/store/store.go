// Package store persists the extraction journal: one row per processed
// document, carrying the validated record and its quality report.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/donexus/lease-extract/internal/config"
	"github.com/donexus/lease-extract/internal/model"
)

// ErrNotFound is returned when no journal entry matches the given id.
// Both backends wrap it, so callers check with errors.Is.
var ErrNotFound = eris.New("extraction not found")

// ExtractionFilter specifies criteria for listing journal entries.
type ExtractionFilter struct {
	Status   model.ExtractionStatus `json:"status,omitempty"`
	Filename string                 `json:"filename,omitempty"`
	Limit    int                    `json:"limit,omitempty"`
	Offset   int                    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the extraction journal.
type Store interface {
	CreateExtraction(ctx context.Context, filename string) (*model.ExtractionResult, error)
	UpdateExtraction(ctx context.Context, res *model.ExtractionResult) error
	GetExtraction(ctx context.Context, id string) (*model.ExtractionResult, error)
	ListExtractions(ctx context.Context, filter ExtractionFilter) ([]model.ExtractionResult, error)
	DeleteExtraction(ctx context.Context, id string) error
	CountExtractions(ctx context.Context, status model.ExtractionStatus) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New opens the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "", "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
