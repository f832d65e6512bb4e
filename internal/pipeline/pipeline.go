// Package pipeline composes document text extraction, AI extraction and
// quality assessment into a single journaled run per document.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/donexus/lease-extract/internal/doctext"
	"github.com/donexus/lease-extract/internal/model"
	"github.com/donexus/lease-extract/internal/quality"
	"github.com/donexus/lease-extract/internal/store"
)

// Extractor turns document text into a validated lease record.
type Extractor interface {
	Extract(ctx context.Context, text string) (*model.Record, error)
}

// Pipeline runs one document end to end: read text, extract, assess,
// journal. Safe for concurrent use.
type Pipeline struct {
	store     store.Store
	extractor Extractor
	quality   *quality.Engine

	// readText is doctext.Extract, swappable in tests.
	readText func(path string) (string, error)
	now      func() time.Time
}

// New creates a Pipeline over the given store, extractor and quality engine.
func New(st store.Store, ex Extractor, q *quality.Engine) *Pipeline {
	return &Pipeline{
		store:     st,
		extractor: ex,
		quality:   q,
		readText:  doctext.Extract,
		now:       time.Now,
	}
}

// Process runs the full pipeline for one document. A journal entry is
// created up front and updated to its terminal status before returning;
// the returned result reflects what was journaled even on failure.
func (p *Pipeline) Process(ctx context.Context, path string) (*model.ExtractionResult, error) {
	filename := filepath.Base(path)
	log := zap.L().With(zap.String("file", filename))

	result, err := p.store.CreateExtraction(ctx, filename)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create journal entry")
	}
	log = log.With(zap.String("id", result.ID))
	start := p.now()

	finish := func(status model.ExtractionStatus, failure error) (*model.ExtractionResult, error) {
		result.Status = status
		result.ProcessingTimeMs = p.now().Sub(start).Milliseconds()
		if failure != nil {
			result.ErrorMessage = failure.Error()
		}
		if updErr := p.store.UpdateExtraction(ctx, result); updErr != nil {
			log.Warn("pipeline: journal update failed", zap.Error(updErr))
		}
		return result, failure
	}

	log.Info("pipeline: processing document")

	text, err := p.readText(path)
	if err != nil {
		log.Error("pipeline: text extraction failed", zap.Error(err))
		return finish(model.StatusFailed, err)
	}

	record, err := p.extractor.Extract(ctx, text)
	if err != nil {
		log.Error("pipeline: extraction failed", zap.Error(err))
		return finish(model.StatusFailed, err)
	}
	result.Record = record

	report := p.quality.Assess(record)
	result.Report = report

	// A record that extracted cleanly but failed validation rules is
	// journaled as partial rather than success.
	status := model.StatusSuccess
	if len(report.ValidationErrors) > 0 {
		status = model.StatusPartial
	}

	res, _ := finish(status, nil)
	log.Info("pipeline: document processed",
		zap.String("status", string(status)),
		zap.String("tier", string(report.QualityTier)),
		zap.Float64("score", report.OverallScore),
		zap.Int64("duration_ms", res.ProcessingTimeMs))
	return res, nil
}

// ProcessBatch runs Process over several documents with at most limit
// in flight. Per-document failures are journaled, not fatal; the batch
// only aborts on context cancellation.
func (p *Pipeline) ProcessBatch(ctx context.Context, paths []string, limit int) ([]model.ExtractionResult, error) {
	if limit <= 0 {
		limit = 4
	}

	results := make([]model.ExtractionResult, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res, err := p.Process(gCtx, path)
			if res != nil {
				results[i] = *res
			}
			if err != nil && gCtx.Err() != nil {
				return gCtx.Err()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "pipeline: batch aborted")
	}
	return results, nil
}
