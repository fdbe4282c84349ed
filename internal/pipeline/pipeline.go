// Package pipeline sequences enumeration, fetch, parse, fallback and
// persistence for each document in the corpus.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexcorpus/crawler/internal/corpus"
	"github.com/lexcorpus/crawler/internal/metrics"
)

// Enumerator produces the work list for a run.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]corpus.SourceDocument, error)
}

// DocumentParser converts raw content plus metadata into an act record.
type DocumentParser interface {
	Parse(rawHTML []byte, doc corpus.SourceDocument) corpus.ActRecord
}

// Outcome classifies how a document reached its terminal record.
type Outcome string

// Terminal outcomes surfaced in the run summary.
const (
	OutcomeParsed   Outcome = "parsed"
	OutcomeCached   Outcome = "cached"
	OutcomeMetadata Outcome = "metadata"
	OutcomeFallback Outcome = "fallback"
)

// DocumentResult is the terminal state of one document in the run.
// Err carries the cause when the outcome is a fallback; it never aborts
// the run.
type DocumentResult struct {
	Document    corpus.SourceDocument
	Outcome     Outcome
	Provisions  int
	Definitions int
	Err         error
}

// Config holds per-run parameters.
type Config struct {
	// Limit caps the number of documents processed; zero means all.
	Limit int
	// Refresh forces a re-fetch and re-parse of every document instead
	// of reusing cached raw content and existing records.
	Refresh bool
}

// Pipeline runs documents strictly sequentially. The only suspension
// points are inside the fetcher; everything else is synchronous.
type Pipeline struct {
	cfg        Config
	enumerator Enumerator
	fetcher    corpus.Fetcher
	parser     DocumentParser
	store      corpus.RecordStore
	logger     *zap.Logger
}

// New constructs a Pipeline.
func New(
	cfg Config,
	enumerator Enumerator,
	fetcher corpus.Fetcher,
	parser DocumentParser,
	store corpus.RecordStore,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		enumerator: enumerator,
		fetcher:    fetcher,
		parser:     parser,
		store:      store,
		logger:     logger,
	}
}

// Run executes one ingestion run. Enumeration failure is fatal; every
// per-document failure degrades to a fallback record and the run
// continues. Exactly one record is emitted per enumerated document.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}

	docs, err := p.enumerator.Enumerate(ctx)
	if err != nil {
		return summary, fmt.Errorf("enumerate corpus: %w", err)
	}
	if p.cfg.Limit > 0 && len(docs) > p.cfg.Limit {
		docs = docs[:p.cfg.Limit]
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("run interrupted: %w", err)
		}
		result, err := p.processDocument(ctx, doc)
		if err != nil {
			return summary, err
		}
		summary.add(result)
	}

	manifest := corpus.Manifest{
		RunID:       summary.RunID,
		GeneratedAt: time.Now().UTC(),
		Documents:   docs,
		Counts:      countByClassification(docs),
	}
	if err := p.store.WriteManifest(manifest); err != nil {
		return summary, fmt.Errorf("write manifest: %w", err)
	}

	p.logger.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("processed", summary.Processed),
		zap.Int("cached", summary.Cached),
		zap.Int("fallbacks", summary.Fallbacks),
		zap.Int("provisions", summary.Provisions),
		zap.Int("definitions", summary.Definitions),
	)
	return summary, nil
}

// processDocument drives one document to its terminal record. The
// returned error is fatal (store failure or cancellation); fetch and
// parse problems are absorbed into a fallback result instead.
func (p *Pipeline) processDocument(ctx context.Context, doc corpus.SourceDocument) (DocumentResult, error) {
	if !p.cfg.Refresh && p.store.HasRecord(doc.ID) {
		record, err := p.store.ReadRecord(doc.ID)
		if err == nil {
			metrics.ObserveDocument(string(OutcomeCached))
			return DocumentResult{
				Document:    doc,
				Outcome:     OutcomeCached,
				Provisions:  len(record.Provisions),
				Definitions: len(record.Definitions),
			}, nil
		}
		p.logger.Warn("existing record unreadable, reprocessing",
			zap.String("id", doc.ID), zap.Error(err))
	}

	switch doc.Hint {
	case corpus.HintMetadataOnly:
		return p.finish(doc, FallbackRecord(doc), OutcomeMetadata, nil)
	case corpus.HintInaccessible:
		return p.finish(doc, FallbackRecord(doc), OutcomeFallback, fmt.Errorf("document marked inaccessible"))
	}

	raw, err := p.rawContent(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return DocumentResult{}, err
		}
		p.logger.Warn("content unavailable, writing fallback record",
			zap.String("id", doc.ID), zap.Error(err))
		return p.finish(doc, FallbackRecord(doc), OutcomeFallback, err)
	}

	return p.finish(doc, p.parser.Parse(raw, doc), OutcomeParsed, nil)
}

// rawContent returns the document body, preferring the raw cache unless
// the run forces a refresh.
func (p *Pipeline) rawContent(ctx context.Context, doc corpus.SourceDocument) ([]byte, error) {
	if !p.cfg.Refresh {
		if cached, ok, err := p.store.Raw(doc.ID); err == nil && ok {
			p.logger.Debug("reusing cached raw content", zap.String("id", doc.ID))
			return cached, nil
		}
	}

	result, err := p.fetcher.Fetch(ctx, doc.SourceURL)
	if err != nil {
		return nil, err
	}
	if result.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch returned status %d", result.StatusCode)
	}
	if err := p.store.PutRaw(doc.ID, result.Body); err != nil {
		// A cache miss on the next run is the only consequence.
		p.logger.Warn("raw cache write failed", zap.String("id", doc.ID), zap.Error(err))
	}
	return result.Body, nil
}

func (p *Pipeline) finish(
	doc corpus.SourceDocument,
	record corpus.ActRecord,
	outcome Outcome,
	cause error,
) (DocumentResult, error) {
	if err := p.store.PutRecord(record); err != nil {
		return DocumentResult{}, fmt.Errorf("persist record %s: %w", doc.ID, err)
	}
	metrics.ObserveDocument(string(outcome))
	metrics.AddProvisions(len(record.Provisions))
	metrics.AddDefinitions(len(record.Definitions))
	return DocumentResult{
		Document:    doc,
		Outcome:     outcome,
		Provisions:  len(record.Provisions),
		Definitions: len(record.Definitions),
		Err:         cause,
	}, nil
}

func countByClassification(docs []corpus.SourceDocument) map[corpus.Classification]int {
	counts := make(map[corpus.Classification]int)
	for _, doc := range docs {
		counts[doc.Classification]++
	}
	return counts
}
