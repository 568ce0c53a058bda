// Package search composes the inverted index, fuzzy index, and boolean
// query engine into the engine the logger façade talks to. All operations
// are synchronous and CPU-bound; the host's concurrency layer decides what
// invokes them.
package search

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/viper-logs/viperlog/internal/event"
	"github.com/viper-logs/viperlog/internal/index"
	"github.com/viper-logs/viperlog/internal/index/fuzzy"
	"github.com/viper-logs/viperlog/internal/search/query"
	"github.com/viper-logs/viperlog/pkg/metrics"
)

const defaultCacheSize = 512

// Engine owns the two indexes and serialises their reconciliation: a single
// engine lock covers the inverted-index mutation and the fuzzy-vocabulary
// delta together, and every query path takes its read side, so no query
// ever sees the fuzzy vocabulary ahead of or behind the index.
type Engine struct {
	mu    sync.RWMutex
	idx   *index.Index
	fz    *fuzzy.Index
	cache *resultCache

	fuzzyLeaves    bool
	fuzzyThreshold float64

	logger *slog.Logger
	m      *metrics.Metrics
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	fuzzyLeaves        bool
	fuzzyThreshold     float64
	maxFuzzyCandidates int
	cacheSize          int
	m                  *metrics.Metrics
}

// WithFuzzyResolution makes boolean leaf terms also match vocabulary terms
// whose similarity reaches threshold.
func WithFuzzyResolution(threshold float64) Option {
	return func(o *options) {
		o.fuzzyLeaves = true
		o.fuzzyThreshold = threshold
	}
}

// WithMaxFuzzyCandidates bounds edit-distance comparisons per fuzzy search.
func WithMaxFuzzyCandidates(n int) Option {
	return func(o *options) { o.maxFuzzyCandidates = n }
}

// WithCacheSize sets the boolean query result cache capacity.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.m = m }
}

// New creates an empty engine.
func New(opts ...Option) (*Engine, error) {
	o := options{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	cache, err := newResultCache(o.cacheSize, o.m)
	if err != nil {
		return nil, err
	}
	return &Engine{
		idx:            index.New(),
		fz:             fuzzy.New(o.maxFuzzyCandidates),
		cache:          cache,
		fuzzyLeaves:    o.fuzzyLeaves,
		fuzzyThreshold: o.fuzzyThreshold,
		logger:         slog.Default().With("component", "search-engine"),
		m:              o.m,
	}, nil
}

// AddDocument indexes the document's fields, replacing any prior postings
// for the same id, and reconciles the fuzzy vocabulary.
func (e *Engine) AddDocument(id event.ID, fields map[string]string) {
	e.mu.Lock()
	delta := e.idx.Add(id, fields)
	e.applyDelta(delta)
	e.cache.invalidate()
	e.mu.Unlock()
	e.observeIndexSize()
	e.logger.Debug("document indexed",
		"doc_id", id.String(),
		"terms_added", len(delta.Added),
		"terms_removed", len(delta.Removed),
	)
}

// RemoveDocument removes every posting the document contributed. Unknown
// ids are a no-op: duplicate evictions are expected, not errors.
func (e *Engine) RemoveDocument(id event.ID) {
	e.mu.Lock()
	delta := e.idx.Remove(id)
	e.applyDelta(delta)
	e.cache.invalidate()
	e.mu.Unlock()
	e.observeIndexSize()
}

func (e *Engine) applyDelta(delta index.VocabDelta) {
	for _, term := range delta.Added {
		e.fz.AddTerm(term)
	}
	for _, term := range delta.Removed {
		e.fz.RemoveTerm(term)
	}
}

// Search returns the ids matching all (matchAll) or any of the exact terms,
// ascending by id.
func (e *Engine) Search(terms []string, matchAll bool) []event.ID {
	start := time.Now()
	e.mu.RLock()
	ids := e.idx.Search(terms, matchAll)
	e.mu.RUnlock()
	e.observeSearch("term", start, len(ids), nil)
	return ids
}

// FuzzySearch returns vocabulary terms within the similarity threshold,
// ordered by descending score then term.
func (e *Engine) FuzzySearch(q string, threshold float64) ([]fuzzy.Match, error) {
	start := time.Now()
	e.mu.RLock()
	matches, compared, err := e.fz.Search(strings.ToLower(q), threshold)
	e.mu.RUnlock()
	if e.m != nil && err == nil {
		e.m.FuzzyCandidates.Observe(float64(compared))
	}
	e.observeSearch("fuzzy", start, len(matches), err)
	return matches, err
}

// BooleanSearch parses and evaluates a boolean expression, returning the
// matching ids ascending. Malformed expressions fail with a ParseError.
func (e *Engine) BooleanSearch(expr string) ([]event.ID, error) {
	start := time.Now()
	tree, err := query.Parse(expr)
	if err != nil {
		e.observeSearch("boolean", start, 0, err)
		return nil, err
	}
	e.mu.RLock()
	ids, cached, err := e.cache.getOrCompute(expr, func() ([]event.ID, error) {
		return e.evaluate(tree), nil
	})
	e.mu.RUnlock()
	if err != nil {
		e.observeSearch("boolean", start, 0, err)
		return nil, err
	}
	e.observeSearch("boolean", start, len(ids), nil)
	e.logger.Debug("boolean query executed",
		"query", expr,
		"hits", len(ids),
		"cached", cached,
		"elapsed", time.Since(start),
	)
	return ids, nil
}

func (e *Engine) evaluate(tree query.Expr) []event.ID {
	var ids []event.ID
	e.idx.Eval(func(v index.View) {
		ids = v.IDs(query.Eval(v, tree, e.expander()))
	})
	return ids
}

// expander routes boolean leaves through the fuzzy vocabulary when enabled.
func (e *Engine) expander() query.Expander {
	if !e.fuzzyLeaves {
		return nil
	}
	return func(term string) []string {
		matches, _, err := e.fz.Search(term, e.fuzzyThreshold)
		if err != nil {
			return nil
		}
		terms := make([]string, len(matches))
		for i, m := range matches {
			terms[i] = m.Term
		}
		return terms
	}
}

// AllDocuments returns every indexed id ascending; the universe the query
// orchestrator starts from when no text constraint applies.
func (e *Engine) AllDocuments() []event.ID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.AllIDs()
}

// DocCount returns the number of indexed documents.
func (e *Engine) DocCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.DocCount()
}

// TermCount returns the vocabulary size of the inverted index.
func (e *Engine) TermCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.TermCount()
}

// Contains reports whether the id is indexed.
func (e *Engine) Contains(id event.ID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Contains(id)
}

func (e *Engine) observeIndexSize() {
	if e.m == nil {
		return
	}
	e.m.IndexedDocs.Set(float64(e.idx.DocCount()))
	e.m.IndexedTerms.Set(float64(e.idx.TermCount()))
}

func (e *Engine) observeSearch(kind string, start time.Time, hits int, err error) {
	if e.m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case hits == 0:
		outcome = "empty"
	}
	e.m.SearchesTotal.WithLabelValues(kind, outcome).Inc()
	e.m.SearchLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
