package viperlog

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/viper-logs/viperlog/internal/event"
	"github.com/viper-logs/viperlog/internal/index/fuzzy"
	"github.com/viper-logs/viperlog/internal/search"
	"github.com/viper-logs/viperlog/internal/search/logquery"
	"github.com/viper-logs/viperlog/internal/storage"
	"github.com/viper-logs/viperlog/pkg/config"
	pkgerrors "github.com/viper-logs/viperlog/pkg/errors"
	"github.com/viper-logs/viperlog/pkg/metrics"
)

// Re-exported core types so callers never import internal packages.
type (
	// ID identifies one logged event; ascending ID order is chronological.
	ID = event.ID
	// Event is a fully materialised log record.
	Event = event.LogEvent
	// Level is a log severity.
	Level = event.Level
	// FuzzyMatch pairs a vocabulary term with its similarity score.
	FuzzyMatch = fuzzy.Match
	// Query is the fluent search builder returned by Logger.Query.
	Query = logquery.Query
)

// Severity levels, lowest to highest.
const (
	LevelDebug = event.LevelDebug
	LevelInfo  = event.LevelInfo
	LevelWarn  = event.LevelWarn
	LevelError = event.LevelError
	LevelFatal = event.LevelFatal
)

// ParseID parses the canonical string form of an event ID.
func ParseID(s string) (ID, error) { return event.ParseID(s) }

// Logger is the library façade: it persists events, feeds the search
// engine, and exposes the search API.
type Logger struct {
	cfg       *config.Config
	service   string
	level     event.Level
	gen       *event.Generator
	store     storage.Store
	fileStore *storage.FileStore
	engine    *search.Engine
	sanitizer Sanitizer
	m         *metrics.Metrics
	logger    *slog.Logger
	closed    atomic.Bool
	cancel    context.CancelFunc
}

// Option configures a Logger.
type Option func(*loggerOptions)

type loggerOptions struct {
	cfg            *config.Config
	cfgPath        string
	store          storage.Store
	sanitizer      Sanitizer
	fuzzyLeaves    bool
	fuzzyThreshold float64
}

// WithConfig supplies a prebuilt configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *loggerOptions) { o.cfg = cfg }
}

// WithConfigFile loads configuration from a YAML file.
func WithConfigFile(path string) Option {
	return func(o *loggerOptions) { o.cfgPath = path }
}

// WithStore replaces the default file store.
func WithStore(s storage.Store) Option {
	return func(o *loggerOptions) { o.store = s }
}

// WithSanitizer installs a metadata sanitizer.
func WithSanitizer(s Sanitizer) Option {
	return func(o *loggerOptions) { o.sanitizer = s }
}

// WithFuzzyResolution routes boolean query leaves through the fuzzy index
// at the given similarity threshold.
func WithFuzzyResolution(threshold float64) Option {
	return func(o *loggerOptions) {
		o.fuzzyLeaves = true
		o.fuzzyThreshold = threshold
	}
}

// New creates a Logger for the named service, opening (or creating) its
// store and rebuilding the search index from it.
func New(service string, opts ...Option) (*Logger, error) {
	var o loggerOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		var err error
		cfg, err = config.Load(o.cfgPath)
		if err != nil {
			return nil, err
		}
	}
	level, err := event.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	engineOpts := []search.Option{
		search.WithCacheSize(cfg.Search.QueryCacheSize),
		search.WithMaxFuzzyCandidates(cfg.Search.MaxFuzzyCandidates),
	}
	if m != nil {
		engineOpts = append(engineOpts, search.WithMetrics(m))
	}
	if o.fuzzyLeaves {
		engineOpts = append(engineOpts, search.WithFuzzyResolution(o.fuzzyThreshold))
	}
	engine, err := search.New(engineOpts...)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		cfg:       cfg,
		service:   service,
		level:     level,
		gen:       event.NewGenerator(),
		engine:    engine,
		sanitizer: o.sanitizer,
		m:         m,
		logger:    slog.Default().With("component", "viperlog", "service", service),
	}
	if l.sanitizer == nil {
		if keys := cfg.Logging.SensitiveFields; len(keys) > 0 {
			l.sanitizer = MaskSanitizer(keys...)
		} else {
			l.sanitizer = noopSanitizer{}
		}
	}

	l.store = o.store
	if l.store == nil {
		fs, err := storage.NewFileStore(cfg.Storage, storage.WithEvictionHandler(l.onEvicted))
		if err != nil {
			return nil, err
		}
		l.store = fs
		l.fileStore = fs
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	if cfg.Index.RebuildOnOpen {
		if _, err := l.Rebuild(ctx); err != nil {
			cancel()
			l.store.Close()
			return nil, fmt.Errorf("rebuilding index from store: %w", err)
		}
	}
	if l.fileStore != nil && cfg.Storage.SweepInterval > 0 {
		l.fileStore.StartSweepLoop(ctx, cfg.Storage.SweepInterval)
	}
	if m != nil {
		go func() {
			if err := m.Serve(cfg.Metrics.Addr); err != nil {
				l.logger.Error("metrics server stopped", "error", err)
			}
		}()
	}
	return l, nil
}

// onEvicted is the retention callback: the store already dropped the event,
// so the index follows.
func (l *Logger) onEvicted(id ID) {
	l.engine.RemoveDocument(id)
	if l.m != nil {
		l.m.EventsEvictedTotal.Inc()
	}
}

// Log records one event: sanitize, persist, index. It returns the new
// event's ID, or the zero ID with a nil error when the level gate suppresses
// the event.
func (l *Logger) Log(ctx context.Context, level Level, userID, action, description, component string, metadata map[string]string) (ID, error) {
	if l.closed.Load() {
		return ID{}, pkgerrors.ErrClosed
	}
	if level < l.level || level > event.LevelFatal {
		return ID{}, nil
	}
	id, err := l.gen.Next()
	if err != nil {
		return ID{}, err
	}
	ev := &event.LogEvent{
		ID:          id,
		Timestamp:   time.Now().UTC(),
		Level:       level,
		UserID:      userID,
		Action:      action,
		Description: description,
		Component:   component,
		Service:     l.service,
		Metadata:    l.sanitizer.Sanitize(metadata),
	}
	if err := l.store.Append(ctx, ev); err != nil {
		return ID{}, fmt.Errorf("persisting event: %w", err)
	}
	l.engine.AddDocument(id, ev.Fields())
	if l.m != nil {
		l.m.EventsIngestedTotal.WithLabelValues(level.String()).Inc()
	}
	return id, nil
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(ctx context.Context, userID, action, description, component string, metadata map[string]string) (ID, error) {
	return l.Log(ctx, LevelDebug, userID, action, description, component, metadata)
}

// Info logs at INFO level.
func (l *Logger) Info(ctx context.Context, userID, action, description, component string, metadata map[string]string) (ID, error) {
	return l.Log(ctx, LevelInfo, userID, action, description, component, metadata)
}

// Warn logs at WARN level.
func (l *Logger) Warn(ctx context.Context, userID, action, description, component string, metadata map[string]string) (ID, error) {
	return l.Log(ctx, LevelWarn, userID, action, description, component, metadata)
}

// Error logs at ERROR level.
func (l *Logger) Error(ctx context.Context, userID, action, description, component string, metadata map[string]string) (ID, error) {
	return l.Log(ctx, LevelError, userID, action, description, component, metadata)
}

// Fatal logs at FATAL level. It does not terminate the process.
func (l *Logger) Fatal(ctx context.Context, userID, action, description, component string, metadata map[string]string) (ID, error) {
	return l.Log(ctx, LevelFatal, userID, action, description, component, metadata)
}

// Search returns the IDs matching all (matchAll) or any of the exact terms.
func (l *Logger) Search(terms []string, matchAll bool) []ID {
	return l.engine.Search(terms, matchAll)
}

// FuzzySearch returns indexed terms within the similarity threshold of the
// query, best first.
func (l *Logger) FuzzySearch(query string, threshold float64) ([]FuzzyMatch, error) {
	return l.engine.FuzzySearch(query, threshold)
}

// BooleanSearch evaluates a boolean expression such as
// `auth AND (error OR warning) NOT timeout` and returns the matching IDs.
func (l *Logger) BooleanSearch(expr string) ([]ID, error) {
	return l.engine.BooleanSearch(expr)
}

// Query starts a fluent search over this logger's events.
func (l *Logger) Query() Query {
	return logquery.New(l.engine)
}

// Fetch materialises the full event for an ID returned by a search.
func (l *Logger) Fetch(ctx context.Context, id ID) (*Event, error) {
	return l.store.Get(ctx, id)
}

// Rebuild repopulates the search index from the store.
func (l *Logger) Rebuild(ctx context.Context) (int, error) {
	if l.fileStore != nil {
		return l.fileStore.Replay(ctx, l.engine)
	}
	count := 0
	err := l.store.Each(ctx, func(ev *event.LogEvent) error {
		l.engine.AddDocument(ev.ID, ev.Fields())
		count++
		return nil
	})
	return count, err
}

// Close stops background work and closes the store. The in-memory indexes
// are discarded; they are rebuilt from the store on the next New.
func (l *Logger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.cancel()
	return l.store.Close()
}
