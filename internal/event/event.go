// Package event defines the log event model and its time-ordered document
// identifiers. Identifiers are ULIDs: 128-bit, lexicographically sortable,
// millisecond-precision, monotonic within a process.
package event

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	pkgerrors "github.com/viper-logs/viperlog/pkg/errors"
)

// ID identifies one log event. The search core treats it as an opaque,
// totally-ordered, comparable key; its embedded timestamp is only consulted
// at the query-orchestration boundary for timeframe filtering.
type ID = ulid.ULID

// ParseID parses the canonical 26-character string form of an ID.
func ParseID(s string) (ID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("parsing event id %q: %w", s, err)
	}
	return id, nil
}

// IDTime returns the timestamp embedded in an ID.
func IDTime(id ID) time.Time {
	return ulid.Time(id.Time())
}

// Generator produces monotonically increasing IDs. IDs generated within the
// same millisecond increment the previous entropy, so the lexicographic
// order of IDs matches generation order.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewGenerator returns a Generator seeded with crypto/rand entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a fresh ID for the current time.
func (g *Generator) Next() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Now(), g.entropy)
	if err != nil {
		return ID{}, fmt.Errorf("generating event id: %w", err)
	}
	return id, nil
}

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelFatal {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText encodes the level by name so JSON-lines files stay readable.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel converts a level name (case-insensitive) into a Level.
func ParseLevel(s string) (Level, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == upper {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %q", pkgerrors.ErrInvalidLevel, s)
}

// LogEvent is one log record as produced by the logger façade and persisted
// by the store. The search core indexes its Fields() projection only.
type LogEvent struct {
	ID          ID                `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Level       Level             `json:"level"`
	UserID      string            `json:"user_id,omitempty"`
	Action      string            `json:"action,omitempty"`
	Description string            `json:"description"`
	Component   string            `json:"component"`
	Service     string            `json:"service"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Indexed field names shared between ingestion and the query orchestrator.
const (
	FieldLevel       = "level"
	FieldComponent   = "component"
	FieldAction      = "action"
	FieldDescription = "description"
	FieldUser        = "user"
	FieldService     = "service"
)

// Fields returns the searchable projection of the event: the field map
// handed to the inverted index. Empty fields are omitted so they never
// register as indexed field names.
func (e *LogEvent) Fields() map[string]string {
	fields := map[string]string{
		FieldLevel:       e.Level.String(),
		FieldDescription: e.Description,
		FieldComponent:   e.Component,
		FieldService:     e.Service,
	}
	if e.Action != "" {
		fields[FieldAction] = e.Action
	}
	if e.UserID != "" {
		fields[FieldUser] = e.UserID
	}
	return fields
}
