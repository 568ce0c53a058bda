// Package logquery provides the fluent, immutable filter-composition
// builder over the search engine. Every filter method returns a derived
// Query value; the original is never mutated, so a base query can be layered
// into several variants safely.
package logquery

import (
	"context"
	"strings"
	"time"

	"github.com/viper-logs/viperlog/internal/event"
	"github.com/viper-logs/viperlog/internal/search"
)

// Query accumulates filters and compiles them into a single boolean
// expression on Execute. The timeframe is not an index constraint: it is
// applied as a post-filter over the timestamps embedded in the ids.
type Query struct {
	engine  *search.Engine
	clauses []string
	start   time.Time
	end     time.Time
	timed   bool
	limit   int
	desc    bool
}

// New creates an empty query bound to an engine.
func New(engine *search.Engine) Query {
	return Query{engine: engine}
}

func (q Query) withClause(clause string) Query {
	clauses := make([]string, len(q.clauses), len(q.clauses)+1)
	copy(clauses, q.clauses)
	q.clauses = append(clauses, clause)
	return q
}

// WithLevel restricts results to events of any of the given levels.
func (q Query) WithLevel(levels ...string) Query {
	return q.withClause(anyOf(event.FieldLevel, levels))
}

// FromComponent restricts results to events from any of the components.
func (q Query) FromComponent(components ...string) Query {
	return q.withClause(anyOf(event.FieldComponent, components))
}

// ByUser restricts results to events attributed to any of the users.
func (q Query) ByUser(users ...string) Query {
	return q.withClause(anyOf(event.FieldUser, users))
}

// Containing requires the free text to occur in the event. Multi-word text
// becomes a quoted phrase: every word must be present.
func (q Query) Containing(text string) Query {
	return q.withClause(quote("", text))
}

// InTimeframe keeps only events whose id timestamp falls in [start, end].
// A zero end means "until now, evaluated at Execute".
func (q Query) InTimeframe(start, end time.Time) Query {
	q.start = start
	q.end = end
	q.timed = true
	return q
}

// Limit caps the number of returned ids; zero means unlimited.
func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

// Descending returns results newest-first instead of the default
// chronological order.
func (q Query) Descending() Query {
	q.desc = true
	return q
}

// Expression returns the boolean expression the accumulated filters compile
// to; empty when no text constraint was layered.
func (q Query) Expression() string {
	return strings.Join(q.clauses, " AND ")
}

// Execute compiles and runs the query, returning matching ids ordered by
// identifier (chronological), descending if requested.
func (q Query) Execute(ctx context.Context) ([]event.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []event.ID
	if len(q.clauses) == 0 {
		ids = q.engine.AllDocuments()
	} else {
		var err error
		ids, err = q.engine.BooleanSearch(q.Expression())
		if err != nil {
			return nil, err
		}
	}
	if q.timed {
		ids = q.filterTimeframe(ids)
	}
	if q.desc {
		reverse(ids)
	}
	if q.limit > 0 && len(ids) > q.limit {
		ids = ids[:q.limit]
	}
	return ids, nil
}

func (q Query) filterTimeframe(ids []event.ID) []event.ID {
	end := q.end
	if end.IsZero() {
		end = time.Now()
	}
	kept := ids[:0]
	for _, id := range ids {
		t := event.IDTime(id)
		if t.Before(q.start) || t.After(end) {
			continue
		}
		kept = append(kept, id)
	}
	return kept
}

func reverse(ids []event.ID) {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// anyOf builds a disjunction clause over one field.
func anyOf(field string, values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, quote(field, v))
	}
	if len(parts) == 0 {
		return quote(field, "")
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// quote renders one term, quoting values that contain query delimiters.
func quote(field, value string) string {
	cleaned := strings.ReplaceAll(value, `"`, "")
	quoted := cleaned
	if strings.ContainsAny(cleaned, " \t():") || cleaned == "" {
		quoted = `"` + cleaned + `"`
	}
	if field == "" {
		return quoted
	}
	return field + ":" + quoted
}
