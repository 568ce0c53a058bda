package index

import (
	"crypto/rand"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viper-logs/viperlog/internal/event"
)

// newID builds an id at the given millisecond so chronological order is
// under test control.
func newID(t *testing.T, ms uint64) event.ID {
	t.Helper()
	id, err := ulid.New(ms, rand.Reader)
	require.NoError(t, err)
	return id
}

func TestAddAndSearch(t *testing.T) {
	ix := New()
	d1 := newID(t, 1)
	d2 := newID(t, 2)
	d3 := newID(t, 3)
	ix.Add(d1, map[string]string{"description": "auth login success"})
	ix.Add(d2, map[string]string{"description": "auth login failure timeout"})
	ix.Add(d3, map[string]string{"description": "payment processed"})

	assert.Equal(t, []event.ID{d1, d2}, ix.Search([]string{"auth"}, true))
	assert.Equal(t, []event.ID{d2}, ix.Search([]string{"auth", "failure"}, true))
	assert.Equal(t, []event.ID{d1, d2, d3}, ix.Search([]string{"auth", "payment"}, false))
	assert.Empty(t, ix.Search([]string{"missing"}, true))
}

func TestSearchResultsSortedByID(t *testing.T) {
	ix := New()
	d2 := newID(t, 20)
	d1 := newID(t, 10)
	// Inserted out of chronological order on purpose.
	ix.Add(d2, map[string]string{"description": "restart"})
	ix.Add(d1, map[string]string{"description": "restart"})
	assert.Equal(t, []event.ID{d1, d2}, ix.Search([]string{"restart"}, true))
}

func TestRemoveDocumentPrunesTerms(t *testing.T) {
	ix := New()
	d1 := newID(t, 1)
	d2 := newID(t, 2)
	ix.Add(d1, map[string]string{"description": "unique shared"})
	ix.Add(d2, map[string]string{"description": "shared"})

	delta := ix.Remove(d1)
	assert.Equal(t, []string{"unique"}, delta.Removed)
	assert.Empty(t, ix.Search([]string{"unique"}, true))
	assert.Equal(t, []event.ID{d2}, ix.Search([]string{"shared"}, true))
	assert.Equal(t, 1, ix.DocCount())
	assert.Equal(t, 1, ix.TermCount())
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	ix := New()
	ix.Add(newID(t, 1), map[string]string{"description": "hello"})
	delta := ix.Remove(newID(t, 99))
	assert.True(t, delta.Empty())
	assert.Equal(t, 1, ix.DocCount())
}

func TestReAddReplacesPostings(t *testing.T) {
	ix := New()
	d1 := newID(t, 1)
	ix.Add(d1, map[string]string{"description": "alpha beta"})
	delta := ix.Add(d1, map[string]string{"description": "beta gamma"})

	assert.Equal(t, []string{"gamma"}, delta.Added)
	assert.Equal(t, []string{"alpha"}, delta.Removed)
	assert.Empty(t, ix.Search([]string{"alpha"}, true), "stale posting survived re-add")
	assert.Equal(t, []event.ID{d1}, ix.Search([]string{"beta"}, true), "duplicate-free replace")
	assert.Equal(t, []event.ID{d1}, ix.Search([]string{"gamma"}, true))
	assert.Equal(t, 1, ix.DocCount())
}

func TestFieldQualifiedSearch(t *testing.T) {
	ix := New()
	d1 := newID(t, 1)
	d2 := newID(t, 2)
	ix.Add(d1, map[string]string{"component": "auth", "description": "billing slow"})
	ix.Add(d2, map[string]string{"component": "billing", "description": "auth slow"})

	assert.Equal(t, []event.ID{d1}, ix.Search([]string{"component:auth"}, true))
	assert.Equal(t, []event.ID{d2}, ix.Search([]string{"component:billing"}, true))
	// Unqualified hits both provenances.
	assert.Equal(t, []event.ID{d1, d2}, ix.Search([]string{"auth"}, true))
}

func TestUnknownFieldIsEmptyNotError(t *testing.T) {
	ix := New()
	ix.Add(newID(t, 1), map[string]string{"description": "auth"})
	assert.Empty(t, ix.Search([]string{"hostname:auth"}, true))
}

func TestVocabularyAfterAddRemoveCycle(t *testing.T) {
	ix := New()
	d1 := newID(t, 1)
	delta := ix.Add(d1, map[string]string{"description": "only here"})
	assert.Equal(t, []string{"here", "only"}, delta.Added)

	delta = ix.Remove(d1)
	assert.Equal(t, []string{"here", "only"}, delta.Removed)
	assert.Equal(t, 0, ix.TermCount())
	assert.Equal(t, 0, ix.DocCount())
	assert.Empty(t, ix.AllIDs())
}

func TestMultiTokenTermValue(t *testing.T) {
	ix := New()
	d1 := newID(t, 1)
	d2 := newID(t, 2)
	ix.Add(d1, map[string]string{"description": "disk pressure rising"})
	ix.Add(d2, map[string]string{"description": "disk ok"})
	// A multi-word value requires every token.
	assert.Equal(t, []event.ID{d1}, ix.Search([]string{"disk pressure"}, true))
}

func TestEvalViewConsistency(t *testing.T) {
	ix := New()
	d1 := newID(t, 1)
	ix.Add(d1, map[string]string{"description": "alpha"})
	ix.Eval(func(v View) {
		bm := v.TermDocs("alpha", "")
		assert.Equal(t, uint64(1), bm.GetCardinality())
		universe := v.Universe()
		universe.AndNot(bm)
		assert.True(t, universe.IsEmpty())
		assert.Equal(t, []event.ID{d1}, v.IDs(v.TermDocs("alpha", "")))
	})
}

func TestSplitQualified(t *testing.T) {
	field, value := SplitQualified("component:auth")
	assert.Equal(t, "auth", value)
	assert.Equal(t, "component", field)

	field, value = SplitQualified("plain")
	assert.Equal(t, "plain", value)
	assert.Empty(t, field)

	// Leading colon is not a qualifier.
	field, value = SplitQualified(":odd")
	assert.Equal(t, ":odd", value)
	assert.Empty(t, field)
}
