// Package index implements the in-memory inverted index at the heart of the
// search core. Terms map to posting data held as roaring bitmaps over dense
// per-document ordinals, plus per-document field/position detail. A reverse
// mapping from document to contributed terms makes removal a targeted
// operation rather than a full scan.
package index

import (
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/viper-logs/viperlog/internal/event"
	"github.com/viper-logs/viperlog/internal/index/tokenizer"
)

type termPostings struct {
	docs     *roaring.Bitmap
	postings map[uint32]*Posting
}

func newTermPostings() *termPostings {
	return &termPostings{
		docs:     roaring.New(),
		postings: make(map[uint32]*Posting),
	}
}

// Index is the inverted index. All methods are safe for concurrent use: a
// single RWMutex serialises mutations against each other and against reads,
// so no reader ever observes a partially-updated posting list.
type Index struct {
	mu       sync.RWMutex
	terms    map[string]*termPostings
	docTerms map[uint32]map[string]struct{}
	byOrd    map[uint32]event.ID
	ordOf    map[event.ID]uint32
	all      *roaring.Bitmap
	fields   map[string]struct{}
	nextOrd  uint32
	logger   *slog.Logger
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		terms:    make(map[string]*termPostings),
		docTerms: make(map[uint32]map[string]struct{}),
		byOrd:    make(map[uint32]event.ID),
		ordOf:    make(map[event.ID]uint32),
		all:      roaring.New(),
		fields:   make(map[string]struct{}),
		logger:   slog.Default().With("component", "index"),
	}
}

// Add indexes every field of the document. Re-adding a known id replaces its
// prior postings entirely, so re-indexing never leaves duplicates or stale
// terms behind. The returned delta is the net vocabulary change.
func (ix *Index) Add(id event.ID, fields map[string]string) VocabDelta {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pruned := ix.removeLocked(id)

	ord := ix.nextOrd
	ix.nextOrd++
	ix.ordOf[id] = ord
	ix.byOrd[ord] = id
	ix.all.Add(ord)

	contributed := make(map[string]struct{})
	created := make(map[string]struct{})
	for field, text := range fields {
		ix.fields[field] = struct{}{}
		for _, tok := range tokenizer.Tokenize(text) {
			tp, exists := ix.terms[tok.Term]
			if !exists {
				tp = newTermPostings()
				ix.terms[tok.Term] = tp
				created[tok.Term] = struct{}{}
			}
			tp.docs.Add(ord)
			p, exists := tp.postings[ord]
			if !exists {
				p = &Posting{Fields: make(map[string][]int)}
				tp.postings[ord] = p
			}
			p.Fields[field] = append(p.Fields[field], tok.Position)
			contributed[tok.Term] = struct{}{}
		}
	}
	ix.docTerms[ord] = contributed

	return netDelta(created, pruned)
}

// Remove deletes every posting the document contributed and prunes terms
// whose posting list empties. Removing an unknown id is a no-op.
func (ix *Index) Remove(id event.ID) VocabDelta {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	pruned := ix.removeLocked(id)
	if len(pruned) == 0 {
		return VocabDelta{}
	}
	removed := make([]string, 0, len(pruned))
	for term := range pruned {
		removed = append(removed, term)
	}
	sort.Strings(removed)
	return VocabDelta{Removed: removed}
}

func (ix *Index) removeLocked(id event.ID) map[string]struct{} {
	ord, known := ix.ordOf[id]
	if !known {
		return nil
	}
	pruned := make(map[string]struct{})
	for term := range ix.docTerms[ord] {
		tp, exists := ix.terms[term]
		if !exists {
			// Invariant (a): the reverse mapping and the posting lists
			// agree. Reaching here means the index corrupted itself.
			panic("index: reverse mapping references pruned term " + term)
		}
		tp.docs.Remove(ord)
		delete(tp.postings, ord)
		if tp.docs.IsEmpty() {
			delete(ix.terms, term)
			pruned[term] = struct{}{}
		}
	}
	delete(ix.docTerms, ord)
	delete(ix.byOrd, ord)
	delete(ix.ordOf, id)
	ix.all.Remove(ord)
	return pruned
}

func netDelta(created, pruned map[string]struct{}) VocabDelta {
	var delta VocabDelta
	for term := range created {
		if _, both := pruned[term]; !both {
			delta.Added = append(delta.Added, term)
		}
	}
	for term := range pruned {
		if _, both := created[term]; !both {
			delta.Removed = append(delta.Removed, term)
		}
	}
	sort.Strings(delta.Added)
	sort.Strings(delta.Removed)
	return delta
}

// Search returns the ids satisfying the conjunction (matchAll) or
// disjunction of exact term membership, in ascending id order. Terms may be
// field-qualified as "field:term"; a multi-word term value matches documents
// containing all of its tokens.
func (ix *Index) Search(terms []string, matchAll bool) []event.ID {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	v := View{ix: ix}

	var result *roaring.Bitmap
	for _, raw := range terms {
		field, value := SplitQualified(raw)
		bm := v.valueDocs(value, field)
		switch {
		case result == nil:
			result = bm
		case matchAll:
			result.And(bm)
		default:
			result.Or(bm)
		}
		if matchAll && result.IsEmpty() {
			break
		}
	}
	if result == nil {
		return nil
	}
	return v.IDs(result)
}

// Contains reports whether the id is currently indexed.
func (ix *Index) Contains(id event.ID) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, known := ix.ordOf[id]
	return known
}

// DocCount returns the number of indexed documents.
func (ix *Index) DocCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ordOf)
}

// TermCount returns the number of distinct terms in the vocabulary.
func (ix *Index) TermCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.terms)
}

// AllIDs returns every indexed id in ascending order.
func (ix *Index) AllIDs() []event.ID {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	v := View{ix: ix}
	return v.IDs(ix.all)
}

// Eval runs fn against a consistent read view of the index. The read lock is
// held for the duration of fn, so an entire boolean evaluation sees a single
// index state.
func (ix *Index) Eval(fn func(v View)) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	fn(View{ix: ix})
}

// View is a read-locked window onto the index, valid only inside Eval (or a
// method that already holds the read lock). The bitmaps it returns are
// clones and safe to mutate.
type View struct {
	ix *Index
}

// TermDocs returns the documents containing the exact term, optionally
// restricted to postings originating from the named field. A field that was
// never indexed yields a guaranteed-empty result, not an error.
func (v View) TermDocs(term, field string) *roaring.Bitmap {
	tp, exists := v.ix.terms[term]
	if !exists {
		return roaring.New()
	}
	if field == "" {
		return tp.docs.Clone()
	}
	if _, known := v.ix.fields[field]; !known {
		v.ix.logger.Debug("search references unknown field", "field", field, "term", term)
		return roaring.New()
	}
	bm := roaring.New()
	for ord, p := range tp.postings {
		if _, ok := p.Fields[field]; ok {
			bm.Add(ord)
		}
	}
	return bm
}

// Universe returns the full set of currently indexed documents, the
// complement base for NOT.
func (v View) Universe() *roaring.Bitmap {
	return v.ix.all.Clone()
}

// IDs materialises a bitmap of ordinals into ids sorted ascending.
func (v View) IDs(bm *roaring.Bitmap) []event.ID {
	ids := make([]event.ID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ord := it.Next()
		id, known := v.ix.byOrd[ord]
		if !known {
			panic("index: bitmap references retired document ordinal")
		}
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b event.ID) int { return a.Compare(b) })
	return ids
}

// valueDocs resolves a (possibly multi-token) term value: all tokens must be
// present, intersected smallest-first.
func (v View) valueDocs(value, field string) *roaring.Bitmap {
	toks := tokenizer.Terms(value)
	if len(toks) == 0 {
		return roaring.New()
	}
	bms := make([]*roaring.Bitmap, len(toks))
	for i, tok := range toks {
		bms[i] = v.TermDocs(tok, field)
	}
	slices.SortFunc(bms, func(a, b *roaring.Bitmap) int {
		return int(a.GetCardinality()) - int(b.GetCardinality())
	})
	result := bms[0]
	for _, bm := range bms[1:] {
		if result.IsEmpty() {
			break
		}
		result.And(bm)
	}
	return result
}
