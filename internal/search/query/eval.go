package query

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/viper-logs/viperlog/internal/index/tokenizer"
)

// Source is the index surface evaluation needs. Returned bitmaps must be
// safe for the evaluator to mutate.
type Source interface {
	TermDocs(term, field string) *roaring.Bitmap
	Universe() *roaring.Bitmap
}

// Expander maps a leaf term to the vocabulary terms it should additionally
// match, enabling fuzzy leaf resolution. Nil disables expansion.
type Expander func(term string) []string

// Eval walks the tree bottom-up and returns the matching document set.
func Eval(src Source, x Expr, expand Expander) *roaring.Bitmap {
	switch node := x.(type) {
	case Term:
		return evalTerm(src, node, expand)
	case And:
		left := Eval(src, node.Left, expand)
		right := Eval(src, node.Right, expand)
		// Intersect into the smaller operand.
		if left.GetCardinality() <= right.GetCardinality() {
			left.And(right)
			return left
		}
		right.And(left)
		return right
	case Or:
		left := Eval(src, node.Left, expand)
		left.Or(Eval(src, node.Right, expand))
		return left
	case Not:
		universe := src.Universe()
		universe.AndNot(Eval(src, node.Operand, expand))
		return universe
	}
	panic("query: unknown expression node")
}

// evalTerm resolves a leaf. The value is normalised with the same tokenizer
// used at indexing time; a multi-token value (quoted phrase) requires every
// token, intersected smallest-first.
func evalTerm(src Source, t Term, expand Expander) *roaring.Bitmap {
	toks := tokenizer.Terms(t.Value)
	if len(toks) == 0 {
		return roaring.New()
	}
	bms := make([]*roaring.Bitmap, len(toks))
	for i, tok := range toks {
		bm := src.TermDocs(tok, t.Field)
		if expand != nil {
			for _, alt := range expand(tok) {
				bm.Or(src.TermDocs(alt, t.Field))
			}
		}
		bms[i] = bm
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
