// Package fuzzy implements approximate term lookup over the index
// vocabulary. Terms are bucketed by rune length so a query only compares
// against candidates whose length could still reach the similarity
// threshold; similarity is 1 - levenshtein/maxLen.
package fuzzy

import (
	"math"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	pkgerrors "github.com/viper-logs/viperlog/pkg/errors"
)

// Match pairs a vocabulary term with its similarity score in [0,1].
type Match struct {
	Term  string
	Score float64
}

// Index is the fuzzy search index. It is a derived, read-mostly structure:
// the inverted index's vocabulary is the source of truth, and callers feed
// its add/remove deltas into AddTerm/RemoveTerm.
type Index struct {
	mu            sync.RWMutex
	buckets       map[int]map[string]struct{}
	size          int
	maxCandidates int
}

// New creates an empty fuzzy index. maxCandidates bounds the number of
// edit-distance comparisons per search; zero means unbounded.
func New(maxCandidates int) *Index {
	return &Index{
		buckets:       make(map[int]map[string]struct{}),
		maxCandidates: maxCandidates,
	}
}

// AddTerm inserts a vocabulary term. Duplicate inserts are no-ops.
func (f *Index) AddTerm(term string) {
	n := utf8.RuneCountInString(term)
	f.mu.Lock()
	defer f.mu.Unlock()
	bucket, exists := f.buckets[n]
	if !exists {
		bucket = make(map[string]struct{})
		f.buckets[n] = bucket
	}
	if _, dup := bucket[term]; !dup {
		bucket[term] = struct{}{}
		f.size++
	}
}

// RemoveTerm deletes a vocabulary term; removing an absent term is a no-op.
func (f *Index) RemoveTerm(term string) {
	n := utf8.RuneCountInString(term)
	f.mu.Lock()
	defer f.mu.Unlock()
	bucket, exists := f.buckets[n]
	if !exists {
		return
	}
	if _, present := bucket[term]; !present {
		return
	}
	delete(bucket, term)
	f.size--
	if len(bucket) == 0 {
		delete(f.buckets, n)
	}
}

// Size returns the number of vocabulary terms.
func (f *Index) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size
}

// Search returns every vocabulary term with similarity >= threshold, ordered
// by descending score and then lexicographically. threshold must lie in
// [0,1]: 1 yields only exact matches, 0 yields the whole eligible
// vocabulary. Compared is the number of candidates actually scored.
func (f *Index) Search(query string, threshold float64) ([]Match, int, error) {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return nil, 0, pkgerrors.ErrInvalidThreshold
	}
	qlen := utf8.RuneCountInString(query)
	lo, hi := eligibleLengths(qlen, threshold)

	f.mu.RLock()
	defer f.mu.RUnlock()

	// Visit buckets nearest the query's length first: those candidates can
	// score highest, so a maxCandidates bound cuts off the least promising
	// lengths rather than arbitrary ones.
	lengths := make([]int, 0, len(f.buckets))
	for n := range f.buckets {
		if threshold > 0 && (n < lo || n > hi) {
			continue
		}
		lengths = append(lengths, n)
	}
	sort.Slice(lengths, func(i, j int) bool {
		di, dj := absDiff(lengths[i], qlen), absDiff(lengths[j], qlen)
		if di != dj {
			return di < dj
		}
		return lengths[i] < lengths[j]
	})

	matches := make([]Match, 0)
	compared := 0
	for _, n := range lengths {
		bucket := f.buckets[n]
		for term := range bucket {
			if f.maxCandidates > 0 && compared >= f.maxCandidates {
				break
			}
			compared++
			score := similarity(query, term, qlen, n)
			if score >= threshold {
				matches = append(matches, Match{Term: term, Score: score})
			}
		}
		if f.maxCandidates > 0 && compared >= f.maxCandidates {
			break
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Term < matches[j].Term
	})
	return matches, compared, nil
}

// eligibleLengths returns the closed interval of candidate lengths that can
// still reach the threshold. With d >= |len-qlen| and
// sim = 1 - d/max(len,qlen), a candidate of length L passes only if
// t*q <= L <= q/t, so scanning exactly that interval never drops a valid
// match.
func eligibleLengths(qlen int, threshold float64) (lo, hi int) {
	if threshold <= 0 {
		return 0, math.MaxInt
	}
	lo = int(math.Ceil(threshold * float64(qlen)))
	hi = int(math.Floor(float64(qlen) / threshold))
	return lo, hi
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func similarity(query, term string, qlen, tlen int) float64 {
	maxLen := qlen
	if tlen > maxLen {
		maxLen = tlen
	}
	if maxLen == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(query, term)
	return 1 - float64(d)/float64(maxLen)
}
