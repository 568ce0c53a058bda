package index

import "strings"

// Posting records where one term occurs within one document: for every
// originating field, the ordered token positions. Field provenance backs
// field-qualified search; positions are retained for future proximity
// features but not consulted today.
type Posting struct {
	Fields map[string][]int
}

// VocabDelta describes how the index vocabulary changed after a mutation.
// The fuzzy index is reconciled from these deltas so its vocabulary stays a
// subset-equal view of the inverted index's term set.
type VocabDelta struct {
	Added   []string
	Removed []string
}

// Empty reports whether the delta carries no vocabulary change.
func (d VocabDelta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// SplitQualified splits a raw search term of the form "field:term" into its
// field qualifier and term value. Terms without a qualifier return an empty
// field.
func SplitQualified(raw string) (field, value string) {
	if i := strings.IndexByte(raw, ':'); i > 0 && i < len(raw)-1 {
		return strings.ToLower(raw[:i]), raw[i+1:]
	}
	return "", raw
}
