package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/viper-logs/viperlog/pkg/errors"
)

func vocab(terms ...string) *Index {
	f := New(0)
	for _, term := range terms {
		f.AddTerm(term)
	}
	return f
}

func TestSearchScoresEditDistance(t *testing.T) {
	f := vocab("login", "logout", "payment")
	matches, _, err := f.Search("logn", 0.7)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "login", matches[0].Term)
	// One edit over max length 5.
	assert.InDelta(t, 0.8, matches[0].Score, 1e-9)
}

func TestThresholdOneIsExactOnly(t *testing.T) {
	f := vocab("login", "logins", "logiin")
	matches, _, err := f.Search("login", 1.0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "login", matches[0].Term)
	assert.Equal(t, 1.0, matches[0].Score)
}

func TestThresholdZeroReturnsWholeVocabulary(t *testing.T) {
	f := vocab("a", "bb", "ccc", "dddd")
	matches, compared, err := f.Search("zz", 0)
	require.NoError(t, err)
	assert.Len(t, matches, 4)
	assert.Equal(t, 4, compared)
}

func TestInvalidThreshold(t *testing.T) {
	f := vocab("login")
	_, _, err := f.Search("login", 1.5)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidThreshold)
	_, _, err = f.Search("login", -0.1)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidThreshold)
}

func TestOrderingScoreThenLexicographic(t *testing.T) {
	// "bat" and "cat" are both distance 1 from "aat"; "aat" itself wins.
	f := vocab("aat", "bat", "cat")
	matches, _, err := f.Search("aat", 0.6)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "aat", matches[0].Term)
	assert.Equal(t, "bat", matches[1].Term)
	assert.Equal(t, "cat", matches[2].Term)
	assert.Equal(t, matches[1].Score, matches[2].Score)
}

func TestLengthPruningNeverDropsValidMatches(t *testing.T) {
	f := vocab("ab", "abcd", "abcdefgh")
	// threshold 0.5 and query length 4: eligible lengths are [2,8].
	matches, _, err := f.Search("abcd", 0.5)
	require.NoError(t, err)
	terms := make([]string, len(matches))
	for i, m := range matches {
		terms[i] = m.Term
	}
	assert.Contains(t, terms, "abcd")
	// "ab" and "abcdefgh" both land exactly on similarity 0.5.
	assert.Contains(t, terms, "ab")
	assert.Contains(t, terms, "abcdefgh")
}

func TestRemoveTermAndEmptyBucket(t *testing.T) {
	f := vocab("login", "log")
	f.RemoveTerm("log")
	f.RemoveTerm("log") // duplicate remove is a no-op
	assert.Equal(t, 1, f.Size())
	matches, _, err := f.Search("log", 0.9)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMaxCandidatesBoundsWork(t *testing.T) {
	f := New(2)
	f.AddTerm("aaa")
	f.AddTerm("aab")
	f.AddTerm("aac")
	f.AddTerm("aad")
	_, compared, err := f.Search("aaa", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, compared)
}

func TestMaxCandidatesScansQueryLengthBucketFirst(t *testing.T) {
	f := New(1)
	f.AddTerm("aaa")
	f.AddTerm("aaaaa")
	// Both lengths are eligible at 0.5, but the bound only allows one
	// comparison: it must be spent on the query's own length bucket.
	matches, compared, err := f.Search("aaa", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, compared)
	require.Len(t, matches, 1)
	assert.Equal(t, "aaa", matches[0].Term)
	assert.Equal(t, 1.0, matches[0].Score)
}

func TestUnicodeLengthsUseRunes(t *testing.T) {
	f := vocab("café")
	matches, _, err := f.Search("cafe", 0.7)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0.75, matches[0].Score, 1e-9)
}
