package tagmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABC1234", Normalize("abc-1234"))
	assert.Equal(t, "ABC1234", Normalize(" abc 1234 "))
	assert.Equal(t, "7FXK2Q3", Normalize("7fxk2q3"))
	assert.Equal(t, "", Normalize("---"))
	assert.Equal(t, "", Normalize(""))
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, input := range []string{"abc-1234", "ABC1234", "s/n: 7FXK2Q3", "", "  "} {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("ABC1234", "abc-1234"))
	assert.True(t, Matches("abc 1234", "ABC1234"))
	assert.False(t, Matches("ABC1234", "XYZ9999"))
}

func TestMatchesEmptyCandidateNeverMatches(t *testing.T) {
	assert.False(t, Matches("ABC1234", ""))
	assert.False(t, Matches("", ""))
	assert.False(t, Matches("", "---"))
}
