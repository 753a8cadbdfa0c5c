package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, Distance("Portal", "portal"))
	assert.Equal(t, 3, Distance("kitten", "sitting"))
	assert.Equal(t, 4, Distance("", "dota"))
	assert.Equal(t, 1, Distance("ação", "acão"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("Half-Life", "half-life"))
	assert.InDelta(t, 1-3.0/7.0, Similarity("kitten", "sitting"), 1e-9)
	assert.Equal(t, 0.0, Similarity("abc", ""))
}

type app struct {
	ID   int
	Name string
}

func appName(a app) string { return a.Name }

func TestBest_ExactMatchShortCircuits(t *testing.T) {
	calls := 0
	name := func(a app) string {
		calls++
		return a.Name
	}
	apps := []app{{1, "Portal 2"}, {2, "Portal"}, {3, "Portal Stories"}}

	m, ok := Best("portal", apps, name, 0.6)
	assert.True(t, ok)
	assert.Equal(t, 2, m.Item.ID)
	assert.Equal(t, 1.0, m.Score)
	assert.Equal(t, 2, calls)
}

func TestBest_PicksHighestAboveThreshold(t *testing.T) {
	apps := []app{{1, "Dota 2"}, {2, "Counter-Strike 2"}, {3, "Counter-Strike"}}

	m, ok := Best("counter strike 2", apps, appName, 0.6)
	assert.True(t, ok)
	assert.Equal(t, 2, m.Item.ID)
}

func TestBest_NothingAboveThreshold(t *testing.T) {
	apps := []app{{1, "Dota 2"}, {2, "Terraria"}}

	_, ok := Best("zzzzzzzz", apps, appName, 0.6)
	assert.False(t, ok)

	_, ok = Best("anything", nil, appName, 0.6)
	assert.False(t, ok)
}

func TestBest_ThresholdIsExclusive(t *testing.T) {
	// "abcde" vs "abxyz": distance 3 over 5 -> similarity 0.4
	// "abcde" vs "abcxy": distance 2 over 5 -> similarity 0.6, not accepted
	apps := []app{{1, "abxyz"}, {2, "abcxy"}}

	_, ok := Best("abcde", apps, appName, 0.6)
	assert.False(t, ok)
}
