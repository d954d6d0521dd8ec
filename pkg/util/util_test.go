package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemoveDuplicateStrings(t *testing.T) {
	result := RemoveDuplicateStrings([]string{"a", "b", "", "a", "c", "b"}, []string{"c"})

	assert.Equal(t, []string{"a", "b"}, result)
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Nil(t, Chunk([]int{}, 3))
	assert.Equal(t, [][]int{{1, 2, 3}}, Chunk([]int{1, 2, 3}, 0))
}

func TestInPlaceFilter(t *testing.T) {
	values := []int{1, 2, 3, 4, 5, 6}
	InPlaceFilter(&values, func(v int) bool { return v%2 == 0 })

	assert.Equal(t, []int{2, 4, 6}, values)
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Nowy Bieżanów P+R", "nowy"))
	assert.False(t, ContainsFold("Czerwone Maki", "Salwator"))
}

func TestGetEnvironmentDuration(t *testing.T) {
	env := map[string]string{
		"GOOD":     "20s",
		"BAD":      "soon",
		"NEGATIVE": "-5s",
	}

	assert.Equal(t, 20*time.Second, GetEnvironmentDuration(env, "GOOD", time.Minute))
	assert.Equal(t, time.Minute, GetEnvironmentDuration(env, "BAD", time.Minute))
	assert.Equal(t, time.Minute, GetEnvironmentDuration(env, "NEGATIVE", time.Minute))
	assert.Equal(t, time.Minute, GetEnvironmentDuration(env, "MISSING", time.Minute))
}

func TestGetEnvironmentInt(t *testing.T) {
	env := map[string]string{
		"GOOD": "3",
		"BAD":  "three",
	}

	assert.Equal(t, 3, GetEnvironmentInt(env, "GOOD", 5))
	assert.Equal(t, 5, GetEnvironmentInt(env, "BAD", 5))
	assert.Equal(t, 5, GetEnvironmentInt(env, "MISSING", 5))
}
