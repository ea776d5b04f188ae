package data

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSet(t *testing.T) {
	s := make(StringSet)
	s.Insert("b")
	s.Insert("a")
	s.Insert("b")
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("c"))
	assert.Equal(t, []string{"a", "b"}, s.Items())
}

func TestIntSet(t *testing.T) {
	s := NewIntSet(443, 22, 80, 22)
	assert.Len(t, s, 3)
	assert.True(t, s.Contains(80))
	assert.Equal(t, []int{22, 80, 443}, s.Items())
}

func TestHostPairOrdering(t *testing.T) {
	pairs := []HostPair{
		{"10.0.0.2", "10.0.0.1"},
		{"10.0.0.1", "10.0.0.9"},
		{"10.0.0.1", "10.0.0.3"},
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Less(pairs[j]) })
	assert.Equal(t, HostPair{"10.0.0.1", "10.0.0.3"}, pairs[0])
	assert.Equal(t, HostPair{"10.0.0.2", "10.0.0.1"}, pairs[2])
	assert.Equal(t, HostPair{"10.0.0.1", "10.0.0.2"}, pairs[2].Reverse())
}
