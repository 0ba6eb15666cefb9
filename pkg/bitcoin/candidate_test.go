package bitcoin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func entry(weight, fee uint64) CandidateEntry {
	return CandidateEntry{Weight: weight, Fee: fee}
}

func TestDensityLess(t *testing.T) {
	low := entry(1000, 10)  // density 0.01
	high := entry(1000, 50) // density 0.05
	assert.True(t, densityLess(low, high))
	assert.False(t, densityLess(high, low))
}

func TestDensityLessCrossMultiplicationAvoidsRounding(t *testing.T) {
	// 1/3 vs 2/6 are equal densities despite not being exactly representable
	// in floating point; cross-multiplication must treat them as equal.
	a := entry(3, 1)
	b := entry(6, 2)
	assert.False(t, densityLess(a, b))
	assert.False(t, densityLess(b, a))
}

func TestCandidateSetOrdersByDescendingDensity(t *testing.T) {
	set := NewCandidateSet()
	set.Insert(entry(1000, 10)) // 0.01
	set.Insert(entry(1000, 50)) // 0.05
	set.Insert(entry(1000, 30)) // 0.03

	entries := set.Entries()
	assert.Equal(t, uint64(50), entries[0].Fee)
	assert.Equal(t, uint64(30), entries[1].Fee)
	assert.Equal(t, uint64(10), entries[2].Fee)
	assert.Equal(t, 3, set.Len())
}

func TestCandidateSetBreaksTiesByInsertionOrder(t *testing.T) {
	set := NewCandidateSet()
	first := entry(1000, 10)
	first.Fee = 10
	second := entry(2000, 20) // same density as first, distinct entry

	set.Insert(first)
	set.Insert(second)

	entries := set.Entries()
	assert.Equal(t, first, entries[0])
	assert.Equal(t, second, entries[1])
}
