package bitcoin

import "math/big"

// CandidateEntry is one validated transaction in the block-assembly working
// set (base spec §3).
type CandidateEntry struct {
	TxID   Hash256 // display order
	Tx     *Transaction
	WTxID  Hash256 // display order
	Weight uint64
	Fee    uint64
}

// densityLess reports whether a's fee density (fee/weight) is strictly less
// than b's, compared by cross-multiplication so no floating point rounding
// ever misorders two close candidates.
func densityLess(a, b CandidateEntry) bool {
	left := new(big.Int).Mul(big.NewInt(int64(a.Fee)), big.NewInt(int64(b.Weight)))
	right := new(big.Int).Mul(big.NewInt(int64(b.Fee)), big.NewInt(int64(a.Weight)))
	return left.Cmp(right) < 0
}

// CandidateSet is the ordered-by-fee-density-descending working set the
// assembler consumes. It is maintained by insertion sort (base spec's
// design note: O(n²), cross-multiplication comparison) rather than a
// one-shot sort, since candidates normally arrive one at a time off the
// verifier.
type CandidateSet struct {
	entries []CandidateEntry
}

// NewCandidateSet returns an empty candidate set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{}
}

// Insert adds e, keeping entries ordered by descending fee density. Ties
// are broken by insertion order: e is placed after every existing entry of
// equal or greater density.
func (s *CandidateSet) Insert(e CandidateEntry) {
	idx := len(s.entries)
	for i, existing := range s.entries {
		if densityLess(existing, e) {
			idx = i
			break
		}
	}
	s.entries = append(s.entries, CandidateEntry{})
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = e
}

// Entries returns the candidate set in fee-density-descending order.
func (s *CandidateSet) Entries() []CandidateEntry {
	return s.entries
}

// Len reports the number of candidates currently held.
func (s *CandidateSet) Len() int {
	return len(s.entries)
}
