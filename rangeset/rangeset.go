// Package rangeset implements RangeSet (spec §3): a finite, ordered,
// possibly non-contiguous set of non-negative integers, used by the Column
// Chunk Reader to restrict iteration to a subset of the logical SNP axis.
//
// Grounded on the original Rust source's OrderedIntegerSet<usize>
// (math::set::ordered_integer_set), re-expressed as a small sorted list of
// half-open intervals with a cumulative-length index for O(log m) rank
// lookups, the way grailbio-bio/interval represents ordered genomic
// intervals.
package rangeset

import (
	"fmt"
	"sort"
)

// Interval is a half-open integer interval [Start, End).
type Interval struct {
	Start, End int
}

func (iv Interval) length() int { return iv.End - iv.Start }

// RangeSet is an ordered, disjoint union of Intervals.
type RangeSet struct {
	intervals []Interval
	prefix    []int // prefix[i] = total length of intervals[:i]
}

// Full returns the RangeSet [0, n).
func Full(n int) RangeSet {
	if n <= 0 {
		return RangeSet{}
	}
	return build([]Interval{{0, n}})
}

// New validates and builds a RangeSet from caller-supplied intervals, which
// must be ordered and disjoint (spec §3: "caller-supplied ordered disjoint
// intervals"). Empty or zero-length intervals are rejected.
func New(intervals []Interval) (RangeSet, error) {
	for i, iv := range intervals {
		if iv.End <= iv.Start {
			return RangeSet{}, fmt.Errorf("rangeset: interval %d is empty or inverted: %+v", i, iv)
		}
		if iv.Start < 0 {
			return RangeSet{}, fmt.Errorf("rangeset: interval %d has negative start: %+v", i, iv)
		}
		if i > 0 && iv.Start < intervals[i-1].End {
			return RangeSet{}, fmt.Errorf("rangeset: interval %d overlaps or precedes interval %d", i, i-1)
		}
	}
	cp := make([]Interval, len(intervals))
	copy(cp, intervals)
	return build(cp), nil
}

func build(intervals []Interval) RangeSet {
	prefix := make([]int, len(intervals)+1)
	for i, iv := range intervals {
		prefix[i+1] = prefix[i] + iv.length()
	}
	return RangeSet{intervals: intervals, prefix: prefix}
}

// Len returns |R|, the number of elements in the set.
func (r RangeSet) Len() int {
	if len(r.prefix) == 0 {
		return 0
	}
	return r.prefix[len(r.prefix)-1]
}

// First returns the smallest element of R, and false if R is empty.
func (r RangeSet) First() (int, bool) {
	if len(r.intervals) == 0 {
		return 0, false
	}
	return r.intervals[0].Start, true
}

// Contains reports whether i is a member of R.
func (r RangeSet) Contains(i int) bool {
	idx := sort.Search(len(r.intervals), func(k int) bool { return r.intervals[k].End > i })
	return idx < len(r.intervals) && r.intervals[idx].Start <= i
}

// At returns the element at the given rank (0-indexed, ascending order).
// The second return is false if rank is out of [0, Len()).
func (r RangeSet) At(rank int) (int, bool) {
	if rank < 0 || rank >= r.Len() {
		return 0, false
	}
	// Find the interval whose prefix range contains rank.
	idx := sort.Search(len(r.intervals), func(k int) bool { return r.prefix[k+1] > rank })
	offset := rank - r.prefix[idx]
	return r.intervals[idx].Start + offset, true
}

// Max returns the greatest element of R, and false if R is empty.
func (r RangeSet) Max() (int, bool) {
	if len(r.intervals) == 0 {
		return 0, false
	}
	return r.intervals[len(r.intervals)-1].End - 1, true
}

// Slice returns the sub-RangeSet comprising the elements at ranks
// [startRank, endRank) of R, preserving order.
func (r RangeSet) Slice(startRank, endRank int) RangeSet {
	if startRank < 0 {
		startRank = 0
	}
	if endRank > r.Len() {
		endRank = r.Len()
	}
	if startRank >= endRank {
		return RangeSet{}
	}
	var out []Interval
	for i, iv := range r.intervals {
		ivStart, ivEnd := r.prefix[i], r.prefix[i+1]
		lo := max(startRank, ivStart)
		hi := min(endRank, ivEnd)
		if lo >= hi {
			continue
		}
		out = append(out, Interval{
			Start: iv.Start + (lo - ivStart),
			End:   iv.Start + (hi - ivStart),
		})
	}
	return build(out)
}

// Iterator walks a RangeSet's elements either forward (ascending rank) or
// backward (descending rank), without allocating the whole sequence.
type Iterator struct {
	r        RangeSet
	forward  bool
	lo, hi   int // remaining rank window [lo, hi), shrinks from either end
}

// Forward returns an iterator over R's elements in ascending rank order.
func (r RangeSet) Forward() *Iterator { return &Iterator{r: r, forward: true, lo: 0, hi: r.Len()} }

// Backward returns an iterator over R's elements in descending rank order.
func (r RangeSet) Backward() *Iterator { return &Iterator{r: r, forward: false, lo: 0, hi: r.Len()} }

// Next returns the next element and true, or (0, false) when exhausted.
func (it *Iterator) Next() (int, bool) {
	if it.lo >= it.hi {
		return 0, false
	}
	if it.forward {
		v, _ := it.r.At(it.lo)
		it.lo++
		return v, true
	}
	it.hi--
	v, _ := it.r.At(it.hi)
	return v, true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
