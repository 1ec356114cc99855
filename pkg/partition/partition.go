package partition

// Range is a contiguous, inclusive span of item indices assigned to one
// worker. A Range with Start > End is empty and represents a worker with
// nothing to do.
type Range struct {
	Start int
	End   int
}

// Len returns the number of items in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

// Empty reports whether the range contains no items.
func (r Range) Empty() bool {
	return r.Start > r.End
}

// Contains reports whether i falls within the range.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i <= r.End
}

// Plan splits the item index space [1, count] into parallelism contiguous,
// non-overlapping ranges, ordered by start index. Sizes differ by at most
// one item: the first count%parallelism ranges get the extra item. When
// parallelism exceeds count, the trailing ranges are empty.
//
// Returns nil if count < 0 or parallelism < 1.
func Plan(count, parallelism int) []Range {
	if count < 0 || parallelism < 1 {
		return nil
	}

	base := count / parallelism
	extra := count % parallelism

	ranges := make([]Range, parallelism)
	next := 1
	for w := range ranges {
		size := base
		if w < extra {
			size++
		}
		ranges[w] = Range{Start: next, End: next + size - 1}
		next += size
	}
	return ranges
}
