// Package partition splits a 1-based item index space across a fixed number
// of workers.
//
// [Plan] computes contiguous, non-overlapping ranges that cover [1, count]
// exactly once. The ranges are balanced: no two differ in size by more than
// one item, with the remainder going to the lowest-numbered workers. Because
// ranges are disjoint, workers that derive file paths from item indices never
// touch the same path, which is the only synchronization the caller needs.
//
//	ranges := partition.Plan(7, 3)
//	// [1,3] [4,5] [6,7]
//
// When parallelism exceeds count the same formula yields empty trailing
// ranges; callers should treat an empty [Range] as a no-op assignment rather
// than an error.
//
// # Identifiers
//
// [Ident] pairs an item index with the zero-padding width derived from the
// batch size via [Width], so that "7 of 100" always renders as "007".
package partition
