// Package runner orchestrates parallel batch image generation.
//
// This package coordinates between the partition planner and the external
// toolchain. [Run] splits [1, count] into one range per worker, launches the
// workers, and joins them, returning a [Summary] of every worker's outcome.
//
// # Worker Pipeline
//
// Each worker walks its range in increasing order and, per item: invokes the
// producer on the item's path stem, converts the resulting bitmap to the
// final format, deletes the bitmap, and emits the zero-padded identifier on
// the completions writer. Parallelism is across workers only; within a range
// items are strictly sequential.
//
// # Failure Semantics
//
// A failing item stops its worker; the item's files are left as they are and
// later items in the range are never attempted. Under the default continue
// policy sibling workers are unaffected, so a failure truncates exactly one
// sub-range. Under the abort policy the first failure cancels the shared
// context and the whole batch winds down at the next item boundary.
//
// Because ranges are disjoint, no two workers ever touch the same path and
// no locking is needed around the output directory.
package runner
