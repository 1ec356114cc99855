// Package progress provides progress reporting for batch runs.
//
// The reporter writes human-readable progress to stderr, leaving stdout free
// for the per-item completion identifier stream. It tracks completed, failed,
// in-progress, and pending item counts with atomics so workers can update it
// without coordination.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    TotalItems: count,
//	    Workers:    workers,
//	    OutputDir:  dir,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// From workers, per item:
//	reporter.ItemStarted()
//	reporter.ItemCompleted() // or ItemFailed()
//
// # Output Format
//
//	[aviary] Generating 500 images into ./out | Workers: 8
//	[aviary] Progress: 45.2% | 226 / 500 images | Rate: 3.1/s | ETA: 1m 28s
//	[aviary] Items: 226 completed | 0 failed | 8 in-progress | 266 pending
package progress
