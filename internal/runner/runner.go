package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ligustah/aviary/internal/config"
	"github.com/ligustah/aviary/internal/progress"
	"github.com/ligustah/aviary/internal/tools"
	"github.com/ligustah/aviary/pkg/partition"
)

// File naming scheme under the output directory. The producer writes the
// intermediate bitmap next to the final file; the bitmap is removed once the
// conversion succeeds.
const (
	FilePrefix      = "out"
	IntermediateExt = ".bmp"
	FinalExt        = ".png"
)

// Stem returns the extension-less path the producer is invoked with.
func Stem(dir string, id partition.Ident) string {
	return filepath.Join(dir, FilePrefix+id.String())
}

// IntermediatePath returns the transient bitmap path for an item.
func IntermediatePath(dir string, id partition.Ident) string {
	return Stem(dir, id) + IntermediateExt
}

// FinalPath returns the durable output path for an item.
func FinalPath(dir string, id partition.Ident) string {
	return Stem(dir, id) + FinalExt
}

// Toolchain bundles the external collaborators a run drives.
type Toolchain struct {
	Producer  tools.Producer
	Converter tools.Converter
}

// Options configures a batch run.
type Options struct {
	// Workers is the number of parallel workers.
	// Default: runtime.NumCPU()
	Workers int

	// OnError selects the failure policy. With config.ContinueOnError
	// (default) a failing worker stops early while siblings run on; with
	// config.AbortOnError the first failure cancels the whole batch.
	OnError config.Policy

	// KeepIntermediate leaves the bitmap files in place after conversion.
	KeepIntermediate bool

	// Progress is an optional progress reporter.
	Progress *progress.Reporter

	// Completions receives one identifier per line as items finish.
	// Default: os.Stdout
	Completions io.Writer

	// Log is the structured logger. The zero value is a no-op.
	Log zerolog.Logger
}

// WorkerResult is the outcome of one worker's range.
type WorkerResult struct {
	Range     partition.Range
	Completed int
	Err       error
}

// Summary aggregates every worker's outcome. Unlike a bare join, it lets the
// caller report partial failure accurately: which ranges finished, which
// stopped early, and on what error.
type Summary struct {
	Count   int
	Width   int
	Results []WorkerResult
}

// Completed returns the total number of items produced across all workers.
func (s *Summary) Completed() int {
	total := 0
	for _, res := range s.Results {
		total += res.Completed
	}
	return total
}

// Failed returns the results of workers that stopped on an error.
func (s *Summary) Failed() []WorkerResult {
	var failed []WorkerResult
	for _, res := range s.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err returns the most informative worker error, or nil if all succeeded.
// Cancellation errors from sibling workers are skipped in favor of the
// failure that triggered them.
func (s *Summary) Err() error {
	var first error
	for _, res := range s.Results {
		if res.Err == nil {
			continue
		}
		if first == nil {
			first = res.Err
		}
		if !errors.Is(res.Err, context.Canceled) {
			return res.Err
		}
	}
	return first
}

// Run executes the batch: it creates the output directory, partitions
// [1, count] across the configured workers, and drives the per-item pipeline
// (generate, convert, delete intermediate, emit identifier) concurrently, one
// goroutine per range. It blocks until every worker has terminated.
//
// Run returns an error only for setup failures; per-item failures are
// reported through the Summary.
func Run(ctx context.Context, dir string, count int, tc Toolchain, opts Options) (*Summary, error) {
	if count < 1 {
		return nil, errors.New("runner: count must be positive")
	}
	if tc.Producer == nil || tc.Converter == nil {
		return nil, errors.New("runner: producer and converter are required")
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.OnError == "" {
		opts.OnError = config.ContinueOnError
	}
	if opts.Completions == nil {
		opts.Completions = os.Stdout
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.OnError == config.AbortOnError {
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	r := &run{
		dir:   dir,
		width: partition.Width(count),
		tc:    tc,
		opts:  opts,
		emit:  &lockedWriter{w: opts.Completions},
	}

	ranges := partition.Plan(count, opts.Workers)
	results := make([]WorkerResult, len(ranges))

	var wg sync.WaitGroup
	for wi, rng := range ranges {
		wg.Add(1)
		go func(wi int, rng partition.Range) {
			defer wg.Done()
			res := r.worker(runCtx, wi, rng)
			if res.Err != nil && cancel != nil {
				cancel()
			}
			results[wi] = res
		}(wi, rng)
	}
	wg.Wait()

	return &Summary{Count: count, Width: r.width, Results: results}, nil
}

type run struct {
	dir   string
	width int
	tc    Toolchain
	opts  Options
	emit  *lockedWriter
}

// worker runs the per-item pipeline over its range in increasing index
// order. The first item failure stops the worker; remaining items in the
// range are never attempted. An empty range completes immediately without
// touching the toolchain.
func (r *run) worker(ctx context.Context, wi int, rng partition.Range) WorkerResult {
	res := WorkerResult{Range: rng}
	log := r.opts.Log.With().Int("worker", wi).Int("start", rng.Start).Int("end", rng.End).Logger()
	log.Debug().Msg("worker started")

	for i := rng.Start; i <= rng.End; i++ {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		id := partition.NewIdent(i, r.width)
		if err := r.item(ctx, id); err != nil {
			res.Err = fmt.Errorf("item %s: %w", id, err)
			log.Error().Err(err).Str("ident", id.String()).Msg("item failed")
			return res
		}
		res.Completed++
	}

	log.Debug().Int("completed", res.Completed).Msg("worker finished")
	return res
}

// item performs the pipeline for a single identifier: generate the bitmap,
// convert it to the final format, delete the bitmap, and emit the identifier
// as a completion signal. A failing step leaves the item's files as-is.
func (r *run) item(ctx context.Context, id partition.Ident) error {
	if r.opts.Progress != nil {
		r.opts.Progress.ItemStarted()
	}

	err := r.pipeline(ctx, id)
	if r.opts.Progress != nil {
		if err != nil {
			r.opts.Progress.ItemFailed()
		} else {
			r.opts.Progress.ItemCompleted()
		}
	}
	return err
}

func (r *run) pipeline(ctx context.Context, id partition.Ident) error {
	stem := Stem(r.dir, id)

	if err := r.tc.Producer.Generate(ctx, stem); err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	intermediate := stem + IntermediateExt
	if err := r.tc.Converter.Convert(ctx, intermediate, stem+FinalExt); err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	if !r.opts.KeepIntermediate {
		if err := os.Remove(intermediate); err != nil {
			return fmt.Errorf("remove intermediate: %w", err)
		}
	}

	return r.emit.emitLine(id.String())
}

// lockedWriter serializes completion lines from concurrent workers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) emitLine(s string) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err := fmt.Fprintln(lw.w, s)
	return err
}
