package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/ligustah/aviary/internal/config"
	"github.com/ligustah/aviary/internal/logging"
	"github.com/ligustah/aviary/internal/progress"
	"github.com/ligustah/aviary/internal/publish"
	"github.com/ligustah/aviary/internal/runner"
	"github.com/ligustah/aviary/internal/tools"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitInvalidArgs    = 2
	ExitToolNotFound   = 3
	ExitPartialFailure = 4
	ExitPublishError   = 5
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("aviary", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to YAML config file")
	workers := fs.Int("workers", 0, "Number of parallel workers (default: processor count)")
	onError := fs.String("on-error", "", "Failure policy: continue or abort")
	showProgress := fs.Bool("progress", false, "Show progress output on stderr")
	publishURL := fs.String("publish", "", "Bucket URL to publish the finished batch to")
	producerPath := fs.String("producer", "", "Producer binary (default: local build, then PATH)")
	converterPath := fs.String("converter", "", "Converter binary (default: PATH)")
	producerDir := fs.String("producer-dir", "", "Working directory for the producer (where it reads ./params)")
	keepIntermediate := fs.Bool("keep-intermediate", false, "Keep intermediate bitmap files")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), `Usage: aviary [options] [<output-dir> [<count>]]

Generate <count> sequentially numbered images into <output-dir> by driving
the external plumage producer and convert transcoder across parallel
workers. Positional arguments omitted on the command line must come from
the config file or environment.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), `
Environment:
  PARALLEL              Worker count override
  AVIARY_OUTPUT_DIR     Output directory
  AVIARY_COUNT          Item count
  AVIARY_PRODUCER       Producer binary path
  AVIARY_CONVERTER      Converter binary path
  AVIARY_ON_ERROR       Failure policy (continue or abort)
  AVIARY_PUBLISH        Publish bucket URL
  AVIARY_LOG_LEVEL      Log level`)
	}

	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help" || args[0] == "help") {
		fs.SetOutput(stdout)
		fs.Usage()
		return ExitSuccess
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}

	// Build config: defaults < file < env < flags and positionals.
	cfg := config.Default()
	if *configPath != "" {
		fileCfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	override := config.Config{
		Workers:          *workers,
		OnError:          config.Policy(*onError),
		Progress:         *showProgress,
		Publish:          *publishURL,
		Producer:         *producerPath,
		Converter:        *converterPath,
		ProducerDir:      *producerDir,
		KeepIntermediate: *keepIntermediate,
		LogLevel:         *logLevel,
	}

	switch fs.NArg() {
	case 0:
	case 1:
		override.OutputDir = fs.Arg(0)
	case 2:
		override.OutputDir = fs.Arg(0)
		count, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			fmt.Fprintf(stderr, "Error: invalid count %q\n", fs.Arg(1))
			return ExitInvalidArgs
		}
		override.Count = count
	default:
		fmt.Fprintf(stderr, "Error: unexpected argument: %s\n", fs.Arg(2))
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg = cfg.Merge(override)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}

	// Children may run with a different working directory, so item paths
	// handed to them must not be relative.
	if abs, err := filepath.Abs(cfg.OutputDir); err == nil {
		cfg.OutputDir = abs
	}

	log := logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: true, Output: stderr})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(stderr, "\n[aviary] Received interrupt, shutting down...")
		cancel()
	}()

	tc, code := resolveToolchain(cfg, stderr)
	if code != ExitSuccess {
		return code
	}

	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{
			TotalItems: cfg.Count,
			Workers:    cfg.Workers,
			OutputDir:  cfg.OutputDir,
			Output:     stderr,
		})
		reporter.Start()
		defer reporter.Stop()
	}

	summary, err := runner.Run(ctx, cfg.OutputDir, cfg.Count, tc, runner.Options{
		Workers:          cfg.Workers,
		OnError:          cfg.OnError,
		KeepIntermediate: cfg.KeepIntermediate,
		Progress:         reporter,
		Completions:      stdout,
		Log:              log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	if failed := summary.Failed(); len(failed) > 0 {
		for _, res := range failed {
			fmt.Fprintf(stderr, "Error: range [%d,%d] stopped after %d items: %v\n",
				res.Range.Start, res.Range.End, res.Completed, res.Err)
		}
		fmt.Fprintf(stderr, "[aviary] Completed %d of %d images\n", summary.Completed(), cfg.Count)
		return ExitPartialFailure
	}

	if cfg.Publish != "" {
		if code := publishBatch(ctx, cfg, stderr); code != ExitSuccess {
			return code
		}
	}

	return ExitSuccess
}

// resolveToolchain locates the producer and converter binaries. A missing
// binary is a fatal configuration error caught before any worker launches.
func resolveToolchain(cfg config.Config, stderr io.Writer) (runner.Toolchain, int) {
	producerPath := absBinaryPath(cfg.Producer)
	if producerPath == "" {
		path, err := tools.LocateProducer(".")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return runner.Toolchain{}, ExitToolNotFound
		}
		producerPath = path
	}

	converterPath := absBinaryPath(cfg.Converter)
	if converterPath == "" {
		path, err := tools.LocateConverter()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return runner.Toolchain{}, ExitToolNotFound
		}
		converterPath = path
	}

	opts := tools.Options{Dir: cfg.ProducerDir}
	return runner.Toolchain{
		Producer:  tools.NewExecProducer(producerPath, opts),
		Converter: tools.NewExecConverter(converterPath, opts),
	}, ExitSuccess
}

// absBinaryPath absolutizes a user-supplied binary path so that setting the
// child's working directory cannot change which binary runs. Bare names
// without a separator keep their PATH-lookup semantics.
func absBinaryPath(path string) string {
	if path == "" || !strings.ContainsRune(path, os.PathSeparator) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// publishBatch uploads the finished batch to the configured bucket.
func publishBatch(ctx context.Context, cfg config.Config, stderr io.Writer) int {
	bucket, err := blob.OpenBucket(ctx, cfg.Publish)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open bucket: %v\n", err)
		return ExitPublishError
	}
	defer bucket.Close()

	manifest, err := publish.Publish(ctx, bucket, cfg.OutputDir, cfg.Count, publish.Options{
		Metadata: map[string]string{"producer": tools.ProducerName},
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitPublishError
	}

	fmt.Fprintf(stderr, "[aviary] Published %d images to %s\n", len(manifest.Files), cfg.Publish)
	return ExitSuccess
}
