package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Common errors.
var (
	ErrProducerNotFound  = errors.New("tools: producer binary not found")
	ErrConverterNotFound = errors.New("tools: converter binary not found")
)

// Default binary names and the local build location checked before PATH.
const (
	ProducerName      = "plumage"
	ConverterName     = "convert"
	localProducerPath = "target/release/plumage"
)

// Producer generates one raw image per invocation. Given a path stem it
// writes <stem>.bmp (and a sibling <stem>.params); everything about how the
// image is generated is the producer's business.
type Producer interface {
	Generate(ctx context.Context, stem string) error
}

// Converter transcodes a raw image into the final distributable format.
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

// Options configures the exec-backed collaborators.
type Options struct {
	// Dir is the working directory for child processes. The producer reads
	// its optional ./params seed file relative to this directory.
	// Default: inherit the current directory.
	Dir string

	// Stderr receives child process diagnostics.
	// Default: os.Stderr.
	Stderr io.Writer
}

// ExecProducer runs an external producer binary, one invocation per item.
type ExecProducer struct {
	path string
	opts Options
}

// NewExecProducer wraps the producer binary at path.
func NewExecProducer(path string, opts Options) *ExecProducer {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &ExecProducer{path: path, opts: opts}
}

// Generate invokes the producer with the path stem. A non-zero exit or a
// failure to start surfaces as an error; the producer's stderr is passed
// through unmodified.
func (p *ExecProducer) Generate(ctx context.Context, stem string) error {
	cmd := exec.CommandContext(ctx, p.path, stem)
	cmd.Dir = p.opts.Dir
	cmd.Stderr = p.opts.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("producer %s: %w", filepath.Base(p.path), err)
	}
	return nil
}

// ExecConverter runs an external format converter, one invocation per item.
type ExecConverter struct {
	path string
	opts Options
}

// NewExecConverter wraps the converter binary at path.
func NewExecConverter(path string, opts Options) *ExecConverter {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &ExecConverter{path: path, opts: opts}
}

// Convert invokes the converter with source and destination paths.
func (c *ExecConverter) Convert(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, c.path, src, dst)
	cmd.Dir = c.opts.Dir
	cmd.Stderr = c.opts.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("converter %s: %w", filepath.Base(c.path), err)
	}
	return nil
}
