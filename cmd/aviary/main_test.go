package main

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ligustah/aviary/internal/testutils"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestHelpExitsZero(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		code, stdout, _ := runCLI(t, arg)
		if code != ExitSuccess {
			t.Errorf("%s: expected exit %d, got %d", arg, ExitSuccess, code)
		}
		if !strings.Contains(stdout, "Usage:") {
			t.Errorf("%s: expected usage on stdout, got %q", arg, stdout)
		}
	}
}

func TestMissingArguments(t *testing.T) {
	code, _, stderr := runCLI(t)
	if code != ExitInvalidArgs {
		t.Errorf("expected exit %d, got %d", ExitInvalidArgs, code)
	}
	if !strings.Contains(stderr, "Usage:") {
		t.Error("expected usage on stderr")
	}
}

func TestInvalidCount(t *testing.T) {
	tests := []string{"birds", "0", "-5"}
	for _, count := range tests {
		code, _, _ := runCLI(t, t.TempDir(), count)
		if code != ExitInvalidArgs {
			t.Errorf("count %q: expected exit %d, got %d", count, ExitInvalidArgs, code)
		}
	}
}

func TestTooManyArguments(t *testing.T) {
	code, _, _ := runCLI(t, "dir", "5", "extra")
	if code != ExitInvalidArgs {
		t.Errorf("expected exit %d, got %d", ExitInvalidArgs, code)
	}
}

func TestUnknownPolicy(t *testing.T) {
	code, _, _ := runCLI(t, "-on-error", "retry", t.TempDir(), "3")
	if code != ExitInvalidArgs {
		t.Errorf("expected exit %d, got %d", ExitInvalidArgs, code)
	}
}

func TestMissingProducerFailsBeforeAnyWork(t *testing.T) {
	// Nothing on PATH and no local build: the preflight must fail before
	// the output directory is even created.
	t.Setenv("PATH", t.TempDir())
	outDir := filepath.Join(t.TempDir(), "out")

	code, _, stderr := runCLI(t, outDir, "5")
	if code != ExitToolNotFound {
		t.Errorf("expected exit %d, got %d", ExitToolNotFound, code)
	}
	if !strings.Contains(stderr, "producer") {
		t.Errorf("expected diagnostic naming the producer, got %q", stderr)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("expected output directory to not exist after preflight failure")
	}
}

func TestFullBatch(t *testing.T) {
	binDir := t.TempDir()
	producer := testutils.FakeProducer(t, binDir)
	converter := testutils.FakeConverter(t, binDir)
	outDir := filepath.Join(t.TempDir(), "out")

	code, stdout, stderr := runCLI(t,
		"-producer", producer,
		"-converter", converter,
		"-workers", "3",
		outDir, "7",
	)
	if code != ExitSuccess {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitSuccess, code, stderr)
	}

	// Seven final files, no intermediates.
	for i := 1; i <= 7; i++ {
		final := filepath.Join(outDir, "out"+string(rune('0'+i))+".png")
		if _, err := os.Stat(final); err != nil {
			t.Errorf("missing final file %s: %v", final, err)
		}
	}
	bmps, _ := filepath.Glob(filepath.Join(outDir, "*.bmp"))
	if len(bmps) != 0 {
		t.Errorf("expected no intermediates, found %v", bmps)
	}

	// Stdout carries all seven identifiers.
	idents := strings.Fields(stdout)
	sort.Strings(idents)
	want := []string{"1", "2", "3", "4", "5", "6", "7"}
	if len(idents) != len(want) {
		t.Fatalf("expected %d identifiers on stdout, got %d", len(want), len(idents))
	}
	for i := range want {
		if idents[i] != want[i] {
			t.Errorf("identifier %d: got %q, want %q", i, idents[i], want[i])
		}
	}
}

func TestProducerFailurePartialExit(t *testing.T) {
	binDir := t.TempDir()
	producer := testutils.FailingProducer(t, binDir, "out04")
	converter := testutils.FakeConverter(t, binDir)
	outDir := filepath.Join(t.TempDir(), "out")

	code, _, stderr := runCLI(t,
		"-producer", producer,
		"-converter", converter,
		"-workers", "1",
		outDir, "10",
	)
	if code != ExitPartialFailure {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitPartialFailure, code, stderr)
	}

	// Items 1-3 exist, the rest never got produced.
	for _, name := range []string{"out01.png", "out02.png", "out03.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing final file %s: %v", name, err)
		}
	}
	finals, _ := filepath.Glob(filepath.Join(outDir, "*.png"))
	if len(finals) != 3 {
		t.Errorf("expected 3 final files, got %d: %v", len(finals), finals)
	}
	if !strings.Contains(stderr, "Completed 3 of 10") {
		t.Errorf("expected partial completion report, got %q", stderr)
	}
}

func TestRelativeProducerPathWithProducerDir(t *testing.T) {
	// A relative -producer must keep working when -producer-dir changes the
	// child's working directory.
	binDir := t.TempDir()
	testutils.FakeProducer(t, binDir)
	converter := testutils.FakeConverter(t, binDir)

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(binDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	code, stdout, stderr := runCLI(t,
		"-producer", "./fake-plumage",
		"-converter", converter,
		"-producer-dir", t.TempDir(),
		filepath.Join(t.TempDir(), "out"), "3",
	)
	if code != ExitSuccess {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitSuccess, code, stderr)
	}
	if got := len(strings.Fields(stdout)); got != 3 {
		t.Errorf("expected 3 identifiers, got %d", got)
	}
}

func TestWorkersFromParallelEnv(t *testing.T) {
	binDir := t.TempDir()
	producer := testutils.FakeProducer(t, binDir)
	converter := testutils.FakeConverter(t, binDir)
	t.Setenv("PARALLEL", "2")

	code, stdout, stderr := runCLI(t,
		"-producer", producer,
		"-converter", converter,
		filepath.Join(t.TempDir(), "out"), "4",
	)
	if code != ExitSuccess {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitSuccess, code, stderr)
	}
	if got := len(strings.Fields(stdout)); got != 4 {
		t.Errorf("expected 4 identifiers, got %d", got)
	}
}

func TestConfigFileProvidesArguments(t *testing.T) {
	binDir := t.TempDir()
	producer := testutils.FakeProducer(t, binDir)
	converter := testutils.FakeConverter(t, binDir)
	outDir := filepath.Join(t.TempDir(), "out")

	configPath := filepath.Join(t.TempDir(), "aviary.yaml")
	content := "output_dir: " + outDir + "\ncount: 3\nworkers: 2\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// No positional arguments at all: everything comes from the file.
	code, stdout, stderr := runCLI(t,
		"-config", configPath,
		"-producer", producer,
		"-converter", converter,
	)
	if code != ExitSuccess {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitSuccess, code, stderr)
	}
	if got := len(strings.Fields(stdout)); got != 3 {
		t.Errorf("expected 3 identifiers, got %d", got)
	}
}
