// Package testutils provides shared test infrastructure: fake producer and
// converter binaries that stand in for plumage and convert.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteScript creates an executable shell script at dir/name and returns its
// path.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
	return path
}

// FakeProducer returns a producer script that writes a small bitmap to
// <stem>.bmp and a params file to <stem>.params, mimicking plumage's file
// contract.
func FakeProducer(t *testing.T, dir string) string {
	t.Helper()
	return WriteScript(t, dir, "fake-plumage", `echo "bitmap $1" > "$1.bmp"
echo "()" > "$1.params"
`)
}

// FailingProducer returns a producer script that works until it is asked for
// the item whose stem ends in failSuffix, at which point it writes a partial
// bitmap and exits non-zero.
func FailingProducer(t *testing.T, dir, failSuffix string) string {
	t.Helper()
	return WriteScript(t, dir, "failing-plumage", `case "$1" in
*`+failSuffix+`)
	echo "partial" > "$1.bmp"
	exit 1
	;;
esac
echo "bitmap $1" > "$1.bmp"
`)
}

// FakeConverter returns a converter script that copies its input to its
// output, standing in for an image transcoder.
func FakeConverter(t *testing.T, dir string) string {
	t.Helper()
	return WriteScript(t, dir, "fake-convert", `cp "$1" "$2"
`)
}
