package tools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// LocateProducer resolves the producer binary. A local development build
// under target/release takes precedence over anything on PATH. Returns
// ErrProducerNotFound (wrapped) when neither exists; callers treat this as a
// fatal preflight failure before any worker starts.
//
// The returned path is always absolute: workers may run the binary with a
// different working directory, which would silently re-resolve a relative
// path against that directory.
func LocateProducer(dir string) (string, error) {
	local := filepath.Join(dir, localProducerPath)
	if isExecutable(local) {
		return filepath.Abs(local)
	}

	path, err := exec.LookPath(ProducerName)
	if err != nil {
		return "", fmt.Errorf("%w: checked %s and PATH for %q", ErrProducerNotFound, local, ProducerName)
	}
	return filepath.Abs(path)
}

// LocateConverter resolves the converter binary on PATH. Like
// LocateProducer, the returned path is absolute.
func LocateConverter() (string, error) {
	path, err := exec.LookPath(ConverterName)
	if err != nil {
		return "", fmt.Errorf("%w: checked PATH for %q", ErrConverterNotFound, ConverterName)
	}
	return filepath.Abs(path)
}

// isExecutable reports whether path is a regular file with an execute bit.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
