package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gocloud.dev/blob"

	"github.com/ligustah/aviary/internal/runner"
	"github.com/ligustah/aviary/pkg/partition"
)

// ManifestName is the object written next to the uploaded images.
const ManifestName = "manifest.json"

// Manifest describes a published batch.
type Manifest struct {
	Count       int               `json:"count"`
	Width       int               `json:"width"`
	Files       []FileInfo        `json:"files"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}

// FileInfo describes a single uploaded image.
type FileInfo struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// Options configures a publish operation.
type Options struct {
	// Prefix is prepended to every object key.
	Prefix string

	// Metadata is caller-defined metadata stored in the manifest.
	Metadata map[string]string
}

// Publish uploads every final image of a completed batch from dir to the
// bucket and writes a manifest describing them. The batch must have fully
// succeeded; partial batches are the caller's responsibility to withhold.
func Publish(ctx context.Context, bucket *blob.Bucket, dir string, count int, opts Options) (*Manifest, error) {
	width := partition.Width(count)
	manifest := &Manifest{
		Count:    count,
		Width:    width,
		Files:    make([]FileInfo, 0, count),
		Metadata: opts.Metadata,
	}

	for i := 1; i <= count; i++ {
		id := partition.NewIdent(i, width)
		path := runner.FinalPath(dir, id)

		info, err := uploadFile(ctx, bucket, opts.Prefix, path)
		if err != nil {
			return nil, fmt.Errorf("publish %s: %w", filepath.Base(path), err)
		}
		manifest.Files = append(manifest.Files, info)
	}

	manifest.CompletedAt = time.Now()

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := bucket.WriteAll(ctx, opts.Prefix+ManifestName, data, nil); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return manifest, nil
}

// uploadFile copies one local file into the bucket, computing its SHA256
// checksum along the way.
func uploadFile(ctx context.Context, bucket *blob.Bucket, prefix, path string) (FileInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileInfo{}, err
	}

	name := filepath.Base(path)
	if err := bucket.WriteAll(ctx, prefix+name, data, nil); err != nil {
		return FileInfo{}, err
	}

	sum := sha256.Sum256(data)
	return FileInfo{
		Name:     name,
		Size:     int64(len(data)),
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// ReadManifest fetches and decodes a previously published manifest.
func ReadManifest(ctx context.Context, bucket *blob.Bucket, prefix string) (*Manifest, error) {
	data, err := bucket.ReadAll(ctx, prefix+ManifestName)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}
