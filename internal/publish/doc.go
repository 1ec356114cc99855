// Package publish exports a completed batch to object storage.
//
// Uploads go through gocloud.dev/blob, so any supported bucket URL works
// (file://, s3://, gs://, mem:// in tests). Alongside the images a
// manifest.json is written recording per-file sizes and SHA-256 checksums:
//
//	{
//	  "count": 100,
//	  "width": 3,
//	  "files": [
//	    {"name": "out001.png", "size": 48213, "checksum": "..."},
//	    ...
//	  ],
//	  "completed_at": "2026-08-29T10:30:00Z"
//	}
//
// Publishing is strictly post-batch: it runs only after every worker
// succeeded, and a publish failure never touches the local output files.
package publish
