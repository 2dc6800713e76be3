// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchstore

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// A GCSArchive mirrors a promoted base/ directory to an object in a
// Google Cloud Storage bucket, adapted from storage/app/upload.go's
// *storage.Client usage. This is an opt-in off-box backup of the
// baseline — nothing in the core's comparison logic reads from it; a
// lost or stale mirror never affects analysis correctness.
type GCSArchive struct {
	client *storage.Client
	bucket string
}

// NewGCSArchive constructs a GCSArchive using Application Default
// Credentials, writing objects into bucket.
func NewGCSArchive(ctx context.Context, bucket string) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("benchstore: open GCS client: %w", err)
	}
	return &GCSArchive{client: client, bucket: bucket}, nil
}

// Close releases the underlying GCS client.
func (a *GCSArchive) Close() error { return a.client.Close() }

// UploadBaseline tars up <root>/<dirName>/base/ and uploads it as
// object "<dirName>/base.tar". It is always safe to call after Promote:
// a failure here is the caller's to log, never fatal to the run.
func (a *GCSArchive) UploadBaseline(ctx context.Context, s *Store, dirName string) error {
	baseDir := filepath.Join(s.BenchmarkDir(dirName), baseDirName)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range []string{sampleFileName, estimatesFileName, tukeyFileName, benchmarkFileName} {
		path := filepath.Join(baseDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue // optional files (e.g. benchmark.json) may be absent
		}
		hdr := &tar.Header{Name: name, Size: int64(len(data)), Mode: 0o644}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("benchstore: tar header for %s: %w", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("benchstore: tar write for %s: %w", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("benchstore: close tar for %s: %w", dirName, err)
	}

	obj := a.client.Bucket(a.bucket).Object(dirName + "/base.tar")
	w := obj.NewWriter(ctx)
	if _, err := w.Write(buf.Bytes()); err != nil {
		w.Close()
		return fmt.Errorf("benchstore: upload baseline for %s: %w", dirName, err)
	}
	return w.Close()
}
