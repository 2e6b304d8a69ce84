package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/sightline/blobstore"
	"github.com/hupe1980/sightline/blobstore/minio"
	"github.com/hupe1980/sightline/blobstore/s3"
)

// openStore resolves a snapshot location to a store and a blob name.
func openStore(ctx context.Context, location string) (blobstore.BlobStore, string, error) {
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		dir, name := filepath.Split(location)
		if dir == "" {
			dir = "."
		}
		return blobstore.NewLocalStore(dir), name, nil
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return nil, "", usagef("%q: expected %s://bucket/key", location, scheme)
	}

	switch scheme {
	case "s3":
		store, err := s3.New(ctx, bucket)
		if err != nil {
			return nil, "", err
		}
		return store, key, nil
	case "minio":
		endpoint := os.Getenv("MINIO_ENDPOINT")
		if endpoint == "" {
			return nil, "", fmt.Errorf("%q: MINIO_ENDPOINT is not set", location)
		}
		store, err := minio.New(endpoint, bucket, minio.OptionsFromEnv)
		if err != nil {
			return nil, "", err
		}
		return store, key, nil
	default:
		return nil, "", usagef("%q: unsupported scheme %q", location, scheme)
	}
}
