package app

import (
	"context"
	"io/fs"
	"time"
)

type FileSystem interface {
	WalkDir(root string, fn fs.WalkDirFunc) error
	Stat(path string) (fs.FileInfo, error)
	Exists(path string) (bool, error)
	MkdirAll(path string, perm fs.FileMode) error
	CopyFile(src, dst string) error
	Rename(src, dst string) error
	Remove(path string) error
}

// MetadataSource extracts embedded attributes from a file's bytes.
// Missing tags are reported as errors the enrichment steps treat as
// absence, not failure.
type MetadataSource interface {
	CaptureTime(ctx context.Context, path string) (time.Time, error)
	GPSPosition(ctx context.Context, path string) (lat, lon float64, err error)
}

// Geocoder resolves coordinates to a place name. Best-effort collaborator;
// its failures never fail a file.
type Geocoder interface {
	ReverseLookup(ctx context.Context, lat, lon float64) (string, error)
}

// Hasher computes a content checksum for a file.
type Hasher interface {
	Sum(path string) (string, error)
}
