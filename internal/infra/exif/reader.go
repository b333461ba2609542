package exif

import (
	"context"
	"errors"
	"os"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// ErrNotPresent reports that a file carries no usable tag for the requested
// attribute. Absence, not failure: callers fall back and continue.
var ErrNotPresent = errors.New("exif attribute not present")

type Reader struct{}

// CaptureTime extracts the embedded capture timestamp, preferring
// DateTimeOriginal over the generic DateTime tag.
func (Reader) CaptureTime(ctx context.Context, path string) (time.Time, error) {
	x, err := decode(ctx, path)
	if err != nil {
		return time.Time{}, err
	}

	if tag, err := x.Get(goexif.DateTimeOriginal); err == nil {
		if str, err := tag.StringVal(); err == nil {
			parsed, err := time.Parse("2006:01:02 15:04:05", str)
			if err == nil {
				return parsed, nil
			}
		}
	}

	if parsed, err := x.DateTime(); err == nil {
		return parsed, nil
	}

	return time.Time{}, ErrNotPresent
}

// GPSPosition extracts embedded GPS coordinates. Files without GPS tags
// return ErrNotPresent.
func (Reader) GPSPosition(ctx context.Context, path string) (lat, lon float64, err error) {
	x, err := decode(ctx, path)
	if err != nil {
		return 0, 0, err
	}

	lat, lon, err = x.LatLong()
	if err != nil {
		return 0, 0, ErrNotPresent
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, ErrNotPresent
	}
	return lat, lon, nil
}

func decode(ctx context.Context, path string) (*goexif.Exif, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	x, err := goexif.Decode(file)
	if err != nil {
		return nil, ErrNotPresent
	}
	return x, nil
}
