package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"mediasort/internal/domain"
)

// step adds or overwrites one attribute on the file under construction.
// A step that cannot extract its attribute leaves it absent and may return
// a warning; it never fails the file.
type step func(ctx context.Context, file *domain.File) (warning string)

// Enricher runs the fixed, ordered sequence of enrichment steps over a
// media file: capture date, location, checksum. Generic files bypass it.
type Enricher struct {
	Metadata     MetadataSource
	Geocoder     Geocoder
	Hasher       Hasher
	WithChecksum bool
}

// Enrich builds the enriched representation of a media record.
func (e *Enricher) Enrich(ctx context.Context, record domain.FileRecord) (domain.File, []string) {
	file := domain.File{
		Kind:   domain.KindMedia,
		Record: record,
	}

	var warnings []string
	for _, s := range e.steps() {
		if warning := s(ctx, &file); warning != "" {
			warnings = append(warnings, warning)
		}
	}
	return file, warnings
}

func (e *Enricher) steps() []step {
	return []step{
		e.dateStep,
		e.locationStep,
		e.checksumStep,
	}
}

// dateStep resolves the capture timestamp: embedded metadata first, then
// filesystem creation time, then modification time, recording provenance.
func (e *Enricher) dateStep(ctx context.Context, file *domain.File) string {
	takenAt, err := e.Metadata.CaptureTime(ctx, file.Record.SourcePath)
	if err == nil {
		file.Date = domain.FileDateTime{Time: takenAt, Source: domain.DateSourceMetadata}
		return ""
	}
	if ctxErr := contextError(err); ctxErr != nil {
		// Cancellation is not a metadata miss; still fall back so the
		// invariant "media files always have a date" holds.
		fallbackDate(file)
		return ""
	}

	fallbackDate(file)
	return fmt.Sprintf("no embedded capture date for %s, using filesystem time", filepath.Base(file.Record.SourcePath))
}

func fallbackDate(file *domain.File) {
	if !file.Record.Created.IsZero() {
		file.Date = domain.FileDateTime{Time: file.Record.Created, Source: domain.DateSourceCreated}
		return
	}
	file.Date = domain.FileDateTime{Time: file.Record.Modified, Source: domain.DateSourceModified}
}

// locationStep extracts embedded GPS coordinates and, when present, asks
// the geocoding collaborator for a place name. Both lookups are
// best-effort.
func (e *Enricher) locationStep(ctx context.Context, file *domain.File) string {
	lat, lon, err := e.Metadata.GPSPosition(ctx, file.Record.SourcePath)
	if err != nil {
		// Absence is the expected state for most files.
		return ""
	}

	location := &domain.GeoLocation{Lat: lat, Lon: lon}
	if e.Geocoder != nil {
		place, err := e.Geocoder.ReverseLookup(ctx, lat, lon)
		if err == nil {
			location.Place = place
		}
	}
	file.Location = location
	return ""
}

// checksumStep hashes content only when checksums are enabled.
func (e *Enricher) checksumStep(_ context.Context, file *domain.File) string {
	if !e.WithChecksum || e.Hasher == nil {
		return ""
	}
	sum, err := e.Hasher.Sum(file.Record.SourcePath)
	if err != nil {
		return fmt.Sprintf("checksum failed for %s: %v", filepath.Base(file.Record.SourcePath), err)
	}
	file.Checksum = sum
	return ""
}

func contextError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
