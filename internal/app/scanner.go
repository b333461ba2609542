package app

import (
	"io/fs"
	"path/filepath"
	"time"

	"mediasort/internal/domain"
	"mediasort/internal/logging"
)

// Scanner walks the source tree and turns allowed entries into FileRecords.
// Entries whose extension is outside the allowlist are never instantiated,
// they do not reach the validator stage at all.
type Scanner struct {
	FS      FileSystem
	Allowed domain.ExtensionSet
	Logger  logging.Logger
}

// scanned pairs a record with its classification so the planner knows which
// enrichment path to take.
type scanned struct {
	record domain.FileRecord
	kind   domain.Kind
}

func (s *Scanner) Scan(root string) ([]scanned, error) {
	stop := s.Logger.Measure("Scanning source directory")
	defer stop()

	var results []scanned
	err := s.FS.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if !s.Allowed.Contains(ext) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}

		record := domain.NewFileRecord(path, rel, info.Size(), created(info), info.ModTime())
		results = append(results, scanned{
			record: record,
			kind:   Classify(record),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Verbosef("Found %d candidate files in %s", len(results), root)
	return results, nil
}

// Classify decides whether a record takes the enrichment path or is wrapped
// as a generic file. Pure classification, no side effects.
func Classify(record domain.FileRecord) domain.Kind {
	if domain.IsMediaExtension(record.Ext) {
		return domain.KindMedia
	}
	return domain.KindGeneric
}

// created returns the filesystem creation time. Go has no portable birth
// time, so the modification time stands in on every platform.
func created(info fs.FileInfo) time.Time {
	return info.ModTime()
}
