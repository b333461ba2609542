package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// DateSource records where a file's resolved timestamp came from.
// Embedded metadata outranks filesystem timestamps.
type DateSource int

const (
	DateSourceMetadata DateSource = iota
	DateSourceCreated
	DateSourceModified
)

func (s DateSource) String() string {
	switch s {
	case DateSourceMetadata:
		return "metadata"
	case DateSourceCreated:
		return "created"
	case DateSourceModified:
		return "modified"
	default:
		return "unknown"
	}
}

// FileDateTime is the single resolved timestamp for a file plus its provenance.
type FileDateTime struct {
	Time   time.Time
	Source DateSource
}

// GeoLocation is an embedded GPS position. Place is the reverse-geocoded
// name and may be empty even when coordinates are present.
type GeoLocation struct {
	Lat   float64
	Lon   float64
	Place string
}

// FileRecord identifies one filesystem entry. Immutable once scanned.
type FileRecord struct {
	SourcePath   string
	RelativePath string
	Name         string
	BaseName     string
	Ext          string
	Size         int64
	Created      time.Time
	Modified     time.Time
}

// NewFileRecord builds a FileRecord from a source path and its path relative
// to the scan root.
func NewFileRecord(sourcePath, relativePath string, size int64, created, modified time.Time) FileRecord {
	name := filepath.Base(sourcePath)
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))

	return FileRecord{
		SourcePath:   sourcePath,
		RelativePath: relativePath,
		Name:         name,
		BaseName:     base,
		Ext:          ext,
		Size:         size,
		Created:      created,
		Modified:     modified,
	}
}

// Kind tags a File as an enrichable media file or an opaque generic one.
type Kind int

const (
	KindMedia Kind = iota
	KindGeneric
)

// File is the enriched representation handed through the pipeline.
// Media files always carry a FileDateTime and may carry a location and a
// checksum; generic files carry only a filesystem-derived FileDateTime so
// date placeholders still resolve.
type File struct {
	Kind     Kind
	Record   FileRecord
	Date     FileDateTime
	Location *GeoLocation
	Checksum string
}

func (f File) HasLocation() bool {
	return f.Location != nil
}

// NewGenericFile wraps a record without running enrichment. The resolved
// date falls back to the filesystem creation time, then modification time.
func NewGenericFile(record FileRecord) File {
	date := FileDateTime{Time: record.Created, Source: DateSourceCreated}
	if record.Created.IsZero() {
		date = FileDateTime{Time: record.Modified, Source: DateSourceModified}
	}
	return File{
		Kind:   KindGeneric,
		Record: record,
		Date:   date,
	}
}

// mediaExtensions are formats the metadata source understands. Entries
// outside this set are classified as generic files.
var mediaExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
	".tiff": true,
	".tif":  true,
	".arw":  true,
	".cr2":  true,
	".cr3":  true,
	".nef":  true,
	".raf":  true,
	".rw2":  true,
	".orf":  true,
	".dng":  true,
}

func IsMediaExtension(ext string) bool {
	return mediaExtensions[strings.ToLower(ext)]
}

// ExtensionSet is a case-insensitive extension allowlist.
type ExtensionSet map[string]bool

// NewExtensionSet normalizes extensions to lowercase with a leading dot.
func NewExtensionSet(exts []string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

func (s ExtensionSet) Contains(ext string) bool {
	return s[strings.ToLower(ext)]
}
