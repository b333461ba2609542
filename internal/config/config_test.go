package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediasort/internal/domain"
)

func TestResolveAppliesDefaults(t *testing.T) {
	cfg := Config{SourceDir: "/photos", DestDir: "/sorted"}

	settings, err := cfg.Resolve()
	require.NoError(t, err)

	assert.Equal(t, domain.OperationCopy, settings.Mode)
	assert.True(t, settings.Allowed.Contains(".jpg"))
	assert.True(t, settings.Allowed.Contains(".mp4"))
	assert.False(t, settings.Allowed.Contains(".txt"))
	assert.Nil(t, settings.StartDate)
	assert.Nil(t, settings.EndDate)

	resolved, err := settings.Template.Resolve(domain.NewGenericFile(
		domain.NewFileRecord("/photos/a.mp4", "a.mp4", 1,
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local))))
	require.NoError(t, err)
	assert.Equal(t, "2024/03/a.mp4", resolved)
}

func TestResolveRequiresSourceAndDest(t *testing.T) {
	t.Setenv("MEDIASORT_SOURCE_DIR", "")
	t.Setenv("MEDIASORT_DEST_DIR", "")

	_, err := Config{}.Resolve()
	assert.Error(t, err)

	_, err = Config{SourceDir: "/photos"}.Resolve()
	assert.Error(t, err)
}

func TestResolveFallsBackToEnvironment(t *testing.T) {
	t.Setenv("MEDIASORT_SOURCE_DIR", "/env/photos")
	t.Setenv("MEDIASORT_DEST_DIR", "/env/sorted")

	settings, err := Config{}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/env/photos", settings.SourceDir)
	assert.Equal(t, "/env/sorted", settings.DestDir)
}

func TestResolveRejectsInvalidTemplate(t *testing.T) {
	cfg := Config{SourceDir: "/a", DestDir: "/b", Template: "{bogus}/{name}"}
	_, err := cfg.Resolve()
	assert.Error(t, err)
}

func TestResolveRejectsInvalidMode(t *testing.T) {
	cfg := Config{SourceDir: "/a", DestDir: "/b", Mode: "shuffle"}
	_, err := cfg.Resolve()
	assert.Error(t, err)
}

func TestResolveParsesDateBounds(t *testing.T) {
	cfg := Config{
		SourceDir: "/a", DestDir: "/b",
		StartDate: "2024-01-01",
		EndDate:   "2024-06-30",
	}

	settings, err := cfg.Resolve()
	require.NoError(t, err)
	require.NotNil(t, settings.StartDate)
	require.NotNil(t, settings.EndDate)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), *settings.StartDate)
	// The end bound is inclusive for the whole day.
	assert.Equal(t, time.Date(2024, 6, 30, 23, 59, 59, 0, time.Local), *settings.EndDate)
}

func TestResolveRejectsInvertedDateRange(t *testing.T) {
	cfg := Config{
		SourceDir: "/a", DestDir: "/b",
		StartDate: "2024-06-01",
		EndDate:   "2024-01-01",
	}
	_, err := cfg.Resolve()
	assert.Error(t, err)
}

func TestResolveRejectsMalformedDates(t *testing.T) {
	cfg := Config{SourceDir: "/a", DestDir: "/b", StartDate: "01/02/2024"}
	_, err := cfg.Resolve()
	assert.Error(t, err)
}

func TestLoadFileFillsOnlyUnsetValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mediasort.yaml")
	content := `source: /file/photos
destination: /file/sorted
template: "{year}/{name}{ext}"
mode: move
dry_run: true
extensions:
  - .jpg
  - .png
workers: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// Flags already set a source and a mode; the file must not override them.
	cfg := Config{SourceDir: "/flag/photos", Mode: "copy"}
	require.NoError(t, LoadFile(path, &cfg))

	assert.Equal(t, "/flag/photos", cfg.SourceDir)
	assert.Equal(t, "copy", cfg.Mode)
	assert.Equal(t, "/file/sorted", cfg.DestDir)
	assert.Equal(t, "{year}/{name}{ext}", cfg.Template)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{".jpg", ".png"}, cfg.Extensions)
	assert.Equal(t, 8, cfg.Workers)
}

func TestLoadFileRejectsMissingFile(t *testing.T) {
	cfg := Config{}
	err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	assert.Error(t, err)
}

func TestLoadFileRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: [unclosed"), 0o644))

	cfg := Config{}
	err := LoadFile(path, &cfg)
	assert.Error(t, err)
}
