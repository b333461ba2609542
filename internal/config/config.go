package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mediasort/internal/domain"
	"mediasort/internal/template"
)

// DefaultTemplate sorts files into year/month folders under their own name.
const DefaultTemplate = "{year}/{month}/{name}{ext}"

// DefaultExtensions is the scan allowlist when none is configured. It is
// wider than the media set: videos are processed as generic files.
var DefaultExtensions = []string{
	".jpg", ".jpeg", ".png", ".heic", ".tiff", ".tif",
	".arw", ".cr2", ".cr3", ".nef", ".raf", ".rw2", ".orf", ".dng",
	".mp4", ".mov", ".avi",
}

// Config is the raw user configuration, from flags merged over an optional
// YAML file. All validation happens in Resolve.
type Config struct {
	SourceDir    string   `yaml:"source"`
	DestDir      string   `yaml:"destination"`
	Template     string   `yaml:"template"`
	Mode         string   `yaml:"mode"`
	DryRun       bool     `yaml:"dry_run"`
	SkipExisting bool     `yaml:"skip_existing"`
	Checksum     bool     `yaml:"checksum"`
	Geocode      bool     `yaml:"geocode"`
	Extensions   []string `yaml:"extensions"`
	SuffixFormat string   `yaml:"suffix_format"`
	StartDate    string   `yaml:"start_date"`
	EndDate      string   `yaml:"end_date"`
	LogFile      string   `yaml:"log_file"`
	Workers      int      `yaml:"workers"`
	Verbose      bool     `yaml:"verbose"`
	Plain        bool     `yaml:"plain"`
}

// Settings is the validated, ready-to-wire form of a Config.
type Settings struct {
	Config
	Template  template.Template
	Mode      domain.Operation
	Allowed   domain.ExtensionSet
	StartDate *time.Time
	EndDate   *time.Time
}

// LoadFile reads a YAML config file into cfg. Values already set by flags
// win; the file only fills in zero values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	merge(cfg, fileCfg)
	return nil
}

func merge(dst *Config, src Config) {
	if dst.SourceDir == "" {
		dst.SourceDir = src.SourceDir
	}
	if dst.DestDir == "" {
		dst.DestDir = src.DestDir
	}
	if dst.Template == "" {
		dst.Template = src.Template
	}
	if dst.Mode == "" {
		dst.Mode = src.Mode
	}
	if len(dst.Extensions) == 0 {
		dst.Extensions = src.Extensions
	}
	if dst.SuffixFormat == "" {
		dst.SuffixFormat = src.SuffixFormat
	}
	if dst.StartDate == "" {
		dst.StartDate = src.StartDate
	}
	if dst.EndDate == "" {
		dst.EndDate = src.EndDate
	}
	if dst.LogFile == "" {
		dst.LogFile = src.LogFile
	}
	if dst.Workers == 0 {
		dst.Workers = src.Workers
	}
	dst.DryRun = dst.DryRun || src.DryRun
	dst.SkipExisting = dst.SkipExisting || src.SkipExisting
	dst.Checksum = dst.Checksum || src.Checksum
	dst.Geocode = dst.Geocode || src.Geocode
	dst.Verbose = dst.Verbose || src.Verbose
	dst.Plain = dst.Plain || src.Plain
}

// Resolve validates the configuration. Every error here is fatal at
// startup, before any scanning begins.
func (c Config) Resolve() (Settings, error) {
	if c.SourceDir == "" {
		c.SourceDir = envOrEmpty("MEDIASORT_SOURCE_DIR")
	}
	if c.DestDir == "" {
		c.DestDir = envOrEmpty("MEDIASORT_DEST_DIR")
	}
	if c.SourceDir == "" || c.DestDir == "" {
		return Settings{}, errors.New("source and destination are required")
	}

	if c.Template == "" {
		c.Template = DefaultTemplate
	}
	tmpl, err := template.Parse(c.Template)
	if err != nil {
		return Settings{}, err
	}

	var mode domain.Operation
	switch strings.ToLower(c.Mode) {
	case "", "copy":
		mode = domain.OperationCopy
	case "move":
		mode = domain.OperationMove
	default:
		return Settings{}, fmt.Errorf("invalid mode %q, use copy or move", c.Mode)
	}

	exts := c.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	settings := Settings{
		Config:   c,
		Template: tmpl,
		Mode:     mode,
		Allowed:  domain.NewExtensionSet(exts),
	}

	if c.StartDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", c.StartDate, time.Local)
		if err != nil {
			return Settings{}, errors.New("invalid start date, use YYYY-MM-DD")
		}
		settings.StartDate = &parsed
	}
	if c.EndDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", c.EndDate, time.Local)
		if err != nil {
			return Settings{}, errors.New("invalid end date, use YYYY-MM-DD")
		}
		parsed = parsed.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		settings.EndDate = &parsed
	}
	if settings.StartDate != nil && settings.EndDate != nil && settings.EndDate.Before(*settings.StartDate) {
		return Settings{}, errors.New("end date is before start date")
	}

	return settings, nil
}

func envOrEmpty(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
