// Package template parses and resolves destination path templates such as
// "{year}/{month}/{name}{ext}". The placeholder set is fixed; unknown
// placeholders are rejected when the template is parsed, not when it is
// resolved against a file.
package template

import (
	"fmt"
	"path/filepath"
	"strings"

	"mediasort/internal/domain"
)

// Placeholders understood by Resolve. location is optional and resolves to
// an empty segment when the file has no geolocation.
var knownPlaceholders = map[string]bool{
	"year":      true,
	"month":     true,
	"day":       true,
	"name":      true,
	"ext":       true,
	"directory": true,
	"location":  true,
}

type segment struct {
	literal     string
	placeholder string
}

// Template is a parsed destination template.
type Template struct {
	raw      string
	segments []segment
}

func (t Template) String() string {
	return t.raw
}

// Parse validates a raw template string. Malformed or unknown placeholders
// are configuration errors.
func Parse(raw string) (Template, error) {
	if strings.TrimSpace(raw) == "" {
		return Template{}, fmt.Errorf("template is empty")
	}

	var segments []segment
	rest := raw
	for len(rest) > 0 {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.ContainsRune(rest, '}') {
				return Template{}, fmt.Errorf("unmatched '}' in template %q", raw)
			}
			segments = append(segments, segment{literal: rest})
			break
		}
		if open > 0 {
			lit := rest[:open]
			if strings.ContainsRune(lit, '}') {
				return Template{}, fmt.Errorf("unmatched '}' in template %q", raw)
			}
			segments = append(segments, segment{literal: lit})
		}
		rest = rest[open+1:]
		close := strings.IndexByte(rest, '}')
		if close < 0 {
			return Template{}, fmt.Errorf("unclosed '{' in template %q", raw)
		}
		name := rest[:close]
		if !knownPlaceholders[name] {
			return Template{}, fmt.Errorf("unknown placeholder {%s} in template %q", name, raw)
		}
		segments = append(segments, segment{placeholder: name})
		rest = rest[close+1:]
	}

	return Template{raw: raw, segments: segments}, nil
}

// Resolve expands the template against one file. The result is a relative
// path; empty optional segments are collapsed so "a//b" never appears.
func (t Template) Resolve(file domain.File) (string, error) {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.placeholder == "" {
			b.WriteString(seg.literal)
			continue
		}
		value, err := resolvePlaceholder(seg.placeholder, file)
		if err != nil {
			return "", err
		}
		b.WriteString(value)
	}

	resolved := collapseSeparators(b.String())
	if resolved == "" {
		return "", fmt.Errorf("template %q resolved to an empty path for %s", t.raw, file.Record.Name)
	}
	return filepath.FromSlash(resolved), nil
}

func resolvePlaceholder(name string, file domain.File) (string, error) {
	switch name {
	case "year":
		return file.Date.Time.Format("2006"), nil
	case "month":
		return file.Date.Time.Format("01"), nil
	case "day":
		return file.Date.Time.Format("02"), nil
	case "name":
		return file.Record.BaseName, nil
	case "ext":
		return file.Record.Ext, nil
	case "directory":
		dir := filepath.ToSlash(filepath.Dir(file.Record.RelativePath))
		if dir == "." {
			dir = ""
		}
		return dir, nil
	case "location":
		if file.HasLocation() {
			return file.Location.Place, nil
		}
		return "", nil
	default:
		return "", fmt.Errorf("unresolvable placeholder {%s}", name)
	}
}

// collapseSeparators removes the empty path segments left behind by optional
// placeholders that resolved to nothing.
func collapseSeparators(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "/")
}
