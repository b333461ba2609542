package app

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Namer assigns unique destination paths. A path is taken when it already
// exists on disk or when an earlier file in the same batch claimed it; the
// reservation set is scoped to one batch and mutated only here.
//
// With SkipExisting, an on-disk destination is not a collision: the
// candidate is kept unchanged so the executor can skip it, and suffixes
// are assigned only around in-batch reservations. Re-running an identical
// batch then plans the same paths instead of suffixing duplicates.
type Namer struct {
	FS           FileSystem
	SuffixFormat string
	SkipExisting bool

	reserved map[string]bool
}

const defaultSuffixFormat = "_%d"

func NewNamer(fs FileSystem, suffixFormat string, skipExisting bool) *Namer {
	if suffixFormat == "" {
		suffixFormat = defaultSuffixFormat
	}
	return &Namer{
		FS:           fs,
		SuffixFormat: suffixFormat,
		SkipExisting: skipExisting,
		reserved:     make(map[string]bool),
	}
}

// Claim returns candidate unchanged when it is free, otherwise the first
// free suffixed variant (name_1.ext, name_2.ext, ...). The search is
// monotonic from 1, so the result is reproducible for a fixed destination
// snapshot and batch order. The returned path is reserved.
func (n *Namer) Claim(candidate string) (string, error) {
	if !n.reserved[candidate] {
		exists, err := n.FS.Exists(candidate)
		if err != nil {
			return "", err
		}
		if !exists || n.SkipExisting {
			n.reserved[candidate] = true
			return candidate, nil
		}
	}

	dir := filepath.Dir(candidate)
	name := filepath.Base(candidate)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 1; ; i++ {
		suffixed := filepath.Join(dir, base+fmt.Sprintf(n.SuffixFormat, i)+ext)
		taken, err := n.taken(suffixed)
		if err != nil {
			return "", err
		}
		if !taken {
			n.reserved[suffixed] = true
			return suffixed, nil
		}
	}
}

func (n *Namer) taken(path string) (bool, error) {
	if n.reserved[path] {
		return true, nil
	}
	return n.FS.Exists(path)
}
